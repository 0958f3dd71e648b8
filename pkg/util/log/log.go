// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package log

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/cihub/seelog"
)

var (
	logger *DatadogLogger
	mu     sync.RWMutex
)

// DatadogLogger wrapper structure for seelog
type DatadogLogger struct {
	inner seelog.LoggerInterface
	level seelog.LogLevel
	l     sync.RWMutex
}

// SetupDatadogLogger configures the logger singleton with a seelog interface
func SetupDatadogLogger(l seelog.LoggerInterface, level string) {
	mu.Lock()
	defer mu.Unlock()

	lvl, ok := seelog.LogLevelFromString(level)
	if !ok {
		lvl = seelog.InfoLvl
	}

	// We only use the stack-depth aware API below, the two frames of this
	// package have to be skipped to point logs at the original caller.
	l.SetAdditionalStackDepth(2) //nolint:errcheck

	logger = &DatadogLogger{
		inner: l,
		level: lvl,
	}
}

// ChangeLogLevel changes the current log level, valid levels are trace, debug,
// info, warn, error and critical.
func ChangeLogLevel(level string) error {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		return fmt.Errorf("cannot change loglevel: logger not initialized")
	}
	lvl, ok := seelog.LogLevelFromString(level)
	if !ok {
		return fmt.Errorf("unknown log level: %s", level)
	}
	logger.l.Lock()
	defer logger.l.Unlock()
	logger.level = lvl
	return nil
}

func getLogger() *DatadogLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func (sw *DatadogLogger) shouldLog(level seelog.LogLevel) bool {
	sw.l.RLock()
	defer sw.l.RUnlock()
	return level >= sw.level
}

// Debug logs at the debug level
func Debug(v ...interface{}) {
	if sw := getLogger(); sw != nil && sw.shouldLog(seelog.DebugLvl) {
		sw.inner.Debug(v...)
	}
}

// Debugf logs with format at the debug level
func Debugf(format string, params ...interface{}) {
	if sw := getLogger(); sw != nil && sw.shouldLog(seelog.DebugLvl) {
		sw.inner.Debugf(format, params...)
	}
}

// Info logs at the info level
func Info(v ...interface{}) {
	if sw := getLogger(); sw != nil && sw.shouldLog(seelog.InfoLvl) {
		sw.inner.Info(v...)
	}
}

// Infof logs with format at the info level
func Infof(format string, params ...interface{}) {
	if sw := getLogger(); sw != nil && sw.shouldLog(seelog.InfoLvl) {
		sw.inner.Infof(format, params...)
	}
}

// Warn logs at the warn level and returns an error containing the formated log message
func Warn(v ...interface{}) error {
	if sw := getLogger(); sw != nil && sw.shouldLog(seelog.WarnLvl) {
		sw.inner.Warn(v...) //nolint:errcheck
	}
	return errors.New(fmt.Sprint(v...))
}

// Warnf logs with format at the warn level and returns an error containing the formated log message
func Warnf(format string, params ...interface{}) error {
	if sw := getLogger(); sw != nil && sw.shouldLog(seelog.WarnLvl) {
		sw.inner.Warnf(format, params...) //nolint:errcheck
	}
	return fmt.Errorf(format, params...)
}

// Error logs at the error level and returns an error containing the formated log message
func Error(v ...interface{}) error {
	if sw := getLogger(); sw != nil && sw.shouldLog(seelog.ErrorLvl) {
		sw.inner.Error(v...) //nolint:errcheck
	}
	return errors.New(fmt.Sprint(v...))
}

// Errorf logs with format at the error level and returns an error containing the formated log message
func Errorf(format string, params ...interface{}) error {
	if sw := getLogger(); sw != nil && sw.shouldLog(seelog.ErrorLvl) {
		sw.inner.Errorf(format, params...) //nolint:errcheck
	}
	return fmt.Errorf(format, params...)
}

// Flush flushes the underlying inner log
func Flush() {
	if sw := getLogger(); sw != nil {
		sw.inner.Flush()
	}
}

// SetupDefaultLogger sets up a console logger at the given level. It is used
// by binaries that have no logging section in their configuration and as a
// safety net in tests.
func SetupDefaultLogger(level string) error {
	l, err := seelog.LoggerFromWriterWithMinLevelAndFormat(
		os.Stdout, seelog.TraceLvl,
		"%Date(2006-01-02 15:04:05 MST) | %LEVEL | (%ShortFilePath:%Line in %FuncShort) | %Msg%n")
	if err != nil {
		return err
	}
	SetupDatadogLogger(l, level)
	return nil
}
