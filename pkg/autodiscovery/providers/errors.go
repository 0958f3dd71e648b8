// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package providers

import (
	"errors"
	"fmt"
)

// ErrUnsupportedBackend is returned by the factory when sd_config_backend
// holds a value it doesn't know about. It is fatal at startup.
var ErrUnsupportedBackend = errors.New("unsupported config store backend")

// KeyNotFoundError signals that the backend has no value for a key. It is
// always recoverable: template lookups fall back to auto-conf on it.
type KeyNotFoundError struct {
	Key string
}

func (e KeyNotFoundError) Error() string {
	return fmt.Sprintf("the key %s was not found in the config store", e.Key)
}

// BackendTimeoutError signals that a read against the backend timed out.
// Like absence it triggers the auto-conf fallback, but it is logged louder.
type BackendTimeoutError struct {
	Key string
}

func (e BackendTimeoutError) Error() string {
	return fmt.Sprintf("timed out reading the key %s from the config store", e.Key)
}

// IsKeyNotFound tells whether an error is a key absence signal.
func IsKeyNotFound(err error) bool {
	var knf KeyNotFoundError
	return errors.As(err, &knf)
}

// IsBackendTimeout tells whether an error is a backend timeout signal.
func IsBackendTimeout(err error) bool {
	var bte BackendTimeoutError
	return errors.As(err, &bte)
}
