// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package providers

// stubReader is used when no valid config store was configured. Every read
// reports absence so template lookups always fall through to auto-conf.
type stubReader struct{}

func (r *stubReader) ClientRead(key string) (string, error) {
	return "", KeyNotFoundError{Key: key}
}

func (r *stubReader) Reset() {}

func (r *stubReader) String() string {
	return "stub"
}
