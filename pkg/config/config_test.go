// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, "", Datadog.GetString("sd_config_backend"))
	assert.Equal(t, "127.0.0.1", Datadog.GetString("sd_backend_host"))
	assert.Equal(t, DefaultSDTemplateDir, Datadog.GetString("sd_template_dir"))
	assert.Equal(t, DefaultSDBackendTimeout, Datadog.GetDuration("sd_backend_timeout"))
	assert.Equal(t, DefaultKubeletPort, Datadog.GetInt("kubelet_port"))
	assert.Equal(t, "http", Datadog.GetString("etcd_protocol"))
	assert.Equal(t, "default", Datadog.GetString("consul_consistency"))
	assert.True(t, Datadog.GetBool("consul_verify"))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sd-agent.yaml")
	content := []byte("sd_config_backend: etcd\nsd_backend_port: 2379\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	require.NoError(t, Load(path))
	defer func() {
		Datadog.Set("sd_config_backend", "")
		Datadog.Set("sd_backend_port", 0)
	}()

	assert.Equal(t, "etcd", Datadog.GetString("sd_config_backend"))
	assert.Equal(t, 2379, Datadog.GetInt("sd_backend_port"))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	assert.Error(t, Load("/nonexistent/sd-agent.yaml"))
}
