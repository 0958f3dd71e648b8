// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package configresolver

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/docker/docker/api/types"
	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/sd-agent/pkg/autodiscovery/integration"
)

func newInspect(id string) types.ContainerJSON {
	return types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{ID: id},
		Config:            &dockercontainer.Config{},
		NetworkSettings:   &types.NetworkSettings{},
	}
}

func TestExtractPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{
			name: "none",
			raw:  []string{"{}", `{"foo": "bar"}`},
			want: []string{},
		},
		{
			name: "distinct across strings",
			raw:  []string{`{"host": "%%host%%"}`, `{"port": "%%port%%", "host": "%%host%%"}`},
			want: []string{"host", "port"},
		},
		{
			name: "custom names",
			raw:  []string{`{"password": "%%password%%"}`},
			want: []string{"password"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPlaceholders(tt.raw...))
		})
	}
}

func TestGetHostFromInspect(t *testing.T) {
	inspect := newInspect("c1")
	inspect.NetworkSettings.IPAddress = "172.17.0.2"

	host, err := getHost(inspect)
	require.NoError(t, err)
	assert.Equal(t, "172.17.0.2", host)
}

func TestGetHostKubernetesFallback(t *testing.T) {
	origGetPodIP := getPodIP
	defer func() { getPodIP = origGetPodIP }()

	getPodIP = func(cid string) (string, error) {
		if cid == "c1" {
			return "10.244.1.7", nil
		}
		return "", errors.New("no pod found")
	}

	host, err := getHost(newInspect("c1"))
	require.NoError(t, err)
	assert.Equal(t, "10.244.1.7", host)

	_, err = getHost(newInspect("c2"))
	assert.Error(t, err)
}

func TestGetPort(t *testing.T) {
	tests := []struct {
		name     string
		ports    nat.PortMap
		exposed  nat.PortSet
		want     string
		wantErr  bool
	}{
		{
			name:  "mapped port",
			ports: nat.PortMap{"6379/tcp": nil},
			want:  "6379",
		},
		{
			name:  "lowest mapped port wins",
			ports: nat.PortMap{"8443/tcp": nil, "8080/tcp": nil},
			want:  "8080",
		},
		{
			name:    "exposed port fallback",
			exposed: nat.PortSet{"9200/tcp": {}, "9300/tcp": {}},
			want:    "9200",
		},
		{
			name:    "no port at all",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inspect := newInspect("c1")
			inspect.NetworkSettings.Ports = tt.ports
			inspect.Config.ExposedPorts = tt.exposed

			port, err := getPort(inspect)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, port)
		})
	}
}

func TestConfigSpacePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		env    []string
		labels map[string]string
		want   map[string]string
	}{
		{
			name:   "env wins when check_name is in both",
			env:    []string{"datadog_check_name=redisdb", "datadog_password=fromenv", "PATH=/usr/bin"},
			labels: map[string]string{"datadog_check_name": "redisdb", "datadog_password": "fromlabels"},
			want:   map[string]string{"check_name": "redisdb", "password": "fromenv"},
		},
		{
			name:   "labels used when env has no check_name",
			env:    []string{"datadog_password=fromenv"},
			labels: map[string]string{"datadog_check_name": "redisdb", "datadog_password": "fromlabels"},
			want:   map[string]string{"check_name": "redisdb", "password": "fromlabels"},
		},
		{
			name:   "no source without check_name",
			env:    []string{"datadog_password=fromenv"},
			labels: map[string]string{"datadog_password": "fromlabels"},
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &dockercontainer.Config{Env: tt.env, Labels: tt.labels}
			got := configSpace(conf)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractValues(t *testing.T) {
	inspect := newInspect("c1")
	inspect.NetworkSettings.IPAddress = "172.17.0.2"
	inspect.NetworkSettings.Ports = nat.PortMap{"6379/tcp": nil}
	inspect.Config.Env = []string{"datadog_check_name=redisdb", "datadog_password=hunter2"}

	values := ExtractValues([]string{"host", "port", "password", "missing"}, inspect)
	assert.Equal(t, "172.17.0.2", values["host"])
	assert.Equal(t, "6379", values["port"])
	assert.Equal(t, "hunter2", values["password"])
	_, found := values["missing"]
	assert.False(t, found, "an unresolvable placeholder stays undefined")
}

func TestRender(t *testing.T) {
	initTpl := integration.Data{}
	instanceTpl := integration.Data{"host": "%%host%%", "port": "%%port%%"}
	vars := map[string]string{"host": "10.0.0.5", "port": "6379"}

	initConfig, instance := Render(initTpl, instanceTpl, vars, "c1")
	assert.Equal(t, integration.Data{}, initConfig)
	assert.Equal(t, integration.Data{"host": "10.0.0.5", "port": "6379"}, instance)
}

func TestRenderIsTotal(t *testing.T) {
	instanceTpl := integration.Data{
		"host":  "%%host%%",
		"extra": "%%undefined%%",
		"empty": "%%emptyvar%%",
	}
	vars := map[string]string{"host": "10.0.0.5", "emptyvar": ""}

	_, instance := Render(integration.Data{}, instanceTpl, vars, "c1")
	assert.Equal(t, "10.0.0.5", instance["host"])
	assert.Equal(t, "", instance["extra"], "undefined variables render to the empty string")
	assert.Equal(t, "", instance["empty"], "empty values render to the empty string")
}

func TestRenderNested(t *testing.T) {
	instanceTpl := integration.Data{
		"url": "http://%%host%%:%%port%%",
		"tags": []interface{}{"env:prod", "addr:%%host%%"},
		"options": map[string]interface{}{
			"target": "%%host%%",
			"count":  float64(3),
		},
	}
	vars := map[string]string{"host": "10.0.0.5", "port": "6379"}

	_, instance := Render(integration.Data{}, instanceTpl, vars, "c1")
	assert.Equal(t, "http://10.0.0.5:6379", instance["url"])
	assert.Equal(t, []interface{}{"env:prod", "addr:10.0.0.5"}, instance["tags"])
	assert.Equal(t, "10.0.0.5", instance["options"].(map[string]interface{})["target"])
	assert.Equal(t, float64(3), instance["options"].(map[string]interface{})["count"])
}

func TestRenderIdempotent(t *testing.T) {
	instanceTpl := integration.Data{"host": "%%host%%", "port": "%%port%%", "tags": []interface{}{"%%host%%"}}
	vars := map[string]string{"host": "10.0.0.5", "port": "6379"}

	_, first := Render(integration.Data{}, instanceTpl, vars, "c1")
	_, second := Render(integration.Data{}, instanceTpl, vars, "c1")

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestRenderDoesNotMutateTemplate(t *testing.T) {
	instanceTpl := integration.Data{"host": "%%host%%"}
	vars := map[string]string{"host": "10.0.0.5"}

	Render(integration.Data{}, instanceTpl, vars, "c1")
	assert.Equal(t, "%%host%%", instanceTpl["host"])
}
