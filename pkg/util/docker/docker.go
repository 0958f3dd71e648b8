// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package docker wraps the docker client used to enumerate and inspect the
// containers running on the host.
package docker

import (
	"context"
	"fmt"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

var (
	globalDockerUtil      *DockerUtil
	globalDockerUtilMutex sync.Mutex
)

// DockerUtil wraps a docker client. It is backed by a shared singleton.
type DockerUtil struct {
	cli client.APIClient
}

// GetDockerUtil returns a ready to use DockerUtil.
func GetDockerUtil() (*DockerUtil, error) {
	globalDockerUtilMutex.Lock()
	defer globalDockerUtilMutex.Unlock()
	if globalDockerUtil == nil {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return nil, fmt.Errorf("unable to instantiate the docker client: %w", err)
		}
		globalDockerUtil = &DockerUtil{cli: cli}
	}
	return globalDockerUtil, nil
}

// RawContainerList lists the containers currently running on the host.
func (d *DockerUtil) RawContainerList(ctx context.Context) ([]types.Container, error) {
	return d.cli.ContainerList(ctx, container.ListOptions{})
}

// Inspect returns the low-level information on a container.
func (d *DockerUtil) Inspect(ctx context.Context, id string) (types.ContainerJSON, error) {
	return d.cli.ContainerInspect(ctx, id)
}
