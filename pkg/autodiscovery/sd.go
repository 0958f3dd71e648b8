// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package autodiscovery turns the containers running on the host into
// materialized check configurations, combining templates from the config
// store (or the auto-conf catalog) with values extracted at runtime.
package autodiscovery

import (
	"context"
	"strings"

	"github.com/docker/docker/api/types"

	"github.com/DataDog/sd-agent/pkg/autodiscovery/configresolver"
	"github.com/DataDog/sd-agent/pkg/autodiscovery/integration"
	"github.com/DataDog/sd-agent/pkg/autodiscovery/providers"
	"github.com/DataDog/sd-agent/pkg/config"
	"github.com/DataDog/sd-agent/pkg/util/docker"
	"github.com/DataDog/sd-agent/pkg/util/log"
)

// ContainerLister is the slice of the docker client the backend needs.
type ContainerLister interface {
	RawContainerList(ctx context.Context) ([]types.Container, error)
	Inspect(ctx context.Context, id string) (types.ContainerJSON, error)
}

// SDDockerBackend resolves check configs for the docker containers running on
// the host. At most one discovery pass is expected in flight at a time.
type SDDockerBackend struct {
	store    providers.ConfigStore
	docker   ContainerLister
	hasStore bool
}

// NewSDDockerBackend builds a backend from the global configuration. It fails
// when the configured store backend is unsupported or unreachable, or when no
// docker client can be created.
func NewSDDockerBackend() (*SDDockerBackend, error) {
	store, err := providers.GetConfigStore()
	if err != nil {
		return nil, err
	}
	du, err := docker.GetDockerUtil()
	if err != nil {
		return nil, err
	}
	return &SDDockerBackend{
		store:    store,
		docker:   du,
		hasStore: config.Datadog.GetString("sd_config_backend") != "",
	}, nil
}

// GetConfigs runs one discovery pass: it resolves a check config for every
// running container and aggregates them by check name. A container that can't
// be configured is skipped, never an error for the whole pass.
func (b *SDDockerBackend) GetConfigs(ctx context.Context) (map[string]*integration.Config, error) {
	containers, err := b.docker.RawContainerList(ctx)
	if err != nil {
		return nil, err
	}

	configs := make(map[string]*integration.Config)
	for _, c := range containers {
		image := strings.SplitN(c.Image, ":", 2)[0]
		conf := b.getCheckConfig(ctx, c.ID, image)
		if conf == nil {
			continue
		}

		existing, found := configs[conf.Name]
		if !found {
			configs[conf.Name] = conf
			continue
		}
		// all instances of one check share the init_config seen first
		if !existing.InitConfig.Equal(conf.InitConfig) {
			log.Warnf("different versions of `init_config` found for check %s. Keeping the first one found.", conf.Name) //nolint:errcheck
		}
		existing.Instances = append(existing.Instances, conf.Instances...)
	}

	log.Debugf("check configs: %v", configs)
	return configs, nil
}

// getCheckConfig retrieves a configuration template for one container and
// fills it with data pulled from docker. A nil return means the container is
// left unconfigured.
func (b *SDDockerBackend) getCheckConfig(ctx context.Context, cid, image string) *integration.Config {
	tpl := b.getTemplateConfig(image)
	if tpl == nil {
		log.Debugf("Template config is nil, container %s with image %s will be left unconfigured.", cid, image)
		return nil
	}

	inspect, err := b.docker.Inspect(ctx, cid)
	if err != nil {
		log.Warnf("Failed to inspect container %s, it will be left unconfigured: %s", cid, err) //nolint:errcheck
		return nil
	}

	values := configresolver.ExtractValues(tpl.variables, inspect)
	initConfig, instance := configresolver.Render(tpl.initConfig, tpl.instance, values, cid)

	return &integration.Config{
		Name:       tpl.checkName,
		InitConfig: initConfig,
		Instances:  []integration.Data{instance},
	}
}

// templateConfig is a fetched template decoded and ready to render.
type templateConfig struct {
	checkName  string
	initConfig integration.Data
	instance   integration.Data
	variables  []string
}

// getTemplateConfig fetches and decodes the template for an image. The store
// is tried first unless no backend is configured at all, in which case only
// the auto-conf catalog applies.
func (b *SDDockerBackend) getTemplateConfig(image string) *templateConfig {
	tpl, err := b.store.GetCheckTemplate(image, !b.hasStore)
	if err != nil {
		log.Infof("Fetching the template for %s in the config store failed, "+
			"this check will not be configured by the service discovery: %s", image, err)
		return nil
	}
	if tpl == nil {
		return nil
	}

	initConfig, err := integration.ParseData(tpl.InitConfig)
	if err != nil {
		log.Errorf("Failed to decode the JSON template fetched from %s/%s/init_config. Auto-config for %s failed: %s", //nolint:errcheck
			config.Datadog.GetString("sd_template_dir"), image, image, err)
		return nil
	}
	instance, err := integration.ParseData(tpl.Instance)
	if err != nil {
		log.Errorf("Failed to decode the JSON template fetched from %s/%s/instance. Auto-config for %s failed: %s", //nolint:errcheck
			config.Datadog.GetString("sd_template_dir"), image, image, err)
		return nil
	}

	return &templateConfig{
		checkName:  tpl.CheckName,
		initConfig: initConfig,
		instance:   instance,
		variables:  configresolver.ExtractPlaceholders(tpl.InitConfig, tpl.Instance),
	}
}
