// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Datadog is the global configuration object
var Datadog *viper.Viper

// DefaultSDTemplateDir is the default root under which check templates are
// stored in the config store.
const DefaultSDTemplateDir = "/datadog/check_configs"

// DefaultSDBackendTimeout bounds every single read against the config store.
const DefaultSDBackendTimeout = 5 * time.Second

// DefaultKubeletPort is the read-only kubelet port exposing the pod list.
const DefaultKubeletPort = 10255

func init() {
	Datadog = viper.New()
	initConfig(Datadog)
}

// initConfig sets defaults and environment bindings on a viper instance.
func initConfig(config *viper.Viper) {
	config.SetConfigName("sd-agent")
	config.SetConfigType("yaml")
	config.SetEnvPrefix("SD")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	// Service discovery settings
	config.SetDefault("sd_config_backend", "")
	config.SetDefault("sd_backend_host", "127.0.0.1")
	config.SetDefault("sd_backend_port", 0)
	config.SetDefault("sd_backend_timeout", DefaultSDBackendTimeout)
	config.SetDefault("sd_template_dir", DefaultSDTemplateDir)

	// etcd specific settings
	config.SetDefault("etcd_allow_reconnect", true)
	config.SetDefault("etcd_protocol", "http")

	// consul specific settings
	config.SetDefault("consul_token", "")
	config.SetDefault("consul_scheme", "http")
	config.SetDefault("consul_consistency", "default")
	config.SetDefault("consul_verify", true)

	// auto-conf catalog
	config.SetDefault("auto_conf_dir", "/etc/sd-agent/auto_conf.d")

	// kubernetes host resolution fallback
	config.SetDefault("kubernetes_kubelet_host", "")
	config.SetDefault("kubelet_port", DefaultKubeletPort)

	// logging
	config.SetDefault("log_level", "info")
}

// Load reads an optional configuration file into the global object. A missing
// file is not an error, defaults and environment variables still apply.
func Load(confPath string) error {
	if confPath != "" {
		Datadog.SetConfigFile(confPath)
	} else {
		Datadog.AddConfigPath("/etc/sd-agent")
		Datadog.AddConfigPath(".")
	}
	err := Datadog.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && confPath == "" {
			return nil
		}
		return err
	}
	return nil
}
