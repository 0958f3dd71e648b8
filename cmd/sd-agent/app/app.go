// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DataDog/sd-agent/pkg/config"
	"github.com/DataDog/sd-agent/pkg/util/log"
)

var (
	// AgentCmd is the root command
	AgentCmd = &cobra.Command{
		Use:   "sd-agent [command]",
		Short: "Service discovery for container monitoring checks",
		Long: `
The sd-agent resolves monitoring-check configurations for the containers
running on this host, combining templates from a config store (etcd, consul)
or from the built-in auto-conf catalog with values discovered at runtime.`,
	}

	confFilePath string
	flagNoColor  bool
)

func init() {
	AgentCmd.PersistentFlags().StringVarP(&confFilePath, "cfgpath", "c", "", "path to the sd-agent configuration file")
	AgentCmd.PersistentFlags().BoolVarP(&flagNoColor, "no-color", "n", false, "disable color output")
}

// setupConfigAndLogger loads the configuration file and brings up logging,
// shared by every subcommand.
func setupConfigAndLogger() error {
	if err := config.Load(confFilePath); err != nil {
		return fmt.Errorf("unable to set up global sd-agent configuration: %w", err)
	}
	if err := log.SetupDefaultLogger(config.Datadog.GetString("log_level")); err != nil {
		return fmt.Errorf("unable to set up logging: %w", err)
	}
	return nil
}
