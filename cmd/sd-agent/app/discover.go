// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/DataDog/sd-agent/pkg/autodiscovery"
)

var discoverCommand = &cobra.Command{
	Use:   "discover",
	Short: "Run one discovery pass and print the resolved check configs",
	Long:  ``,
	RunE:  doDiscover,
}

func init() {
	AgentCmd.AddCommand(discoverCommand)
}

func doDiscover(cmd *cobra.Command, args []string) error {
	if flagNoColor {
		color.NoColor = true
	}
	if err := setupConfigAndLogger(); err != nil {
		return err
	}

	backend, err := autodiscovery.NewSDDockerBackend()
	if err != nil {
		return fmt.Errorf("unable to start service discovery: %w", err)
	}

	configs, err := backend.GetConfigs(context.Background())
	if err != nil {
		return fmt.Errorf("discovery pass failed: %w", err)
	}
	if len(configs) == 0 {
		fmt.Println("No check was configured by the service discovery.")
		return nil
	}

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		conf := configs[name]
		color.Cyan("=== check %s ===", name)
		out, err := yaml.Marshal(map[string]interface{}{
			"init_config": conf.InitConfig,
			"instances":   conf.Instances,
		})
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	}
	return nil
}
