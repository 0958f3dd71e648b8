// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package main

import (
	"os"

	"github.com/DataDog/sd-agent/cmd/sd-agent/app"
	"github.com/DataDog/sd-agent/pkg/util/log"
)

func main() {
	defer log.Flush()

	if err := app.AgentCmd.Execute(); err != nil {
		log.Error(err) //nolint:errcheck
		os.Exit(-1)
	}
}
