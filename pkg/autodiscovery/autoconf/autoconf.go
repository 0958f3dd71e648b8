// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package autoconf holds the built-in fallback templates used when no config
// store has an entry for a container image.
package autoconf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"

	"github.com/DataDog/sd-agent/pkg/autodiscovery/integration"
	"github.com/DataDog/sd-agent/pkg/util/log"
)

// AutoConfImages maps known container images (bare name, no tag or registry)
// to the check able to monitor them out of the box.
var AutoConfImages = map[string]string{
	"redis":         "redisdb",
	"nginx":         "nginx",
	"consul":        "consul",
	"elasticsearch": "elastic",
}

// Catalog exposes the auto-conf templates shipped with the agent.
type Catalog interface {
	// HasCheck tells whether a check of that name is known to the catalog.
	HasCheck(checkName string) bool
	// GetAutoConf returns the JSON-encoded init_config and first instance of
	// the auto-conf template for a check.
	GetAutoConf(checkName string) (initConfig, instance string, err error)
}

// autoConfFile mirrors the layout of an auto_conf.d yaml template.
type autoConfFile struct {
	InitConfig map[string]interface{}   `yaml:"init_config"`
	Instances  []map[string]interface{} `yaml:"instances"`
}

// DirCatalog loads templates from <dir>/<check_name>.yaml files.
type DirCatalog struct {
	dir string
}

// NewDirCatalog returns a catalog backed by a directory of yaml templates.
func NewDirCatalog(dir string) *DirCatalog {
	return &DirCatalog{dir: dir}
}

// HasCheck reports whether a template file exists for the check.
func (c *DirCatalog) HasCheck(checkName string) bool {
	_, err := os.Stat(filepath.Join(c.dir, checkName+".yaml"))
	return err == nil
}

// GetAutoConf loads the yaml template for a check and re-encodes the
// init_config and the first instance as JSON strings, so catalog templates go
// through the exact same rendering path as store-fetched ones.
func (c *DirCatalog) GetAutoConf(checkName string) (string, string, error) {
	path := filepath.Join(c.dir, checkName+".yaml")
	content, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}

	var tpl autoConfFile
	if err := yaml.Unmarshal(content, &tpl); err != nil {
		return "", "", fmt.Errorf("unable to parse auto-conf template %s: %w", path, err)
	}
	if len(tpl.Instances) == 0 {
		return "", "", fmt.Errorf("auto-conf template %s has no instances", path)
	}

	initConfig, err := json.Marshal(normalizeMap(tpl.InitConfig))
	if err != nil {
		return "", "", err
	}
	instance, err := json.Marshal(normalizeMap(tpl.Instances[0]))
	if err != nil {
		return "", "", err
	}
	return string(initConfig), string(instance), nil
}

// normalizeMap converts the nested map[interface{}]interface{} values produced
// by yaml.v2 into map[string]interface{} so they can be marshaled to JSON.
func normalizeMap(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch e := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(e))
		for k, vv := range e {
			out[fmt.Sprintf("%v", k)] = normalizeValue(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(e))
		for i, vv := range e {
			out[i] = normalizeValue(vv)
		}
		return out
	default:
		return v
	}
}

// GetTemplate resolves the auto-conf template for an image through a catalog.
// It returns nil when the image is unknown or the catalog has no usable
// template, which callers treat as "leave the container unconfigured".
func GetTemplate(catalog Catalog, imageName string) *integration.Template {
	checkName, found := AutoConfImages[imageName]
	if !found {
		log.Debugf("No auto config was found for image %s, leaving it alone.", imageName)
		return nil
	}
	if !catalog.HasCheck(checkName) {
		log.Infof("Could not find an auto configuration template for %s. Leaving it unconfigured.", imageName)
		return nil
	}
	initConfig, instance, err := catalog.GetAutoConf(checkName)
	if err != nil {
		log.Infof("Could not load the auto configuration template for %s: %s", imageName, err)
		return nil
	}
	return &integration.Template{
		CheckName:  checkName,
		InitConfig: initConfig,
		Instance:   instance,
	}
}
