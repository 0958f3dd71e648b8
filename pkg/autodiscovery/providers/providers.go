// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package providers implements the pluggable config store the service
// discovery reads check templates from. Exactly one store exists per process;
// it is created lazily from the configuration and the backend type never
// changes at runtime.
package providers

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/DataDog/sd-agent/pkg/autodiscovery/autoconf"
	"github.com/DataDog/sd-agent/pkg/autodiscovery/integration"
	"github.com/DataDog/sd-agent/pkg/config"
	"github.com/DataDog/sd-agent/pkg/util/log"
)

const (
	// Etcd is the config value selecting the etcd backend
	Etcd = "etcd"
	// Consul is the config value selecting the consul backend
	Consul = "consul"
)

// ConfigStore is the uniform read-only accessor over a config store backend.
type ConfigStore interface {
	// ClientRead returns the value stored at key. It fails with a
	// KeyNotFoundError when the backend reports absence and with a
	// BackendTimeoutError on network timeouts, never conflating the two.
	ClientRead(key string) (string, error)
	// GetCheckTemplate fetches the template triple for an image, falling
	// back to the auto-conf catalog on absence or timeout. A nil template
	// with a nil error means the image stays unconfigured, which is a
	// normal outcome. A non-nil error means the store failed in a way
	// auto-conf must not paper over.
	GetCheckTemplate(image string, autoConf bool) (*integration.Template, error)
	// Reset discards and recreates the underlying network client, keeping
	// the same backend type and settings. Used for reconnect-on-failure.
	Reset()
	// String returns the backend name.
	String() string
}

// clientReader is the capability a concrete backend has to provide.
type clientReader interface {
	ClientRead(key string) (string, error)
	Reset()
	String() string
}

// store wires a backend reader to the template lookup and fallback policy.
type store struct {
	reader      clientReader
	templateDir string
	catalog     autoconf.Catalog
}

var (
	globalStore      ConfigStore
	globalStoreMutex sync.Mutex
)

// GetConfigStore returns the process-wide config store, creating it on first
// use from the global configuration.
func GetConfigStore() (ConfigStore, error) {
	globalStoreMutex.Lock()
	defer globalStoreMutex.Unlock()
	if globalStore == nil {
		s, err := NewConfigStore()
		if err != nil {
			return nil, err
		}
		globalStore = s
	}
	return globalStore, nil
}

// ResetConfigStore drops the process-wide store so the next GetConfigStore
// call recreates it. Only meant for tests and full reconfigurations.
func ResetConfigStore() {
	globalStoreMutex.Lock()
	defer globalStoreMutex.Unlock()
	globalStore = nil
}

// NewConfigStore builds a store from the global configuration. An empty
// sd_config_backend yields a stub backend that always reports absence, so
// every lookup falls through to auto-conf.
func NewConfigStore() (ConfigStore, error) {
	backend := config.Datadog.GetString("sd_config_backend")

	var reader clientReader
	var err error
	switch backend {
	case Etcd:
		reader, err = newEtcdReader()
	case Consul:
		reader, err = newConsulReader()
	case "":
		log.Info("No supported configuration backend was provided, using auto-config only.")
		reader = &stubReader{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
	}
	if err != nil {
		return nil, err
	}

	return &store{
		reader:      reader,
		templateDir: config.Datadog.GetString("sd_template_dir"),
		catalog:     autoconf.NewDirCatalog(config.Datadog.GetString("auto_conf_dir")),
	}, nil
}

func (s *store) ClientRead(key string) (string, error) {
	return s.reader.ClientRead(key)
}

func (s *store) Reset() {
	s.reader.Reset()
}

func (s *store) String() string {
	return s.reader.String()
}

// GetCheckTemplate implements the template lookup ladder: user-supplied store
// keys first, then the auto-conf catalog on absence or timeout.
func (s *store) GetCheckTemplate(image string, autoConf bool) (*integration.Template, error) {
	if autoConf {
		// no valid config store was provided, only the catalog applies
		return autoconf.GetTemplate(s.catalog, image), nil
	}

	tpl, err := s.readTemplate(image)
	switch {
	case err == nil:
		return tpl, nil
	case IsKeyNotFound(err):
		log.Infof("Could not find directory %s in the config store, trying to auto-configure the check...", image)
		return autoconf.GetTemplate(s.catalog, image), nil
	case IsBackendTimeout(err):
		log.Warnf("Timed out reading templates for %s from %s, trying to auto-configure the check: %s", image, s.reader, err) //nolint:errcheck
		return autoconf.GetTemplate(s.catalog, image), nil
	default:
		return nil, fmt.Errorf("fetching the template for %s from %s failed: %w", image, s.reader, err)
	}
}

// readTemplate reads the three per-image keys laid out under the template dir.
func (s *store) readTemplate(image string) (*integration.Template, error) {
	base := path.Join(s.templateDir, image)

	checkName, err := s.ClientRead(storeKey(base, "check_name"))
	if err != nil {
		return nil, err
	}
	initConfig, err := s.ClientRead(storeKey(base, "init_config"))
	if err != nil {
		return nil, err
	}
	instance, err := s.ClientRead(storeKey(base, "instance"))
	if err != nil {
		return nil, err
	}

	return &integration.Template{
		CheckName:  checkName,
		InitConfig: initConfig,
		Instance:   instance,
	}, nil
}

// storeKey joins key fragments and strips the leading slash, which neither
// the etcd v2 keys API nor the consul KV API want.
func storeKey(fragments ...string) string {
	return strings.TrimPrefix(path.Join(fragments...), "/")
}
