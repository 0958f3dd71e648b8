// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	consul "github.com/hashicorp/consul/api"

	"github.com/DataDog/sd-agent/pkg/config"
	"github.com/DataDog/sd-agent/pkg/util/log"
)

type consulSettings struct {
	host        string
	port        int
	token       string
	scheme      string
	consistency string
	verify      bool
	timeout     time.Duration
}

// consulReader reads template keys through the consul KV API.
type consulReader struct {
	kv       *consul.KV
	settings consulSettings
	m        sync.Mutex
}

func newConsulReader() (*consulReader, error) {
	settings := consulSettings{
		host:        config.Datadog.GetString("sd_backend_host"),
		port:        config.Datadog.GetInt("sd_backend_port"),
		token:       config.Datadog.GetString("consul_token"),
		scheme:      config.Datadog.GetString("consul_scheme"),
		consistency: config.Datadog.GetString("consul_consistency"),
		verify:      config.Datadog.GetBool("consul_verify"),
		timeout:     config.Datadog.GetDuration("sd_backend_timeout"),
	}
	r := &consulReader{settings: settings}
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *consulReader) connect() error {
	cl, err := consul.NewClient(&consul.Config{
		Address: fmt.Sprintf("%s:%d", r.settings.host, r.settings.port),
		Scheme:  r.settings.scheme,
		Token:   r.settings.token,
		TLSConfig: consul.TLSConfig{
			InsecureSkipVerify: !r.settings.verify,
		},
	})
	if err != nil {
		return fmt.Errorf("unable to instantiate the consul client: %w", err)
	}
	r.kv = cl.KV()
	return nil
}

// ClientRead retrieves the value of a consul key.
func (r *consulReader) ClientRead(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.settings.timeout)
	defer cancel()

	opts := &consul.QueryOptions{
		AllowStale:        r.settings.consistency == "stale",
		RequireConsistent: r.settings.consistency == "consistent",
	}

	pair, _, err := r.kv.Get(key, opts.WithContext(ctx))
	if err != nil {
		if isNetTimeout(err) {
			return "", BackendTimeoutError{Key: key}
		}
		return "", err
	}
	if pair == nil {
		return "", KeyNotFoundError{Key: key}
	}
	return string(pair.Value), nil
}

// Reset recreates the consul client with the same settings.
func (r *consulReader) Reset() {
	r.m.Lock()
	defer r.m.Unlock()
	if err := r.connect(); err != nil {
		log.Errorf("Failed to reconnect to consul: %s", err) //nolint:errcheck
	}
}

func (r *consulReader) String() string {
	return Consul
}

func isNetTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
