// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	etcd "go.etcd.io/etcd/client/v2"

	"github.com/DataDog/sd-agent/pkg/config"
	"github.com/DataDog/sd-agent/pkg/util/log"
)

type etcdSettings struct {
	host           string
	port           int
	protocol       string
	allowReconnect bool
	timeout        time.Duration
}

// etcdReader reads template keys through the etcd v2 keys API.
type etcdReader struct {
	kapi     etcd.KeysAPI
	settings etcdSettings
	m        sync.Mutex
}

func newEtcdReader() (*etcdReader, error) {
	settings := etcdSettings{
		host:           config.Datadog.GetString("sd_backend_host"),
		port:           config.Datadog.GetInt("sd_backend_port"),
		protocol:       config.Datadog.GetString("etcd_protocol"),
		allowReconnect: config.Datadog.GetBool("etcd_allow_reconnect"),
		timeout:        config.Datadog.GetDuration("sd_backend_timeout"),
	}
	r := &etcdReader{settings: settings}
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *etcdReader) connect() error {
	cl, err := etcd.New(etcd.Config{
		Endpoints:               []string{fmt.Sprintf("%s://%s:%d", r.settings.protocol, r.settings.host, r.settings.port)},
		Transport:               etcd.DefaultTransport,
		HeaderTimeoutPerRequest: r.settings.timeout,
	})
	if err != nil {
		return fmt.Errorf("unable to instantiate the etcd client: %w", err)
	}
	r.kapi = etcd.NewKeysAPI(cl)
	return nil
}

// ClientRead retrieves the value of an etcd key.
func (r *etcdReader) ClientRead(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.settings.timeout)
	defer cancel()

	resp, err := r.kapi.Get(ctx, key, nil)
	if err != nil {
		var etcdErr etcd.Error
		if errors.As(err, &etcdErr) && etcdErr.Code == etcd.ErrorCodeKeyNotFound {
			return "", KeyNotFoundError{Key: key}
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, etcd.ErrClusterUnavailable) {
			if r.settings.allowReconnect {
				r.Reset()
			}
			return "", BackendTimeoutError{Key: key}
		}
		return "", err
	}
	if resp.Node == nil || resp.Node.Dir {
		return "", KeyNotFoundError{Key: key}
	}
	return resp.Node.Value, nil
}

// Reset recreates the etcd client with the same settings.
func (r *etcdReader) Reset() {
	r.m.Lock()
	defer r.m.Unlock()
	if err := r.connect(); err != nil {
		log.Errorf("Failed to reconnect to etcd: %s", err) //nolint:errcheck
	}
}

func (r *etcdReader) String() string {
	return Etcd
}
