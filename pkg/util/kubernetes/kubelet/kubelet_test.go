// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package kubelet

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/sd-agent/pkg/config"
)

const routeTable = `Iface	Destination	Gateway 	Flags	RefCnt	Use	Metric	Mask		MTU	Window	IRTT
eth0	000011AC	00000000	0001	0	0	0	0000FFFF	0	0	0
eth0	00000000	010011AC	0003	0	0	0	00000000	0	0	0
`

const podListPayload = `{
  "items": [
    {
      "status": {
        "podIP": "10.244.1.7",
        "containerStatuses": [
          {"name": "redis", "containerID": "docker://e28e48ab5caedebd7566f93ad7b7e36b837b0eee17f6ac4b11e50e24437f4b87"}
        ]
      }
    },
    {
      "status": {
        "containerStatuses": [
          {"name": "pending", "containerID": ""}
        ]
      }
    }
  ]
}`

func TestDefaultRouterFrom(t *testing.T) {
	ip, err := defaultRouterFrom(strings.NewReader(routeTable))
	require.NoError(t, err)
	assert.Equal(t, "172.17.0.1", ip)
}

func TestDefaultRouterFromNoDefaultRoute(t *testing.T) {
	table := "Iface\tDestination\tGateway\neth0\t000011AC\t00000000\n"
	_, err := defaultRouterFrom(strings.NewReader(table))
	assert.Error(t, err)
}

func TestSearchPodIP(t *testing.T) {
	podList := &PodList{
		Items: []*Pod{
			{Status: Status{PodIP: "10.244.1.7", ContainerStatuses: []ContainerStatus{
				{Name: "redis", ID: "docker://e28e48ab5cae"},
			}}},
			{Status: Status{PodIP: "10.244.1.8", ContainerStatuses: []ContainerStatus{
				{Name: "nginx", ID: "docker://deadbeef"},
			}}},
		},
	}

	ip, err := SearchPodIP(podList, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "10.244.1.8", ip)

	_, err = SearchPodIP(podList, "unknown")
	assert.Error(t, err)
}

func TestGetPodIPForContainer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pods", r.URL.Path)
		fmt.Fprint(w, podListPayload)
	}))
	defer ts.Close()

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)

	config.Datadog.Set("kubernetes_kubelet_host", host)
	config.Datadog.Set("kubelet_port", port)
	defer config.Datadog.Set("kubernetes_kubelet_host", "")
	defer config.Datadog.Set("kubelet_port", config.DefaultKubeletPort)

	ip, err := GetPodIPForContainer("e28e48ab5caedebd7566f93ad7b7e36b837b0eee17f6ac4b11e50e24437f4b87")
	require.NoError(t, err)
	assert.Equal(t, "10.244.1.7", ip)

	_, err = GetPodIPForContainer("not-running-here")
	assert.Error(t, err)
}
