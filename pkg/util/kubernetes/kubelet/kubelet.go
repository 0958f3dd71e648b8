// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package kubelet resolves pod IPs through the kubelet read-only API for
// containers attached to an orchestrator-managed network, where docker
// inspect has no usable IP address.
package kubelet

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DataDog/sd-agent/pkg/config"
	"github.com/DataDog/sd-agent/pkg/util/log"
)

const procNetRoutePath = "/proc/net/route"

var httpClient = &http.Client{Timeout: 10 * time.Second}

// PodList is the document returned by the kubelet /pods endpoint, reduced to
// the fields the service discovery needs.
type PodList struct {
	Items []*Pod `json:"items"`
}

// Pod is one entry of the kubelet pod list.
type Pod struct {
	Status Status `json:"status"`
}

// Status is the pod status block.
type Status struct {
	PodIP             string            `json:"podIP"`
	ContainerStatuses []ContainerStatus `json:"containerStatuses"`
}

// ContainerStatus carries the runtime-prefixed container identifier, e.g.
// "docker://<id>".
type ContainerStatus struct {
	Name string `json:"name"`
	ID   string `json:"containerID"`
}

// GetPodIPForContainer queries the node's kubelet pod list and returns the IP
// of the pod owning the given container id.
func GetPodIPForContainer(containerID string) (string, error) {
	host, err := kubeletHost()
	if err != nil {
		return "", err
	}
	port := config.Datadog.GetInt("kubelet_port")

	podList, err := getPodList(fmt.Sprintf("http://%s/pods", net.JoinHostPort(host, strconv.Itoa(port))))
	if err != nil {
		return "", err
	}
	return SearchPodIP(podList, containerID)
}

// SearchPodIP scans a pod list for the pod whose container statuses reference
// the given container id and returns its IP.
func SearchPodIP(podList *PodList, containerID string) (string, error) {
	for _, pod := range podList.Items {
		if pod.Status.PodIP == "" {
			continue
		}
		for _, status := range pod.Status.ContainerStatuses {
			// status ids carry a runtime prefix ("docker://<id>")
			if trimRuntimePrefix(status.ID) == containerID {
				return pod.Status.PodIP, nil
			}
		}
	}
	return "", fmt.Errorf("no pod found for container %s in the kubelet pod list", containerID)
}

func trimRuntimePrefix(id string) string {
	if idx := strings.Index(id, "//"); idx != -1 {
		return id[idx+2:]
	}
	return id
}

// kubeletHost returns the configured kubelet host, or falls back to the
// node's default router, which is where the kubelet listens from inside a
// container.
func kubeletHost() (string, error) {
	if host := config.Datadog.GetString("kubernetes_kubelet_host"); host != "" {
		return host, nil
	}
	return GetDefaultRouter()
}

// GetDefaultRouter returns the gateway of the host's default outbound route.
func GetDefaultRouter() (string, error) {
	f, err := os.Open(procNetRoutePath)
	if err != nil {
		return "", fmt.Errorf("unable to open %s: %w", procNetRoutePath, err)
	}
	defer f.Close()
	return defaultRouterFrom(f)
}

// defaultRouterFrom parses a /proc/net/route table and returns the gateway of
// the 0.0.0.0/0 entry.
func defaultRouterFrom(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || fields[1] != "00000000" {
			continue
		}
		gw, err := strconv.ParseUint(fields[2], 16, 32)
		if err != nil {
			continue
		}
		// the route table stores addresses in little-endian hex
		ip := make(net.IP, 4)
		binary.LittleEndian.PutUint32(ip, uint32(gw))
		return ip.String(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no default route found")
}

func getPodList(url string) (*PodList, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("unable to query the kubelet pod list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kubelet pod list returned status %d", resp.StatusCode)
	}

	var podList PodList
	if err := json.NewDecoder(resp.Body).Decode(&podList); err != nil {
		return nil, fmt.Errorf("unable to decode the kubelet pod list: %w", err)
	}
	log.Debugf("Kubelet returned %d pods", len(podList.Items))
	return &podList, nil
}
