// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package configresolver resolves %%var%% placeholders in check templates,
// sourcing values from container introspection or from explicit user
// overrides carried by the container's environment and labels.
package configresolver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types"
	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"

	"github.com/DataDog/sd-agent/pkg/autodiscovery/integration"
	"github.com/DataDog/sd-agent/pkg/util/kubernetes/kubelet"
	"github.com/DataDog/sd-agent/pkg/util/log"
)

// identifierPrefix marks env variables and labels carrying explicit template
// variable overrides, e.g. datadog_check_name or datadog_password.
const identifierPrefix = "datadog_"

var placeholderRegexp = regexp.MustCompile(`%%(.+?)%%`)

// getPodIP is swapped in tests to avoid a kubelet dependency.
var getPodIP = kubelet.GetPodIPForContainer

type variableGetter func(inspect types.ContainerJSON) (string, error)

// templateVariables are the built-in extractors, tried before any explicit
// override.
var templateVariables = map[string]variableGetter{
	"host": getHost,
	"port": getPort,
}

// ExtractPlaceholders returns the distinct placeholder names found across the
// given raw template strings, sorted for determinism.
func ExtractPlaceholders(raw ...string) []string {
	seen := make(map[string]struct{})
	for _, s := range raw {
		for _, m := range placeholderRegexp.FindAllStringSubmatch(s, -1) {
			seen[m[1]] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtractValues resolves each placeholder name against a container. Built-in
// extractors come first, then the explicit env/label overrides. Names that
// resolve to nothing are left out of the returned set; rendering substitutes
// them with an empty string and warns.
func ExtractValues(names []string, inspect types.ContainerJSON) map[string]string {
	values := make(map[string]string, len(names))
	for _, name := range names {
		if getter, found := templateVariables[name]; found {
			value, err := getter(inspect)
			if err != nil {
				log.Warnf("Failed to extract %s for container %s: %s", name, containerID(inspect), err) //nolint:errcheck
				continue
			}
			values[name] = value
			continue
		}

		log.Debugf("Didn't find any way to extract the value for %s, looking in env variables/docker labels...", name)
		if value, found := getExplicitVariable(inspect, name); found {
			values[name] = value
		}
	}
	return values
}

// getHost extracts the container IP from the inspect object, falling back to
// the kubelet pod list for containers with no directly attached network.
func getHost(inspect types.ContainerJSON) (string, error) {
	if inspect.NetworkSettings != nil && inspect.NetworkSettings.IPAddress != "" {
		return inspect.NetworkSettings.IPAddress, nil
	}

	cid := containerID(inspect)
	log.Debugf("Didn't find the IP address for container %s, using the kubernetes way.", cid)
	ip, err := getPodIP(cid)
	if err != nil {
		return "", err
	}
	return ip, nil
}

// getPort extracts the first port mapping of the container, falling back to
// its declared but unmapped exposed ports.
func getPort(inspect types.ContainerJSON) (string, error) {
	if inspect.NetworkSettings != nil {
		if port, found := lowestPort(portMapKeys(inspect.NetworkSettings.Ports)); found {
			return port, nil
		}
	}

	log.Debugf("Didn't find a port mapping for container %s, using its exposed ports.", containerID(inspect))
	if inspect.Config != nil {
		if port, found := lowestPort(portSetKeys(inspect.Config.ExposedPorts)); found {
			return port, nil
		}
	}
	return "", fmt.Errorf("no port found for container %s", containerID(inspect))
}

func portMapKeys(m nat.PortMap) []nat.Port {
	out := make([]nat.Port, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	return out
}

func portSetKeys(s nat.PortSet) []nat.Port {
	out := make([]nat.Port, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	return out
}

// lowestPort picks the numerically lowest port so repeated passes over the
// same container agree on the value.
func lowestPort(ports []nat.Port) (string, bool) {
	if len(ports) == 0 {
		return "", false
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Int() < ports[j].Int() })
	return strconv.Itoa(ports[0].Int()), true
}

// getExplicitVariable looks a variable up in the user-supplied override set.
func getExplicitVariable(inspect types.ContainerJSON, name string) (string, bool) {
	conf := configSpace(inspect.Config)
	if conf == nil {
		return "", false
	}
	value, found := conf[name]
	return value, found
}

// configSpace returns the override set the user picked for this container,
// with the datadog_ prefix stripped. Env variables and labels are never
// mixed: whichever side carries check_name provides every override, env
// taking precedence.
func configSpace(conf *dockercontainer.Config) map[string]string {
	if conf == nil {
		return nil
	}

	envVars := make(map[string]string)
	for _, e := range conf.Env {
		k, v, ok := strings.Cut(e, "=")
		if !ok || !strings.HasPrefix(k, identifierPrefix) {
			continue
		}
		envVars[strings.TrimPrefix(k, identifierPrefix)] = v
	}
	labels := make(map[string]string)
	for k, v := range conf.Labels {
		if strings.HasPrefix(k, identifierPrefix) {
			labels[strings.TrimPrefix(k, identifierPrefix)] = v
		}
	}

	if _, found := envVars["check_name"]; found {
		return envVars
	}
	if _, found := labels["check_name"]; found {
		return labels
	}
	return nil
}

// Render substitutes resolved variable values into the init_config and
// instance templates. Rendering is total: placeholders with no usable value
// are replaced with an empty string and a warning, never an error.
func Render(initConfigTpl, instanceTpl integration.Data, vars map[string]string, containerID string) (integration.Data, integration.Data) {
	return renderData(initConfigTpl, vars, containerID), renderData(instanceTpl, vars, containerID)
}

func renderData(tpl integration.Data, vars map[string]string, containerID string) integration.Data {
	out := make(integration.Data, len(tpl))
	for key, value := range tpl {
		out[key] = renderValue(key, value, vars, containerID)
	}
	return out
}

func renderValue(key string, value interface{}, vars map[string]string, containerID string) interface{} {
	switch e := value.(type) {
	case string:
		return renderString(key, e, vars, containerID)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(e))
		for k, v := range e {
			out[k] = renderValue(k, v, vars, containerID)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(e))
		for i, v := range e {
			out[i] = renderValue(key, v, vars, containerID)
		}
		return out
	default:
		return value
	}
}

func renderString(key, in string, vars map[string]string, containerID string) string {
	return placeholderRegexp.ReplaceAllStringFunc(in, func(token string) string {
		name := strings.Trim(token, "%")
		if value, found := vars[name]; found && value != "" {
			return value
		}
		log.Warnf("Failed to find a value for the %s parameter for container %s. The check might not be configured properly.", key, containerID) //nolint:errcheck
		return ""
	})
}

func containerID(inspect types.ContainerJSON) string {
	if inspect.ContainerJSONBase == nil {
		return ""
	}
	return inspect.ID
}
