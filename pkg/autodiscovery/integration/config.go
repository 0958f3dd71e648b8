// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package integration

import (
	"encoding/json"
	"reflect"
)

// Data holds a decoded init_config or instance object. Leaf string values may
// contain %%var%% placeholders until the config is rendered.
type Data map[string]interface{}

// Template is the raw configuration triple as fetched from a config store or
// from the auto-conf catalog. InitConfig and Instance are JSON-encoded objects.
type Template struct {
	CheckName  string
	InitConfig string
	Instance   string
}

// Config is one resolved check: its name, the shared init config and the
// instance configs accumulated across all containers running that check.
type Config struct {
	Name       string
	InitConfig Data
	Instances  []Data
}

// ParseData decodes a JSON-encoded init_config or instance into a Data object.
// A null or empty document decodes to an empty Data, matching the stores where
// an empty init_config is commonly stored as "{}" or "null".
func ParseData(raw string) (Data, error) {
	if raw == "" {
		return Data{}, nil
	}
	var d Data
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, err
	}
	if d == nil {
		d = Data{}
	}
	return d, nil
}

// Clone returns a deep copy of the data, so a rendered config never aliases
// the template it was derived from.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch e := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(e))
		for k, vv := range e {
			out[k] = cloneValue(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(e))
		for i, vv := range e {
			out[i] = cloneValue(vv)
		}
		return out
	default:
		return v
	}
}

// Equal compares two Data objects by value.
func (d Data) Equal(other Data) bool {
	return reflect.DeepEqual(d, other)
}
