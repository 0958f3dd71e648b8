// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseData(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Data
		wantErr bool
	}{
		{
			name: "object",
			raw:  `{"host": "%%host%%", "port": "%%port%%"}`,
			want: Data{"host": "%%host%%", "port": "%%port%%"},
		},
		{
			name: "empty string",
			raw:  "",
			want: Data{},
		},
		{
			name: "null",
			raw:  "null",
			want: Data{},
		},
		{
			name: "empty object",
			raw:  "{}",
			want: Data{},
		},
		{
			name:    "malformed",
			raw:     `{"host": `,
			wantErr: true,
		},
		{
			name:    "not an object",
			raw:     `["a", "b"]`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseData(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDataClone(t *testing.T) {
	orig := Data{
		"tags":   []interface{}{"a", "b"},
		"nested": map[string]interface{}{"key": "value"},
	}
	clone := orig.Clone()
	require.True(t, orig.Equal(clone))

	clone["nested"].(map[string]interface{})["key"] = "changed"
	clone["tags"].([]interface{})[0] = "changed"
	assert.Equal(t, "value", orig["nested"].(map[string]interface{})["key"])
	assert.Equal(t, "a", orig["tags"].([]interface{})[0])
}

func TestDataEqual(t *testing.T) {
	a := Data{"min_collection_interval": float64(20)}
	b := Data{"min_collection_interval": float64(20)}
	c := Data{"min_collection_interval": float64(30)}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
