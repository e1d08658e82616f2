// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plugin_test

import (
	"strings"
	"testing"

	"github.com/blinklabs-io/lazarus/database/plugin"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPlugin struct{}

func (m *mockPlugin) Start() error { return nil }
func (m *mockPlugin) Stop() error  { return nil }

var mockOptions struct {
	path    string
	enabled bool
	count   int
	size    uint64
}

func registerMock(t *testing.T, pluginType plugin.PluginType) string {
	t.Helper()
	name := "mock-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               pluginType,
		Name:               name,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{Name: "path", Type: plugin.PluginOptionTypeString, DefaultValue: "", Dest: &mockOptions.path},
			{Name: "enabled", Type: plugin.PluginOptionTypeBool, DefaultValue: false, Dest: &mockOptions.enabled},
			{Name: "count", Type: plugin.PluginOptionTypeInt, DefaultValue: 0, Dest: &mockOptions.count},
			{Name: "size", Type: plugin.PluginOptionTypeUint, DefaultValue: uint64(0), Dest: &mockOptions.size},
		},
	})
	return name
}

func TestRegisterAndGetPlugin(t *testing.T) {
	name := registerMock(t, plugin.PluginTypeBlob)
	p := plugin.GetPlugin(plugin.PluginTypeBlob, name)
	require.NotNil(t, p)
	assert.IsType(t, &mockPlugin{}, p)
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeMetadata, name))
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeBlob, "non-existent-"+t.Name()))
}

func TestGetPlugins(t *testing.T) {
	blobName := registerMock(t, plugin.PluginTypeBlob)
	coldName := "cold-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeColdStore,
		Name:               coldName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
	})
	var blobNames, coldNames []string
	for _, entry := range plugin.GetPlugins(plugin.PluginTypeBlob) {
		blobNames = append(blobNames, entry.Name)
	}
	for _, entry := range plugin.GetPlugins(plugin.PluginTypeColdStore) {
		coldNames = append(coldNames, entry.Name)
	}
	assert.Contains(t, blobNames, blobName)
	assert.NotContains(t, blobNames, coldName)
	assert.Contains(t, coldNames, coldName)
}

func TestStartPluginNotFound(t *testing.T) {
	_, err := plugin.StartPlugin(plugin.PluginTypeBlob, "missing-"+t.Name())
	assert.ErrorContains(t, err, "not found")
}

func TestSetPluginOption(t *testing.T) {
	name := registerMock(t, plugin.PluginTypeMetadata)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "path", "/tmp/x"))
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "enabled", true))
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "count", 3))
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "size", 42))
	assert.Equal(t, "/tmp/x", mockOptions.path)
	assert.True(t, mockOptions.enabled)
	assert.Equal(t, 3, mockOptions.count)
	assert.Equal(t, uint64(42), mockOptions.size)

	assert.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "path", 123))
	assert.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "size", -1))
	// unknown options are ignored
	assert.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "does-not-exist", "x"))
	assert.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, "nonexistent", "path", "x"))
}

func TestProcessEnvVars(t *testing.T) {
	name := registerMock(t, plugin.PluginTypeColdStore)
	envPrefix := "LAZARUS_COLDSTORE_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	t.Setenv(envPrefix+"_PATH", "/from/env")
	t.Setenv(envPrefix+"_SIZE", "1024")
	require.NoError(t, plugin.ProcessEnvVars())
	assert.Equal(t, "/from/env", mockOptions.path)
	assert.Equal(t, uint64(1024), mockOptions.size)
}

func TestProcessCmdlineOptions(t *testing.T) {
	name := registerMock(t, plugin.PluginTypeBlob)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))
	mockOptions.count = 7
	require.NoError(t, fs.Parse([]string{"--blob-" + name + "-enabled=true"}))
	require.NoError(t, plugin.ProcessCmdlineOptions(fs))
	assert.True(t, mockOptions.enabled)
	// unchanged flags leave the option alone
	assert.Equal(t, 7, mockOptions.count)
}

func TestProcessConfig(t *testing.T) {
	name := registerMock(t, plugin.PluginTypeBlob)
	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"blob": {name: {"path": "/from/yaml", "count": 9}},
	})
	require.NoError(t, err)
	assert.Equal(t, "/from/yaml", mockOptions.path)
	assert.Equal(t, 9, mockOptions.count)
	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"bogus": {name: {"path": "x"}},
	})
	assert.Error(t, err)
}
