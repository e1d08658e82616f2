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

package plugin

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota + 1
	PluginTypeMetadata
	PluginTypeColdStore
)

const envVarPrefix = "LAZARUS"

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	case PluginTypeColdStore:
		return "coldstore"
	default:
		return ""
	}
}

// PluginTypeFromName maps a type name as used in config files back to its PluginType
func PluginTypeFromName(name string) (PluginType, bool) {
	for _, pluginType := range []PluginType{PluginTypeBlob, PluginTypeMetadata, PluginTypeColdStore} {
		if PluginTypeName(pluginType) == name {
			return pluginType, true
		}
	}
	return 0, false
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

type PluginOption struct {
	DefaultValue any
	Dest         any
	Name         string
	Description  string
	Type         PluginOptionType
}

type PluginEntry struct {
	NewFromOptionsFunc func() Plugin
	Name               string
	Description        string
	Options            []PluginOption
	Type               PluginType
}

var (
	pluginEntries      []PluginEntry
	pluginEntriesMutex sync.RWMutex
)

// Register adds a plugin to the registry. It is normally called from a plugin package init()
func Register(pluginEntry PluginEntry) {
	pluginEntriesMutex.Lock()
	defer pluginEntriesMutex.Unlock()
	pluginEntries = append(pluginEntries, pluginEntry)
}

// GetPlugins returns the registry entries for the given plugin type
func GetPlugins(pluginType PluginType) []PluginEntry {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	ret := []PluginEntry{}
	for _, entry := range pluginEntries {
		if entry.Type == pluginType {
			ret = append(ret, entry)
		}
	}
	return ret
}

// GetPlugin returns a new instance of the named plugin, or nil if it is not registered
func GetPlugin(pluginType PluginType, pluginName string) Plugin {
	entry := findPluginEntry(pluginType, pluginName)
	if entry == nil {
		return nil
	}
	return entry.NewFromOptionsFunc()
}

func findPluginEntry(pluginType PluginType, pluginName string) *PluginEntry {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for i := range pluginEntries {
		if pluginEntries[i].Type == pluginType &&
			pluginEntries[i].Name == pluginName {
			return &pluginEntries[i]
		}
	}
	return nil
}

func (p PluginEntry) flagName(opt PluginOption) string {
	return fmt.Sprintf("%s-%s-%s", PluginTypeName(p.Type), p.Name, opt.Name)
}

func (p PluginEntry) envVarName(opt PluginOption) string {
	ret := fmt.Sprintf(
		"%s_%s_%s_%s",
		envVarPrefix,
		PluginTypeName(p.Type),
		p.Name,
		opt.Name,
	)
	return strings.ToUpper(strings.ReplaceAll(ret, "-", "_"))
}

// PopulateCmdlineOptions adds a flag for every registered plugin option. The
// flags hold their own values until ProcessCmdlineOptions copies the ones the
// user changed, so that flags take precedence over config files and env vars
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for _, entry := range pluginEntries {
		for _, opt := range entry.Options {
			name := entry.flagName(opt)
			desc := fmt.Sprintf("%s: %s", entry.Name, opt.Description)
			switch opt.Type {
			case PluginOptionTypeString:
				def, _ := opt.DefaultValue.(string)
				fs.String(name, def, desc)
			case PluginOptionTypeBool:
				def, _ := opt.DefaultValue.(bool)
				fs.Bool(name, def, desc)
			case PluginOptionTypeInt:
				def, _ := opt.DefaultValue.(int)
				fs.Int(name, def, desc)
			case PluginOptionTypeUint:
				def, _ := opt.DefaultValue.(uint64)
				fs.Uint64(name, def, desc)
			default:
				return fmt.Errorf(
					"unknown plugin option type %d for option %s",
					opt.Type,
					opt.Name,
				)
			}
		}
	}
	return nil
}

// ProcessCmdlineOptions copies the values of changed plugin flags into the plugin options
func ProcessCmdlineOptions(fs *pflag.FlagSet) error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for _, entry := range pluginEntries {
		for _, opt := range entry.Options {
			flag := fs.Lookup(entry.flagName(opt))
			if flag == nil || !flag.Changed {
				continue
			}
			if err := opt.assignString(flag.Value.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessEnvVars sets plugin options from LAZARUS_<TYPE>_<PLUGIN>_<OPTION> env vars
func ProcessEnvVars() error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for _, entry := range pluginEntries {
		for _, opt := range entry.Options {
			value, ok := os.LookupEnv(entry.envVarName(opt))
			if !ok {
				continue
			}
			if err := opt.assignString(value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessConfig sets plugin options from a config file section laid out as
// plugin type name -> plugin name -> option name -> value
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for typeName, plugins := range pluginConfig {
		pluginType, ok := PluginTypeFromName(typeName)
		if !ok {
			return fmt.Errorf("unknown plugin type: %s", typeName)
		}
		for pluginName, options := range plugins {
			for optionName, value := range options {
				if err := SetPluginOption(pluginType, pluginName, optionName, value); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
