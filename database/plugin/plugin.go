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
	"strconv"
)

type Plugin interface {
	Start() error
	Stop() error
}

// ErrorPlugin is a plugin that always returns an error on Start()
type ErrorPlugin struct {
	Err error
}

func (e *ErrorPlugin) Start() error {
	return e.Err
}

func (e *ErrorPlugin) Stop() error {
	return nil
}

// NewErrorPlugin creates a new error plugin that returns the given error on Start()
func NewErrorPlugin(err error) Plugin {
	return &ErrorPlugin{Err: err}
}

// StartPlugin gets a plugin from the registry and starts it
func StartPlugin(pluginType PluginType, pluginName string) (Plugin, error) {
	p := GetPlugin(pluginType, pluginName)
	if p == nil {
		return nil, fmt.Errorf(
			"%s plugin '%s' not found",
			PluginTypeName(pluginType),
			pluginName,
		)
	}
	if err := p.Start(); err != nil {
		return nil, fmt.Errorf(
			"failed to start %s plugin '%s': %w",
			PluginTypeName(pluginType),
			pluginName,
			err,
		)
	}
	return p, nil
}

// SetPluginOption sets the value of a named option for a plugin entry. This
// is used by callers that need to programmatically override plugin defaults
// (for example to set data-dir before starting a plugin). Unknown options
// are ignored so callers can set an option that only some implementations
// provide.
// NOTE: This function writes directly to plugin option destinations without
// synchronization. It must be called before the plugin is instantiated.
func SetPluginOption(
	pluginType PluginType,
	pluginName string,
	optionName string,
	value any,
) error {
	entry := findPluginEntry(pluginType, pluginName)
	if entry == nil {
		return fmt.Errorf(
			"plugin %s of type %s not found",
			pluginName,
			PluginTypeName(pluginType),
		)
	}
	for _, opt := range entry.Options {
		if opt.Name != optionName {
			continue
		}
		return opt.assign(value)
	}
	return nil
}

// assign performs a type-checked write into the option destination
func (p PluginOption) assign(value any) error {
	if p.Dest == nil {
		return fmt.Errorf("nil destination for option %s", p.Name)
	}
	switch p.Type {
	case PluginOptionTypeString:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("invalid type for option %s: expected string", p.Name)
		}
		dest, ok := p.Dest.(*string)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s: expected *string", p.Name)
		}
		*dest = v
	case PluginOptionTypeBool:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("invalid type for option %s: expected bool", p.Name)
		}
		dest, ok := p.Dest.(*bool)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s: expected *bool", p.Name)
		}
		*dest = v
	case PluginOptionTypeInt:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("invalid type for option %s: expected int", p.Name)
		}
		dest, ok := p.Dest.(*int)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s: expected *int", p.Name)
		}
		*dest = v
	case PluginOptionTypeUint:
		var v uint64
		switch tv := value.(type) {
		case uint64:
			v = tv
		case int:
			if tv < 0 {
				return fmt.Errorf("invalid value for option %s: negative int", p.Name)
			}
			v = uint64(tv)
		default:
			return fmt.Errorf("invalid type for option %s: expected uint64 or int", p.Name)
		}
		dest, ok := p.Dest.(*uint64)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s: expected *uint64", p.Name)
		}
		*dest = v
	default:
		return fmt.Errorf(
			"unknown plugin option type %d for option %s",
			p.Type,
			p.Name,
		)
	}
	return nil
}

// assignString parses a string value (from an env var) into the option destination
func (p PluginOption) assignString(value string) error {
	switch p.Type {
	case PluginOptionTypeString:
		return p.assign(value)
	case PluginOptionTypeBool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for option %s: %w", p.Name, err)
		}
		return p.assign(v)
	case PluginOptionTypeInt:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for option %s: %w", p.Name, err)
		}
		return p.assign(v)
	case PluginOptionTypeUint:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for option %s: %w", p.Name, err)
		}
		return p.assign(v)
	default:
		return fmt.Errorf(
			"unknown plugin option type %d for option %s",
			p.Type,
			p.Name,
		)
	}
}
