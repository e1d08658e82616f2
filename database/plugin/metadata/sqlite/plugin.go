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

package sqlite

import (
	"sync"
	"time"

	"github.com/blinklabs-io/lazarus/database/plugin"
)

var (
	cmdlineOptions struct {
		dataDir     string
		busyTimeout uint64
	}
	cmdlineOptionsMutex sync.RWMutex
)

// initCmdlineOptions sets default values for cmdlineOptions
func initCmdlineOptions() {
	cmdlineOptionsMutex.Lock()
	defer cmdlineOptionsMutex.Unlock()
	cmdlineOptions.dataDir = ".lazarus"
	cmdlineOptions.busyTimeout = uint64(DefaultBusyTimeout.Milliseconds())
}

// Register plugin
func init() {
	initCmdlineOptions()
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "sqlite",
			Description:        "SQLite relational database",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Data directory for sqlite storage (empty for in-memory)",
					DefaultValue: ".lazarus",
					Dest:         &(cmdlineOptions.dataDir),
				},
				{
					Name:         "busy-timeout",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "Milliseconds a write waits on a locked database file",
					DefaultValue: uint64(DefaultBusyTimeout.Milliseconds()),
					Dest:         &(cmdlineOptions.busyTimeout),
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	dataDir := cmdlineOptions.dataDir
	busyTimeout := time.Duration(cmdlineOptions.busyTimeout) * time.Millisecond // #nosec G115
	cmdlineOptionsMutex.RUnlock()

	p, err := NewWithOptions(
		WithDataDir(dataDir),
		WithBusyTimeout(busyTimeout),
	)
	if err != nil {
		// Return a plugin that defers the error to Start()
		return plugin.NewErrorPlugin(err)
	}
	return p
}
