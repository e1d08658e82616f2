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

package leveldb

import (
	"sync"

	"github.com/blinklabs-io/lazarus/database/plugin"
)

const (
	DefaultBlockCacheCapacity = 8388608 // 8MB
	DefaultOpenFilesCacheSize = 500
)

var (
	cmdlineOptions struct {
		dataDir            string
		blockCacheCapacity int
		openFilesCacheSize int
	}
	cmdlineOptionsMutex sync.RWMutex
)

// initCmdlineOptions sets default values for cmdlineOptions
func initCmdlineOptions() {
	cmdlineOptionsMutex.Lock()
	defer cmdlineOptionsMutex.Unlock()
	cmdlineOptions.dataDir = ".lazarus"
	cmdlineOptions.blockCacheCapacity = DefaultBlockCacheCapacity
	cmdlineOptions.openFilesCacheSize = DefaultOpenFilesCacheSize
}

// Register plugin
func init() {
	initCmdlineOptions()
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeBlob,
			Name:               "leveldb",
			Description:        "LevelDB local key-value store",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Data directory for leveldb storage (empty for in-memory)",
					DefaultValue: ".lazarus",
					Dest:         &(cmdlineOptions.dataDir),
				},
				{
					Name:         "block-cache-capacity",
					Type:         plugin.PluginOptionTypeInt,
					Description:  "LevelDB block cache capacity in bytes",
					DefaultValue: DefaultBlockCacheCapacity,
					Dest:         &(cmdlineOptions.blockCacheCapacity),
				},
				{
					Name:         "open-files-cache-size",
					Type:         plugin.PluginOptionTypeInt,
					Description:  "Number of open table files to cache",
					DefaultValue: DefaultOpenFilesCacheSize,
					Dest:         &(cmdlineOptions.openFilesCacheSize),
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	opts := []BlobStoreLevelDBOptionFunc{
		WithDataDir(cmdlineOptions.dataDir),
		WithBlockCacheCapacity(cmdlineOptions.blockCacheCapacity),
		WithOpenFilesCacheSize(cmdlineOptions.openFilesCacheSize),
	}
	cmdlineOptionsMutex.RUnlock()
	p, err := New(opts...)
	if err != nil {
		// Return a plugin that defers the error to Start()
		return plugin.NewErrorPlugin(err)
	}
	return p
}
