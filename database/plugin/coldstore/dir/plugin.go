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

package dir

import (
	"sync"

	"github.com/blinklabs-io/lazarus/database/plugin"
)

var (
	cmdlineOptions struct {
		dir  string
		sops bool
	}
	cmdlineOptionsMutex sync.RWMutex
)

// Register plugin
func init() {
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeColdStore,
			Name:               "dir",
			Description:        "State deltas archived as files in a local directory",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Directory holding stateDelta_<block> files",
					DefaultValue: "",
					Dest:         &(cmdlineOptions.dir),
				},
				{
					Name:         "sops",
					Type:         plugin.PluginOptionTypeBool,
					Description:  "Decrypt SOPS-encrypted delta files",
					DefaultValue: false,
					Dest:         &(cmdlineOptions.sops),
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	opts := []ColdStoreDirOptionFunc{
		WithDir(cmdlineOptions.dir),
		WithSops(cmdlineOptions.sops),
	}
	cmdlineOptionsMutex.RUnlock()
	return New(opts...)
}
