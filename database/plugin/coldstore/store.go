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

package coldstore

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/blinklabs-io/lazarus/database/plugin"
	"github.com/blinklabs-io/lazarus/database/sops"
	"github.com/prometheus/client_golang/prometheus"
)

// StateDeltaObjectPrefix is the name prefix of archived state delta objects
const StateDeltaObjectPrefix = "stateDelta_"

// ColdStore is an external archive of per-block state deltas
type ColdStore interface {
	plugin.Plugin
	Close() error
	// FetchStateDelta returns the archived delta for blockNum. A missing
	// object is reported with found set to false and a nil error
	FetchStateDelta(ctx context.Context, blockNum uint64) (delta []byte, found bool, err error)
}

// StateDeltaObjectName returns the object name used for the delta of blockNum
func StateDeltaObjectName(blockNum uint64) string {
	return StateDeltaObjectPrefix + strconv.FormatUint(blockNum, 10)
}

// MaybeDecrypt returns data unchanged unless decryption is enabled and data
// is a SOPS document
func MaybeDecrypt(data []byte, enabled bool) ([]byte, error) {
	if !enabled || !sops.IsEncrypted(data) {
		return data, nil
	}
	return sops.Decrypt(data)
}

// observable is implemented by cold stores that accept a logger and metrics
// registry before they are started
type observable interface {
	SetLogger(*slog.Logger)
	SetPromRegistry(prometheus.Registerer)
}

// New starts the cold store plugin selected by name. The logger and registry
// are handed to the plugin before it starts and may be nil
func New(
	pluginName string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (ColdStore, error) {
	p := plugin.GetPlugin(plugin.PluginTypeColdStore, pluginName)
	if p == nil {
		return nil, fmt.Errorf("coldstore plugin '%s' not found", pluginName)
	}
	if errPlugin, ok := p.(*plugin.ErrorPlugin); ok {
		return nil, fmt.Errorf(
			"failed to start coldstore plugin '%s': %w",
			pluginName,
			errPlugin.Err,
		)
	}
	coldStore, ok := p.(ColdStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement ColdStore interface",
			pluginName,
		)
	}
	if o, ok := p.(observable); ok {
		if logger != nil {
			o.SetLogger(logger)
		}
		if promRegistry != nil {
			o.SetPromRegistry(promRegistry)
		}
	}
	if err := coldStore.Start(); err != nil {
		return nil, fmt.Errorf(
			"failed to start coldstore plugin '%s': %w",
			pluginName,
			err,
		)
	}
	return coldStore, nil
}
