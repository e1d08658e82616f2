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

package dir_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/lazarus/database/plugin"
	"github.com/blinklabs-io/lazarus/database/plugin/coldstore"
	"github.com/blinklabs-io/lazarus/database/plugin/coldstore/dir"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchStateDelta(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(tmpDir, "stateDelta_48"),
		[]byte("delta-48"),
		0o600,
	))
	registry := prometheus.NewRegistry()
	c := dir.New(dir.WithDir(tmpDir), dir.WithPromRegistry(registry))
	require.NoError(t, c.Start())
	defer c.Close()

	data, found, err := c.FetchStateDelta(context.Background(), 48)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("delta-48"), data)

	data, found, err = c.FetchStateDelta(context.Background(), 47)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)

	count, err := testutil.GatherAndCount(
		registry,
		"lazarus_coldstore_fetches_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestFetchCancelled(t *testing.T) {
	c := dir.New(dir.WithDir(t.TempDir()))
	require.NoError(t, c.Start())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := c.FetchStateDelta(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartValidatesDir(t *testing.T) {
	assert.Error(t, dir.New().Start())
	assert.Error(t, dir.New(dir.WithDir(filepath.Join(t.TempDir(), "missing"))).Start())
}

func TestRegistry(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, plugin.SetPluginOption(
		plugin.PluginTypeColdStore, "dir", "dir", tmpDir,
	))
	c, err := coldstore.New("dir", nil, nil)
	require.NoError(t, err)
	defer c.Close()
	_, found, err := c.FetchStateDelta(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = coldstore.New("missing", nil, nil)
	assert.Error(t, err)
}
