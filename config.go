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

package lazarus

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/blinklabs-io/lazarus/recovery"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultEpochSize       = 100
	DefaultRetentionEpochs = 10
)

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	dataDir          string
	blobPlugin       string
	metadataPlugin   string
	coldStorePlugin  string
	nodeRole         recovery.NodeRole
	initialCommittee []models.CommitteeMember
	epochSize        uint64
	retentionEpochs  uint64
	inMemory         bool
	trimIncomplete   bool
	validateStates   bool
	resyncOnFailure  bool
	tracing          bool
	tracingStdout    bool
}

func (n *Node) configValidate() error {
	if n.config.epochSize == 0 {
		return errors.New("epoch size must be greater than zero")
	}
	if !n.config.nodeRole.Valid() {
		return fmt.Errorf("invalid node role: %q", n.config.nodeRole)
	}
	if n.config.dataDir == "" && !n.config.inMemory {
		return errors.New("no database path configured")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new lazarus config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		nodeRole:        recovery.NodeRoleNormal,
		epochSize:       DefaultEpochSize,
		retentionEpochs: DefaultRetentionEpochs,
		validateStates:  true,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to recover from
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithInMemory keeps every store in memory. This is mostly useful for tests
func WithInMemory(inMemory bool) ConfigOptionFunc {
	return func(c *Config) {
		c.inMemory = inMemory
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithColdStorePlugin specifies the cold store plugin that archived state
// deltas are imported from. The default is no cold store
func WithColdStorePlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.coldStorePlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithEpochSize specifies the number of tx blocks per epoch. The default is 100
func WithEpochSize(epochSize uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.epochSize = epochSize
	}
}

// WithRetentionEpochs specifies how many closed epochs of state deltas are
// replayed. The default is 10
func WithRetentionEpochs(epochs uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.retentionEpochs = epochs
	}
}

// WithNodeRole specifies the role of the node being recovered
func WithNodeRole(role recovery.NodeRole) ConfigOptionFunc {
	return func(c *Config) {
		c.nodeRole = role
	}
}

// WithInitialCommittee specifies the committee that block link replay starts from
func WithInitialCommittee(members []models.CommitteeMember) ConfigOptionFunc {
	return func(c *Config) {
		c.initialCommittee = members
	}
}

// WithTrimIncomplete removes the blocks of an epoch left unfinished by a crash
// instead of keeping them
func WithTrimIncomplete(trim bool) ConfigOptionFunc {
	return func(c *Config) {
		c.trimIncomplete = trim
	}
}

// WithValidateStates specifies whether the recovered account state is checked
// against the last tx block. This is enabled by default
func WithValidateStates(validate bool) ConfigOptionFunc {
	return func(c *Config) {
		c.validateStates = validate
	}
}

// WithResyncOnFailure wipes the store when recovery fails so the node can
// resync from scratch
func WithResyncOnFailure(resync bool) ConfigOptionFunc {
	return func(c *Config) {
		c.resyncOnFailure = resync
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}
