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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// memoryDbCounter gives every in-memory store its own shared-cache database
var memoryDbCounter atomic.Uint64

// MetadataStoreSqlite is a SQLite-based implementation of the metadata store
type MetadataStoreSqlite struct {
	db          *gorm.DB
	logger      *slog.Logger
	dataDir     string
	busyTimeout time.Duration
}

// New creates a SQLite metadata store. Uses in-memory database if dataDir is empty.
func New(
	dataDir string,
	logger *slog.Logger,
) (*MetadataStoreSqlite, error) {
	return NewWithOptions(
		WithDataDir(dataDir),
		WithLogger(logger),
	)
}

// NewWithOptions creates a SQLite metadata store using options
func NewWithOptions(opts ...SqliteOptionFunc) (*MetadataStoreSqlite, error) {
	db := &MetadataStoreSqlite{
		busyTimeout: DefaultBusyTimeout,
	}
	for _, opt := range opts {
		opt(db)
	}
	if db.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	var dsn string
	if db.dataDir == "" {
		// cache=shared allows the pooled connections to see the same database
		dsn = fmt.Sprintf(
			"file:lazarus-metadata-%d?mode=memory&cache=shared",
			memoryDbCounter.Add(1),
		)
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(db.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(db.dataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		metadataDbPath := filepath.Join(
			db.dataDir,
			"metadata.sqlite",
		)
		// WAL journal mode, increase cache size to 50MB (from 2MB)
		metadataConnOpts := fmt.Sprintf(
			"_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=cache_size(-50000)",
			db.busyTimeout.Milliseconds(),
		)
		dsn = fmt.Sprintf("file:%s?%s", metadataDbPath, metadataConnOpts)
	}
	metadataDb, err := gorm.Open(
		sqlite.Open(dsn),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		return nil, err
	}
	db.db = metadataDb
	if err := db.init(); err != nil {
		// MetadataStoreSqlite is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}

func (d *MetadataStoreSqlite) init() error {
	// Configure tracing for GORM
	if err := d.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return err
	}
	// Create table schemas
	d.logger.Debug(fmt.Sprintf("creating table: %#v", &commitStamp{}))
	if err := d.db.AutoMigrate(&commitStamp{}); err != nil {
		return err
	}
	for _, model := range models.MigrateModels {
		d.logger.Debug(fmt.Sprintf("creating table: %#v", model))
		if err := d.db.AutoMigrate(model); err != nil {
			return err
		}
	}
	return nil
}

// Start implements the plugin.Plugin interface
func (d *MetadataStoreSqlite) Start() error {
	// Database is already opened in New(), so this is a no-op
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreSqlite) Stop() error {
	return d.Close()
}

// Close shuts down the database connection
func (d *MetadataStoreSqlite) Close() error {
	db, err := d.DB().DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return db.Close()
}

// DB returns the underlying GORM database handle
func (d *MetadataStoreSqlite) DB() *gorm.DB {
	return d.db
}

// Reset removes all rows from every table and frees the unused space
func (d *MetadataStoreSqlite) Reset() error {
	tables := append([]any{&commitStamp{}}, models.MigrateModels...)
	for _, model := range tables {
		if result := d.DB().Where("1 = 1").Delete(model); result.Error != nil {
			return fmt.Errorf("reset %T: %w", model, result.Error)
		}
	}
	if d.dataDir == "" {
		return nil
	}
	if result := d.DB().Exec("VACUUM"); result.Error != nil {
		d.logger.Warn(
			"failed to free unused space in metadata store",
			"component", "database",
			"error", result.Error,
		)
	}
	return nil
}
