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

package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/blinklabs-io/lazarus/database/plugin/coldstore"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"
)

// ColdStoreGCS reads archived state deltas from a Google Cloud Storage bucket
type ColdStoreGCS struct {
	promRegistry    prometheus.Registerer
	logger          *GcsLogger
	client          *storage.Client
	bucket          *storage.BucketHandle
	metrics         *coldstore.FetchMetrics
	bucketName      string
	prefix          string
	credentialsFile string
	sops            bool
}

// New creates a GCS cold store from a location of the form
// "gcs://bucket" or "gcs://bucket/prefix"
func New(
	location string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*ColdStoreGCS, error) {
	path, ok := strings.CutPrefix(location, "gcs://")
	if !ok {
		return nil, errors.New(
			"gcs coldstore: expected location 'gcs://<bucket>[/prefix]'",
		)
	}
	bucketName, prefix, _ := strings.Cut(path, "/")
	if bucketName == "" {
		return nil, errors.New("gcs coldstore: bucket not set")
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return NewWithOptions(
		WithBucket(bucketName),
		WithPrefix(prefix),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	), nil
}

// NewWithOptions creates a GCS cold store using options. The storage client
// is created in Start
func NewWithOptions(opts ...ColdStoreGCSOptionFunc) *ColdStoreGCS {
	c := &ColdStoreGCS{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = NewGcsLogger(nil)
	}
	return c
}

// ValidateCredentials checks that a configured credentials file exists
func ValidateCredentials(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("GCS credentials file does not exist: %s", path)
		}
		return fmt.Errorf("GCS credentials file: %w", err)
	}
	return nil
}

func (c *ColdStoreGCS) SetLogger(logger *slog.Logger) {
	c.logger = NewGcsLogger(logger)
}

func (c *ColdStoreGCS) SetPromRegistry(registry prometheus.Registerer) {
	c.promRegistry = registry
}

// Start implements the plugin.Plugin interface
func (c *ColdStoreGCS) Start() error {
	if c.bucketName == "" {
		return errors.New("gcs coldstore: bucket not set")
	}
	if err := ValidateCredentials(c.credentialsFile); err != nil {
		return err
	}
	var clientOpts []option.ClientOption
	if c.credentialsFile != "" {
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(c.credentialsFile),
		)
	}
	client, err := storage.NewClient(context.Background(), clientOpts...)
	if err != nil {
		return fmt.Errorf(
			"gcs coldstore: failed in creating storage client: %w",
			err,
		)
	}
	c.client = client
	c.bucket = client.Bucket(c.bucketName)
	c.metrics = coldstore.NewFetchMetrics(c.promRegistry, "gcs")
	return nil
}

// Stop implements the plugin.Plugin interface
func (c *ColdStoreGCS) Stop() error {
	return c.Close()
}

// Close closes the GCS client
func (c *ColdStoreGCS) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	c.bucket = nil
	return err
}

// FetchStateDelta reads the object <prefix>stateDelta_<blockNum>
func (c *ColdStoreGCS) FetchStateDelta(
	ctx context.Context,
	blockNum uint64,
) ([]byte, bool, error) {
	data, found, err := c.fetch(ctx, blockNum)
	c.metrics.Observe(data, found, err)
	return data, found, err
}

func (c *ColdStoreGCS) fetch(
	ctx context.Context,
	blockNum uint64,
) ([]byte, bool, error) {
	if c.bucket == nil {
		return nil, false, errors.New("gcs coldstore: not started")
	}
	name := c.prefix + coldstore.StateDeltaObjectName(blockNum)
	r, err := c.bucket.Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, false, nil
		}
		c.logger.Errorf("gcs read %q failed: %v", name, err)
		return nil, false, fmt.Errorf("gcs coldstore: open %s: %w", name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		c.logger.Errorf("gcs read %q failed: %v", name, err)
		return nil, false, fmt.Errorf("gcs coldstore: read %s: %w", name, err)
	}
	c.logger.Debugf("gcs read %q ok (%d bytes)", name, len(data))
	data, err = coldstore.MaybeDecrypt(data, c.sops)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
