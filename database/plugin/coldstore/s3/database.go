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

package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/blinklabs-io/lazarus/database/plugin/coldstore"
	"github.com/prometheus/client_golang/prometheus"
)

// ColdStoreS3 reads archived state deltas from an AWS S3 bucket
type ColdStoreS3 struct {
	promRegistry prometheus.Registerer
	logger       *S3Logger
	client       *s3.Client
	credentials  aws.CredentialsProvider
	metrics      *coldstore.FetchMetrics
	bucket       string
	prefix       string
	region       string
	endpoint     string
	timeout      time.Duration
	sops         bool
}

// New creates an S3 cold store from a location of the form
// "s3://bucket" or "s3://bucket/prefix"
func New(
	location string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*ColdStoreS3, error) {
	bucket, keyPrefix, err := parseLocation(location)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(
		WithBucket(bucket),
		WithPrefix(keyPrefix),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	), nil
}

func parseLocation(location string) (string, string, error) {
	path, ok := strings.CutPrefix(location, "s3://")
	if !ok {
		return "", "", errors.New(
			"s3 coldstore: expected location 's3://<bucket>[/prefix]'",
		)
	}
	bucket, keyPrefix, _ := strings.Cut(path, "/")
	if bucket == "" {
		return "", "", errors.New("s3 coldstore: bucket not set")
	}
	keyPrefix = strings.TrimSuffix(keyPrefix, "/")
	if keyPrefix != "" {
		keyPrefix += "/"
	}
	return bucket, keyPrefix, nil
}

// NewWithOptions creates an S3 cold store using options. AWS config loading
// happens in Start
func NewWithOptions(opts ...ColdStoreS3OptionFunc) *ColdStoreS3 {
	c := &ColdStoreS3{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = NewS3Logger(nil)
	}
	return c
}

func (c *ColdStoreS3) SetLogger(logger *slog.Logger) {
	c.logger = NewS3Logger(logger)
}

func (c *ColdStoreS3) SetPromRegistry(registry prometheus.Registerer) {
	c.promRegistry = registry
}

// Start implements the plugin.Plugin interface
func (c *ColdStoreS3) Start() error {
	if c.bucket == "" {
		return errors.New("s3 coldstore: bucket not set")
	}
	ctx, cancel := c.opContext(context.Background())
	defer cancel()
	var loadOpts []func(*config.LoadOptions) error
	if c.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(c.region))
	}
	if c.credentials != nil {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(c.credentials))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("s3 coldstore: load default AWS config: %w", err)
	}
	c.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.endpoint != "" {
			o.BaseEndpoint = aws.String(c.endpoint)
			o.UsePathStyle = true
		}
	})
	c.metrics = coldstore.NewFetchMetrics(c.promRegistry, "s3")
	return nil
}

// Stop implements the plugin.Plugin interface
func (c *ColdStoreS3) Stop() error {
	// S3 client doesn't need explicit closing
	return nil
}

func (c *ColdStoreS3) Close() error {
	return c.Stop()
}

// Client returns the S3 client
func (c *ColdStoreS3) Client() *s3.Client {
	return c.client
}

func (c *ColdStoreS3) opContext(
	ctx context.Context,
) (context.Context, context.CancelFunc) {
	if c.timeout == 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// FetchStateDelta reads the object <prefix>stateDelta_<blockNum>
func (c *ColdStoreS3) FetchStateDelta(
	ctx context.Context,
	blockNum uint64,
) ([]byte, bool, error) {
	data, found, err := c.fetch(ctx, blockNum)
	c.metrics.Observe(data, found, err)
	return data, found, err
}

func (c *ColdStoreS3) fetch(
	ctx context.Context,
	blockNum uint64,
) ([]byte, bool, error) {
	if c.client == nil {
		return nil, false, errors.New("s3 coldstore: not started")
	}
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	key := c.prefix + coldstore.StateDeltaObjectName(blockNum)
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, false, nil
		}
		c.logger.Errorf("s3 get %q failed: %v", key, err)
		return nil, false, fmt.Errorf("s3 coldstore: get %s: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		c.logger.Errorf("s3 read %q failed: %v", key, err)
		return nil, false, fmt.Errorf("s3 coldstore: read %s: %w", key, err)
	}
	c.logger.Debugf("s3 get %q ok (%d bytes)", key, len(data))
	data, err = coldstore.MaybeDecrypt(data, c.sops)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func isS3NotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey"
}
