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
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
)

type ColdStoreS3OptionFunc func(*ColdStoreS3)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ColdStoreS3OptionFunc {
	return func(c *ColdStoreS3) {
		c.logger = NewS3Logger(logger)
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(
	registry prometheus.Registerer,
) ColdStoreS3OptionFunc {
	return func(c *ColdStoreS3) {
		c.promRegistry = registry
	}
}

// WithBucket specifies the S3 bucket name
func WithBucket(bucket string) ColdStoreS3OptionFunc {
	return func(c *ColdStoreS3) {
		c.bucket = bucket
	}
}

// WithRegion specifies the AWS region
func WithRegion(region string) ColdStoreS3OptionFunc {
	return func(c *ColdStoreS3) {
		c.region = region
	}
}

// WithPrefix specifies the S3 object key prefix
func WithPrefix(prefix string) ColdStoreS3OptionFunc {
	return func(c *ColdStoreS3) {
		c.prefix = prefix
	}
}

// WithTimeout bounds each S3 request. Zero leaves requests unbounded
func WithTimeout(timeout time.Duration) ColdStoreS3OptionFunc {
	return func(c *ColdStoreS3) {
		c.timeout = timeout
	}
}

// WithEndpoint specifies a custom S3 endpoint, such as a minio server.
// Path-style addressing is used when an endpoint is set
func WithEndpoint(endpoint string) ColdStoreS3OptionFunc {
	return func(c *ColdStoreS3) {
		c.endpoint = endpoint
	}
}

// WithCredentials overrides the default AWS credential chain
func WithCredentials(provider aws.CredentialsProvider) ColdStoreS3OptionFunc {
	return func(c *ColdStoreS3) {
		c.credentials = provider
	}
}

// WithSops enables decryption of SOPS-encrypted delta objects
func WithSops(enabled bool) ColdStoreS3OptionFunc {
	return func(c *ColdStoreS3) {
		c.sops = enabled
	}
}
