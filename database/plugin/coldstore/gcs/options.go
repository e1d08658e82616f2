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
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type ColdStoreGCSOptionFunc func(*ColdStoreGCS)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ColdStoreGCSOptionFunc {
	return func(c *ColdStoreGCS) {
		c.logger = NewGcsLogger(logger)
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(
	registry prometheus.Registerer,
) ColdStoreGCSOptionFunc {
	return func(c *ColdStoreGCS) {
		c.promRegistry = registry
	}
}

// WithBucket specifies the GCS bucket name
func WithBucket(bucket string) ColdStoreGCSOptionFunc {
	return func(c *ColdStoreGCS) {
		c.bucketName = bucket
	}
}

// WithPrefix specifies the object name prefix
func WithPrefix(prefix string) ColdStoreGCSOptionFunc {
	return func(c *ColdStoreGCS) {
		c.prefix = prefix
	}
}

// WithCredentialsFile specifies a service account key file to authenticate with
func WithCredentialsFile(path string) ColdStoreGCSOptionFunc {
	return func(c *ColdStoreGCS) {
		c.credentialsFile = path
	}
}

// WithSops enables decryption of SOPS-encrypted delta objects
func WithSops(enabled bool) ColdStoreGCSOptionFunc {
	return func(c *ColdStoreGCS) {
		c.sops = enabled
	}
}
