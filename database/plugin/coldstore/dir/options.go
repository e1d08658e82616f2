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
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type ColdStoreDirOptionFunc func(*ColdStoreDir)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ColdStoreDirOptionFunc {
	return func(c *ColdStoreDir) {
		c.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(
	registry prometheus.Registerer,
) ColdStoreDirOptionFunc {
	return func(c *ColdStoreDir) {
		c.promRegistry = registry
	}
}

// WithDir specifies the directory holding the archived deltas
func WithDir(dir string) ColdStoreDirOptionFunc {
	return func(c *ColdStoreDir) {
		c.dir = dir
	}
}

// WithSops enables decryption of SOPS-encrypted delta files
func WithSops(enabled bool) ColdStoreDirOptionFunc {
	return func(c *ColdStoreDir) {
		c.sops = enabled
	}
}
