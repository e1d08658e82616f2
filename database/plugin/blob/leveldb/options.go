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

package leveldb

import "log/slog"

type BlobStoreLevelDBOptionFunc func(*BlobStoreLevelDB)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) BlobStoreLevelDBOptionFunc {
	return func(b *BlobStoreLevelDB) {
		b.logger = logger
	}
}

// WithDataDir specifies the data directory to use for storage. An empty
// value selects an in-memory store
func WithDataDir(dataDir string) BlobStoreLevelDBOptionFunc {
	return func(b *BlobStoreLevelDB) {
		b.dataDir = dataDir
	}
}

// WithBlockCacheCapacity specifies the block cache capacity in bytes
func WithBlockCacheCapacity(capacity int) BlobStoreLevelDBOptionFunc {
	return func(b *BlobStoreLevelDB) {
		b.blockCacheCapacity = capacity
	}
}

// WithOpenFilesCacheSize specifies how many open table files are cached
func WithOpenFilesCacheSize(size int) BlobStoreLevelDBOptionFunc {
	return func(b *BlobStoreLevelDB) {
		b.openFilesCacheSize = size
	}
}
