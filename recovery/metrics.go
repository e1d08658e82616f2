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

package recovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type recoveryMetrics struct {
	deltasApplied    prometheus.Counter
	coldStoreImports prometheus.Counter
	coldStoreMisses  prometheus.Counter
	trimmedTxBlocks  prometheus.Counter
	trimmedLinks     prometheus.Counter
	cleanupFailures  prometheus.Counter
	txBlocks         prometheus.Gauge
	blockLinks       prometheus.Gauge
}

func (m *recoveryMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.deltasApplied = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "lazarus_recovery_deltas_applied_total",
		Help: "total number of state deltas applied during recovery",
	})
	m.coldStoreImports = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "lazarus_recovery_coldstore_imports_total",
		Help: "total number of state deltas imported from the cold store",
	})
	m.coldStoreMisses = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "lazarus_recovery_coldstore_misses_total",
		Help: "total number of blocks with no archived state delta",
	})
	m.trimmedTxBlocks = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "lazarus_recovery_trimmed_tx_blocks_total",
		Help: "total number of open epoch tx blocks removed",
	})
	m.trimmedLinks = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "lazarus_recovery_trimmed_block_links_total",
		Help: "total number of incomplete epoch blocks removed",
	})
	m.cleanupFailures = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "lazarus_recovery_cleanup_failures_total",
		Help: "total number of best effort deletions that failed",
	})
	m.txBlocks = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "lazarus_recovery_tx_blocks",
		Help: "number of tx blocks accepted by the last recovery",
	})
	m.blockLinks = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "lazarus_recovery_block_links",
		Help: "number of block links replayed by the last recovery",
	})
}
