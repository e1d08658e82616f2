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

package accountstate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type storeMetrics struct {
	accounts      prometheus.Gauge
	pending       prometheus.Gauge
	deltasApplied prometheus.Counter
	flushes       prometheus.Counter
}

func (m *storeMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.accounts = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "lazarus_accountstate_accounts",
		Help: "number of accounts held in memory",
	})
	m.pending = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "lazarus_accountstate_pending_updates",
		Help: "number of account updates not yet written to disk",
	})
	m.deltasApplied = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "lazarus_accountstate_deltas_applied_total",
		Help: "total number of state deltas applied",
	})
	m.flushes = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "lazarus_accountstate_flushes_total",
		Help: "total number of account update flushes to disk",
	})
}
