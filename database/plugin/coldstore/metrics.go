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

package coldstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const coldStoreMetricNamePrefix = "lazarus_coldstore_"

// FetchMetrics counts cold store fetches by outcome. A nil *FetchMetrics
// records nothing
type FetchMetrics struct {
	fetches *prometheus.CounterVec
	bytes   prometheus.Counter
}

func NewFetchMetrics(
	registry prometheus.Registerer,
	pluginName string,
) *FetchMetrics {
	if registry == nil {
		return nil
	}
	factory := promauto.With(registry)
	labels := prometheus.Labels{"plugin": pluginName}
	return &FetchMetrics{
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        coldStoreMetricNamePrefix + "fetches_total",
				Help:        "Total number of state delta fetches by result",
				ConstLabels: labels,
			},
			[]string{"result"},
		),
		bytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name:        coldStoreMetricNamePrefix + "fetched_bytes_total",
				Help:        "Total bytes of state deltas fetched",
				ConstLabels: labels,
			},
		),
	}
}

// Observe records the outcome of a single fetch
func (m *FetchMetrics) Observe(data []byte, found bool, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.fetches.WithLabelValues("error").Inc()
	case !found:
		m.fetches.WithLabelValues("miss").Inc()
	default:
		m.fetches.WithLabelValues("hit").Inc()
		m.bytes.Add(float64(len(data)))
	}
}
