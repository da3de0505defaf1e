/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Label names
	LabelMode       = "mode"
	LabelStatusCode = "status_code"
	LabelErrorType  = "error_type"
	LabelResult     = "result"
	LabelOp         = "op"

	// Result values
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts tokenize requests by mode code and HTTP status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenizer_server_requests_total",
			Help: "Total number of tokenize requests processed",
		},
		[]string{LabelMode, LabelStatusCode, LabelErrorType},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokenizer_server_request_duration_seconds",
			Help:    "End-to-end tokenize request latency",
			Buckets: durationBuckets,
		},
		[]string{LabelMode},
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenizer_server_tokens_total",
			Help: "Total number of tokens returned to clients",
		},
		[]string{LabelMode},
	)

	// InputTruncations counts inputs cut down to the mode's max length.
	InputTruncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokenizer_server_input_truncations_total",
			Help: "Number of inputs truncated to the maximum accepted length",
		},
	)

	IllegalModes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokenizer_server_illegal_modes_total",
			Help: "Number of requests with an unrecognized mode code",
		},
	)

	InvariantViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokenizer_server_invariant_violations_total",
			Help: "Number of tokens that broke the dictionary feature layout",
		},
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokenizer_server_render_duration_seconds",
			Help:    "Lattice rendering latency, including the renderer process lifetime",
			Buckets: durationBuckets,
		},
		[]string{LabelResult},
	)

	RenderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenizer_server_render_failures_total",
			Help: "Lattice rendering failures by failed operation",
		},
		[]string{LabelOp},
	)

	RenderCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenizer_server_render_cache_lookups_total",
			Help: "Render cache lookups by result",
		},
		[]string{LabelResult},
	)
)

// ObserveRender records one render call.
func ObserveRender(start time.Time, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	RenderDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
