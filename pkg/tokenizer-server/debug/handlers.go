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

package debug

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"k8s.io/klog/v2"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/lattice"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/metrics"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/mode"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/normalizer"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization"
)

const graphvizContentType = "text/vnd.graphviz; charset=utf-8"

// DebugHandler provides read-only debug endpoints for the tokenizer server
type DebugHandler struct {
	pool     *tokenization.TokenizerPool
	renderer RendererInfo
}

// RendererInfo describes the configured lattice renderer.
type RendererInfo struct {
	Command        []string `json:"command"`
	Timeout        string   `json:"timeout"`
	MaxOutputBytes int64    `json:"maxOutputBytes"`
	StrictExitCode bool     `json:"strictExitCode"`
	Cache          string   `json:"cache"`
}

type RendererResponse struct {
	RendererInfo
	Stats    map[string]*RenderStats `json:"stats"`
	Failures map[string]float64      `json:"failures,omitempty"`
}

type RenderStats struct {
	Count      uint64  `json:"count"`
	SumSeconds float64 `json:"sumSeconds"`
}

// NewDebugHandler creates a new debug handler
func NewDebugHandler(pool *tokenization.TokenizerPool, renderer RendererInfo) *DebugHandler {
	return &DebugHandler{
		pool:     pool,
		renderer: renderer,
	}
}

func (h *DebugHandler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/debug")
	group.GET("/modes", h.ListModes)
	group.GET("/lattice", h.GetLattice)
	group.GET("/renderer", h.GetRenderer)
}

// ListModes handles GET /debug/modes
func (h *DebugHandler) ListModes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"modes": mode.Entries()})
}

// GetLattice handles GET /debug/lattice and returns the raw lattice graph
// for text, cut to the diagnostic input length.
func (h *DebugHandler) GetLattice(c *gin.Context) {
	raw, ok := normalizer.RawValue(c.Request.URL.RawQuery, "text")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text parameter is required"})
		return
	}
	text, err := normalizer.Normalize(raw, c.Query("encoding"), mode.MaxDiagnosticInputLength)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	graph, err := h.pool.DebugAnalyze(text)
	if err != nil {
		klog.Errorf("Failed to build lattice graph for %q: %v", text, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, graphvizContentType, []byte(graph))
}

// GetRenderer handles GET /debug/renderer
func (h *DebugHandler) GetRenderer(c *gin.Context) {
	resp := RendererResponse{
		RendererInfo: h.renderer,
		Stats:        make(map[string]*RenderStats),
		Failures:     make(map[string]float64),
	}
	for _, result := range []string{metrics.ResultSuccess, metrics.ResultFailure} {
		observer, err := metrics.RenderDuration.GetMetricWithLabelValues(result)
		if err != nil {
			continue
		}
		if stats := histogramStats(observer); stats != nil {
			resp.Stats[result] = stats
		}
	}
	for _, op := range renderOps {
		counter, err := metrics.RenderFailures.GetMetricWithLabelValues(op)
		if err != nil {
			continue
		}
		m := &dto.Metric{}
		if err := counter.Write(m); err == nil && m.GetCounter().GetValue() > 0 {
			resp.Failures[op] = m.GetCounter().GetValue()
		}
	}
	c.JSON(http.StatusOK, resp)
}

var renderOps = []string{
	lattice.OpPipe, lattice.OpStart, lattice.OpWrite, lattice.OpRead,
	lattice.OpWait, lattice.OpTimeout, lattice.OpCanceled, lattice.OpExit,
}

func histogramStats(observer prometheus.Observer) *RenderStats {
	metric, ok := observer.(prometheus.Metric)
	if !ok {
		return nil
	}
	m := &dto.Metric{}
	if err := metric.Write(m); err != nil {
		return nil
	}
	h := m.GetHistogram()
	return &RenderStats{
		Count:      h.GetSampleCount(),
		SumSeconds: h.GetSampleSum(),
	}
}
