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

// Package handlers serves the tokenize endpoint.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/accesslog"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/lattice"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/metrics"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/mode"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/normalizer"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/response"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization"
)

const TokenizePath = "/tokenizer/tokenize"

type Handler struct {
	pool     *tokenization.TokenizerPool
	renderer lattice.Renderer
}

// NewHandler creates a handler. A nil renderer disables lattice rendering
// for diagnostic requests.
func NewHandler(pool *tokenization.TokenizerPool, renderer lattice.Renderer) *Handler {
	return &Handler{
		pool:     pool,
		renderer: renderer,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET(TokenizePath, h.Tokenize)
	r.POST(TokenizePath, h.Tokenize)
}

// Tokenize handles GET and POST /tokenizer/tokenize.
func (h *Handler) Tokenize(c *gin.Context) {
	start := time.Now()
	req, err := ParseRequest(c)
	if err != nil {
		h.fail(c, "", err)
		return
	}
	modeLabel := mode.Mode(req.Mode).String()
	defer func() {
		metrics.RequestDuration.WithLabelValues(modeLabel).Observe(time.Since(start).Seconds())
	}()

	alog := accesslog.GetAccessLogContext(c)
	resp, err := h.Process(c.Request.Context(), req, alog)
	if err != nil {
		h.fail(c, modeLabel, err)
		return
	}

	if alog != nil {
		alog.SetResult(len(resp.Tokens), resp.Viterbi != "")
	}
	metrics.TokensTotal.WithLabelValues(modeLabel).Add(float64(len(resp.Tokens)))
	metrics.RequestsTotal.WithLabelValues(modeLabel, strconv.Itoa(http.StatusOK), "").Inc()
	c.JSON(http.StatusOK, resp)
}

// Process runs a parsed request to completion. alog may be nil.
func (h *Handler) Process(ctx context.Context, req TokenizationRequest, alog *accesslog.AccessLogContext) (*response.TokenizationResponse, error) {
	state := Received
	entry := mode.Resolve(req.Mode)
	if alog != nil {
		alog.SetRequest(req.Mode, 0)
	}

	text, err := normalizer.Normalize(req.Text, req.Encoding, entry.MaxLength)
	if err != nil {
		return nil, &RequestError{State: state, Err: err}
	}
	state = Normalized
	if alog != nil {
		alog.SetRequest(req.Mode, utf8.RuneCountInString(text))
	}
	klog.Infof("Tokenizing text %s using mode %d", text, req.Mode)

	if alog != nil {
		alog.MarkTokenizationStart()
	}
	tokens, err := h.pool.Tokenize(entry.Variant, text)
	if alog != nil {
		alog.MarkTokenizationEnd()
	}
	if err != nil {
		klog.Errorf("Failed to tokenize %q with %s tokenizer: %v", text, entry.Variant, err)
		return nil, &RequestError{State: state, Err: err}
	}
	state = Tokenized

	resp, err := response.Assemble(text, req.Mode, tokens)
	if err != nil {
		var invariant *response.InvariantError
		if errors.As(err, &invariant) {
			klog.Errorf("Tokenizer broke the dictionary feature layout for %q: %v", text, err)
			metrics.InvariantViolations.Inc()
		}
		return nil, &RequestError{State: state, Err: err}
	}
	state = Assembled

	if entry.Diagnostic {
		state = DiagnosticRendering
		if alog != nil {
			alog.MarkRenderStart()
		}
		resp.Viterbi = h.renderLattice(ctx, text)
		if alog != nil {
			alog.MarkRenderEnd()
		}
	}
	state = Completed
	klog.V(4).Infof("Request for mode %d reached %s with %d tokens", req.Mode, state, len(resp.Tokens))
	return resp, nil
}

// renderLattice returns the SVG lattice of text, or an empty string when it
// cannot be produced.
func (h *Handler) renderLattice(ctx context.Context, text string) string {
	if h.renderer == nil {
		return ""
	}
	graph, err := h.pool.DebugAnalyze(text)
	if err != nil {
		klog.Errorf("Failed to build lattice graph for %q: %v", text, err)
		return ""
	}
	svg, err := h.renderer.Render(ctx, graph)
	if err != nil {
		klog.Warningf("Returning response without lattice for %q: %v", text, err)
		return ""
	}
	return svg
}

func (h *Handler) fail(c *gin.Context, modeLabel string, err error) {
	status, errType := classify(err)
	if modeLabel == "" {
		modeLabel = "unknown"
	}
	metrics.RequestsTotal.WithLabelValues(modeLabel, strconv.Itoa(status), errType).Inc()
	accesslog.SetError(c, errType, err.Error())
	if status >= http.StatusInternalServerError {
		klog.Errorf("Tokenize request %s failed: %v", accesslog.RequestID(c), err)
	} else {
		klog.V(4).Infof("Rejected tokenize request %s: %v", accesslog.RequestID(c), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
