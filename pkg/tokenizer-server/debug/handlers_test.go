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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/metrics"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization/testutil"
)

func setupTestRouter(fake *testutil.FakeTokenizer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewDebugHandler(testutil.NewPool(fake), RendererInfo{
		Command: []string{"dot", "-Tsvg"},
		Timeout: "10s",
		Cache:   "lru",
	})
	handler.RegisterRoutes(router)
	return router
}

func TestListModes(t *testing.T) {
	router := setupTestRouter(&testutil.FakeTokenizer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/modes", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Modes []struct {
			Mode       int    `json:"mode"`
			Name       string `json:"name"`
			Variant    string `json:"variant"`
			MaxLength  int    `json:"maxLength"`
			Diagnostic bool   `json:"diagnostic"`
		} `json:"modes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Modes, 4)
	assert.Equal(t, "diagnostic", resp.Modes[3].Name)
	assert.Equal(t, 32, resp.Modes[3].MaxLength)
	assert.True(t, resp.Modes[3].Diagnostic)
	assert.Equal(t, 512, resp.Modes[1].MaxLength)
}

func TestGetLattice(t *testing.T) {
	fake := &testutil.FakeTokenizer{Graph: "graph lattice {\n}"}
	router := setupTestRouter(fake)

	tests := []struct {
		name   string
		target string
		status int
		body   string
	}{
		{name: "utf-8", target: "/debug/lattice?text=%E6%9D%B1%E4%BA%AC", status: http.StatusOK, body: fake.Graph},
		{name: "shift_jis", target: "/debug/lattice?text=%93%8C%8B%9E&encoding=Shift_JIS", status: http.StatusOK, body: fake.Graph},
		{name: "escaped key", target: "/debug/lattice?%74ext=%E6%9D%B1", status: http.StatusOK, body: fake.Graph},
		{name: "missing text", target: "/debug/lattice", status: http.StatusBadRequest},
		{name: "text only in other key", target: "/debug/lattice?context=a", status: http.StatusBadRequest},
		{name: "unknown charset", target: "/debug/lattice?text=a&encoding=not-a-real-charset", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, w.Body.String())
				assert.Equal(t, graphvizContentType, w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestGetLatticeFailure(t *testing.T) {
	router := setupTestRouter(&testutil.FakeTokenizer{GraphErr: errors.New("no lattice")})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/lattice?text=a", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetRenderer(t *testing.T) {
	metrics.ObserveRender(time.Now().Add(-time.Second), nil)
	metrics.RenderFailures.WithLabelValues("timeout").Inc()
	router := setupTestRouter(&testutil.FakeTokenizer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/renderer", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp RendererResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"dot", "-Tsvg"}, resp.Command)
	assert.Equal(t, "lru", resp.Cache)
	require.Contains(t, resp.Stats, metrics.ResultSuccess)
	assert.GreaterOrEqual(t, resp.Stats[metrics.ResultSuccess].Count, uint64(1))
	assert.GreaterOrEqual(t, resp.Stats[metrics.ResultSuccess].SumSeconds, 1.0)
	assert.GreaterOrEqual(t, resp.Failures["timeout"], 1.0)
}
