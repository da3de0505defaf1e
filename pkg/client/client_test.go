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

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/debug"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/handlers"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization/testutil"
)

func newTestServer(t *testing.T, fake *testutil.FakeTokenizer) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	pool := testutil.NewPool(fake)
	handlers.NewHandler(pool, nil).RegisterRoutes(engine)
	debug.NewDebugHandler(pool, debug.RendererInfo{}).RegisterRoutes(engine)
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server
}

func TestTokenize(t *testing.T) {
	fake := &testutil.FakeTokenizer{
		Tokens: []tokenization.Token{testutil.KnownToken("東京", "東京", "トウキョウ", "トーキョー", "名詞", "固有名詞")},
	}
	c, err := New(newTestServer(t, fake).URL + "/")
	require.NoError(t, err)

	resp, err := c.Tokenize(context.Background(), "100% a+b 東京", 1)
	require.NoError(t, err)
	assert.Equal(t, "100% a+b 東京", resp.Input)
	assert.Equal(t, 1, resp.Mode)
	require.Len(t, resp.Tokens, 1)
	assert.Equal(t, "名詞,固有名詞,*,*", resp.Tokens[0].POS)
	assert.Equal(t, []string{"100% a+b 東京"}, fake.Texts())
}

func TestTokenizeEncoded(t *testing.T) {
	fake := &testutil.FakeTokenizer{}
	c, err := New(newTestServer(t, fake).URL)
	require.NoError(t, err)

	for _, enc := range []string{"utf-8", "shift_jis", "euc-jp"} {
		resp, err := c.TokenizeEncoded(context.Background(), "すもも 東京", enc, 0)
		require.NoError(t, err, enc)
		assert.Equal(t, "すもも 東京", resp.Input, enc)
	}

	_, err = c.TokenizeEncoded(context.Background(), "東京", "not-a-real-charset", 0)
	assert.Error(t, err)
}

func TestModesAndLattice(t *testing.T) {
	c, err := New(newTestServer(t, &testutil.FakeTokenizer{Graph: "graph {}"}).URL)
	require.NoError(t, err)

	modes, err := c.Modes(context.Background())
	require.NoError(t, err)
	require.Len(t, modes, 4)
	assert.True(t, modes[3].Diagnostic)

	graph, err := c.Lattice(context.Background(), "東京")
	require.NoError(t, err)
	assert.Equal(t, "graph {}", graph)
}

func TestAPIError(t *testing.T) {
	c, err := New(newTestServer(t, &testutil.FakeTokenizer{Err: errors.New("analyzer crashed")}).URL, WithRetryMax(0))
	require.NoError(t, err)

	_, err = c.Tokenize(context.Background(), "東京", 0)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "analyzer crashed")
}

func TestRetryOnUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"tokenizers are still loading"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"input":"a","tokens":[],"mode":0}`))
	}))
	defer server.Close()

	c, err := New(server.URL, WithRetryWait(time.Millisecond, 5*time.Millisecond), WithTimeout(5*time.Second))
	require.NoError(t, err)

	resp, err := c.Tokenize(context.Background(), "a", 0)
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Input)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNoRetryOnBadRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"text is required"}`))
	}))
	defer server.Close()

	c, err := New(server.URL, WithRetryWait(time.Millisecond, 5*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Tokenize(context.Background(), "a", 0)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "text is required", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewInvalidAddress(t *testing.T) {
	_, err := New("localhost:8080")
	assert.Error(t, err)
	_, err = New("://bad")
	assert.Error(t, err)
}
