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

package cmd

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/debug"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/handlers"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/response"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization/testutil"
)

func newServer(t *testing.T, fake *testutil.FakeTokenizer) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	pool := testutil.NewPool(fake)
	handlers.NewHandler(pool, nil).RegisterRoutes(engine)
	debug.NewDebugHandler(pool, debug.RendererInfo{}).RegisterRoutes(engine)
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	outputFormat, tokenizeMode, encoding, viterbiFile = "table", 0, "", ""
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func sampleTokens() []tokenization.Token {
	return []tokenization.Token{
		testutil.KnownToken("すもも", "すもも", "スモモ", "スモモ", "名詞", "一般"),
		testutil.KnownToken("も", "も", "モ", "モ", "助詞", "係助詞"),
	}
}

func TestTokenizeTable(t *testing.T) {
	fake := &testutil.FakeTokenizer{Tokens: sampleTokens()}
	server := newServer(t, fake)

	output, err := run(t, "tokenize", "--server", server, "すもも", "も")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "SURFACE")
	assert.Contains(t, lines[1], "名詞,一般,*,*")
	assert.Equal(t, []string{"すもも も"}, fake.Texts())
}

func TestTokenizeOutputFormats(t *testing.T) {
	server := newServer(t, &testutil.FakeTokenizer{Tokens: sampleTokens()})

	output, err := run(t, "tokenize", "-s", server, "-m", "2", "-o", "json", "すももも")
	require.NoError(t, err)
	var resp response.TokenizationResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, 2, resp.Mode)
	assert.Len(t, resp.Tokens, 2)

	output, err = run(t, "tokenize", "-s", server, "-o", "yaml", "-e", "shift_jis", "すももも")
	require.NoError(t, err)
	resp = response.TokenizationResponse{}
	require.NoError(t, yaml.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "すももも", resp.Input)

	_, err = run(t, "tokenize", "-s", server, "-o", "xml", "すももも")
	assert.Error(t, err)
}

func TestTokenizeViterbiFile(t *testing.T) {
	server := newServer(t, &testutil.FakeTokenizer{Tokens: sampleTokens()})
	path := filepath.Join(t.TempDir(), "lattice.svg")

	// The test server has no renderer, so there is nothing to save.
	_, err := run(t, "tokenize", "-s", server, "-m", "3", "--viterbi", path, "すもも")
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, writeViterbi(path, "<svg/>"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))
}

func TestModesAndLatticeCommands(t *testing.T) {
	server := newServer(t, &testutil.FakeTokenizer{Graph: "graph lattice {}"})

	output, err := run(t, "modes", "-s", server)
	require.NoError(t, err)
	assert.Contains(t, output, "diagnostic")
	assert.Len(t, strings.Split(strings.TrimSpace(output), "\n"), 5)

	output, err = run(t, "lattice", "-s", server, "東京")
	require.NoError(t, err)
	assert.Equal(t, "graph lattice {}", output)
}

func TestTokenizeServerError(t *testing.T) {
	server := newServer(t, &testutil.FakeTokenizer{})

	_, err := run(t, "tokenize", "-s", server, "-e", "not-a-real-charset", "東京")
	assert.Error(t, err)

	_, err = run(t, "tokenize", "-s", "localhost:1", "東京")
	assert.Error(t, err)
}

func TestDocCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "doc", "--output", dir, "--format", "markdown")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "ktokenize_tokenize.md"))
	assert.NoError(t, err)
}
