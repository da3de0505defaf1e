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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/accesslog"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/lattice"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	opts := c.RendererOptions()
	assert.Equal(t, []string{"dot", "-Tsvg"}, opts.Command)
	assert.Equal(t, 10*time.Second, opts.Timeout)
	assert.Equal(t, int64(8388608), opts.MaxOutputBytes)
	assert.False(t, opts.StrictExitCode)
	assert.Equal(t, 0, *c.Renderer.Cache.Size)
	assert.Nil(t, c.Renderer.Cache.Redis)
	assert.Zero(t, c.RedisTTL())
	assert.Equal(t, accesslog.FormatText, c.AccessLog.Format)
	assert.Empty(t, c.TokenizerPoolConfig().UserDictionary)
}

func TestParse(t *testing.T) {
	data := []byte(`
tokenizer:
  userDictionary: /etc/tokenizer/userdict.csv
renderer:
  command: ["/usr/local/bin/dot", "-Tsvg", "-Gcharset=utf8"]
  timeout: 3s
  maxOutputBytes: 1024
  strictExitCode: true
  cache:
    size: 64
    redis:
      address: redis:6379
      db: 2
accessLog:
  enabled: true
  format: json
  output: stderr
`)
	c, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "/etc/tokenizer/userdict.csv", c.TokenizerPoolConfig().UserDictionary)
	assert.Equal(t, lattice.Options{
		Command:        []string{"/usr/local/bin/dot", "-Tsvg", "-Gcharset=utf8"},
		Timeout:        3 * time.Second,
		MaxOutputBytes: 1024,
		StrictExitCode: true,
	}, c.RendererOptions())
	assert.Equal(t, 64, *c.Renderer.Cache.Size)
	require.NotNil(t, c.Renderer.Cache.Redis)
	assert.Equal(t, "redis:6379", c.Renderer.Cache.Redis.Address)
	assert.Equal(t, 2, c.Renderer.Cache.Redis.DB)
	assert.Equal(t, time.Hour, c.RedisTTL())
	assert.Equal(t, accesslog.FormatJSON, c.AccessLog.Format)
	assert.Equal(t, accesslog.OutputStderr, c.AccessLog.Output)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed yaml", data: "renderer: [unclosed"},
		{name: "unknown field", data: "renderer:\n  binary: dot\n"},
		{name: "bad duration", data: "renderer:\n  timeout: soon\n"},
		{name: "empty executable", data: "renderer:\n  command: [\"\"]\n"},
		{name: "negative timeout", data: "renderer:\n  timeout: -1s\n"},
		{name: "negative cache size", data: "renderer:\n  cache:\n    size: -1\n"},
		{name: "redis without address", data: "renderer:\n  cache:\n    redis:\n      db: 1\n"},
		{name: "bad access log format", data: "accessLog:\n  enabled: true\n  format: xml\n  output: stdout\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			var cfgErr ErrInvalidConfig
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().RendererOptions(), c.RendererOptions())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("renderer:\n  timeout: 250ms\n"), 0o600))
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, c.RendererOptions().Timeout)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var cfgErr ErrInvalidConfig
	require.True(t, errors.As(err, &cfgErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestAccessLogEnvOverride(t *testing.T) {
	t.Setenv("ACCESS_LOG_FORMAT", "json")
	c, err := Parse([]byte("accessLog:\n  enabled: true\n  format: text\n  output: stdout\n"))
	require.NoError(t, err)
	assert.Equal(t, accesslog.FormatJSON, c.AccessLog.Format)
}
