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

// Package config loads the tokenizer server configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/accesslog"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/lattice"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization"
)

type Config struct {
	Tokenizer TokenizerConfig               `json:"tokenizer"`
	Renderer  RendererConfig                `json:"renderer"`
	AccessLog *accesslog.AccessLoggerConfig `json:"accessLog,omitempty"`
}

type TokenizerConfig struct {
	// UserDictionary is an optional kagome user dictionary file.
	UserDictionary string `json:"userDictionary,omitempty"`
}

type RendererConfig struct {
	Command        []string         `json:"command,omitempty"`
	Timeout        *metav1.Duration `json:"timeout,omitempty"`
	MaxOutputBytes int64            `json:"maxOutputBytes,omitempty"`
	StrictExitCode bool             `json:"strictExitCode,omitempty"`
	Cache          CacheConfig      `json:"cache"`
}

type CacheConfig struct {
	// Size is the number of in-process entries. Zero, the default, disables
	// the cache.
	Size  *int         `json:"size,omitempty"`
	Redis *RedisConfig `json:"redis,omitempty"`
}

type RedisConfig struct {
	Address  string           `json:"address"`
	Password string           `json:"password,omitempty"`
	DB       int              `json:"db,omitempty"`
	TTL      *metav1.Duration `json:"ttl,omitempty"`
}

// ErrInvalidConfig reports a configuration file that cannot be used.
type ErrInvalidConfig struct {
	Message string
	Cause   error
}

func (e ErrInvalidConfig) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid configuration: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

func (e ErrInvalidConfig) Unwrap() error {
	return e.Cause
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// Load reads the YAML file at path. An empty path yields the defaults.
// Defaults are applied and the result validated.
func Load(path string) (*Config, error) {
	if path == "" {
		c := Default()
		c.AccessLog.ApplyEnv()
		return c, c.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrInvalidConfig{Message: fmt.Sprintf("failed to read %s", path), Cause: err}
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	klog.Infof("Loaded configuration from %s", path)
	return c, nil
}

func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, ErrInvalidConfig{Message: "failed to unmarshal", Cause: err}
	}
	c.SetDefaults()
	c.AccessLog.ApplyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) SetDefaults() {
	r := &c.Renderer
	if len(r.Command) == 0 {
		r.Command = append([]string(nil), lattice.DefaultCommand...)
	}
	if r.Timeout == nil {
		r.Timeout = &metav1.Duration{Duration: lattice.DefaultTimeout}
	}
	if r.MaxOutputBytes == 0 {
		r.MaxOutputBytes = lattice.DefaultMaxOutputBytes
	}
	if r.Cache.Size == nil {
		r.Cache.Size = ptr.To(0)
	}
	if r.Cache.Redis != nil && r.Cache.Redis.TTL == nil {
		r.Cache.Redis.TTL = &metav1.Duration{Duration: lattice.DefaultRedisTTL}
	}
	if c.AccessLog == nil {
		c.AccessLog = accesslog.DefaultAccessLoggerConfig()
	}
}

func (c *Config) Validate() error {
	r := c.Renderer
	if r.Command[0] == "" {
		return ErrInvalidConfig{Message: "renderer.command must name an executable"}
	}
	if r.Timeout.Duration <= 0 {
		return ErrInvalidConfig{Message: fmt.Sprintf("renderer.timeout must be positive, got %s", r.Timeout.Duration)}
	}
	if r.MaxOutputBytes < 0 {
		return ErrInvalidConfig{Message: "renderer.maxOutputBytes must not be negative"}
	}
	if *r.Cache.Size < 0 {
		return ErrInvalidConfig{Message: "renderer.cache.size must not be negative"}
	}
	if redis := r.Cache.Redis; redis != nil {
		if redis.Address == "" {
			return ErrInvalidConfig{Message: "renderer.cache.redis.address is required"}
		}
		if redis.TTL.Duration <= 0 {
			return ErrInvalidConfig{Message: "renderer.cache.redis.ttl must be positive"}
		}
	}
	if c.AccessLog.Enabled {
		if err := c.AccessLog.Validate(); err != nil {
			return ErrInvalidConfig{Message: "accessLog", Cause: err}
		}
	}
	return nil
}

func (c *Config) TokenizerPoolConfig() tokenization.TokenizerPoolConfig {
	return tokenization.TokenizerPoolConfig{UserDictionary: c.Tokenizer.UserDictionary}
}

func (c *Config) RendererOptions() lattice.Options {
	return lattice.Options{
		Command:        c.Renderer.Command,
		Timeout:        c.Renderer.Timeout.Duration,
		MaxOutputBytes: c.Renderer.MaxOutputBytes,
		StrictExitCode: c.Renderer.StrictExitCode,
	}
}

// RedisTTL returns the Redis entry lifetime, or zero when Redis is not
// configured.
func (c *Config) RedisTTL() time.Duration {
	if c.Renderer.Cache.Redis == nil {
		return 0
	}
	return c.Renderer.Cache.Redis.TTL.Duration
}
