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

package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/klog/v2"
	utilexec "k8s.io/utils/exec"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/accesslog"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/config"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/debug"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/handlers"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/lattice"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/tokenization"
)

type Server struct {
	Port        string
	EnableTLS   bool
	TLSCertFile string
	TLSKeyFile  string
	ConfigFile  string

	ready atomic.Bool
}

func NewServer(port string, enableTLS bool, cert, key, configFile string) *Server {
	return &Server{
		Port:        port,
		EnableTLS:   enableTLS,
		TLSCertFile: cert,
		TLSKeyFile:  key,
		ConfigFile:  configFile,
	}
}

// HasSynced reports whether the tokenizers are loaded.
func (s *Server) HasSynced() bool {
	return s.ready.Load()
}

func (s *Server) Run(ctx context.Context) {
	cfg, err := config.Load(s.ConfigFile)
	if err != nil {
		klog.Fatalf("Failed to load configuration: %v", err)
	}

	accessLogger, err := accesslog.NewAccessLogger(cfg.AccessLog)
	if err != nil {
		klog.Fatalf("Failed to create access logger: %v", err)
	}
	defer func() {
		if err := accessLogger.Close(); err != nil {
			klog.Errorf("Failed to close access logger: %v", err)
		}
	}()

	deps := &dependencies{accessLogger: accessLogger}
	go func() {
		start := time.Now()
		pool, err := tokenization.NewKagomeTokenizerPool(cfg.TokenizerPoolConfig())
		if err != nil {
			klog.Fatalf("Failed to create tokenizers: %v", err)
		}
		renderer, cacheName, cleanup := newRenderer(ctx, cfg)
		deps.setup(pool, renderer, debugInfo(cfg, cacheName), cleanup)
		s.ready.Store(true)
		klog.Infof("Tokenizers ready in %s", time.Since(start))
	}()

	s.startRouter(ctx, deps)
	deps.close()
}

// dependencies are built in the background while the HTTP server already
// answers health checks.
type dependencies struct {
	accessLogger accesslog.AccessLogger

	handler atomic.Pointer[handlers.Handler]
	debug   atomic.Pointer[debug.DebugHandler]
	cleanup atomic.Pointer[func()]
}

func (d *dependencies) setup(pool *tokenization.TokenizerPool, renderer lattice.Renderer, info debug.RendererInfo, cleanup func()) {
	d.handler.Store(handlers.NewHandler(pool, renderer))
	d.debug.Store(debug.NewDebugHandler(pool, info))
	d.cleanup.Store(&cleanup)
}

func (d *dependencies) close() {
	if cleanup := d.cleanup.Load(); cleanup != nil {
		(*cleanup)()
	}
}

// newRenderer builds the lattice renderer with the configured cache in front
// of it. Without cache configuration every render spawns its own process. An
// unreachable Redis falls back to the in-process cache.
func newRenderer(ctx context.Context, cfg *config.Config) (lattice.Renderer, string, func()) {
	renderer, err := lattice.NewProcessRenderer(utilexec.New(), cfg.RendererOptions())
	if err != nil {
		klog.Fatalf("Failed to create lattice renderer: %v", err)
	}
	noop := func() {}

	if redisCfg := cfg.Renderer.Cache.Redis; redisCfg != nil {
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Address,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			klog.Errorf("Redis connection failed, using in-process render cache: %v", err)
			_ = client.Close()
		} else {
			klog.Infof("Caching rendered lattices in redis at %s", redisCfg.Address)
			closeClient := func() {
				if err := client.Close(); err != nil {
					klog.Errorf("Failed to close redis client: %v", err)
				}
			}
			return lattice.NewCachedRenderer(renderer, lattice.NewRedisCache(client, cfg.RedisTTL())), "redis", closeClient
		}
	}

	size := *cfg.Renderer.Cache.Size
	if size == 0 && cfg.Renderer.Cache.Redis != nil {
		size = lattice.DefaultCacheSize
	}
	if size == 0 {
		return renderer, "none", noop
	}
	cache, err := lattice.NewLRUCache(size)
	if err != nil {
		klog.Fatalf("Failed to create render cache: %v", err)
	}
	return lattice.NewCachedRenderer(renderer, cache), "lru", noop
}

func debugInfo(cfg *config.Config, cacheName string) debug.RendererInfo {
	opts := cfg.RendererOptions()
	return debug.RendererInfo{
		Command:        opts.Command,
		Timeout:        opts.Timeout.String(),
		MaxOutputBytes: opts.MaxOutputBytes,
		StrictExitCode: opts.StrictExitCode,
		Cache:          cacheName,
	}
}
