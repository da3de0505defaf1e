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

package lattice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"k8s.io/klog/v2"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/metrics"
)

const (
	// DefaultCacheSize sizes the in-process cache that stands in for an
	// unreachable Redis when no size is configured.
	DefaultCacheSize = 256
	DefaultRedisTTL  = time.Hour

	redisKeyPrefix = "tokenizer-server:lattice:"
)

// Cache stores rendered SVG documents by graph key. Lookups never fail: a
// backend error is reported as a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Add(ctx context.Context, key, svg string)
}

// Key returns the cache key of a graph description.
func Key(graph string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(graph))
}

// LRUCache keeps rendered documents in process memory.
type LRUCache struct {
	cache *lru.Cache[string, string]
}

func NewLRUCache(size int) (*LRUCache, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{cache: cache}, nil
}

func (c *LRUCache) Get(_ context.Context, key string) (string, bool) {
	return c.cache.Get(key)
}

func (c *LRUCache) Add(_ context.Context, key, svg string) {
	c.cache.Add(key, svg)
}

func (c *LRUCache) Len() int {
	return c.cache.Len()
}

// RedisCache shares rendered documents between replicas.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	svg, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			klog.Errorf("Failed to read rendered lattice %s from redis: %v", key, err)
		}
		return "", false
	}
	return svg, true
}

func (c *RedisCache) Add(ctx context.Context, key, svg string) {
	if err := c.client.Set(ctx, redisKeyPrefix+key, svg, c.ttl).Err(); err != nil {
		klog.Errorf("Failed to store rendered lattice %s in redis: %v", key, err)
	}
}

// CachedRenderer serves repeated graphs from a cache. Failed renders are not
// cached.
type CachedRenderer struct {
	renderer Renderer
	cache    Cache
}

func NewCachedRenderer(renderer Renderer, cache Cache) *CachedRenderer {
	return &CachedRenderer{renderer: renderer, cache: cache}
}

func (c *CachedRenderer) Render(ctx context.Context, graph string) (string, error) {
	key := Key(graph)
	if svg, ok := c.cache.Get(ctx, key); ok {
		metrics.RenderCacheLookups.WithLabelValues(metrics.ResultHit).Inc()
		klog.V(4).Infof("Rendered lattice %s served from cache", key)
		return svg, nil
	}
	metrics.RenderCacheLookups.WithLabelValues(metrics.ResultMiss).Inc()

	svg, err := c.renderer.Render(ctx, graph)
	if err != nil {
		return "", err
	}
	c.cache.Add(ctx, key, svg)
	return svg, nil
}
