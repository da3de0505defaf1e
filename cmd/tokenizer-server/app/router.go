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
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/accesslog"
	"github.com/volcano-sh/kthena-tokenizer/pkg/tokenizer-server/handlers"
)

const gracefulShutdownTimeout = 15 * time.Second

func (s *Server) newEngine(deps *dependencies) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/readyz", "/metrics"), gin.Recovery())
	engine.Use(accesslog.AccessLogMiddleware(deps.accessLogger))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ok",
		})
	})

	engine.GET("/readyz", func(c *gin.Context) {
		if s.HasSynced() {
			c.JSON(http.StatusOK, gin.H{
				"message": "tokenizer server is ready",
			})
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"message": "tokenizer server is not ready",
			})
		}
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tokenize := func(c *gin.Context) {
		h := deps.handler.Load()
		if h == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "tokenizers are still loading"})
			return
		}
		h.Tokenize(c)
	}
	engine.GET(handlers.TokenizePath, tokenize)
	engine.POST(handlers.TokenizePath, tokenize)

	debugGroup := engine.Group("/debug", func(c *gin.Context) {
		if deps.debug.Load() == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "tokenizers are still loading"})
			return
		}
		c.Next()
	})
	debugGroup.GET("/modes", func(c *gin.Context) { deps.debug.Load().ListModes(c) })
	debugGroup.GET("/lattice", func(c *gin.Context) { deps.debug.Load().GetLattice(c) })
	debugGroup.GET("/renderer", func(c *gin.Context) { deps.debug.Load().GetRenderer(c) })

	return engine
}

// Starts router
func (s *Server) startRouter(ctx context.Context, deps *dependencies) {
	gin.SetMode(gin.ReleaseMode)
	engine := s.newEngine(deps)

	server := &http.Server{
		Addr:    ":" + s.Port,
		Handler: engine.Handler(),
	}
	go func() {
		var err error
		if s.EnableTLS {
			if s.TLSCertFile == "" || s.TLSKeyFile == "" {
				klog.Fatalf("TLS enabled but cert or key file not specified")
			}
			err = server.ListenAndServeTLS(s.TLSCertFile, s.TLSKeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			klog.Fatalf("listen failed: %v", err)
		}
	}()
	klog.Infof("Tokenizer server listening on :%s", s.Port)

	<-ctx.Done()
	// graceful shutdown
	klog.Info("Shutting down HTTP server ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		klog.Errorf("Server shutdown failed: %v", err)
	}
	klog.Info("HTTP server exited")
}
