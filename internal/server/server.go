// Package server exposes the analysis gateway over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/crispit/crispit-server/internal/analysis"
	"github.com/crispit/crispit-server/internal/barcode"
	"github.com/crispit/crispit-server/internal/carbon"
	"github.com/crispit/crispit-server/internal/speech"
	"github.com/crispit/crispit-server/internal/storage"
)

// Server wires the orchestrator and its collaborators into HTTP routes.
// Synth may be nil; speech endpoints then degrade to text-only.
type Server struct {
	analysis *analysis.Service
	store    storage.ScanStore
	synth    speech.Synthesizer
	barcodes *barcode.Client
	carbon   *carbon.Index
	engine   *gin.Engine
}

// New creates the server and registers all routes.
func New(svc *analysis.Service, store storage.ScanStore, synth speech.Synthesizer, barcodes *barcode.Client, carbonIndex *carbon.Index) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{
		analysis: svc,
		store:    store,
		synth:    synth,
		barcodes: barcodes,
		carbon:   carbonIndex,
		engine:   engine,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	api.POST("/scan", s.handleScan)
	api.POST("/scan/live", s.handleLiveScan)
	api.POST("/analyze/freshness", s.handleFreshness)
	api.POST("/analyze/packaged", s.handlePackaged)
	api.POST("/recipes", s.handleRecipes)
	api.POST("/assistant/voice-chat", s.handleVoiceChat)
	api.POST("/assistant/shopping", s.handleShopping)
	api.POST("/chat", s.handleChat)
	api.POST("/speak", s.handleSpeak)
	api.GET("/carbon", s.handleCarbonAll)
	api.GET("/carbon/:item", s.handleCarbonItem)
	api.GET("/barcode/:code", s.handleBarcode)
	api.GET("/scans", s.handleRecentScans)
	api.GET("/stats", s.handleStats)
}

// Handler returns the underlying HTTP handler, used by tests and main.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}

// writeError maps internal error kinds to HTTP statuses: bad input is
// the caller's fault, exhausted providers are an upstream outage.
func writeError(c *gin.Context, err error) {
	var verr *analysis.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, analysis.ErrAnalysisFailed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis is temporarily unavailable, please try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
