// Package api bsfedit REST API
//
// @title           bsfedit REST API
// @version         1.0.0
// @description     Editing API for one open BSF string table.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	"github.com/ssargent/bsfedit/pkg/document"
	"github.com/ssargent/bsfedit/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

// Server serves one document. Requests are serialised on mu.
type Server struct {
	mu       sync.Mutex
	doc      *document.Document
	config   ServerConfig
	metrics  *Metrics
	registry *prometheus.Registry
	history  Snapshotter
	logger   *zap.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with and served from
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithSnapshotter records a history snapshot after every save
func WithSnapshotter(h Snapshotter) Option {
	return func(s *Server) {
		s.history = h
	}
}

// NewServer creates a new API server
func NewServer(doc *document.Document, config ServerConfig, opts ...Option) *Server {
	s := &Server{doc: doc, config: config}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.logger = logging.OrNop(s.logger)
	s.metrics = NewMetrics(s.registry)
	s.metrics.UpdateDocStats(doc.Len())
	return s
}

// Router builds the HTTP handler with all routes configured
func (s *Server) Router() http.Handler {
	metrics := s.metrics

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(apiKeyMiddleware(s.config.APIKey, metrics))
		}

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		r.Get("/entries", metrics.InstrumentHandler("GET", "/api/v1/entries", s.handleList))
		r.Get("/entries/{key}", metrics.InstrumentHandler("GET", "/api/v1/entries/{key}", s.handleGet))
		r.Put("/entries/{key}", metrics.InstrumentHandler("PUT", "/api/v1/entries/{key}", s.handlePut))
		r.Delete("/entries/{key}", metrics.InstrumentHandler("DELETE", "/api/v1/entries/{key}", s.handleDelete))
		r.Post("/entries/{key}/move", metrics.InstrumentHandler("POST", "/api/v1/entries/{key}/move", s.handleMove))

		r.Post("/save", metrics.InstrumentHandler("POST", "/api/v1/save", s.handleSave))
		r.Get("/export", metrics.InstrumentHandler("GET", "/api/v1/export", s.handleExport))
	})

	// Swagger documentation (unprotected)
	r.Get("/swagger/*", s.handleSwagger)

	return r
}

func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/swagger/", "/swagger/index.html":
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerUI))
	case "/swagger/swagger.json":
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			s.logger.Error("Failed to generate swagger doc", zap.Error(err))
			http.Error(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	default:
		http.NotFound(w, r)
	}
}

const swaggerUI = `<!DOCTYPE html>
<html>
<head>
	<title>bsfedit API Documentation</title>
	<link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui.css" />
</head>
<body>
	<div id="swagger-ui"></div>
	<script src="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui-bundle.js"></script>
	<script>
	  window.onload = function() {
	    SwaggerUIBundle({
	      url: '/swagger/swagger.json',
	      dom_id: '#swagger-ui',
	      presets: [
	        SwaggerUIBundle.presets.apis,
	        SwaggerUIBundle.presets.standalone
	      ]
	    });
	  };
	</script>
</body>
</html>`

// StartServer serves doc until ctx is cancelled, then shuts down gracefully
func StartServer(ctx context.Context, doc *document.Document, config ServerConfig, opts ...Option) error {
	server := NewServer(doc, config, opts...)

	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	SwaggerInfo.Host = addr

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		server.logger.Info("Starting bsfedit REST API server",
			zap.String("addr", addr),
			zap.String("document", doc.Path),
			zap.Bool("auth", config.APIKey != ""),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	server.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
