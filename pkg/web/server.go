// Package web assembles the HTTP server: repositories, the document
// attachment, use cases, handlers and middleware.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/zots0127/onefile/internal/adapter/handler"
	"github.com/zots0127/onefile/internal/domain/entities"
	"github.com/zots0127/onefile/internal/infrastructure/repository"
	"github.com/zots0127/onefile/internal/usecase"
	"github.com/zots0127/onefile/pkg/attachment"
	"github.com/zots0127/onefile/pkg/config"
	"github.com/zots0127/onefile/pkg/metrics"
	"github.com/zots0127/onefile/pkg/middleware"
	"github.com/zots0127/onefile/pkg/storage"
	"go.uber.org/zap"
)

// Options holds what the server is built from
type Options struct {
	Config *config.Config
	// ConfigManager enables the /config routes when set.
	ConfigManager *config.ConfigManager
	DB            *sql.DB
	Disks         *storage.Manager
	Logger        *zap.Logger
	// Registry receives the metrics. A fresh registry is created when
	// metrics are enabled and Registry is nil.
	Registry *prometheus.Registry
	Version  string
}

// Server represents the HTTP server
type Server struct {
	engine    *gin.Engine
	http      *http.Server
	config    *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	documents *repository.DocumentRepository
}

// NewServer wires the document service and registers every route. The
// documents table is migrated before the server is returned.
func NewServer(ctx context.Context, opts Options) (*Server, error) {
	if opts.Config == nil || opts.DB == nil || opts.Disks == nil {
		return nil, errors.New("web: config, database and disks are required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := opts.Config

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	maxUpload, err := cfg.Server.MaxUploadBytes()
	if err != nil {
		return nil, fmt.Errorf("invalid max upload size: %w", err)
	}

	s := &Server{
		engine:   gin.New(),
		config:   cfg,
		logger:   log,
		registry: opts.Registry,
	}
	if cfg.Metrics.Enabled && s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	documents, err := s.newDocumentUseCase(ctx, opts.DB, opts.Disks)
	if err != nil {
		return nil, err
	}
	health := usecase.NewHealthUseCase(repository.NewHealthRepository(opts.DB, opts.Disks), opts.Version)

	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	handler.NewHealthHandler(health).RegisterRoutes(s.engine)
	handler.NewDocumentHandler(documents, log).RegisterRoutes(s.engine, middleware.BodyLimit(maxUpload))
	if opts.ConfigManager != nil {
		config.NewConfigMiddleware(opts.ConfigManager).AddConfigRoutes(s.engine)
	}
	if s.registry != nil {
		s.engine.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler(s.registry)))
	}
	s.setupStaticRoutes(opts.Disks)
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	s.http = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      s.engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

func (s *Server) newDocumentUseCase(ctx context.Context, db *sql.DB, disks *storage.Manager) (*usecase.DocumentUseCase, error) {
	attCfg := s.config.Attachment(entities.DocumentCollection)

	docs, err := repository.NewDocumentRepository(db, attCfg.FileColumn, s.logger)
	if err != nil {
		return nil, err
	}
	if err := docs.Migrate(ctx); err != nil {
		return nil, err
	}

	opts := []attachment.Option{
		attachment.WithLogger(s.logger),
		attachment.WithLocker(attachment.NewKeyedLocker()),
	}
	if s.registry != nil {
		observer, err := metrics.NewObserver(s.config.Metrics.Namespace, s.registry)
		if err != nil {
			return nil, err
		}
		opts = append(opts, attachment.WithObserver(observer))
	}

	files, err := attachment.New[*entities.Document](disks, docs, attachment.Config[*entities.Document]{
		Disk:  attCfg.Disk,
		Field: entities.DocumentFileField(attCfg.FileColumn),
	}, opts...)
	if err != nil {
		return nil, err
	}
	docs.Use(files)

	s.documents = docs
	return usecase.NewDocumentUseCase(docs, files, s.logger), nil
}

func (s *Server) setupMiddleware() error {
	s.engine.Use(middleware.Recovery(s.logger))
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logging(s.logger, "/health/live", s.config.Metrics.Path))
	s.engine.Use(middleware.SecurityHeaders())

	if s.registry != nil {
		httpMetrics, err := metrics.NewHTTPMetrics(s.config.Metrics.Namespace, s.registry)
		if err != nil {
			return err
		}
		s.engine.Use(httpMetrics.Middleware())
	}
	return nil
}

// setupStaticRoutes serves local disks whose URL is a path on this server
func (s *Server) setupStaticRoutes(disks *storage.Manager) {
	seen := make(map[string]bool)
	for _, name := range disks.Names() {
		disk, err := disks.Disk(name)
		if err != nil {
			continue
		}
		local, ok := disk.(*storage.LocalDisk)
		if !ok {
			continue
		}

		prefix := strings.TrimRight(local.BaseURL(), "/")
		if !strings.HasPrefix(prefix, "/") || prefix == "" || seen[prefix] {
			continue
		}
		seen[prefix] = true
		s.engine.Static(prefix, local.Root())
		s.logger.Info("serving local disk",
			zap.String("disk", name),
			zap.String("prefix", prefix),
			zap.String("root", local.Root()))
	}
}

// GetEngine returns the gin engine (for testing)
func (s *Server) GetEngine() *gin.Engine {
	return s.engine
}

// Documents returns the document repository the server writes to
func (s *Server) Documents() *repository.DocumentRepository {
	return s.documents
}

// Run serves HTTP until Shutdown is called
func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("address", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.http.Shutdown(ctx)
}
