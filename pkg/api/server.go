// Package api serves the audit form over HTTP and pushes changes to
// browsers over a websocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/r3d91ll/gmpaudit/pkg/catalog"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/photo"
	"github.com/r3d91ll/gmpaudit/pkg/report"
	"github.com/r3d91ll/gmpaudit/pkg/store"
)

// maxUploadMemory bounds multipart parsing held in memory.
const maxUploadMemory = 8 << 20

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// DefaultServerConfig returns the local development defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "127.0.0.1",
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		AllowedOrigins: []string{"http://localhost:5173"},
	}
}

// Deps are the collaborators behind the API. Store is required.
type Deps struct {
	Store     *store.FormStore
	Backend   store.Backend
	Saver     *store.AutoSaver
	Photos    *photo.Store
	Paginator *report.Paginator
	Report    report.Options
	CSV       *report.CSVConfig
	Logger    *zap.Logger
}

// Server is the HTTP API server.
type Server struct {
	cfg    ServerConfig
	deps   Deps
	engine *gin.Engine
	hub    *Hub
	logger *zap.Logger

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer builds the router and websocket hub. Call Run to serve.
func NewServer(cfg ServerConfig, d Deps) *Server {
	def := DefaultServerConfig()
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Paginator == nil {
		d.Paginator = report.NewPaginator().WithLogger(d.Logger)
	}
	if d.Report.Now == nil {
		d.Report.Now = time.Now
	}
	if d.CSV == nil {
		d.CSV = report.DefaultCSVConfig()
	}

	s := &Server{
		cfg:    cfg,
		deps:   d,
		hub:    NewHub(d.Logger, makeOriginChecker(cfg.AllowedOrigins)),
		logger: d.Logger,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.MaxMultipartMemory = maxUploadMemory
	r.Use(
		RequestID(),
		Logger(s.logger),
		Recovery(s.logger),
		CORS(s.cfg.AllowedOrigins),
		Prometheus(),
	)
	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "NOT_FOUND", "the requested resource was not found")
	})

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", s.serveWS)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/form", s.getForm)
		v1.PUT("/company", s.putCompany)
		v1.PATCH("/questions/:id", s.patchQuestion)
		v1.POST("/questions/:id/photos", s.uploadPhotos)
		v1.DELETE("/questions/:id/photos/:photoId", s.deletePhoto)
		v1.POST("/sections/:id/toggle", s.toggleSection)
		v1.GET("/stats", s.getStats)
		v1.POST("/export/pdf", s.exportPDF)
		v1.GET("/export/html", s.exportHTML)
		v1.GET("/export/csv", s.exportCSV)
		v1.POST("/reset", s.reset)
	}
	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Address returns the server address in host:port format.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Run serves until ctx is done, then shuts down gracefully. It also starts
// the hub, forwards store events to it and, for a file backend, reloads the
// form when the file changes on disk.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run()
	defer s.hub.Stop()

	unsubscribe := s.forwardEvents()
	defer unsubscribe()

	if fb, ok := s.deps.Backend.(*store.FileBackend); ok {
		go func() {
			if err := s.watchForm(ctx, fb); err != nil {
				s.logger.Warn("form file watch stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:         s.Address(),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", zap.String("addr", s.Address()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return werrors.IOWrap(err, werrors.ErrNetworkBindFailed, "api server failed").
			WithContext("addr", s.Address())
	case <-ctx.Done():
	}

	s.logger.Info("api server shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	return srv.Shutdown(shutdownCtx)
}

// watchForm reloads the form on external edits until ctx is done. The
// storage directory is created first so a fresh install is watched too.
func (s *Server) watchForm(ctx context.Context, fb *store.FileBackend) error {
	if err := os.MkdirAll(filepath.Dir(fb.Path()), 0755); err != nil {
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, "failed to create storage directory").
			WithContext("path", fb.Path())
	}
	return store.Watch(ctx, fb.Path(), s.reloadIfChanged(ctx, fb))
}

// reloadIfChanged returns the watch callback. Saves made by this process
// leave the file hash unchanged and are ignored.
func (s *Server) reloadIfChanged(ctx context.Context, fb *store.FileBackend) func() {
	return func() {
		if !fb.ChangedOnDisk() {
			return
		}
		f, err := fb.Load(ctx)
		if err != nil {
			s.logger.Warn("reload of changed form failed", zap.Error(err))
			return
		}
		s.deps.Store.Replace(catalog.Merge(f))
		s.logger.Info("form reloaded from disk", zap.String("path", fb.Path()))
		s.hub.Publish(EventFormReloaded, s.deps.Store.Snapshot())
		s.hub.Notify(NotifyInfo, "The audit form was updated on disk and has been reloaded")
	}
}

func (s *Server) health(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}
