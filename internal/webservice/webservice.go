// Package webservice provides the HTTP server that receives DWF webhook
// payloads and persists them for later inspection by the test harness.
package webservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frappe-dwf/mock-webhook/internal/store"
	"github.com/frappe-dwf/mock-webhook/internal/webservice/handlers"
	"github.com/frappe-dwf/mock-webhook/internal/webservice/metrics"
)

// Server is a struct that holds the HTTP servers and their configuration.
type Server struct {
	httpServer    *http.Server
	metricsServer *http.Server
	cm            dConfigManager

	mu          sync.RWMutex
	primaryAddr net.Addr
	metricsAddr net.Addr

	// This context is used to interrupt any action.
	// It must be the parent of gracefulCtx.
	ctx    context.Context
	cancel context.CancelFunc

	// This context waits until the next blocking Recv to interrupt.
	gracefulCtx    context.Context
	gracefulCancel context.CancelFunc
}

// StaticConfig holds the static configuration for the server.
type StaticConfig struct {
	ConfigPath string
	StoreDir   string

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxHeaderBytes int
	MaxUploadBytes int

	ListenHost string
	ListenPort int

	MetricsHost string
	MetricsPort int
}

type dConfigManager interface {
	Load() error
	Watch(context.Context) (<-chan struct{}, <-chan error, error)
	AllowedMethods() []string
}

// New creates a new Server instance with the given config manager and static configuration.
func New(ctx context.Context, cm dConfigManager, sc StaticConfig) (*Server, error) {
	if err := cm.Load(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %v", err)
	}

	st, err := store.NewDirStore(sc.StoreDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create payload store: %v", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	gCtx, gCancel := context.WithCancel(ctx)

	s := Server{
		cm:     cm,
		ctx:    ctx,
		cancel: cancel,

		gracefulCtx:    gCtx,
		gracefulCancel: gCancel}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	endpointMiddleware := metrics.NewEndpointMiddleware(registry)
	muxMiddleware := metrics.NewMuxMiddleware(registry)

	webhookHandler := handlers.NewWebhook(cm, st, int64(sc.MaxUploadBytes))
	mux := http.NewServeMux()
	mux.Handle("POST /api/method/{method}",
		endpointMiddleware.Wrap("webhook", metrics.HandlerApplyLabels(webhookHandler)))
	mux.Handle("GET /health",
		endpointMiddleware.Wrap("health", metrics.HandlerApplyLabels(http.HandlerFunc(handlers.HealthHandler))))
	mux.Handle("GET /version",
		endpointMiddleware.Wrap("version", metrics.HandlerApplyLabels(http.HandlerFunc(handlers.VersionHandler))))

	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", sc.ListenHost, sc.ListenPort),
		ReadTimeout:    sc.ReadTimeout,
		WriteTimeout:   sc.WriteTimeout,
		Handler:        muxMiddleware.Wrap("mux", http.TimeoutHandler(mux, sc.RequestTimeout, "")),
		MaxHeaderBytes: sc.MaxHeaderBytes,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	s.metricsServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", sc.MetricsHost, sc.MetricsPort),
		ReadTimeout:    sc.ReadTimeout,
		WriteTimeout:   sc.WriteTimeout,
		Handler:        metricsMux,
		MaxHeaderBytes: sc.MaxHeaderBytes,
	}

	return &s, nil
}

// Run starts the HTTP servers and listens for incoming requests.
func (s *Server) Run() error {
	slog.Info("Starting server", "addr", s.httpServer.Addr, "metrics_addr", s.metricsServer.Addr)

	// already asked to quit?
	select {
	case <-s.gracefulCtx.Done():
		return errors.New("server is already shutting down")
	default:
	}

	_, watchErr, err := s.cm.Watch(s.gracefulCtx)
	if err != nil {
		return fmt.Errorf("failed to start watching configuration: %v", err)
	}

	primaryLn, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %v", s.httpServer.Addr, err)
	}
	metricsLn, err := net.Listen("tcp", s.metricsServer.Addr)
	if err != nil {
		primaryLn.Close()
		return fmt.Errorf("failed to listen on %s: %v", s.metricsServer.Addr, err)
	}

	s.mu.Lock()
	s.primaryAddr = primaryLn.Addr()
	s.metricsAddr = metricsLn.Addr()
	s.mu.Unlock()

	serverErr := make(chan error, 2)
	go func() {
		if err := s.httpServer.Serve(primaryLn); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()
	go func() {
		if err := s.metricsServer.Serve(metricsLn); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server encountered error", "err", err)
		}
	}()

	select {
	case <-s.gracefulCtx.Done():
		slog.Info("Graceful shutdown initiated")
		// use parent ctx so if you call s.cancel() elsewhere it unblocks Shutdown immediately
		err := s.httpServer.Shutdown(s.ctx)
		if errM := s.metricsServer.Shutdown(s.ctx); errM != nil {
			slog.Error("Metrics server graceful shutdown failed", "err", errM)
		}
		if err != nil {
			slog.Error("Graceful shutdown failed", "err", err)
			return err
		}
		slog.Info("Server shut down gracefully")
		// now kill everything else (watchers, handlers, etc.)
		s.cancel()
		return nil

	case err := <-serverErr:
		if err != nil {
			slog.Error("Server encountered error", "err", err)
		}
		s.metricsServer.Close()
		s.cancel()
		return err
	case err := <-watchErr:
		if err != nil {
			slog.Error("Config watcher encountered unrecoverable error", "err", err)
		}
		errC := s.httpServer.Close()
		s.metricsServer.Close()
		s.cancel()

		return errors.Join(err, errC)
	}
}

// Quit shuts down the HTTP servers gracefully.
func (s *Server) Quit(force bool) {
	defer s.cancel()

	if force {
		s.httpServer.Close()
		s.metricsServer.Close()
		s.cancel()
	} else {
		s.gracefulCancel()
	}
	slog.Info("Server quit")
}
