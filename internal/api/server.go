package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/megastudio/studio-agent/internal/assemble"
	"github.com/megastudio/studio-agent/internal/capture"
	"github.com/megastudio/studio-agent/internal/compositor"
	"github.com/megastudio/studio-agent/internal/playback"
	"github.com/megastudio/studio-agent/internal/player"
	"github.com/megastudio/studio-agent/internal/studio"
	"github.com/megastudio/studio-agent/internal/system"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port       int
	Studio     studio.StudioService
	Repository studio.Repository
	Runner     *assemble.Runner
	Sequencer  *player.Sequencer
	Loop       *compositor.Loop
	Capture    *capture.Controller
	Streamer   playback.Streamer
	System     *system.Collector
	Logger     *slog.Logger
	StartTime  time.Time
	DeviceID   string
	Version    string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
