package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/megastudio/studio-agent/internal/api"
	"github.com/megastudio/studio-agent/internal/assemble"
	"github.com/megastudio/studio-agent/internal/capture"
	"github.com/megastudio/studio-agent/internal/compositor"
	"github.com/megastudio/studio-agent/internal/config"
	"github.com/megastudio/studio-agent/internal/db"
	"github.com/megastudio/studio-agent/internal/logging"
	"github.com/megastudio/studio-agent/internal/media"
	"github.com/megastudio/studio-agent/internal/playback"
	"github.com/megastudio/studio-agent/internal/player"
	"github.com/megastudio/studio-agent/internal/studio"
	"github.com/megastudio/studio-agent/internal/system"
	"github.com/megastudio/studio-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.CacheDir(), cfg.ExportsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting studio agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := studio.NewRepository(database.Conn())

	deviceID, err := ensureConfigValue(repo, "device_id", 16)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}
	authToken, err := ensureConfigValue(repo, api.AuthTokenKey, 32)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                    STUDIO AGENT v0.1.0                    ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	verifier := assemble.NewKeyVerifier()
	studioSvc := studio.NewService(repo, verifier, logger)

	fetcher := media.NewFetcher(cfg.CacheDir(), logger)
	prober := media.NewFFprobe(cfg.FFprobePath())
	decoder := media.NewFFmpegDecoder(cfg.FFmpegPath())
	visuals := media.NewVisualLoader(cfg.FFmpegPath(), fetcher, cfg.CacheDir(), logger)

	clock := player.NewClock()
	var audio player.AudioPlayer
	if cfg.Headless() {
		audio = media.NewSilentPlayer(fetcher, prober, clock, logger)
	} else {
		audio = media.NewFFplayPlayer("", fetcher, logger)
	}
	sequencer := player.NewSequencer(clock, audio, logger)

	// The renderer starts in landscape; loading a portrait project swaps it.
	renderer, err := compositor.NewRenderer(studio.FormatLandscape)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	loop := compositor.NewLoop(renderer, sequencer, visuals, cfg.FPS(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	captureCtl := capture.NewController(cfg.FFmpegPath(), cfg.ExportsDir(),
		cfg.FPS(), cfg.VideoBitrate(), loop, sequencer, decoder, fetcher, repo, logger)

	factory := assemble.NewFactory(repo, cfg.CacheDir(), logger)
	assembler := assemble.NewAssembler(factory, cfg.VoiceID(), logger)
	runner := assemble.NewRunner(assembler, repo, logger)
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Studio:     studioSvc,
		Repository: repo,
		Runner:     runner,
		Sequencer:  sequencer,
		Loop:       loop,
		Capture:    captureCtl,
		Streamer:   playback.NewServer(logger),
		System:     system.NewCollector(cfg.DataDir()),
		Logger:     logger,
		StartTime:  startTime,
		DeviceID:   deviceID,
		Version:    config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			StudioService: studioSvc,
			Runner:        runner,
			Capture:       captureCtl,
			Logger:        logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureConfigValue(repo studio.Repository, key string, byteLen int) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, key)
	if err == nil && existing != "" {
		return existing, nil
	}

	raw := make([]byte, byteLen)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	value := hex.EncodeToString(raw)

	if err := repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}
	return value, nil
}
