package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("LogLevel() = %s, want %s", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.FPS() != DefaultFPS {
		t.Errorf("FPS() = %d, want %d", cfg.FPS(), DefaultFPS)
	}
	if cfg.VideoBitrate() != DefaultVideoBitrate {
		t.Errorf("VideoBitrate() = %d, want %d", cfg.VideoBitrate(), DefaultVideoBitrate)
	}
	if cfg.VoiceID() != DefaultVoiceID {
		t.Errorf("VoiceID() = %s", cfg.VoiceID())
	}
	if cfg.Headless() {
		t.Error("Headless() should default to false")
	}
	if cfg.DBPath() != filepath.Join(cfg.DataDir(), DBFilename) {
		t.Errorf("DBPath() = %s", cfg.DBPath())
	}
	if cfg.CacheDir() != filepath.Join(cfg.DataDir(), "cache") {
		t.Errorf("CacheDir() = %s", cfg.CacheDir())
	}
	if cfg.ExportsDir() != filepath.Join(cfg.DataDir(), "exports") {
		t.Errorf("ExportsDir() = %s", cfg.ExportsDir())
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9999")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvDataDir, "/tmp/studio-test")
	t.Setenv(EnvFFmpeg, "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv(EnvHeadless, "true")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.Port() != 9999 {
		t.Errorf("Port() = %d, want 9999", cfg.Port())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %s, want debug", cfg.LogLevel())
	}
	if cfg.DataDir() != "/tmp/studio-test" {
		t.Errorf("DataDir() = %s", cfg.DataDir())
	}
	if cfg.FFmpegPath() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpegPath() = %s", cfg.FFmpegPath())
	}
	if !cfg.Headless() {
		t.Error("Headless() = false, want true")
	}
}

func TestNew_InvalidValues(t *testing.T) {
	t.Setenv(EnvPort, "not-a-number")
	if _, err := New(); err == nil {
		t.Error("New() should reject a non-numeric port")
	}

	t.Setenv(EnvPort, "70000")
	if _, err := New(); err == nil {
		t.Error("New() should reject a port above 65535")
	}

	t.Setenv(EnvPort, "8790")
	t.Setenv(EnvHeadless, "maybe")
	if _, err := New(); err == nil {
		t.Error("New() should reject a non-boolean headless flag")
	}
}

func TestNew_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	overlay := "port: 9100\nlog_level: warn\nfps: 24\nvoice_id: custom-voice\n"
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigFile, path)

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.Port() != 9100 || cfg.LogLevel() != "warn" || cfg.FPS() != 24 {
		t.Errorf("overlay not applied: port=%d level=%s fps=%d", cfg.Port(), cfg.LogLevel(), cfg.FPS())
	}
	if cfg.VoiceID() != "custom-voice" {
		t.Errorf("VoiceID() = %s", cfg.VoiceID())
	}
	// Untouched keys keep their defaults.
	if cfg.VideoBitrate() != DefaultVideoBitrate {
		t.Errorf("VideoBitrate() = %d, want default", cfg.VideoBitrate())
	}
}

func TestNew_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	if err := os.WriteFile(path, []byte("port: 9100\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvPort, "9200")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Port() != 9200 {
		t.Errorf("Port() = %d, env should beat the file", cfg.Port())
	}
}

func TestNew_MissingConfigFile(t *testing.T) {
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := New(); err == nil {
		t.Error("New() should fail when the named config file is missing")
	}
}
