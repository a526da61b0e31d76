// Package config provides configuration management for the Studio Agent.
// Configuration is loaded from environment variables with sensible defaults,
// optionally seeded from a .env file and overlaid by a YAML config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultDataDir  = ".studio-agent"
	DefaultFPS      = 30
	DefaultVoiceID  = "21m00Tcm4TlvDq8ikWAM"

	// Environment variable names
	EnvPort       = "STUDIO_PORT"
	EnvLogLevel   = "STUDIO_LOG_LEVEL"
	EnvDataDir    = "STUDIO_DATA_DIR"
	EnvConfigFile = "STUDIO_CONFIG_FILE"
	EnvFFmpeg     = "STUDIO_FFMPEG_PATH"
	EnvFFprobe    = "STUDIO_FFPROBE_PATH"
	EnvHeadless   = "STUDIO_HEADLESS"

	// Database filename
	DBFilename = "studio.db"

	// Export bitrate (~8 Mbps, matches the recorder's quality target)
	DefaultVideoBitrate = 8_000_000
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	CacheDir() string
	ExportsDir() string
	FPS() int
	VideoBitrate() int
	VoiceID() string
	FFmpegPath() string
	FFprobePath() string
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	fps      int
	bitrate  int
	voiceID  string
	ffmpeg   string
	ffprobe  string
	headless bool
}

// fileOverlay is the optional YAML config file shape. Values present in the
// file win over defaults but lose to environment variables.
type fileOverlay struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir"`
	FPS      int    `yaml:"fps"`
	Bitrate  int    `yaml:"video_bitrate"`
	VoiceID  string `yaml:"voice_id"`
	FFmpeg   string `yaml:"ffmpeg_path"`
	FFprobe  string `yaml:"ffprobe_path"`
}

// New creates a new EnvConfig with defaults, YAML overlay and environment
// variable overrides, in that order.
func New() (*EnvConfig, error) {
	// Local development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
		fps:      DefaultFPS,
		bitrate:  DefaultVideoBitrate,
		voiceID:  DefaultVoiceID,
		ffmpeg:   "ffmpeg",
		ffprobe:  "ffprobe",
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if f := os.Getenv(EnvFFmpeg); f != "" {
		cfg.ffmpeg = f
	}
	if f := os.Getenv(EnvFFprobe); f != "" {
		cfg.ffprobe = f
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	return cfg, nil
}

func (c *EnvConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	if overlay.Port != 0 {
		c.port = overlay.Port
	}
	if overlay.LogLevel != "" {
		c.logLevel = overlay.LogLevel
	}
	if overlay.DataDir != "" {
		c.dataDir = overlay.DataDir
	}
	if overlay.FPS != 0 {
		c.fps = overlay.FPS
	}
	if overlay.Bitrate != 0 {
		c.bitrate = overlay.Bitrate
	}
	if overlay.VoiceID != "" {
		c.voiceID = overlay.VoiceID
	}
	if overlay.FFmpeg != "" {
		c.ffmpeg = overlay.FFmpeg
	}
	if overlay.FFprobe != "" {
		c.ffprobe = overlay.FFprobe
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// CacheDir returns the cache directory path (downloaded narration audio
// and generated frames live here between runs).
func (c *EnvConfig) CacheDir() string {
	return filepath.Join(c.dataDir, "cache")
}

// ExportsDir returns the directory recorded videos are saved to.
func (c *EnvConfig) ExportsDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// FPS returns the compositor/recorder frame rate.
func (c *EnvConfig) FPS() int {
	return c.fps
}

// VideoBitrate returns the recording bitrate in bits per second.
func (c *EnvConfig) VideoBitrate() int {
	return c.bitrate
}

// VoiceID returns the speech synthesis voice identifier.
func (c *EnvConfig) VoiceID() string {
	return c.voiceID
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpeg
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

// Headless reports whether the system tray should be disabled.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
