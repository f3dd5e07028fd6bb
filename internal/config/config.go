package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Folders
	DownloadsDir  string // scanned for .mp3/.m4a/.wav sources
	SeparationDir string // passed to demucs -o; stems land in <dir>/<model>/<song>

	// External tools
	FFmpegBin   string
	PythonBin   string
	DemucsModel string        // empty uses demucs' default (htdemucs)
	RunTimeout  time.Duration // 0 = wait forever

	// Key change range offered to users
	MinKey int
	MaxKey int

	// Preview server
	Port              int
	CrossfadeDuration time.Duration

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // console or json
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DownloadsDir:  envStr("OKE_DOWNLOADS_DIR", filepath.Join(home, "Downloads")),
		SeparationDir: envStr("OKE_SEPARATION_DIR", filepath.Join(home, "okecreator", "separated")),

		FFmpegBin:   envStr("OKE_FFMPEG_BIN", "ffmpeg"),
		PythonBin:   envStr("OKE_PYTHON_BIN", "python"),
		DemucsModel: envStr("OKE_DEMUCS_MODEL", ""),
		RunTimeout:  envDuration("OKE_RUN_TIMEOUT", 0),

		MinKey: envInt("OKE_MIN_KEY", -3),
		MaxKey: envInt("OKE_MAX_KEY", 3),

		Port:              envInt("OKE_PORT", 8080),
		CrossfadeDuration: time.Duration(envInt("OKE_CROSSFADE", 2)) * time.Second,

		LogLevel:  envStr("OKE_LOG_LEVEL", "info"),
		LogFormat: envStr("OKE_LOG_FORMAT", "console"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envDuration accepts Go durations ("90s", "10m") or plain seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
