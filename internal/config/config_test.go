package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"OKE_DOWNLOADS_DIR", "OKE_SEPARATION_DIR", "OKE_FFMPEG_BIN", "OKE_PYTHON_BIN",
	"OKE_DEMUCS_MODEL", "OKE_RUN_TIMEOUT", "OKE_MIN_KEY", "OKE_MAX_KEY",
	"OKE_PORT", "OKE_CROSSFADE", "OKE_LOG_LEVEL", "OKE_LOG_FORMAT",
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range envVars {
		t.Setenv(k, "")
	}
	home, _ := os.UserHomeDir()

	cfg := Load()

	if cfg.DownloadsDir != filepath.Join(home, "Downloads") {
		t.Errorf("DownloadsDir = %q, want ~/Downloads", cfg.DownloadsDir)
	}
	if cfg.SeparationDir != filepath.Join(home, "okecreator", "separated") {
		t.Errorf("SeparationDir = %q, want default", cfg.SeparationDir)
	}
	if cfg.FFmpegBin != "ffmpeg" {
		t.Errorf("FFmpegBin = %q, want ffmpeg", cfg.FFmpegBin)
	}
	if cfg.PythonBin != "python" {
		t.Errorf("PythonBin = %q, want python", cfg.PythonBin)
	}
	if cfg.DemucsModel != "" {
		t.Errorf("DemucsModel = %q, want empty", cfg.DemucsModel)
	}
	if cfg.RunTimeout != 0 {
		t.Errorf("RunTimeout = %v, want 0", cfg.RunTimeout)
	}
	if cfg.MinKey != -3 || cfg.MaxKey != 3 {
		t.Errorf("key range = %d..%d, want -3..3", cfg.MinKey, cfg.MaxKey)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.CrossfadeDuration != 2*time.Second {
		t.Errorf("CrossfadeDuration = %v, want 2s", cfg.CrossfadeDuration)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Errorf("log = %q/%q, want info/console", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OKE_DOWNLOADS_DIR", "/music/in")
	t.Setenv("OKE_SEPARATION_DIR", "/music/sep")
	t.Setenv("OKE_FFMPEG_BIN", "/usr/local/bin/ffmpeg")
	t.Setenv("OKE_PYTHON_BIN", "python3")
	t.Setenv("OKE_DEMUCS_MODEL", "mdx_extra")
	t.Setenv("OKE_RUN_TIMEOUT", "15m")
	t.Setenv("OKE_MIN_KEY", "-6")
	t.Setenv("OKE_MAX_KEY", "6")
	t.Setenv("OKE_PORT", "3000")
	t.Setenv("OKE_CROSSFADE", "4")
	t.Setenv("OKE_LOG_LEVEL", "debug")
	t.Setenv("OKE_LOG_FORMAT", "json")

	cfg := Load()

	if cfg.DownloadsDir != "/music/in" || cfg.SeparationDir != "/music/sep" {
		t.Errorf("dirs = %q, %q", cfg.DownloadsDir, cfg.SeparationDir)
	}
	if cfg.FFmpegBin != "/usr/local/bin/ffmpeg" || cfg.PythonBin != "python3" {
		t.Errorf("bins = %q, %q", cfg.FFmpegBin, cfg.PythonBin)
	}
	if cfg.DemucsModel != "mdx_extra" {
		t.Errorf("DemucsModel = %q", cfg.DemucsModel)
	}
	if cfg.RunTimeout != 15*time.Minute {
		t.Errorf("RunTimeout = %v, want 15m", cfg.RunTimeout)
	}
	if cfg.MinKey != -6 || cfg.MaxKey != 6 {
		t.Errorf("key range = %d..%d", cfg.MinKey, cfg.MaxKey)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.CrossfadeDuration != 4*time.Second {
		t.Errorf("CrossfadeDuration = %v, want 4s", cfg.CrossfadeDuration)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("log = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("OKE_PORT", "not-a-number")
	if cfg := Load(); cfg.Port != 8080 {
		t.Errorf("Invalid int env should fallback to default: got %d, want 8080", cfg.Port)
	}
}

func TestEnvDurationForms(t *testing.T) {
	tests := map[string]time.Duration{
		"90":    90 * time.Second,
		"1m30s": 90 * time.Second,
		"bogus": 0,
	}
	for in, want := range tests {
		t.Setenv("OKE_RUN_TIMEOUT", in)
		if got := Load().RunTimeout; got != want {
			t.Errorf("OKE_RUN_TIMEOUT=%q -> %v, want %v", in, got, want)
		}
	}
}
