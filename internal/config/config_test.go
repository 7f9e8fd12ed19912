package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Port:             "8080",
		DBPath:           "/tmp/songs.db",
		SongDir:          "/tmp/songs",
		CatalogURL:       "https://usdb.animux.de",
		LogLevel:         "info",
		LogFormat:        "text",
		Encoding:         "utf-8",
		LineEndings:      "lf",
		MaxConcurrent:    2,
		BackgroundPolicy: "no-video",
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Valid config rejected: %v", err)
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "notaport"
	cfg.Encoding = "latin1"
	cfg.MaxConcurrent = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Invalid config accepted")
	}
	msg := err.Error()
	for _, want := range []string{"PORT", "TXT_ENCODING", "MAX_CONCURRENT"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %s error in %q", want, msg)
		}
	}
}

func TestConfig_ValidatePortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "70000"
	if err := cfg.Validate(); err == nil {
		t.Error("Out-of-range port accepted")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Unexpected default port: %s", cfg.Port)
	}
	if cfg.MaxConcurrent != 2 {
		t.Errorf("Unexpected default concurrency: %d", cfg.MaxConcurrent)
	}
	if !cfg.Audio || !cfg.Video || !cfg.Cover || !cfg.Background {
		t.Error("Expected all downloads enabled by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("MAX_CONCURRENT", "5")
	t.Setenv("DOWNLOAD_VIDEO", "false")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Errorf("Expected env port, got %s", cfg.Port)
	}
	if cfg.MaxConcurrent != 5 {
		t.Errorf("Expected env concurrency, got %d", cfg.MaxConcurrent)
	}
	if cfg.Video {
		t.Error("Expected video download disabled")
	}
}
