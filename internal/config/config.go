package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"

	"github.com/DeinAlptraum/usdb-syncer/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port       string
	DBPath     string
	SongDir    string
	CatalogURL string
	LogLevel   string
	LogFormat  string

	Encoding    string
	LineEndings string

	MaxConcurrent    int
	Audio            bool
	Video            bool
	Cover            bool
	Background       bool
	BackgroundPolicy string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	defaultDB := filepath.Join(xdg.DataHome, "usdb-syncer", "songs.db")
	defaultSongDir := filepath.Join(xdg.UserDirs.Music, "usdb-syncer")

	return &Config{
		Port:             getEnv("PORT", constants.DefaultPort),
		DBPath:           getEnv("DB_PATH", defaultDB),
		SongDir:          getEnv("SONG_DIR", defaultSongDir),
		CatalogURL:       getEnv("CATALOG_URL", constants.DefaultCatalogURL),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		Encoding:         getEnv("TXT_ENCODING", constants.DefaultEncoding),
		LineEndings:      getEnv("TXT_LINE_ENDINGS", constants.DefaultLineEndings),
		MaxConcurrent:    getEnvInt("MAX_CONCURRENT", constants.DefaultConcurrency),
		Audio:            getEnvBool("DOWNLOAD_AUDIO", true),
		Video:            getEnvBool("DOWNLOAD_VIDEO", true),
		Cover:            getEnvBool("DOWNLOAD_COVER", true),
		Background:       getEnvBool("DOWNLOAD_BACKGROUND", true),
		BackgroundPolicy: getEnv("BACKGROUND_POLICY", constants.BackgroundNoVideo),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.SongDir == "" {
		errors = append(errors, "SONG_DIR cannot be empty")
	}

	if c.CatalogURL == "" {
		errors = append(errors, "CATALOG_URL cannot be empty")
	} else {
		if _, err := url.Parse(c.CatalogURL); err != nil {
			errors = append(errors, fmt.Sprintf("CATALOG_URL is not a valid URL: %s", c.CatalogURL))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	validEncodings := map[string]bool{
		constants.EncodingUTF8:    true,
		constants.EncodingUTF8BOM: true,
	}
	if !validEncodings[c.Encoding] {
		errors = append(errors, fmt.Sprintf("TXT_ENCODING must be one of: utf-8, utf-8-bom, got: %s", c.Encoding))
	}

	validLineEndings := map[string]bool{
		constants.LineEndingsLF:   true,
		constants.LineEndingsCRLF: true,
	}
	if !validLineEndings[c.LineEndings] {
		errors = append(errors, fmt.Sprintf("TXT_LINE_ENDINGS must be one of: lf, crlf, got: %s", c.LineEndings))
	}

	if c.MaxConcurrent < 1 {
		errors = append(errors, fmt.Sprintf("MAX_CONCURRENT must be at least 1, got: %d", c.MaxConcurrent))
	}

	validPolicies := map[string]bool{
		constants.BackgroundAlways:  true,
		constants.BackgroundNoVideo: true,
	}
	if !validPolicies[c.BackgroundPolicy] {
		errors = append(errors, fmt.Sprintf("BACKGROUND_POLICY must be one of: always, no-video, got: %s", c.BackgroundPolicy))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
