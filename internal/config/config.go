package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MCP transport modes.
const (
	MCPOff   = "off"
	MCPStdio = "stdio"
	MCPHTTP  = "http"
)

// Config holds all configuration for the enabler daemon.
type Config struct {
	// CDP connection settings
	CDPAddress    string
	CDPPort       int
	EvalTimeoutMS int

	// Control surface
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool
	MCPMode          string

	// Detection behavior
	DetectFencing     bool
	DetectConcurrency int
	SelectorsFile     string

	// Outcome observers
	JournalDir       string
	JournalMaxSizeMB int
	NtfyEndpoint     string

	// Browser launch
	LaunchBrowser bool
	StartURL      string
	ProfileDir    string

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		CDPAddress:        getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:           getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9220),
		EvalTimeoutMS:     getEnvIntOrDefault("ENABLER_EVAL_TIMEOUT_MS", 5000),
		BindAddr:          getEnvOrDefault("ENABLER_BIND_ADDR", "127.0.0.1:8190"),
		PortCandidates:    getEnvListOrDefault("ENABLER_PORT_CANDIDATES", []string{"127.0.0.1:8191", "127.0.0.1:8192"}),
		PortAutoFallback:  getEnvBoolOrDefault("ENABLER_PORT_AUTO_FALLBACK", true),
		MCPMode:           strings.ToLower(getEnvOrDefault("ENABLER_MCP", MCPHTTP)),
		DetectFencing:     getEnvBoolOrDefault("ENABLER_DETECT_FENCING", true),
		DetectConcurrency: getEnvIntOrDefault("ENABLER_DETECT_CONCURRENCY", 4),
		SelectorsFile:     getEnvOrDefault("ENABLER_SELECTORS_FILE", "./config/selectors.yaml"),
		JournalDir:        os.Getenv("ENABLER_JOURNAL_DIR"),
		JournalMaxSizeMB:  getEnvIntOrDefault("ENABLER_JOURNAL_MAX_SIZE_MB", 50),
		NtfyEndpoint:      os.Getenv("ENABLER_NTFY_ENDPOINT"),
		LaunchBrowser:     getEnvBoolOrDefault("ENABLER_LAUNCH_BROWSER", false),
		StartURL:          getEnvOrDefault("ENABLER_START_URL", "about:blank"),
		ProfileDir:        getEnvOrDefault("ENABLER_PROFILE_DIR", "./browser_profile"),
		LogLevel:          strings.ToLower(getEnvOrDefault("ENABLER_LOG_LEVEL", "info")),
		LogFile:           getEnvOrDefault("ENABLER_LOG_FILE", "logs/enabler.log"),
	}
	if _, set := os.LookupEnv("ENABLER_JOURNAL_DIR"); !set {
		cfg.JournalDir = "./enabler_data"
	}
	if cfg.EvalTimeoutMS < 1000 {
		cfg.EvalTimeoutMS = 1000
	}
	if cfg.DetectConcurrency < 1 {
		cfg.DetectConcurrency = 1
	}
	switch cfg.MCPMode {
	case MCPOff, MCPStdio, MCPHTTP:
	default:
		return nil, fmt.Errorf("ENABLER_MCP must be one of off, stdio, http; got %q", cfg.MCPMode)
	}

	return cfg, nil
}

// CDPURL returns the CDP HTTP endpoint.
func (c *Config) CDPURL() string {
	return "http://" + c.CDPAddress + ":" + strconv.Itoa(c.CDPPort)
}

// EvalTimeout returns the per-evaluation timeout.
func (c *Config) EvalTimeout() time.Duration {
	return time.Duration(c.EvalTimeoutMS) * time.Millisecond
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvListOrDefault splits a comma-separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
