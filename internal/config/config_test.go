package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, want := cfg.CDPURL(), "http://127.0.0.1:9220"; got != want {
		t.Fatalf("CDPURL() = %q; want %q", got, want)
	}
	if got, want := cfg.BindAddr, "127.0.0.1:8190"; got != want {
		t.Fatalf("BindAddr = %q; want %q", got, want)
	}
	if len(cfg.PortCandidates) != 2 {
		t.Fatalf("PortCandidates = %v; want two defaults", cfg.PortCandidates)
	}
	if !cfg.DetectFencing {
		t.Fatal("DetectFencing = false; want true")
	}
	if got, want := cfg.JournalDir, "./enabler_data"; got != want {
		t.Fatalf("JournalDir = %q; want %q", got, want)
	}
	if got, want := cfg.MCPMode, MCPHTTP; got != want {
		t.Fatalf("MCPMode = %q; want %q", got, want)
	}
	if got, want := cfg.EvalTimeout(), 5*time.Second; got != want {
		t.Fatalf("EvalTimeout() = %v; want %v", got, want)
	}
}

func TestLoadOverridesAndClamps(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHROMIUM_CDP_PORT", "9333")
	t.Setenv("ENABLER_EVAL_TIMEOUT_MS", "10")
	t.Setenv("ENABLER_DETECT_CONCURRENCY", "0")
	t.Setenv("ENABLER_DETECT_FENCING", "false")
	t.Setenv("ENABLER_PORT_CANDIDATES", " 127.0.0.1:9001, ,127.0.0.1:9002 ")
	t.Setenv("ENABLER_JOURNAL_DIR", "")
	t.Setenv("ENABLER_MCP", "STDIO")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CDPPort != 9333 {
		t.Fatalf("CDPPort = %d; want 9333", cfg.CDPPort)
	}
	if cfg.EvalTimeoutMS != 1000 {
		t.Fatalf("EvalTimeoutMS = %d; want clamp to 1000", cfg.EvalTimeoutMS)
	}
	if cfg.DetectConcurrency != 1 {
		t.Fatalf("DetectConcurrency = %d; want clamp to 1", cfg.DetectConcurrency)
	}
	if cfg.DetectFencing {
		t.Fatal("DetectFencing = true; want false")
	}
	if got := cfg.PortCandidates; len(got) != 2 || got[0] != "127.0.0.1:9001" || got[1] != "127.0.0.1:9002" {
		t.Fatalf("PortCandidates = %v", got)
	}
	if cfg.JournalDir != "" {
		t.Fatalf("JournalDir = %q; want empty (disabled)", cfg.JournalDir)
	}
	if cfg.MCPMode != MCPStdio {
		t.Fatalf("MCPMode = %q; want %q", cfg.MCPMode, MCPStdio)
	}
}

func TestLoadRejectsUnknownMCPMode(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENABLER_MCP", "grpc")
	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil; want invalid mode error")
	}
}
