// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() must validate, got %v", err)
	}
	if cfg.Transport.Strategy != StrategyStream {
		t.Errorf("default strategy = %q, want %q", cfg.Transport.Strategy, StrategyStream)
	}
	if cfg.Reveal.IntervalMs != 30 || cfg.Reveal.ChunkRunes != 24 {
		t.Errorf("default reveal cadence = %d ms / %d runes, want 30/24",
			cfg.Reveal.IntervalMs, cfg.Reveal.ChunkRunes)
	}
	if len(cfg.Format.RedactedPhrases) != 1 || cfg.Format.RedactedPhrases[0] != "réponses fermées" {
		t.Errorf("default redacted phrases = %v", cfg.Format.RedactedPhrases)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[api]
base_url = "https://restitution.example.com"
timeout_seconds = 10

[transport]
strategy = "poll"
poll_interval_ms = 500

[reveal]
policy = "instant"

[format]
redacted_phrases = ["réponses fermées", "confidentiel"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.API.BaseURL != "https://restitution.example.com" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSeconds != 10 {
		t.Errorf("timeout_seconds = %d", cfg.API.TimeoutSeconds)
	}
	if cfg.Transport.Strategy != StrategyPoll {
		t.Errorf("strategy = %q", cfg.Transport.Strategy)
	}
	if cfg.Transport.PollIntervalMs != 500 {
		t.Errorf("poll_interval_ms = %d", cfg.Transport.PollIntervalMs)
	}
	// Untouched sections keep their defaults.
	if cfg.Transport.PollTimeoutSeconds != 180 {
		t.Errorf("poll_timeout_seconds = %d, want default 180", cfg.Transport.PollTimeoutSeconds)
	}
	if cfg.Reveal.Policy != "instant" {
		t.Errorf("reveal policy = %q", cfg.Reveal.Policy)
	}
	if len(cfg.Format.RedactedPhrases) != 2 {
		t.Errorf("redacted_phrases = %v", cfg.Format.RedactedPhrases)
	}
}

func TestLoadFromPathInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "unknown strategy",
			content: "[transport]\nstrategy = \"websocket\"\n",
			field:   "transport.strategy",
		},
		{
			name:    "bad base url",
			content: "[api]\nbase_url = \"not a url\"\n",
			field:   "api.base_url",
		},
		{
			name:    "negative reveal interval",
			content: "[reveal]\ninterval_ms = -5\n",
			field:   "reveal.interval_ms",
		},
		{
			name:    "unknown reveal policy",
			content: "[reveal]\npolicy = \"fade\"\n",
			field:   "reveal.policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}

			_, err := LoadFromPath(path)
			if err == nil {
				t.Fatal("LoadFromPath() accepted invalid config")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name field %q", err, tt.field)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Transport.Strategy = "websocket"
	cfg.Reveal.ChunkRunes = 0
	cfg.API.TimeoutSeconds = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() accepted invalid config")
	}
	verrs, ok := err.(ValidateErrors)
	if !ok {
		t.Fatalf("error type = %T, want ValidateErrors", err)
	}
	if len(verrs) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(verrs), verrs)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("RESTITUTION_BASE_URL", "https://env.example.com")
	t.Setenv("RESTITUTION_STRATEGY", "poll")
	t.Setenv("RESTITUTION_POLL_INTERVAL_MS", "750")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.API.BaseURL != "https://env.example.com" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.Transport.Strategy != StrategyPoll {
		t.Errorf("strategy = %q", cfg.Transport.Strategy)
	}
	if cfg.Transport.PollIntervalMs != 750 {
		t.Errorf("poll_interval_ms = %d", cfg.Transport.PollIntervalMs)
	}
}

func TestDerivedDurations(t *testing.T) {
	cfg := Default()
	if got := cfg.RevealInterval(); got != 30*time.Millisecond {
		t.Errorf("RevealInterval() = %v", got)
	}
	if got := cfg.PollInterval(); got != 2*time.Second {
		t.Errorf("PollInterval() = %v", got)
	}
	if got := cfg.PollTimeout(); got != 3*time.Minute {
		t.Errorf("PollTimeout() = %v", got)
	}
	if got := cfg.APITimeout(); got != 30*time.Second {
		t.Errorf("APITimeout() = %v", got)
	}
}
