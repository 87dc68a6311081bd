// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the full configuration tree, one section per concern.
type Config struct {
	API       APIConfig       `toml:"api"`
	Transport TransportConfig `toml:"transport"`
	Reveal    RevealConfig    `toml:"reveal"`
	Format    FormatConfig    `toml:"format"`
	Export    ExportConfig    `toml:"export"`
}

// APIConfig locates the backend.
type APIConfig struct {
	// BaseURL is the backend root, without a trailing slash.
	BaseURL string `toml:"base_url"`

	// TimeoutSeconds bounds non-streaming HTTP calls.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// TransportConfig selects and tunes the reply delivery strategy.
type TransportConfig struct {
	// Strategy is "stream" or "poll".
	Strategy string `toml:"strategy"`

	// PollIntervalMs is the fixed spacing between poll rounds.
	PollIntervalMs int `toml:"poll_interval_ms"`

	// PollTimeoutSeconds is the overall deadline for a polled reply.
	PollTimeoutSeconds int `toml:"poll_timeout_seconds"`
}

// RevealConfig paces how finished replies appear.
type RevealConfig struct {
	// IntervalMs is the tick cadence.
	IntervalMs int `toml:"interval_ms"`

	// ChunkRunes is how many runes appear per tick.
	ChunkRunes int `toml:"chunk_runes"`

	// Policy is "tick" or "instant".
	Policy string `toml:"policy"`
}

// FormatConfig tunes the text formatter.
type FormatConfig struct {
	// RedactedPhrases are removed from replies before any other
	// processing, matched case-insensitively.
	RedactedPhrases []string `toml:"redacted_phrases"`
}

// ExportConfig controls where export documents land.
type ExportConfig struct {
	OutputDir       string `toml:"output_dir"`
	Filename        string `toml:"filename"`
	OpenAfterExport bool   `toml:"open_after_export"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Strategy names accepted in [transport].
const (
	StrategyStream = "stream"
	StrategyPoll   = "poll"
)

// Default returns the production configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:3000",
			TimeoutSeconds: 30,
		},
		Transport: TransportConfig{
			Strategy:           StrategyStream,
			PollIntervalMs:     2000,
			PollTimeoutSeconds: 180,
		},
		Reveal: RevealConfig{
			IntervalMs: 30,
			ChunkRunes: 24,
			Policy:     "tick",
		},
		Format: FormatConfig{
			RedactedPhrases: []string{"réponses fermées"},
		},
		Export: ExportConfig{
			OutputDir: ".",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("dossier personnel introuvable: %w", err)
	}
	return filepath.Join(home, ".restitution"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file if it exists, applies environment overrides
// and validates the result. A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration invalide: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates the config file at the given path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("lecture de %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalide: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides lets the environment override the file, mainly for
// scripted runs and tests.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("RESTITUTION_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("RESTITUTION_STRATEGY"); v != "" {
		c.Transport.Strategy = v
	}
	if v := os.Getenv("RESTITUTION_REVEAL_POLICY"); v != "" {
		c.Reveal.Policy = v
	}
	if v := os.Getenv("RESTITUTION_EXPORT_DIR"); v != "" {
		c.Export.OutputDir = v
	}
	if v := os.Getenv("RESTITUTION_POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Transport.PollIntervalMs = n
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one field-level configuration error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every validation failure at once.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.API.BaseURL == "" {
		errs = append(errs, ValidationError{"api.base_url", "obligatoire"})
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{"api.base_url", fmt.Sprintf("URL invalide: %q", c.API.BaseURL)})
	}
	if c.API.TimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{"api.timeout_seconds", "doit être positif"})
	}

	switch c.Transport.Strategy {
	case StrategyStream, StrategyPoll:
	default:
		errs = append(errs, ValidationError{
			Field:   "transport.strategy",
			Message: fmt.Sprintf("stratégie inconnue %q, attendu %q ou %q", c.Transport.Strategy, StrategyStream, StrategyPoll),
		})
	}
	if c.Transport.PollIntervalMs <= 0 {
		errs = append(errs, ValidationError{"transport.poll_interval_ms", "doit être positif"})
	}
	if c.Transport.PollTimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{"transport.poll_timeout_seconds", "doit être positif"})
	}

	if c.Reveal.IntervalMs <= 0 {
		errs = append(errs, ValidationError{"reveal.interval_ms", "doit être positif"})
	}
	if c.Reveal.ChunkRunes <= 0 {
		errs = append(errs, ValidationError{"reveal.chunk_runes", "doit être positif"})
	}
	switch c.Reveal.Policy {
	case "", "tick", "instant":
	default:
		errs = append(errs, ValidationError{
			Field:   "reveal.policy",
			Message: fmt.Sprintf("politique inconnue %q, attendu \"tick\" ou \"instant\"", c.Reveal.Policy),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// APITimeout returns the bound for non-streaming HTTP calls.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// PollInterval returns the spacing between poll rounds.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Transport.PollIntervalMs) * time.Millisecond
}

// PollTimeout returns the overall deadline for a polled reply.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Transport.PollTimeoutSeconds) * time.Second
}

// RevealInterval returns the reveal tick cadence.
func (c *Config) RevealInterval() time.Duration {
	return time.Duration(c.Reveal.IntervalMs) * time.Millisecond
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path, creating the
// directory as needed.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("création du dossier de configuration: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("écriture de %s: %w", path, err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("encodage TOML: %w", err)
	}
	return nil
}
