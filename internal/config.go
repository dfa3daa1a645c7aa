// Package internal provides application configuration and the runtime
// wiring for the report server.
package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/analysis"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/apperr"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	Analysis AnalysisConfig    `yaml:"analysis"`
	Cache    CacheConfig       `yaml:"cache"`
}

// Validate validates the configuration. A failure here is fatal before any
// scan starts.
func (c *Config) Validate() error {
	for _, v := range []interface{ Validate() error }{
		&c.App, &c.Vault, &c.Analysis, &c.Cache,
	} {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", apperr.ErrConfig, err)
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds the report server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig describes the vault to scan.
type VaultConfig struct {
	Path string `yaml:"path"`
	// Extensions whitelists note file extensions.
	Extensions []string `yaml:"extensions"`
	// Exclude holds gitignore-style patterns skipped during the walk.
	Exclude []string `yaml:"exclude"`
	// SystemFiles are basenames never reported as orphans.
	SystemFiles []string `yaml:"system_files"`
	// MaxFileSizeBytes caps readable file size; larger files become scan
	// errors rather than aborting the scan.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`
	// Workers bounds the parallel extraction pool; 0 means one per CPU.
	Workers int `yaml:"workers"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.MaxFileSizeBytes, validation.Min(0)),
		validation.Field(&c.Workers, validation.Min(0)),
	)
}

// AnalysisConfig holds similarity thresholds and analyzer knobs. The
// thresholds default to 0.6/0.8/0.85 but are tunables, not contract.
type AnalysisConfig struct {
	LinkRepairThreshold     float64 `yaml:"link_repair_threshold"`
	TagMergeThreshold       float64 `yaml:"tag_merge_threshold"`
	DuplicateTitleThreshold float64 `yaml:"duplicate_title_threshold"`
	// SuggestionLimit caps ranked repair candidates per broken link.
	SuggestionLimit int `yaml:"suggestion_limit"`
	// ExpectedProperties are keys most notes should carry.
	ExpectedProperties []string `yaml:"expected_properties"`
	// MinTopicNotes is the tag usage needed for a topic suggestion.
	MinTopicNotes int `yaml:"min_topic_notes"`
	// FlatStructureThreshold is the root-note fraction that triggers the
	// flat-structure warning.
	FlatStructureThreshold float64 `yaml:"flat_structure_threshold"`
}

// Validate validates the analysis configuration.
func (c *AnalysisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LinkRepairThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.TagMergeThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.DuplicateTitleThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.FlatStructureThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.SuggestionLimit, validation.Min(0)),
		validation.Field(&c.MinTopicNotes, validation.Min(0)),
	)
}

// CacheConfig holds the parse-cache settings.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if c.Enabled && c.Path == "" {
		return fmt.Errorf("cache: enabled but path is empty")
	}
	return nil
}

// AnalysisOptions maps the configuration onto scan options.
func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{
		Workers:                 c.Vault.Workers,
		Extensions:              c.Vault.Extensions,
		Exclude:                 c.Vault.Exclude,
		SystemFiles:             c.Vault.SystemFiles,
		ExpectedProperties:      c.Analysis.ExpectedProperties,
		MaxFileSize:             c.Vault.MaxFileSizeBytes,
		LinkRepairThreshold:     c.Analysis.LinkRepairThreshold,
		TagMergeThreshold:       c.Analysis.TagMergeThreshold,
		DuplicateTitleThreshold: c.Analysis.DuplicateTitleThreshold,
		SuggestionLimit:         c.Analysis.SuggestionLimit,
		MinTopicNotes:           c.Analysis.MinTopicNotes,
		FlatThreshold:           c.Analysis.FlatStructureThreshold,
		RecentWindow:            7 * 24 * time.Hour,
	}
}

// NewDefaultConfig returns a new Config with the documented defaults.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:             ".",
			Extensions:       []string{".md", ".txt", ".canvas"},
			SystemFiles:      []string{"index", "readme", "home"},
			MaxFileSizeBytes: 10 << 20,
		},
		Analysis: AnalysisConfig{
			LinkRepairThreshold:     0.6,
			TagMergeThreshold:       0.8,
			DuplicateTitleThreshold: 0.85,
			SuggestionLimit:         5,
			ExpectedProperties:      []string{"tags", "created", "modified", "type"},
			MinTopicNotes:           3,
			FlatStructureThreshold:  0.5,
		},
		Cache: CacheConfig{
			Enabled: false,
			Path:    "./vaultmaint-cache.db",
		},
	}
}
