package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/fatura/internal/classify"
	"github.com/cleared-dev/fatura/internal/model"
	"github.com/cleared-dev/fatura/internal/scanner"
)

// FileName is the default configuration file name.
const FileName = "fatura.yaml"

// Config represents the top-level fatura.yaml configuration.
type Config struct {
	Card       CardConfig       `yaml:"card"`
	Payment    PaymentConfig    `yaml:"payment"`
	Amounts    AmountsConfig    `yaml:"amounts"`
	Adjustment AdjustmentConfig `yaml:"adjustment"`
	Reconcile  ReconcileConfig  `yaml:"reconcile"`
	Output     OutputConfig     `yaml:"output"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Git        GitConfig        `yaml:"git"`
}

// CardConfig identifies the card before any "final NNNN" header.
type CardConfig struct {
	DefaultLast4 string `yaml:"default_last4"`
}

// PaymentConfig identifies card payment lines.
type PaymentConfig struct {
	RecipientCode string `yaml:"recipient_code"`
}

// AmountsConfig bounds amounts considered plausible.
type AmountsConfig struct {
	MinSane decimal.Decimal `yaml:"min_sane"`
	MaxSane decimal.Decimal `yaml:"max_sane"`
}

// AdjustmentConfig controls rounding-adjustment detection.
type AdjustmentConfig struct {
	MaxAbs decimal.Decimal `yaml:"max_abs"`
}

// ReconcileConfig controls metric comparison.
type ReconcileConfig struct {
	Tolerance decimal.Decimal `yaml:"tolerance"`
}

// OutputConfig controls where and what is written.
type OutputConfig struct {
	Dir  string `yaml:"dir,omitempty"` // empty: next to each statement
	XLSX bool   `yaml:"xlsx"`
}

// GitConfig controls committing written outputs.
type GitConfig struct {
	Commit      bool   `yaml:"commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// ClassifierConfig adds keyword rules ahead of the built-in table.
type ClassifierConfig struct {
	ExtraRules []RuleConfig `yaml:"extra_rules,omitempty"`
}

// RuleConfig maps a description keyword to a category.
type RuleConfig struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

// Load reads a fatura.yaml file from disk. Settings the file omits keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path if it exists and returns the defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the standard statement settings.
func Default() *Config {
	return &Config{
		Card: CardConfig{
			DefaultLast4: "0000",
		},
		Payment: PaymentConfig{
			RecipientCode: "7117",
		},
		Amounts: AmountsConfig{
			MinSane: decimal.RequireFromString("0.01"),
			MaxSane: decimal.RequireFromString("10000"),
		},
		Adjustment: AdjustmentConfig{
			MaxAbs: decimal.RequireFromString("0.30"),
		},
		Reconcile: ReconcileConfig{
			Tolerance: decimal.RequireFromString("0.05"),
		},
		Output: OutputConfig{
			XLSX: false,
		},
		Git: GitConfig{
			AuthorName:  "fatura",
			AuthorEmail: "fatura@localhost",
		},
	}
}

// Validate checks settings that would make the scanner misbehave.
func (c *Config) Validate() error {
	if c.Payment.RecipientCode == "" {
		return fmt.Errorf("payment.recipient_code must not be empty")
	}
	if c.Amounts.MinSane.GreaterThan(c.Amounts.MaxSane) {
		return fmt.Errorf("amounts.min_sane %s exceeds max_sane %s", c.Amounts.MinSane, c.Amounts.MaxSane)
	}
	if !c.Reconcile.Tolerance.IsPositive() {
		return fmt.Errorf("reconcile.tolerance must be positive")
	}
	if c.Git.Commit && (c.Git.AuthorName == "" || c.Git.AuthorEmail == "") {
		return fmt.Errorf("git.commit needs author_name and author_email")
	}
	for i, r := range c.Classifier.ExtraRules {
		if r.Keyword == "" {
			return fmt.Errorf("classifier.extra_rules[%d]: empty keyword", i)
		}
		if !model.Category(r.Category).Valid() {
			return fmt.Errorf("classifier.extra_rules[%d]: unknown category %q", i, r.Category)
		}
	}
	return nil
}

// ScannerOptions returns the scanner settings.
func (c *Config) ScannerOptions() scanner.Options {
	return scanner.Options{
		PaymentCode: c.Payment.RecipientCode,
		MinSane:     c.Amounts.MinSane,
		MaxSane:     c.Amounts.MaxSane,
		DefaultCard: c.Card.DefaultLast4,
	}
}

// ClassifierOptions returns the classifier settings.
func (c *Config) ClassifierOptions() classify.Options {
	rules := make([]classify.Rule, len(c.Classifier.ExtraRules))
	for i, r := range c.Classifier.ExtraRules {
		rules[i] = classify.Rule{Keyword: r.Keyword, Category: model.Category(r.Category)}
	}
	return classify.Options{
		PaymentCode:   c.Payment.RecipientCode,
		AdjustmentMax: c.Adjustment.MaxAbs,
		ExtraRules:    rules,
	}
}
