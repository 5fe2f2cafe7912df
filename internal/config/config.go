// Package config builds the simulation's immutable configuration from
// space-separated Key=Value arguments, with an optional overlay file
// (YAML or .env-style) loaded first and overridden by argv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full, immutable simulation configuration. Every field
// has a sane default; Parse only ever overrides, never requires, a key.
type Config struct {
	SimulationDuration time.Duration

	CustomerThreads int
	ServerThreads   int

	NumCustomers int
	NumProducts  int

	DictionarySize int
	DictionaryFile string

	CustomerPeriod    time.Duration
	ServerPeriod      time.Duration
	CustomerThinkTime time.Duration
	SaveForLaterExpiry time.Duration

	BrowsingHistoryQueueCount int
	SalesTransactionQueueCount int

	CustomerReplacementCount  int
	CustomerReplacementPeriod time.Duration
	ProductReplacementCount   int
	ProductReplacementPeriod  time.Duration

	PhasedUpdates        bool
	PhasedUpdateInterval time.Duration

	ResponseTimeMeasurements int

	ReportIndividualThreads bool
	ReportCSV               bool

	MaxArrayLength int

	ProbabilityPurchase     float64
	ProbabilitySaveForLater float64
	ProbabilityAbandon      float64
	ProbabilityDoNothing    float64

	// explicit tracks which keys an argv/overlay pass actually set, so
	// callers can tell "left at default" apart from "set to the same
	// value as the default" — e.g. deciding whether PhasedUpdates=true
	// should disable incremental replacement.
	explicit map[string]bool
}

// WasSet reports whether key was assigned by an argv token or overlay
// file during Parse, as opposed to carrying its Default() value.
func (c *Config) WasSet(key string) bool {
	return c.explicit[key]
}

// RawConfig mirrors Config's fields as strings for the optional YAML
// overlay file; it is decoded then flattened into Key=Value form before
// applying the same Set logic argv uses, so both paths share one
// conversion function.
type RawConfig map[string]string

// Default returns the configuration's baseline values.
func Default() *Config {
	return &Config{
		explicit: make(map[string]bool),

		SimulationDuration: 30 * time.Second,

		CustomerThreads: 4,
		ServerThreads:   1,

		NumCustomers: 1000,
		NumProducts:  500,

		DictionarySize: 64,

		CustomerPeriod:     100 * time.Millisecond,
		ServerPeriod:       100 * time.Millisecond,
		CustomerThinkTime:  2 * time.Minute,
		SaveForLaterExpiry: 30 * time.Minute,

		BrowsingHistoryQueueCount: 4,
		SalesTransactionQueueCount: 4,

		CustomerReplacementCount:  1,
		CustomerReplacementPeriod: time.Second,
		ProductReplacementCount:   1,
		ProductReplacementPeriod:  time.Second,

		PhasedUpdates:        false,
		PhasedUpdateInterval: 0,

		ResponseTimeMeasurements: 10000,

		ReportIndividualThreads: false,
		ReportCSV:               false,

		MaxArrayLength: 0,

		ProbabilityPurchase:     0.2,
		ProbabilitySaveForLater: 0.3,
		ProbabilityAbandon:      0.1,
		ProbabilityDoNothing:    0.4,
	}
}

// Parse builds a Config from the program's argv tokens (already split
// on whitespace by the shell, so args is os.Args[1:] verbatim). Each
// token must be Key=Value. If a token's key is ConfigFile, the named
// overlay is applied to the running config's defaults before argv
// processing continues — so ConfigFile=... should appear first, but
// Parse does not enforce position; a later ConfigFile token overlays
// on top of whatever argv already set, same as an explicit override.
func Parse(args []string) (*Config, error) {
	cfg := Default()
	for _, tok := range args {
		key, value, ok := strings.Cut(tok, "=")
		if !ok {
			return nil, fmt.Errorf("config: malformed argument %q, want Key=Value", tok)
		}
		if key == "ConfigFile" {
			if err := applyOverlayFile(cfg, value); err != nil {
				return nil, err
			}
			continue
		}
		if err := set(cfg, key, value); err != nil {
			return nil, err
		}
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverlayFile loads path and applies every key it contains to cfg,
// exactly like an argv pass but sourced from a file instead of argv.
// YAML-suffixed paths are decoded as a flat key/value document;
// anything else is read as a .env-style KEY=VALUE file via godotenv.
func applyOverlayFile(cfg *Config, path string) error {
	var raw RawConfig
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("config: read overlay %q: %w", path, err)
		}
		raw = make(RawConfig)
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("config: parse YAML overlay %q: %w", path, err)
		}
	default:
		env, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("config: read .env overlay %q: %w", path, err)
		}
		raw = RawConfig(env)
	}
	for key, value := range raw {
		if err := set(cfg, key, value); err != nil {
			return fmt.Errorf("config: overlay %q: %w", path, err)
		}
	}
	return nil
}

func set(cfg *Config, key, value string) error {
	cfg.explicit[key] = true
	switch key {
	case "SimulationDuration":
		return setDuration(&cfg.SimulationDuration, key, value)
	case "CustomerThreads":
		return setInt(&cfg.CustomerThreads, key, value)
	case "ServerThreads":
		return setInt(&cfg.ServerThreads, key, value)
	case "NumCustomers":
		return setInt(&cfg.NumCustomers, key, value)
	case "NumProducts":
		return setInt(&cfg.NumProducts, key, value)
	case "DictionarySize":
		return setInt(&cfg.DictionarySize, key, value)
	case "DictionaryFile":
		cfg.DictionaryFile = value
		return nil
	case "CustomerPeriod":
		return setDuration(&cfg.CustomerPeriod, key, value)
	case "ServerPeriod":
		return setDuration(&cfg.ServerPeriod, key, value)
	case "CustomerThinkTime":
		return setDuration(&cfg.CustomerThinkTime, key, value)
	case "SaveForLaterExpiry":
		return setDuration(&cfg.SaveForLaterExpiry, key, value)
	case "BrowsingHistoryQueueCount":
		return setInt(&cfg.BrowsingHistoryQueueCount, key, value)
	case "SalesTransactionQueueCount":
		return setInt(&cfg.SalesTransactionQueueCount, key, value)
	case "CustomerReplacementCount":
		return setInt(&cfg.CustomerReplacementCount, key, value)
	case "CustomerReplacementPeriod":
		return setDuration(&cfg.CustomerReplacementPeriod, key, value)
	case "ProductReplacementCount":
		return setInt(&cfg.ProductReplacementCount, key, value)
	case "ProductReplacementPeriod":
		return setDuration(&cfg.ProductReplacementPeriod, key, value)
	case "PhasedUpdates":
		return setBool(&cfg.PhasedUpdates, key, value)
	case "PhasedUpdateInterval":
		return setDuration(&cfg.PhasedUpdateInterval, key, value)
	case "ResponseTimeMeasurements":
		return setInt(&cfg.ResponseTimeMeasurements, key, value)
	case "ReportIndividualThreads":
		return setBool(&cfg.ReportIndividualThreads, key, value)
	case "ReportCSV":
		return setBool(&cfg.ReportCSV, key, value)
	case "MaxArrayLength":
		return setInt(&cfg.MaxArrayLength, key, value)
	case "ProbabilityPurchase":
		return setFloat(&cfg.ProbabilityPurchase, key, value)
	case "ProbabilitySaveForLater":
		return setFloat(&cfg.ProbabilitySaveForLater, key, value)
	case "ProbabilityAbandon":
		return setFloat(&cfg.ProbabilityAbandon, key, value)
	case "ProbabilityDoNothing":
		return setFloat(&cfg.ProbabilityDoNothing, key, value)
	default:
		delete(cfg.explicit, key)
		return fmt.Errorf("config: unrecognized key %q", key)
	}
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("config: %s=%q: %w", key, value, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("config: %s=%q: %w", key, value, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("config: %s=%q: %w", key, value, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("config: %s=%q: %w", key, value, err)
	}
	*dst = d
	return nil
}

func validate(cfg *Config) error {
	if cfg.CustomerThreads < 1 {
		return fmt.Errorf("config: CustomerThreads must be >= 1, got %d", cfg.CustomerThreads)
	}
	if cfg.ServerThreads < 1 {
		return fmt.Errorf("config: ServerThreads must be >= 1, got %d", cfg.ServerThreads)
	}
	if cfg.NumCustomers < 1 || cfg.NumProducts < 1 {
		return fmt.Errorf("config: NumCustomers and NumProducts must be >= 1")
	}
	if cfg.BrowsingHistoryQueueCount < 1 || cfg.SalesTransactionQueueCount < 1 {
		return fmt.Errorf("config: queue shard counts must be >= 1")
	}
	if cfg.PhasedUpdates && cfg.PhasedUpdateInterval <= 0 {
		return fmt.Errorf("config: PhasedUpdateInterval must be > 0 when PhasedUpdates is true")
	}
	sum := cfg.ProbabilityPurchase + cfg.ProbabilitySaveForLater + cfg.ProbabilityAbandon + cfg.ProbabilityDoNothing
	if sum <= 0 {
		return fmt.Errorf("config: decision probabilities must sum to a positive value, got %f", sum)
	}
	return nil
}
