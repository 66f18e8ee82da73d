// Package config loads run settings from a yaml file with environment
// fallbacks.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything a benchmark run needs to know that is not data.
type Config struct {
	// UtilityBillFile is the path to the bill line-item CSV export.
	UtilityBillFile string `yaml:"utility_bill_file"`
	// OtherDataFile is the path to the workbook with site metadata,
	// degree days and the service category map.
	OtherDataFile string `yaml:"other_data_file"`
	// OutputDir receives the summary workbook and per-site reports.
	OutputDir string `yaml:"output_dir"`

	// MaxSites bounds a run to the first N sites alphabetically; 0 = all.
	MaxSites int `yaml:"max_sites"`
	// Workers caps concurrent per-site pipelines; 0 picks a default.
	Workers int `yaml:"workers"`

	// CanonicalLabels orders duplicate-usage labels, most authoritative
	// first. Labeling quirks vary by utility, so this is configuration.
	CanonicalLabels []string `yaml:"canonical_labels"`
	// DuplicatePolicy is "pick_one_warn" or "keep_all_warn".
	DuplicatePolicy string `yaml:"duplicate_policy"`
	// MinPeerGroupSize below which sites are reported unranked.
	MinPeerGroupSize int `yaml:"min_peer_group_size"`

	// DatabaseURL enables the Postgres result sink when set.
	DatabaseURL string `yaml:"database_url"`
	// MetricsAddr serves /metrics while the batch runs when set.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Load reads the yaml file at path, then applies env fallbacks and
// defaults. An empty path loads from env/defaults alone.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if cfg.UtilityBillFile == "" {
		cfg.UtilityBillFile = os.Getenv("BENCH_UTILITY_BILL_FILE")
	}
	if cfg.OtherDataFile == "" {
		cfg.OtherDataFile = os.Getenv("BENCH_OTHER_DATA_FILE")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = getenvDefault("BENCH_OUTPUT_DIR", "output")
	}
	if cfg.MaxSites == 0 {
		cfg.MaxSites = getenvIntDefault("BENCH_MAX_SITES", 0)
	}
	if cfg.Workers == 0 {
		cfg.Workers = getenvIntDefault("BENCH_WORKERS", 4)
	}
	if cfg.DuplicatePolicy == "" {
		cfg.DuplicatePolicy = getenvDefault("BENCH_DUPLICATE_POLICY", "pick_one_warn")
	}
	if cfg.MinPeerGroupSize == 0 {
		cfg.MinPeerGroupSize = getenvIntDefault("BENCH_MIN_PEER_GROUP_SIZE", 3)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = getenvDefault("DATABASE_URL", os.Getenv("PG_DSN"))
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = os.Getenv("BENCH_METRICS_ADDR")
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.UtilityBillFile == "" {
		return errors.New("config: utility_bill_file is required")
	}
	if c.OtherDataFile == "" {
		return errors.New("config: other_data_file is required")
	}
	if c.MaxSites < 0 {
		return errors.New("config: max_sites must not be negative")
	}
	if c.Workers < 0 {
		return errors.New("config: workers must not be negative")
	}
	if c.MinPeerGroupSize < 0 {
		return errors.New("config: min_peer_group_size must not be negative")
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvIntDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
