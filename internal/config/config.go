package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Source is one monitored PGN source. URL-only sources are fetched by the
// download worker into File; file-only sources are scanned in place.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	File string `yaml:"file"`
}

type Config struct {
	Sources   []Source `yaml:"sources"`
	DontCheck []string `yaml:"dont_check"`

	// LivePGN marks sources as live broadcasts: finished games arriving
	// live were already evaluated while active, so their final snapshot
	// is not re-checked for claims.
	LivePGN bool `yaml:"live_pgn"`

	// LegacyCombined switches to the single merged-file scan path.
	LegacyCombined bool `yaml:"legacy_combined"`

	ScanInterval     Duration `yaml:"scan_interval"`
	MergeInterval    Duration `yaml:"merge_interval"`
	DownloadInterval Duration `yaml:"download_interval"`
}

// Duration unmarshals YAML values like "2s" or "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\": %w", err)
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads the YAML config at path and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ScanInterval:     Duration(2 * time.Second),
		MergeInterval:    Duration(4 * time.Second),
		DownloadInterval: Duration(4 * time.Second),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)

	if len(cfg.Sources) == 0 {
		return nil, errors.New("at least one source is required")
	}
	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		s.URL = strings.TrimSpace(s.URL)
		s.File = strings.TrimSpace(s.File)
		if s.URL == "" && s.File == "" {
			return nil, fmt.Errorf("source %d: url or file is required", i+1)
		}
		if s.Name == "" {
			if s.File != "" {
				s.Name = filepath.Base(s.File)
			} else {
				s.Name = s.URL
			}
		}
	}
	if cfg.ScanInterval <= 0 {
		return nil, errors.New("scan_interval must be positive")
	}

	return cfg, nil
}

// FillDownloadTargets assigns a local file under dataDir to every
// URL-only source so the download and scan workers agree on paths.
func (c *Config) FillDownloadTargets(dataDir string) {
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.URL != "" && s.File == "" {
			s.File = filepath.Join(dataDir, fmt.Sprintf("source-%d.pgn", i+1))
		}
	}
}

// Downloads returns the url -> local file map for the download worker.
func (c *Config) Downloads() map[string]string {
	m := make(map[string]string)
	for _, s := range c.Sources {
		if s.URL != "" && s.File != "" {
			m[s.URL] = s.File
		}
	}
	return m
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("CLAIMSCAN_LIVE_PGN")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LivePGN = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("CLAIMSCAN_LEGACY_COMBINED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LegacyCombined = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("CLAIMSCAN_SCAN_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ScanInterval = Duration(d)
		}
	}
	if v := strings.TrimSpace(os.Getenv("CLAIMSCAN_MERGE_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.MergeInterval = Duration(d)
		}
	}
	if v := strings.TrimSpace(os.Getenv("CLAIMSCAN_DOWNLOAD_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.DownloadInterval = Duration(d)
		}
	}
}
