// Package config provides configuration loading and management for the sync run.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fiscalsync/ajustes-sync/internal/catalogue"
	"github.com/fiscalsync/ajustes-sync/internal/sources"
	"github.com/fiscalsync/ajustes-sync/internal/telemetry"
)

const (
	// EnvPrefix is the prefix of environment variables read by the CLI
	EnvPrefix = "AJUSTES_SYNC"

	// DefaultBaseURL is the SPED external table endpoint
	DefaultBaseURL = "https://www.sped.fazenda.gov.br/spedtabelas/appconsulta/obterTabelaExterna.aspx"

	// DefaultSyncEndpoint is the downstream synchronization endpoint
	DefaultSyncEndpoint = "http://localhost:8080/codigos-ajustes-apuracao/sincronizar"

	// DefaultSnapshotPath is the local snapshot file
	DefaultSnapshotPath = "codigos_ajustes_apuracao_final.csv"

	// DefaultReportPath is where the run report is persisted
	DefaultReportPath = "./data/run-report.json"

	// DefaultEncoding is the charset of upstream tables
	DefaultEncoding = "windows-1252"

	// DefaultSourceTimeout bounds each region fetch
	DefaultSourceTimeout = 30 * time.Second

	// DefaultSyncTimeout bounds the delivery request
	DefaultSyncTimeout = 120 * time.Second

	// DefaultWorkers is the number of concurrent region fetches
	DefaultWorkers = 10
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Source    SourceConfig       `yaml:"source"`
	Sync      SyncConfig         `yaml:"sync"`
	Snapshot  SnapshotConfig     `yaml:"snapshot"`
	Report    ReportConfig       `yaml:"report"`
	Regions   []catalogue.Region `yaml:"regions"`
	Telemetry *telemetry.Config  `yaml:"telemetry,omitempty"`
}

// SourceConfig defines the upstream table service settings
type SourceConfig struct {
	// BaseURL is the external table endpoint, queried with idTabela and idPacote
	BaseURL string `yaml:"baseURL"`

	// Timeout bounds each region request (e.g. "30s")
	Timeout string `yaml:"timeout,omitempty"`

	// Workers is the number of concurrent region fetches
	Workers int `yaml:"workers,omitempty"`

	// Encoding is the charset of upstream bodies (windows-1252, iso-8859-1, utf-8)
	Encoding string `yaml:"encoding,omitempty"`
}

// SyncConfig defines the downstream delivery settings
type SyncConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds the delivery request (e.g. "120s")
	Timeout string `yaml:"timeout,omitempty"`
}

// SnapshotConfig defines where the run snapshot is written
type SnapshotConfig struct {
	Path string    `yaml:"path"`
	S3   *S3Config `yaml:"s3,omitempty"`
}

// S3Config defines an optional S3 snapshot destination
type S3Config struct {
	Bucket string `yaml:"bucket"`

	// Key defaults to the base name of the snapshot path
	Key string `yaml:"key,omitempty"`

	// Region overrides the region of the default AWS configuration
	Region string `yaml:"region,omitempty"`
}

// ReportConfig defines where the run report is persisted. An empty path
// disables persistence.
type ReportConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:  DefaultBaseURL,
			Timeout:  DefaultSourceTimeout.String(),
			Workers:  DefaultWorkers,
			Encoding: DefaultEncoding,
		},
		Sync: SyncConfig{
			Enabled:  true,
			Endpoint: DefaultSyncEndpoint,
			Timeout:  DefaultSyncTimeout.String(),
		},
		Snapshot: SnapshotConfig{Path: DefaultSnapshotPath},
		Report:   ReportConfig{Path: DefaultReportPath},
		Regions:  catalogue.Default(),
	}
}

// LoadConfig loads configuration. Without a path the defaults are returned;
// with a path the YAML file is layered over the defaults.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	config := Default()

	if loaderCfg.path != "" {
		// Read the entire file into memory
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// GetTimeout returns the fetch timeout, DefaultSourceTimeout when unset
func (s *SourceConfig) GetTimeout() time.Duration {
	return parseDurationOr(s.Timeout, DefaultSourceTimeout)
}

// GetWorkers returns the worker count, DefaultWorkers when unset
func (s *SourceConfig) GetWorkers() int {
	if s.Workers <= 0 {
		return DefaultWorkers
	}
	return s.Workers
}

// GetEncoding returns the upstream charset name
func (s *SourceConfig) GetEncoding() string {
	if s.Encoding == "" {
		return DefaultEncoding
	}
	return s.Encoding
}

// GetTimeout returns the delivery timeout, DefaultSyncTimeout when unset
func (s *SyncConfig) GetTimeout() time.Duration {
	return parseDurationOr(s.Timeout, DefaultSyncTimeout)
}

// GetPath returns the snapshot path, DefaultSnapshotPath when unset
func (s *SnapshotConfig) GetPath() string {
	if s.Path == "" {
		return DefaultSnapshotPath
	}
	return s.Path
}

// S3Enabled reports whether an S3 destination is configured
func (s *SnapshotConfig) S3Enabled() bool {
	return s.S3 != nil && s.S3.Bucket != ""
}

// S3Key returns the object key, defaulting to the base name of the snapshot path
func (s *SnapshotConfig) S3Key() string {
	if s.S3 != nil && s.S3.Key != "" {
		return s.S3.Key
	}
	return filepath.Base(s.GetPath())
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate checks the configuration, reporting every problem found
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error
	errs = append(errs, validateSource(&c.Source)...)
	errs = append(errs, validateSync(&c.Sync)...)
	errs = append(errs, validateSnapshot(&c.Snapshot)...)

	if len(c.Regions) == 0 {
		errs = append(errs, fmt.Errorf("at least one region must be configured"))
	}
	seen := make(map[string]int, len(c.Regions))
	for i := range c.Regions {
		if err := validateRegion(&c.Regions[i], i, seen); err != nil {
			errs = append(errs, err)
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func validateSource(s *SourceConfig) []error {
	var errs []error

	if s.BaseURL == "" {
		errs = append(errs, fmt.Errorf("source.baseURL is required"))
	} else if u, err := url.Parse(s.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("source.baseURL must be an absolute URL: %s", s.BaseURL))
	}

	if err := validateDuration(s.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("source.timeout must be a valid duration (e.g., '30s'): %w", err))
	}

	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("source.workers must not be negative, got %d", s.Workers))
	}

	if _, err := sources.LookupEncoding(s.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("source.encoding: %w", err))
	}

	return errs
}

func validateSync(s *SyncConfig) []error {
	var errs []error

	if s.Enabled {
		if s.Endpoint == "" {
			errs = append(errs, fmt.Errorf("sync.endpoint is required when sync is enabled"))
		} else if u, err := url.Parse(s.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("sync.endpoint must be an absolute URL: %s", s.Endpoint))
		}
	}

	if err := validateDuration(s.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("sync.timeout must be a valid duration (e.g., '120s'): %w", err))
	}

	return errs
}

func validateSnapshot(s *SnapshotConfig) []error {
	if s.S3 != nil && s.S3.Bucket == "" && (s.S3.Key != "" || s.S3.Region != "") {
		return []error{fmt.Errorf("snapshot.s3.bucket is required when snapshot.s3 is configured")}
	}
	return nil
}

func validateRegion(r *catalogue.Region, index int, seen map[string]int) error {
	prefix := fmt.Sprintf("region[%d] (%s)", index, r.Name)

	if r.Name == "" {
		return fmt.Errorf("%s: name is required", prefix)
	}
	if first, ok := seen[r.Name]; ok {
		return fmt.Errorf("%s: duplicate region name, first defined at region[%d]", prefix, first)
	}
	seen[r.Name] = index

	if r.PackageID <= 0 {
		return fmt.Errorf("%s: packageId must be positive, got %d", prefix, r.PackageID)
	}
	if r.TableID != nil && *r.TableID <= 0 {
		return fmt.Errorf("%s: tableId must be positive when set, got %d", prefix, *r.TableID)
	}
	return nil
}

func validateDuration(value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", value)
	}
	return nil
}
