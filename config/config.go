// config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql, sqlite or postgres
	Path     string `yaml:"path"`   // sqlite file
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type AirtableConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseID       string `yaml:"base_id"`
	TableName    string `yaml:"table_name"`
	AreasTable   string `yaml:"areas_table"`
	MaxBatchSize int    `yaml:"max_batch_size"` // records per API request, capped at 10
}

type SyncConfig struct {
	BatchSize  int    `yaml:"batch_size"`
	MaxRecords int    `yaml:"max_records"` // 0 means no cap
	ReportPath string `yaml:"report_path"`
}

type IngestConfig struct {
	Workers            int           `yaml:"workers"`
	ProtocolDir        string        `yaml:"protocol_dir"`
	ProtocolURL        string        `yaml:"protocol_url"` // contains {fol_id}
	DownloadTimeoutStr string        `yaml:"download_timeout"`
	DownloadRetries    int           `yaml:"download_retries"`
	DownloadTimeout    time.Duration `yaml:"-"`
}

type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Airtable AirtableConfig `yaml:"airtable"`
	Sync     SyncConfig     `yaml:"sync"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads the YAML file at configPath, applies secrets from a .env file
// and the process environment, and fills in defaults. An empty configPath
// searches the usual locations; when none exists only defaults and the
// environment are used.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath == "" {
		for _, p := range []string{"config.yaml", "config/config.yaml"} {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// .env is optional; values already in the environment win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"AIRTABLE_API_KEY":    &cfg.Airtable.APIKey,
		"AIRTABLE_BASE_ID":    &cfg.Airtable.BaseID,
		"AIRTABLE_TABLE_NAME": &cfg.Airtable.TableName,
		"DB_DRIVER":           &cfg.Database.Driver,
		"DB_PATH":             &cfg.Database.Path,
		"DB_HOST":             &cfg.Database.Host,
		"DB_PORT":             &cfg.Database.Port,
		"DB_USER":             &cfg.Database.User,
		"DB_PASSWORD":         &cfg.Database.Password,
		"DB_NAME":             &cfg.Database.DBName,
	}
	for key, target := range overrides {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}
}

func (c *Config) applyDefaults() error {
	var err error

	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "extraction.db"
	}

	if c.Airtable.TableName == "" {
		c.Airtable.TableName = "Objects"
	}
	if c.Airtable.AreasTable == "" {
		c.Airtable.AreasTable = "Areas"
	}
	if c.Airtable.MaxBatchSize <= 0 {
		c.Airtable.MaxBatchSize = 10
	}

	if c.Sync.BatchSize <= 0 {
		c.Sync.BatchSize = 10
	}
	if c.Sync.ReportPath == "" {
		c.Sync.ReportPath = "sync_diff_report.txt"
	}

	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 3
	}
	if c.Ingest.ProtocolDir == "" {
		c.Ingest.ProtocolDir = "exploration_protocols"
	}
	if c.Ingest.DownloadRetries <= 0 {
		c.Ingest.DownloadRetries = 3
	}
	if c.Ingest.DownloadTimeoutStr != "" {
		c.Ingest.DownloadTimeout, err = time.ParseDuration(c.Ingest.DownloadTimeoutStr)
		if err != nil {
			return fmt.Errorf("failed to parse ingest download_timeout: %w", err)
		}
	} else {
		c.Ingest.DownloadTimeout = 30 * time.Second
	}

	if err := os.MkdirAll(c.Ingest.ProtocolDir, 0755); err != nil {
		return fmt.Errorf("failed to create protocol directory %s: %w", c.Ingest.ProtocolDir, err)
	}
	if c.Database.Driver == "sqlite" {
		if dir := filepath.Dir(c.Database.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}
	return nil
}
