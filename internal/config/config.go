package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
)

// defaultExerciseColumn is the exercise column of the built-in sheet layout.
const defaultExerciseColumn = 1

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Log       LogConfig       `yaml:"log"`
	Import    ImportConfig    `yaml:"import"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StorageConfig struct {
	Backend  string `yaml:"backend"`
	DataDir  string `yaml:"data_dir"`
	StateDir string `yaml:"state_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	File     string `yaml:"file"`
	ToStdout bool   `yaml:"to_stdout"`
}

// ImportConfig tunes the routine sheet importer.
type ImportConfig struct {
	DetectHeader    *bool          `yaml:"detect_header"`
	WeekLabelMaxLen int            `yaml:"week_label_max_len"`
	HeaderMaxLen    int            `yaml:"header_max_len"`
	Columns         *ColumnsConfig `yaml:"columns"`

	// Shift moves every fallback column right (positive) or left (negative),
	// for sheet variants offset by a column.
	Shift int `yaml:"shift"`
}

// ColumnsConfig is an explicit zero-based column table for sheets whose
// header row cannot be detected. Use -1 for a column the sheet lacks.
type ColumnsConfig struct {
	Label       int `yaml:"label"`
	Exercise    int `yaml:"exercise"`
	WarmupSets  int `yaml:"warmup_sets"`
	WorkingSets int `yaml:"working_sets"`
	Reps        int `yaml:"reps"`
	Load        int `yaml:"load"`
	Percent1RM  int `yaml:"percent_1rm"`
	RPE         int `yaml:"rpe"`
	Rest        int `yaml:"rest"`
	Notes       int `yaml:"notes"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies defaults and environment
// variable overrides. Env vars use the prefix ACEPERF_:
//
//	ACEPERF_SERVER_HOST, ACEPERF_SERVER_PORT,
//	ACEPERF_STORAGE_BACKEND, ACEPERF_DATA_DIR, ACEPERF_STATE_DIR,
//	ACEPERF_DB_HOST, ACEPERF_DB_PORT, ACEPERF_DB_NAME,
//	ACEPERF_DB_USER, ACEPERF_DB_PASSWORD, ACEPERF_DB_SSLMODE,
//	ACEPERF_TAILSCALE_ENABLED, ACEPERF_LOG_LEVEL, ACEPERF_LOG_FILE
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendCSV
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.StateDir == "" {
		cfg.Storage.StateDir = cfg.Storage.DataDir
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "aceperf"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ACEPERF_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("ACEPERF_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ACEPERF_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("ACEPERF_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("ACEPERF_STATE_DIR"); v != "" {
		cfg.Storage.StateDir = v
	}
	if v := os.Getenv("ACEPERF_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("ACEPERF_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("ACEPERF_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("ACEPERF_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("ACEPERF_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("ACEPERF_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("ACEPERF_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("ACEPERF_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ACEPERF_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.Storage.Backend {
	case BackendCSV:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir is required")
		}
	case BackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendCSV, BackendPostgres, c.Storage.Backend)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Import.WeekLabelMaxLen < 0 || c.Import.HeaderMaxLen < 0 {
		return fmt.Errorf("import length limits must not be negative")
	}
	if c.Import.Columns != nil && c.Import.Columns.Exercise < 0 {
		return fmt.Errorf("import.columns.exercise is required")
	}
	exercise := defaultExerciseColumn
	if c.Import.Columns != nil {
		exercise = c.Import.Columns.Exercise
	}
	if exercise+c.Import.Shift < 0 {
		return fmt.Errorf("import.shift moves the exercise column out of the sheet")
	}
	return nil
}
