package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/otmeal-dev/otmeal/internal/alloc"
	"github.com/otmeal-dev/otmeal/internal/bills"
	"github.com/otmeal-dev/otmeal/internal/model"
)

// FileName is the project configuration file, looked up in the project root.
const FileName = "otmeal.yaml"

// Config represents the top-level otmeal.yaml configuration.
type Config struct {
	Ledger     LedgerConfig     `yaml:"ledger"`
	Allocation AllocationConfig `yaml:"allocation"`
	Bills      BillsConfig      `yaml:"bills"`
	Audit      AuditConfig      `yaml:"audit"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Git        GitConfig        `yaml:"git"`
}

// LedgerConfig locates the claim workbook.
type LedgerConfig struct {
	Path   string `yaml:"path"`
	Sheet  string `yaml:"sheet"`
	Marker string `yaml:"marker"`
}

// AllocationConfig controls how many people a bill is split across.
type AllocationConfig struct {
	PerPersonThreshold decimal.Decimal `yaml:"per_person_threshold"`
}

// BillsConfig locates stored receipts and their index.
type BillsConfig struct {
	Dir      string `yaml:"dir"`
	Index    string `yaml:"index"`
	AllLabel string `yaml:"all_label"`
}

// AuditConfig locates the claim log.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig controls `otmeal serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig controls logrus output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// GitConfig controls committing ledger changes.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Default returns a Config matching the conventional file layout.
func Default() *Config {
	return &Config{
		Ledger: LedgerConfig{
			Path:   "OT_Tracker.xlsx",
			Sheet:  "OT",
			Marker: model.DefaultMarker,
		},
		Allocation: AllocationConfig{
			PerPersonThreshold: alloc.DefaultThreshold,
		},
		Bills: BillsConfig{
			Dir:      "bills",
			Index:    "bills_index.csv",
			AllLabel: bills.AllUsers,
		},
		Audit: AuditConfig{
			Path: filepath.Join("logs", "claim-log.csv"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "OT Meal Tracker",
			AuthorEmail: "otmeal@localhost",
		},
	}
}

// Load reads a config file from disk. Keys missing from the file keep
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
	return cfg, nil
}

// LoadProject loads <root>/.env (if present) and <root>/otmeal.yaml (defaults
// when absent), then applies environment overrides and validates.
func LoadProject(root string) (*Config, error) {
	if err := LoadDotEnv(filepath.Join(root, ".env")); err != nil {
		return nil, err
	}

	cfg, err := Load(filepath.Join(root, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
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

// LoadDotEnv sets variables from a .env file without overriding ones
// already present in the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from OTMEAL_* environment variables.
func (c *Config) ApplyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"OTMEAL_LEDGER_PATH", &c.Ledger.Path},
		{"OTMEAL_LEDGER_SHEET", &c.Ledger.Sheet},
		{"OTMEAL_BILLS_DIR", &c.Bills.Dir},
		{"OTMEAL_BILLS_INDEX", &c.Bills.Index},
		{"OTMEAL_ADDR", &c.Server.Addr},
		{"OTMEAL_LOG_LEVEL", &c.Logging.Level},
		{"OTMEAL_LOG_FORMAT", &c.Logging.Format},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && strings.TrimSpace(v) != "" {
			*o.dst = strings.TrimSpace(v)
		}
	}
	if v, ok := os.LookupEnv("OTMEAL_PER_PERSON_THRESHOLD"); ok {
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			c.Allocation.PerPersonThreshold = d
		}
	}
}

// Validate checks settings that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Ledger.Path) == "" {
		problems = append(problems, "ledger.path is empty")
	}
	if strings.TrimSpace(c.Ledger.Sheet) == "" {
		problems = append(problems, "ledger.sheet is empty")
	}
	if strings.TrimSpace(c.Ledger.Marker) == "" {
		problems = append(problems, "ledger.marker is empty")
	}
	if !c.Allocation.PerPersonThreshold.IsPositive() {
		problems = append(problems, "allocation.per_person_threshold must be positive")
	}
	if strings.TrimSpace(c.Bills.Dir) == "" {
		problems = append(problems, "bills.dir is empty")
	}
	if strings.TrimSpace(c.Bills.Index) == "" {
		problems = append(problems, "bills.index is empty")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not text or json", c.Logging.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Resolve returns p relative to root unless it is already absolute.
func Resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// LedgerPath is the absolute-or-root-relative ledger location.
func (c *Config) LedgerPath(root string) string { return Resolve(root, c.Ledger.Path) }

// BillsDir is the receipts directory under root.
func (c *Config) BillsDir(root string) string { return Resolve(root, c.Bills.Dir) }

// BillsIndex is the bills index path under root.
func (c *Config) BillsIndex(root string) string { return Resolve(root, c.Bills.Index) }

// AuditPath is the claim log path under root.
func (c *Config) AuditPath(root string) string { return Resolve(root, c.Audit.Path) }
