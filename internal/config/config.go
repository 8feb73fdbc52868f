// Package config loads dredger configuration from defaults, an optional
// config file, DREDGER_* environment variables and bound command-line flags.
package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. DREDGER_WORKERS.
const EnvPrefix = "DREDGER"

// Configuration keys. Flags are bound to the same keys.
const (
	KeyConfig        = "config"
	KeyLists         = "lists"
	KeyExtensions    = "extensions"
	KeySelect        = "select"
	KeyWorkers       = "workers"
	KeyCacheMaxItems = "cache_max_items"
	KeyFormat        = "format"
	KeyMaxRuns       = "max_runs"
	KeyLogLevel      = "log_level"
	KeyLogFile       = "log_file"
	KeyLogFormat     = "log_format"
	KeyLogMaxSizeMB  = "log_max_size_mb"
	KeyLogMaxBackups = "log_max_backups"
	KeyLogMaxAgeDays = "log_max_age_days"
	KeyLogCompress   = "log_compress"
)

// Output formats.
const (
	FormatText       = "text"
	FormatJSON       = "json"
	FormatJSONSchema = "jsonschema"
)

// Defaults.
const (
	DefaultCacheMaxItemsValue = 512
	DefaultMaxRunsValue       = 32
)

// DefaultExtensions are the file extensions considered when walking a
// directory.
var DefaultExtensions = []string{".yaml", ".yml", ".json"}

// Config holds all dredger configuration.
type Config struct {
	Lists         []string // DREDGER_LISTS, list designator keys
	Extensions    []string // DREDGER_EXTENSIONS, default .yaml,.yml,.json
	Select        string   // DREDGER_SELECT, jq expression selecting records
	Workers       int      // DREDGER_WORKERS, default number of CPUs
	CacheMaxItems int      // DREDGER_CACHE_MAX_ITEMS, default 512
	Format        string   // DREDGER_FORMAT, text, json or jsonschema
	MaxRuns       int      // DREDGER_MAX_RUNS, runs kept by the MCP server, default 32

	// Logging configuration
	LogLevel      string // DREDGER_LOG_LEVEL, default "info"
	LogFile       string // DREDGER_LOG_FILE, default "" (stderr only)
	LogFormat     string // DREDGER_LOG_FORMAT, text or json
	LogMaxSizeMB  int    // DREDGER_LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // DREDGER_LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // DREDGER_LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // DREDGER_LOG_COMPRESS, default true
}

// New returns a viper instance carrying the defaults and environment
// binding. Callers bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyLists, []string{})
	v.SetDefault(KeyExtensions, DefaultExtensions)
	v.SetDefault(KeySelect, "")
	v.SetDefault(KeyWorkers, runtime.NumCPU())
	v.SetDefault(KeyCacheMaxItems, DefaultCacheMaxItemsValue)
	v.SetDefault(KeyFormat, FormatText)
	v.SetDefault(KeyMaxRuns, DefaultMaxRunsValue)

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogMaxSizeMB, 10)
	v.SetDefault(KeyLogMaxBackups, 5)
	v.SetDefault(KeyLogMaxAgeDays, 28)
	v.SetDefault(KeyLogCompress, true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file named by the config key, if any, and returns
// the validated configuration.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Lists:         splitList(v.GetStringSlice(KeyLists)),
		Extensions:    NormalizeExtensions(splitList(v.GetStringSlice(KeyExtensions))),
		Select:        strings.TrimSpace(v.GetString(KeySelect)),
		Workers:       v.GetInt(KeyWorkers),
		CacheMaxItems: v.GetInt(KeyCacheMaxItems),
		Format:        strings.ToLower(v.GetString(KeyFormat)),
		MaxRuns:       v.GetInt(KeyMaxRuns),

		LogLevel:      v.GetString(KeyLogLevel),
		LogFile:       v.GetString(KeyLogFile),
		LogFormat:     strings.ToLower(v.GetString(KeyLogFormat)),
		LogMaxSizeMB:  v.GetInt(KeyLogMaxSizeMB),
		LogMaxBackups: v.GetInt(KeyLogMaxBackups),
		LogMaxAgeDays: v.GetInt(KeyLogMaxAgeDays),
		LogCompress:   v.GetBool(KeyLogCompress),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration obtained without file, environment or
// flags.
func Default() *Config {
	cfg, err := Load(New())
	if err != nil {
		// Defaults are valid unless the environment says otherwise.
		return &Config{
			Lists:         []string{},
			Extensions:    slices.Clone(DefaultExtensions),
			Workers:       runtime.NumCPU(),
			CacheMaxItems: DefaultCacheMaxItemsValue,
			Format:        FormatText,
			MaxRuns:       DefaultMaxRunsValue,
			LogLevel:      "info",
			LogFormat:     "text",
		}
	}
	return cfg
}

// Validate checks option values and fills in derived defaults.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatJSONSchema:
	default:
		return fmt.Errorf("unknown format %q (want %s, %s or %s)", c.Format, FormatText, FormatJSON, FormatJSONSchema)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.CacheMaxItems <= 0 {
		c.CacheMaxItems = DefaultCacheMaxItemsValue
	}
	if c.MaxRuns <= 0 {
		c.MaxRuns = DefaultMaxRunsValue
	}
	if len(c.Extensions) == 0 {
		c.Extensions = slices.Clone(DefaultExtensions)
	}
	return nil
}

// splitList accepts both repeated values and comma-separated values, the
// latter being how lists arrive through environment variables.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// NormalizeExtensions lowercases extensions, adds the leading dot and drops
// duplicates.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(out, ext) {
			out = append(out, ext)
		}
	}
	return out
}
