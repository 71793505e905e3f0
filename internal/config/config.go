package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes environment variables that override the config file
const EnvPrefix = "LEGATO_"

// Config represents the application configuration
type Config struct {
	Library LibraryConfig `toml:"library"`
	Import  ImportConfig  `toml:"import"`
	Covers  CoversConfig  `toml:"covers"`
	Logging LoggingConfig `toml:"logging"`
}

// LibraryConfig locates the library file and the track files
type LibraryConfig struct {
	// DataDir holds the library file and the view options
	DataDir          string   `toml:"data_dir"`
	FileName         string   `toml:"file_name"`
	TracksDir        string   `toml:"tracks_dir"`
	SupportedFormats []string `toml:"supported_formats"`
}

// ImportConfig contains drop folder configuration
type ImportConfig struct {
	WatchDropFolder bool   `toml:"watch_drop_folder"`
	DropFolder      string `toml:"drop_folder"`
	RemoveImported  bool   `toml:"remove_imported"`
	SettleMillis    int    `toml:"settle_ms"`
}

// CoversConfig contains cover art cache configuration
type CoversConfig struct {
	DBPath          string `toml:"db_path"`
	MaxSize         int    `toml:"max_size"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			DataDir:          "./data",
			FileName:         "Library.json",
			TracksDir:        "./data/Tracks",
			SupportedFormats: []string{".mp3", ".m4a", ".flac", ".wav"},
		},
		Import: ImportConfig{
			WatchDropFolder: true,
			DropFolder:      "./data/Drop",
			RemoveImported:  true,
			SettleMillis:    500,
		},
		Covers: CoversConfig{
			DBPath:          "./data/covers.db",
			MaxSize:         600,
			CacheTTLMinutes: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// LoadEnv loads a .env file into the environment if it exists
func LoadEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from a TOML file. A missing file is created
// with the defaults. LEGATO_* environment variables override file values.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		fmt.Printf("Created default configuration file at: %s\n", configPath)
	} else if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DATA_DIR":     &c.Library.DataDir,
		"LIBRARY_FILE": &c.Library.FileName,
		"TRACKS_DIR":   &c.Library.TracksDir,
		"DROP_FOLDER":  &c.Import.DropFolder,
		"COVERS_DB":    &c.Covers.DBPath,
		"LOG_LEVEL":    &c.Logging.Level,
		"LOG_FORMAT":   &c.Logging.Format,
		"LOG_FILE":     &c.Logging.File,
	}
	for name, field := range strs {
		if value, ok := lookup(EnvPrefix + name); ok {
			*field = value
		}
	}

	if value, ok := lookup(EnvPrefix + "WATCH_DROP_FOLDER"); ok {
		watch, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %sWATCH_DROP_FOLDER: %w", EnvPrefix, err)
		}
		c.Import.WatchDropFolder = watch
	}
	if value, ok := lookup(EnvPrefix + "FORMATS"); ok {
		c.Library.SupportedFormats = nil
		for _, format := range strings.Split(value, ",") {
			if format = strings.TrimSpace(format); format != "" {
				c.Library.SupportedFormats = append(c.Library.SupportedFormats, strings.ToLower(format))
			}
		}
	}
	return nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# Legato Configuration
# Paths are relative to the working directory. Every value can be
# overridden with a LEGATO_* environment variable or a .env file.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Library.DataDir == "" {
		return fmt.Errorf("library data directory cannot be empty")
	}
	if c.Library.FileName == "" || filepath.Base(c.Library.FileName) != c.Library.FileName {
		return fmt.Errorf("invalid library file name: %q", c.Library.FileName)
	}
	if c.Library.TracksDir == "" {
		return fmt.Errorf("tracks directory cannot be empty")
	}
	if len(c.Library.SupportedFormats) == 0 {
		return fmt.Errorf("at least one supported audio format must be specified")
	}
	for _, format := range c.Library.SupportedFormats {
		if !strings.HasPrefix(format, ".") {
			return fmt.Errorf("invalid audio format: %s (must start with a dot)", format)
		}
	}

	if c.Import.WatchDropFolder && c.Import.DropFolder == "" {
		return fmt.Errorf("drop folder cannot be empty when watching is enabled")
	}
	if c.Import.WatchDropFolder && filepath.Clean(c.Import.DropFolder) == filepath.Clean(c.Library.TracksDir) {
		return fmt.Errorf("drop folder cannot be the tracks directory")
	}
	if c.Import.SettleMillis < 0 {
		return fmt.Errorf("import settle time cannot be negative")
	}

	if c.Covers.DBPath == "" {
		return fmt.Errorf("covers database path cannot be empty")
	}
	if c.Covers.MaxSize < 0 {
		return fmt.Errorf("cover max size cannot be negative")
	}
	if c.Covers.CacheTTLMinutes < 1 {
		return fmt.Errorf("cover cache TTL must be at least 1 minute")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// LibraryPath returns the path of the library file
func (c *Config) LibraryPath() string {
	return filepath.Join(c.Library.DataDir, c.Library.FileName)
}

// IsFormatSupported checks if an audio format is supported
func (c *Config) IsFormatSupported(format string) bool {
	return slices.Contains(c.Library.SupportedFormats, strings.ToLower(format))
}
