package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.toml")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected config file to be created: %v", err)
	}
	if !strings.Contains(string(data), `tracks_dir = "./data/Tracks"`) {
		t.Errorf("Expected tracks_dir in created file, got:\n%s", data)
	}

	again, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to reload created config: %v", err)
	}
	if !reflect.DeepEqual(again, cfg) {
		t.Errorf("Expected reloaded config to match, got %+v", again)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[library]
data_dir = "/music"
tracks_dir = "/music/files"

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.LibraryPath() != filepath.Join("/music", "Library.json") {
		t.Errorf("Unexpected library path %s", cfg.LibraryPath())
	}
	if cfg.Library.TracksDir != "/music/files" || cfg.Logging.Level != "debug" {
		t.Errorf("Expected file values, got %+v", cfg)
	}
	if cfg.Logging.Format != "text" || cfg.Covers.MaxSize != 600 {
		t.Errorf("Expected defaults for unset values, got %+v", cfg)
	}

	if err := os.WriteFile(path, []byte("[library\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected error for malformed TOML")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LEGATO_TRACKS_DIR":        "/srv/tracks",
		"LEGATO_LOG_FORMAT":        "json",
		"LEGATO_WATCH_DROP_FOLDER": "false",
		"LEGATO_FORMATS":           ".MP3, .flac,,",
	}
	lookup := func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
	cfg := DefaultConfig()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("Failed to apply env: %v", err)
	}
	if cfg.Library.TracksDir != "/srv/tracks" || cfg.Logging.Format != "json" || cfg.Import.WatchDropFolder {
		t.Errorf("Expected env overrides, got %+v", cfg)
	}
	if want := []string{".mp3", ".flac"}; !reflect.DeepEqual(cfg.Library.SupportedFormats, want) {
		t.Errorf("Expected %v, got %v", want, cfg.Library.SupportedFormats)
	}
	if !cfg.IsFormatSupported(".MP3") || cfg.IsFormatSupported(".wav") {
		t.Error("Unexpected supported formats")
	}

	env = map[string]string{"LEGATO_WATCH_DROP_FOLDER": "sometimes"}
	if err := DefaultConfig().applyEnv(lookup); err == nil {
		t.Error("Expected error for invalid bool")
	}
}

func TestLoadConfigEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("LEGATO_DATA_DIR=/from/dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEGATO_DATA_DIR", "")
	os.Unsetenv("LEGATO_DATA_DIR")
	if err := LoadEnv(envPath); err != nil {
		t.Fatalf("Failed to load .env: %v", err)
	}
	if err := LoadEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("Expected a missing .env to be ignored, got %v", err)
	}

	cfg, err := LoadConfig(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Library.DataDir != "/from/dotenv" {
		t.Errorf("Expected data dir from .env, got %s", cfg.Library.DataDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"EmptyDataDir", func(c *Config) { c.Library.DataDir = "" }},
		{"NestedFileName", func(c *Config) { c.Library.FileName = "a/Library.json" }},
		{"EmptyTracksDir", func(c *Config) { c.Library.TracksDir = "" }},
		{"NoFormats", func(c *Config) { c.Library.SupportedFormats = nil }},
		{"FormatWithoutDot", func(c *Config) { c.Library.SupportedFormats = []string{"mp3"} }},
		{"EmptyDropFolder", func(c *Config) { c.Import.DropFolder = "" }},
		{"DropFolderIsTracksDir", func(c *Config) { c.Import.DropFolder = c.Library.TracksDir + "/" }},
		{"NegativeSettle", func(c *Config) { c.Import.SettleMillis = -1 }},
		{"EmptyCoversDB", func(c *Config) { c.Covers.DBPath = "" }},
		{"NegativeMaxSize", func(c *Config) { c.Covers.MaxSize = -1 }},
		{"ZeroTTL", func(c *Config) { c.Covers.CacheTTLMinutes = 0 }},
		{"BadLevel", func(c *Config) { c.Logging.Level = "verbose" }},
		{"BadFormat", func(c *Config) { c.Logging.Format = "xml" }},
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Expected defaults to be valid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Import.WatchDropFolder = false
	cfg.Import.DropFolder = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected an unwatched empty drop folder to be valid: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "legato.log")
	logger, closer, err := LoggingConfig{Level: "warn", Format: "json", File: logPath}.NewLogger()
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	logger.Warn("hello")
	logger.Info("hidden")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) || strings.Contains(string(data), "hidden") {
		t.Errorf("Unexpected log output: %s", data)
	}

	if _, _, err := (LoggingConfig{Level: "loud"}).NewLogger(); err == nil {
		t.Error("Expected error for invalid level")
	}
}
