package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable that points at a config file.
// The -config flag wins over it.
const EnvConfig = "MESHLAB_CONFIG"

// FileName is the config file looked up in the working directory.
const FileName = "meshlab.yaml"

// Load builds the session config: defaults, then the config file, then flags.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	if err := checkFlags(); err != nil {
		return nil, err
	}
	applyFlags(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing candidate, or "".
func findConfigFile() string {
	for _, path := range []string{
		FileName,
		filepath.Join(ConfigDir(), "config.yaml"),
	} {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user meshlab config directory.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Meshlab")
	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			return filepath.Join(dir, "Meshlab")
		}
		return filepath.Join(home, "AppData", "Roaming", "Meshlab")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "meshlab")
	}
	return filepath.Join(home, ".config", "meshlab")
}

// loadFromFile merges the YAML file at path into cfg. Unknown keys are
// errors. Relative asset, journal and log paths are taken relative to the
// file's directory.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	// Decode again into cfg so absent keys keep their defaults.
	dec = yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	base := filepath.Dir(path)
	cfg.Asset.Path = resolve(base, file.Asset.Path, cfg.Asset.Path)
	cfg.Journal.Path = resolve(base, file.Journal.Path, cfg.Journal.Path)
	cfg.Logging.LogFile = resolve(base, file.Logging.LogFile, cfg.Logging.LogFile)
	cfg.Window.ScreenshotDir = resolve(base, file.Window.ScreenshotDir, cfg.Window.ScreenshotDir)
	return nil
}

// resolve anchors fromFile at base when the file set it to a relative path.
func resolve(base, fromFile, current string) string {
	if fromFile == "" || filepath.IsAbs(fromFile) {
		return current
	}
	return filepath.Join(base, fromFile)
}
