// Package config stores user preferences for signature generation in a YAML
// file under the platform config directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"

	"sigmaker/internal/sig"
)

const (
	appName    = "sigmaker"
	configFile = "config.yaml"
)

var fileMutex sync.Mutex

// Config holds the signature generation preferences. Zero values are filled
// from Default on load so a partial file is fine.
type Config struct {
	// Format is the output dialect: ida, x64dbg, mask or bitmask.
	Format string `yaml:"format" json:"format" jsonschema:"title=Output Format,description=Signature output dialect: ida x64dbg mask or bitmask,default=ida"`

	// WildcardOperands masks operand bytes so relocated or re-linked
	// binaries still match.
	WildcardOperands bool `yaml:"wildcard_operands" json:"wildcardOperands" jsonschema:"title=Wildcard Operands,description=Mask operand bytes when building signatures"`

	// ContinueOutsideFunction keeps growing a signature past the end of
	// the anchor's function.
	ContinueOutsideFunction bool `yaml:"continue_outside_function" json:"continueOutsideFunction" jsonschema:"title=Continue Outside Function,description=Keep growing a signature past the enclosing function"`

	// MaxLength caps interactive signature growth in bytes.
	MaxLength int `yaml:"max_length" json:"maxLength" jsonschema:"title=Maximum Length,description=Growth cap in bytes for interactive signatures,default=1000"`

	// XrefCapLength caps per-reference growth during xref ranking.
	XrefCapLength int `yaml:"xref_cap_length" json:"xrefCapLength" jsonschema:"title=Xref Cap Length,description=Growth cap in bytes per cross-reference,default=250"`

	// TopCount is how many ranked xref signatures to print.
	TopCount int `yaml:"top_count" json:"topCount" jsonschema:"title=Top Count,description=Number of ranked xref signatures to show,default=5"`
}

// Default returns the built-in preferences.
func Default() Config {
	return Config{
		Format:           "ida",
		WildcardOperands: true,
		MaxLength:        1000,
		XrefCapLength:    250,
		TopCount:         5,
	}
}

// OutputFormat resolves the configured dialect name.
func (c Config) OutputFormat() (sig.Format, error) {
	return sig.ParseFormat(c.Format)
}

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/sigmaker or $HOME/.config/sigmaker
//   - macOS: $HOME/.config/sigmaker
//   - Windows: %LOCALAPPDATA%\sigmaker
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			return filepath.Join(userProfile, "AppData", "Local", appName), nil
		}
		return filepath.Join(localAppData, appName), nil

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the configuration file, returning Default when it does not
// exist yet.
func Load() (Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return Default(), err
	}
	return loadFrom(configPath)
}

func loadFrom(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}
	if _, err := cfg.OutputFormat(); err != nil {
		return Default(), fmt.Errorf("config file: %w", err)
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = Default().MaxLength
	}
	if cfg.XrefCapLength <= 0 {
		cfg.XrefCapLength = Default().XrefCapLength
	}
	if cfg.TopCount <= 0 {
		cfg.TopCount = Default().TopCount
	}
	return cfg, nil
}

// Save writes the configuration atomically.
func (c Config) Save() error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return c.saveTo(configPath)
}

func (c Config) saveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Sigmaker configuration file.\n# Location: " + path + "\n\n")
	data = append(header, data...)

	// Write-then-rename keeps the file intact on crash.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}
