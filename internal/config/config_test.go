package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sigmaker/internal/sig"
)

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
	if !strings.Contains(configPath, "sigmaker") {
		t.Errorf("GetConfigPath() = %v, should contain 'sigmaker'", configPath)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Format != "ida" {
		t.Errorf("Default().Format = %q, want %q", cfg.Format, "ida")
	}
	if !cfg.WildcardOperands {
		t.Error("Default().WildcardOperands should be true")
	}
	if cfg.MaxLength != 1000 || cfg.XrefCapLength != 250 || cfg.TopCount != 5 {
		t.Errorf("Default() limits = %d/%d/%d, want 1000/250/5",
			cfg.MaxLength, cfg.XrefCapLength, cfg.TopCount)
	}
	if f, err := cfg.OutputFormat(); err != nil || f != sig.FormatIDA {
		t.Errorf("Default().OutputFormat() = (%v, %v), want (FormatIDA, nil)", f, err)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := loadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("loadFrom missing file error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("loadFrom missing file = %+v, want defaults", cfg)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("format: x64dbg\ntop_count: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatalf("loadFrom error = %v", err)
	}
	if cfg.Format != "x64dbg" || cfg.TopCount != 3 {
		t.Errorf("explicit fields not honored: %+v", cfg)
	}
	if cfg.MaxLength != 1000 || cfg.XrefCapLength != 250 {
		t.Errorf("omitted limits not defaulted: %+v", cfg)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("format: olly\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadFrom(path); err == nil {
		t.Error("loadFrom accepted an unknown format name")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	want := Default()
	want.Format = "bitmask"
	want.ContinueOutsideFunction = true
	want.MaxLength = 64
	if err := want.saveTo(path); err != nil {
		t.Fatalf("saveTo error = %v", err)
	}

	got, err := loadFrom(path)
	if err != nil {
		t.Fatalf("loadFrom error = %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}

	// The temporary file from the atomic write must be gone.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind after save")
	}
}
