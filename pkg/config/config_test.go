package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != "localhost:8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if cfg.Source.Type != "file" || cfg.Source.Path != DefaultSourcePath {
		t.Fatalf("unexpected source %+v", cfg.Source)
	}
	if cfg.Chart.Width != DefaultChartWidth || cfg.Chart.Height != DefaultChartHeight {
		t.Fatalf("unexpected chart %+v", cfg.Chart)
	}
}

func TestLoadConfigParsesSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := `
[server]
port = "9090"

[source]
type = "http"
url = "http://example.test/down.json"
timeout = "15s"
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != "localhost:9090" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if cfg.Source.URL != "http://example.test/down.json" || cfg.Source.Timeout.Duration != 15*time.Second {
		t.Fatalf("unexpected source %+v", cfg.Source)
	}
}

func TestLoadConfigResolvesRelativeSnapshotPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[source]\ntype = \"file\"\npath = \"snap/down.json\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if want := filepath.Join(dir, "snap", "down.json"); cfg.Source.Path != want {
		t.Fatalf("expected %s, got %s", want, cfg.Source.Path)
	}
}

func TestLoadConfigInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[source]\ntimeout = \"soon\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestSaveTemplateConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := SaveTemplateConfig(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[source]") {
		t.Fatalf("template missing source section: %s", data)
	}
	if err := SaveTemplateConfig(path); err == nil {
		t.Fatal("expected error when config already exists")
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !cfg.Source.Watch {
		t.Fatal("expected sample config to enable watch")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := GetDefaultConfig()
	cfg.Source.Type = "sqlite"
	cfg.Source.DSN = "file:snap.db"
	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Source.Type != "sqlite" || loaded.Source.DSN != "file:snap.db" {
		t.Fatalf("unexpected source %+v", loaded.Source)
	}
}
