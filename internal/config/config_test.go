package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := load("", env(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Database.URL != "" || cfg.Log.Format != "text" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pomo.yaml")
	data := `
server:
  addr: ":9090"
  shutdown_timeout: 3s
database:
  url: postgres://localhost/pomo
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := load(path, env(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.WASMDir != "web" {
		t.Errorf("unset field lost its default: %q", cfg.Server.WASMDir)
	}
	if cfg.Database.URL != "postgres://localhost/pomo" || cfg.Log.Level != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	cfg, err := load("", env(map[string]string{
		"PORT":         "7000",
		"DATABASE_URL": "postgres://db/pomo",
		"WASM_DIR":     "/srv/web",
		"LOG_FORMAT":   "logfmt",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":7000" || cfg.Database.URL != "postgres://db/pomo" ||
		cfg.Server.WASMDir != "/srv/web" || cfg.Log.Format != "logfmt" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	_, err := load("", env(map[string]string{"LOG_FORMAT": "xml"}))
	if err == nil || !strings.Contains(err.Error(), "log.format") {
		t.Fatalf("error = %v", err)
	}
}

func TestValidateLogSettings(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       string
	}{
		{"info", "JSON", ""},
		{"DEBUG", "Logfmt", ""},
		{"Warning", "text", ""},
		{"verbose", "text", "log.level"},
		{"", "text", "log.level"},
		{"info", "xml", "log.format"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Log.Level = tt.level
		cfg.Log.Format = tt.format
		err := cfg.Validate()
		switch {
		case tt.wantErr == "" && err != nil:
			t.Errorf("Validate(%q, %q) = %v", tt.level, tt.format, err)
		case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
			t.Errorf("Validate(%q, %q) = %v, want %s error", tt.level, tt.format, err, tt.wantErr)
		}
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := load(filepath.Join(t.TempDir(), "nope.yaml"), env(nil)); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMarshalDurations(t *testing.T) {
	out, err := Default().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "shutdown_timeout: 10s") {
		t.Errorf("yaml = %s", out)
	}
}
