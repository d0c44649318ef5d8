package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Bind != "loopback" {
		t.Errorf("Bind = %q, want loopback", cfg.Server.Bind)
	}
	if cfg.Peers.Planner != "http://localhost:8082" {
		t.Errorf("Planner = %q", cfg.Peers.Planner)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Log.Format)
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitmesh.toml")
	content := `
[server]
bind = "all"
port = 9000
auth_token = "secret"

[peers]
planner = "arn:aws:bedrock-agentcore:us-east-1:123456789012:runtime/biolab"
validator = "http://validator:8083"

[inventory]
location = "gym"

[log]
level = "debug"
format = "text"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.AuthToken != "secret" {
		t.Errorf("AuthToken = %q", cfg.Server.AuthToken)
	}
	if cfg.Peers.Planner != "arn:aws:bedrock-agentcore:us-east-1:123456789012:runtime/biolab" {
		t.Errorf("Planner = %q", cfg.Peers.Planner)
	}
	if cfg.Inventory.Location != "gym" {
		t.Errorf("Location = %q, want gym", cfg.Inventory.Location)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}

	// Current reflects the last successful Load.
	if Current().Server.Port != 9000 {
		t.Errorf("Current().Server.Port = %d, want 9000", Current().Server.Port)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed toml")
	}
}

func TestDefaultPort(t *testing.T) {
	cases := map[string]int{
		"coach":     8081,
		"planner":   8082,
		"validator": 8083,
		"anything":  8081,
	}
	for role, want := range cases {
		if got := DefaultPort(role); got != want {
			t.Errorf("DefaultPort(%q) = %d, want %d", role, got, want)
		}
	}
}

func TestDataDirEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FITMESH_DATA_DIR", dir)
	if got := DataDir(); got != dir {
		t.Errorf("DataDir() = %q, want %q", got, dir)
	}
}
