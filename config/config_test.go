package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8088" || cfg.Backend.Strategy != "dev" || cfg.Backend.Timeout != 15*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Auth.Mode != "none" || cfg.DB.Path != "quantdesk.db" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFileEnvFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "desk.yaml")
	doc := `
server:
  addr: ":9000"
backend:
  page: "https://desk.example.com/heston"
  strategy: page
  timeout: 3s
auth:
  mode: token
  token: from-file
`
	if err := os.WriteFile(file, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QUANTDESK_AUTH_TOKEN", "from-env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	if err := fs.Parse([]string{"--config", file, "--addr", ":9100"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9100" {
		t.Errorf("addr = %q, flag should win", cfg.Server.Addr)
	}
	if cfg.Backend.Page != "https://desk.example.com/heston" || cfg.Backend.Strategy != "page" {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if cfg.Backend.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", cfg.Backend.Timeout)
	}
	if cfg.Auth.Token != "from-env" {
		t.Errorf("token = %q, env should win over file", cfg.Auth.Token)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	_ = fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")})
	if _, err := Load(fs); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok dev", Config{Backend: BackendConfig{Strategy: "dev", Timeout: time.Second}, Auth: AuthConfig{Mode: "none"}}, false},
		{"bad strategy", Config{Backend: BackendConfig{Strategy: "guess", Timeout: time.Second}, Auth: AuthConfig{Mode: "none"}}, true},
		{"fixed without origin", Config{Backend: BackendConfig{Strategy: "fixed", Timeout: time.Second}, Auth: AuthConfig{Mode: "none"}}, true},
		{"zero timeout", Config{Backend: BackendConfig{Strategy: "dev"}, Auth: AuthConfig{Mode: "none"}}, true},
		{"negative timeout", Config{Backend: BackendConfig{Strategy: "dev", Timeout: -time.Second}, Auth: AuthConfig{Mode: "none"}}, true},
		{"token without token", Config{Backend: BackendConfig{Strategy: "page", Timeout: time.Second}, Auth: AuthConfig{Mode: "token"}}, true},
		{"jwt with secret", Config{Backend: BackendConfig{Strategy: "page", Timeout: time.Second}, Auth: AuthConfig{Mode: "jwt", Secret: "s"}}, false},
		{"bad auth mode", Config{Backend: BackendConfig{Strategy: "page", Timeout: time.Second}, Auth: AuthConfig{Mode: "basic"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
