package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amonks/taskplanner/internal/config"
	"github.com/amonks/taskplanner/internal/testsupport"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_NotFoundUsesDefaults(t *testing.T) {
	testsupport.SetupTestHome(t)

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != config.DefaultAddr {
		t.Errorf("Addr = %q, expected %q", cfg.Server.Addr, config.DefaultAddr)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("Backend = %q, expected file", cfg.Store.Backend)
	}
	if cfg.Mail.Transport != "log" {
		t.Errorf("Transport = %q, expected log", cfg.Mail.Transport)
	}
	if cfg.Mail.SMTPPort != 25 {
		t.Errorf("SMTPPort = %d, expected 25", cfg.Mail.SMTPPort)
	}
	if cfg.Mail.From != config.DefaultFrom {
		t.Errorf("From = %q, expected %q", cfg.Mail.From, config.DefaultFrom)
	}
}

func TestLoad_Project(t *testing.T) {
	testsupport.SetupTestHome(t)
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, config.ProjectFile), `
[server]
addr = ":9090"
base-url = "https://tasks.example.com/planner/"

[store]
backend = "mysql"
dsn = "planner:secret@tcp(db:3306)/planner"

[mail]
transport = "smtp"
smtp-host = "mail.example.com"
smtp-port = 587
`)

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.BaseURL != "https://tasks.example.com/planner/" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Store.Backend != "mysql" || cfg.Store.DSN != "planner:secret@tcp(db:3306)/planner" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Mail.Transport != "smtp" || cfg.Mail.SMTPHost != "mail.example.com" || cfg.Mail.SMTPPort != 587 {
		t.Errorf("Mail = %+v", cfg.Mail)
	}
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	home := testsupport.SetupTestHome(t)
	dir := t.TempDir()

	writeFile(t, filepath.Join(home, ".config", "taskplanner", "config.toml"), `
[mail]
from = "global@example.com"
smtp-port = 2525

[log]
level = "debug"
`)
	writeFile(t, filepath.Join(dir, config.ProjectFile), `
[mail]
from = "project@example.com"
`)

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Mail.From != "project@example.com" {
		t.Errorf("From = %q, expected project value", cfg.Mail.From)
	}
	if cfg.Mail.SMTPPort != 2525 {
		t.Errorf("SMTPPort = %d, expected global value", cfg.Mail.SMTPPort)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, expected global value", cfg.Log.Level)
	}
}

func TestLoad_ProjectCanClearGlobal(t *testing.T) {
	home := testsupport.SetupTestHome(t)
	dir := t.TempDir()

	writeFile(t, filepath.Join(home, ".config", "taskplanner", "config.toml"), `
[server]
base-url = "https://global.example.com"
`)
	writeFile(t, filepath.Join(dir, config.ProjectFile), `
[server]
base-url = ""
`)

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.BaseURL != "" {
		t.Errorf("BaseURL = %q, expected project to clear it", cfg.Server.BaseURL)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	testsupport.SetupTestHome(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, path, `
[store]
backend = "memory"
`)
	t.Setenv(config.EnvConfigPath, path)

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Backend = %q, expected memory", cfg.Store.Backend)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	testsupport.SetupTestHome(t)
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "missing.toml"))

	if _, err := config.Load(t.TempDir()); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	testsupport.SetupTestHome(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), "[server\naddr = ")

	if _, err := config.Load(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	testsupport.SetupTestHome(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), `
[store]
driver = "sqlite"
`)

	if _, err := config.Load(dir); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
