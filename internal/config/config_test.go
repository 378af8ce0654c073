package config

import (
	"reflect"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("default port = %d, expected 8080", cfg.Server.Port)
	}
	if cfg.MySQL.Port != 3306 {
		t.Fatalf("default mysql port = %d, expected 3306", cfg.MySQL.Port)
	}
	if cfg.MailEnabled() {
		t.Fatalf("mail must be disabled without SMTP_HOSTS")
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error without JWT_SECRET")
	}
}

func TestLoad_SMTPHosts(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SMTP_HOSTS", "smtp-a.example.com, smtp-b.example.com ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	expected := []string{"smtp-a.example.com", "smtp-b.example.com"}
	if !reflect.DeepEqual(cfg.SMTP.Hosts, expected) {
		t.Fatalf("SMTP.Hosts = %v, expected %v", cfg.SMTP.Hosts, expected)
	}
	if !cfg.MailEnabled() {
		t.Fatalf("mail must be enabled with SMTP_HOSTS set")
	}
}

func TestLoad_FrontendURLTrimmed(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("FRONTEND_URL", "https://play.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.FrontendURL != "https://play.example.com" {
		t.Fatalf("FrontendURL = %q, trailing slash must be trimmed", cfg.Server.FrontendURL)
	}
}
