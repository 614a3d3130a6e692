package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWithEnvCredential(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(credentialEnv, "sk-test-credential-alpha")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.Name != "gemini" {
		t.Errorf("provider = %q", cfg.Provider.Name)
	}
	if cfg.Quality.DefaultThreshold != 9.0 || cfg.Quality.EmergencyThreshold != 8.0 {
		t.Errorf("thresholds = %v / %v", cfg.Quality.DefaultThreshold, cfg.Quality.EmergencyThreshold)
	}
	if cfg.Quality.MaxIterations != 5 {
		t.Errorf("maxIterations = %d", cfg.Quality.MaxIterations)
	}
	if cfg.Limits.MaxRequestsPerWindow != 5 || cfg.Limits.Window.Std() != time.Minute {
		t.Errorf("limits = %+v", cfg.Limits)
	}
	if cfg.Limits.Cooldown.Std() != 24*time.Hour {
		t.Errorf("cooldown = %v", cfg.Limits.Cooldown)
	}
	if len(cfg.Credentials) != 1 || cfg.Credentials[0] != "sk-test-credential-alpha" {
		t.Errorf("credentials = %v", cfg.Credentials)
	}
}

func TestLoadNumberedCredentials(t *testing.T) {
	t.Setenv(credentialEnv, "key-one")
	t.Setenv(credentialEnv+"_2", "key-two")
	t.Setenv(credentialEnv+"_3", "key-three")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"key-one", "key-two", "key-three"}
	if len(cfg.Credentials) != len(want) {
		t.Fatalf("credentials = %v", cfg.Credentials)
	}
	for i, w := range want {
		if cfg.Credentials[i] != w {
			t.Errorf("credentials[%d] = %q, want %q", i, cfg.Credentials[i], w)
		}
	}
}

func TestLoadCredentialScanStopsAtGap(t *testing.T) {
	t.Setenv(credentialEnv, "key-one")
	// _2 unset, _3 set: the gap ends the scan.
	t.Setenv(credentialEnv+"_3", "key-three")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Credentials) != 1 {
		t.Errorf("credentials = %v, want only key-one", cfg.Credentials)
	}
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curtia.yaml")
	raw := `
provider:
  name: openai
  model: gpt-4o-mini
credentials:
  - file-key
quality:
  defaultThreshold: 8.5
  emergencyThreshold: 7.0
  maxIterations: 3
limits:
  maxRequestsPerWindow: 10
  window: 30s
notifications:
  telegram:
    botToken: tg-token
    chatId: 12345
output:
  dir: /tmp/curtia-out
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CURTIA_MODEL", "gpt-4.1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.Name != "openai" {
		t.Errorf("provider = %q", cfg.Provider.Name)
	}
	// Environment wins over the file.
	if cfg.Provider.Model != "gpt-4.1" {
		t.Errorf("model = %q, want env override", cfg.Provider.Model)
	}
	if cfg.Quality.MaxIterations != 3 || cfg.Quality.DefaultThreshold != 8.5 {
		t.Errorf("quality = %+v", cfg.Quality)
	}
	if cfg.Limits.Window.Std() != 30*time.Second {
		t.Errorf("window = %v", cfg.Limits.Window)
	}
	if cfg.Notifications.Telegram.ChatID != 12345 {
		t.Errorf("chatId = %d", cfg.Notifications.Telegram.ChatID)
	}
	if cfg.LogLevel().String() != "DEBUG" {
		t.Errorf("log level = %v", cfg.LogLevel())
	}
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	t.Setenv(credentialEnv, "")
	t.Setenv(configPathEnv, "")
	_, err := Load("")
	if err == nil {
		t.Fatal("expected error with no credentials")
	}
	if !strings.Contains(err.Error(), credentialEnv) {
		t.Errorf("error should name the credential variable: %v", err)
	}
}

func TestLoadRejectsInvalidThreshold(t *testing.T) {
	t.Setenv(credentialEnv, "key")
	t.Setenv("CURTIA_DEFAULT_THRESHOLD", "11")
	if _, err := Load(""); err == nil {
		t.Error("threshold 11 accepted")
	}
}
