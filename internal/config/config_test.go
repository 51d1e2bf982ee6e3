package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// unsetenv removes key for the duration of the test so an env file can set it.
func unsetenv(t *testing.T, key string) {
	t.Helper()

	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.OpenAIModel != "gpt-5-mini" || cfg.DBPath != "db.sqlite" || cfg.ChunkMaxChars != 35000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	if cfg.SummarizeParallelism != 1 || cfg.RemoteRetryAttempts != 3 || !cfg.OCREnabled || cfg.OCRMinTextChars != 30 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg)
	}

	if cfg.ReportRetention != 720*time.Hour || cfg.SummaryCacheTTL != 24*time.Hour || cfg.SummaryCacheSize != 1024 {
		t.Fatalf("unexpected retention defaults: %+v", cfg)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for missing API key")
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	unsetenv(t, "ALLOWED_USERS")
	unsetenv(t, "HTTP_ADDR")

	path := filepath.Join(t.TempDir(), ".env")
	content := "OPENAI_API_KEY=sk-file\nALLOWED_USERS=1,2\nHTTP_ADDR=:8000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.OpenAIAPIKey != "sk-env" {
		t.Fatalf("expected environment to win over file, got %q", cfg.OpenAIAPIKey)
	}

	if cfg.HTTPAddr != ":8000" || len(cfg.AllowedUsers) != 2 || cfg.AllowedUsers[1] != 2 {
		t.Fatalf("unexpected config from file: %+v", cfg)
	}
}

func TestLoadRejectsBadParallelism(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SUMMARIZE_PARALLELISM", "0")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for zero parallelism")
	}
}
