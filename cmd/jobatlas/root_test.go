package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false, "json").Info("sync completed", "total", 3)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "sync completed" {
		t.Errorf("msg = %v", line["msg"])
	}
}

func TestNewLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false, "text").Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line logged without --debug: %q", buf.String())
	}
	newLogger(&buf, true, "text").Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug line missing with --debug: %q", buf.String())
	}
}

func TestSetupClassifier_Default(t *testing.T) {
	cls, err := setupClassifier("", 0)
	if err != nil {
		t.Fatalf("setupClassifier: %v", err)
	}
	if len(cls.Dictionary().Categories()) == 0 {
		t.Error("default dictionary has no categories")
	}
}

func TestSetupClassifier_MissingDictionary(t *testing.T) {
	_, err := setupClassifier(filepath.Join(t.TempDir(), "missing.yaml"), 0)
	if err == nil {
		t.Fatal("expected error for missing dictionary file")
	}
}

func TestLoadConfig_ResolvesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobatlas.yaml")
	if err := os.WriteFile(path, []byte("source:\n  database_url: postgres://localhost/jobs\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JOBATLAS_CONFIG", path)

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Source.DatabaseURL != "postgres://localhost/jobs" {
		t.Errorf("DatabaseURL = %q", cfg.Source.DatabaseURL)
	}
}

func TestHumanAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{72 * time.Hour, "3d ago"},
	}
	for _, tt := range tests {
		if got := humanAge(tt.d); got != tt.want {
			t.Errorf("humanAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
