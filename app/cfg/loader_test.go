package cfg

import (
	"strings"
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// Version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs([]string{"--timezone", ""})
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DBPath != "./rss-lens.db" {
		t.Errorf("Expected DB path './rss-lens.db', got '%s'", cfg.DBPath)
	}
	if cfg.OutletsDir != "./outlets" {
		t.Errorf("Expected outlets dir './outlets', got '%s'", cfg.OutletsDir)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.BaseUrl != "http://localhost:8080" {
		t.Errorf("Expected base URL 'http://localhost:8080', got '%s'", cfg.BaseUrl)
	}
	if cfg.SchedulerInterval != 30*time.Minute {
		t.Errorf("Expected scheduler interval 30m, got %s", cfg.SchedulerInterval)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected request timeout 30s, got %s", cfg.RequestTimeout)
	}
	if cfg.AnalysisLimit != 0 {
		t.Errorf("Expected no analysis limit, got %d", cfg.AnalysisLimit)
	}
	if cfg.Classifier != "gemini" {
		t.Errorf("Expected classifier 'gemini', got '%s'", cfg.Classifier)
	}
	if cfg.Once {
		t.Error("Expected once to be disabled")
	}
}

func TestLoadArgsOverrides(t *testing.T) {
	cfg, err := LoadArgs([]string{
		"--timezone", "",
		"--db-path", "/tmp/news.db",
		"--base-url", "https://news.example.com/",
		"--classifier", "openai",
		"--openai-api-key", "sk-test",
		"--min-run-interval", "60",
		"--analysis-limit", "10",
		"--once",
		"--debug",
	})
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DBPath != "/tmp/news.db" {
		t.Errorf("Expected DB path '/tmp/news.db', got '%s'", cfg.DBPath)
	}
	if cfg.BaseUrl != "https://news.example.com" {
		t.Errorf("Expected trailing slash trimmed, got '%s'", cfg.BaseUrl)
	}
	if cfg.Classifier != "openai" || cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("Expected openai classifier with key, got '%s' / '%s'", cfg.Classifier, cfg.OpenAIAPIKey)
	}
	if cfg.MinRunInterval != time.Minute {
		t.Errorf("Expected min run interval 1m, got %s", cfg.MinRunInterval)
	}
	if cfg.AnalysisLimit != 10 {
		t.Errorf("Expected analysis limit 10, got %d", cfg.AnalysisLimit)
	}
	if !cfg.Once || !cfg.Debug {
		t.Error("Expected once and debug to be enabled")
	}
}

func TestLoadArgsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown classifier", []string{"--classifier", "claude"}, "failed to parse configuration"},
		{"zero workers", []string{"--worker-count", "0"}, "worker count must be positive"},
		{"negative limit", []string{"--analysis-limit", "-1"}, "analysis limit must not be negative"},
		{"zero timeout", []string{"--request-timeout", "0"}, "request timeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadArgs(append([]string{"--timezone", ""}, tt.args...))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing '%s', got: %v", tt.wantErr, err)
			}
		})
	}
}
