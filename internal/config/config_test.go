package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/inflightpayment/internal/config"
)

func TestEndpointURL(t *testing.T) {
	cfg := config.Default()

	cases := []struct {
		env  string
		want string
	}{
		{"dev", "https://dev.myhostname.com/v1/customers/"},
		{"test", "https://test.myhostname.com/v1/customers/"},
		{"prod", "https://myhostname.com/v1/customers/"},
	}
	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			got, err := cfg.EndpointURL(tc.env)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}

	t.Run("fake", func(t *testing.T) {
		_, err := cfg.EndpointURL("fake")
		if !errors.Is(err, config.ErrUnsupportedEnvironment) {
			t.Fatalf("expected ErrUnsupportedEnvironment, got %v", err)
		}
		if !strings.Contains(err.Error(), "Environment fake not supported") {
			t.Fatalf("unexpected message: %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := config.Default()
		if cfg.Host != "myhostname.com" || cfg.ReportsDir != "reports" || cfg.CSVSettings.Delimiter != ";" {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
		if cfg.LogFile != filepath.Join("reports", "cli_paymentdata.log") {
			t.Fatalf("unexpected log file: %q", cfg.LogFile)
		}
		if cfg.RequestTimeout != 30*time.Second {
			t.Fatalf("unexpected timeout: %v", cfg.RequestTimeout)
		}
		if !cfg.Reports.WorkbookEnabled() || !cfg.Reports.MetricsEnabled() {
			t.Fatalf("optional reports should default to enabled")
		}
	})

	t.Run("reads yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		body := "host: api.example.test\nreports_dir: out\nrequest_timeout: 5s\nreports:\n  workbook: false\n"
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Host != "api.example.test" || cfg.ReportsDir != "out" || cfg.RequestTimeout != 5*time.Second {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.LogFile != filepath.Join("out", "cli_paymentdata.log") {
			t.Fatalf("log file should follow reports_dir, got %q", cfg.LogFile)
		}
		if cfg.Reports.WorkbookEnabled() {
			t.Fatalf("workbook should be disabled")
		}
		got, _ := cfg.EndpointURL("prod")
		if got != "https://api.example.test/v1/customers/" {
			t.Fatalf("unexpected endpoint: %q", got)
		}
	})

	t.Run("explicit missing file errors", func(t *testing.T) {
		if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("rejects host with scheme", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		if err := os.WriteFile(path, []byte("host: https://x.test\n"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := config.Load(path); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestListEnvironments(t *testing.T) {
	if got := config.ListEnvironments(""); got != "dev, test or prod" {
		t.Fatalf("unexpected list: %q", got)
	}
	err := &config.EnvironmentError{Env: "fake"}
	if got := err.Error(); got != "Environment fake not supported. Please use 'dev', 'test' or 'prod'." {
		t.Fatalf("unexpected message: %q", got)
	}
	for _, env := range config.Environments {
		if _, err := config.Default().EndpointURL(env); err != nil {
			t.Fatalf("listed environment %q rejected: %v", env, err)
		}
	}
}
