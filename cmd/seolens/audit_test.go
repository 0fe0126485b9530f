package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/seolens/seolens/internal/config"
	"github.com/seolens/seolens/internal/log"
	"github.com/seolens/seolens/internal/model"
)

// TestNewAuditCmd tests the audit command creation.
func TestNewAuditCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAuditCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "audit [site or urls...]" {
			t.Errorf("expected use 'audit [site or urls...]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has expected flag shorthands", func(t *testing.T) {
		t.Parallel()

		shorthands := map[string]string{
			"scope":       "s",
			"max-pages":   "p",
			"link-checks": "l",
			"timeout":     "t",
			"deadline":    "D",
			"rate":        "r",
			"config":      "c",
			"json":        "j",
			"markdown":    "m",
			"excel":       "x",
			"output":      "o",
		}
		for name, shorthand := range shorthands {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				t.Errorf("expected %s flag", name)
				continue
			}
			if flag.Shorthand != shorthand {
				t.Errorf("expected %s shorthand %q, got %q", name, shorthand, flag.Shorthand)
			}
		}
	})

	t.Run("has flags without shorthands", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{"sitemap", "outer", "inner", "link-timeout", "no-history"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewAuditCmd()
		if getVerboseFlag(cmd) {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		auditCmd, _, err := root.Find([]string{"audit"})
		if err != nil {
			t.Fatalf("failed to find audit command: %v", err)
		}

		if !getVerboseFlag(auditCmd) {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewAuditCmd()
		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "example.com" {
			t.Errorf("expected seeds [example.com], got %v", cfg.Seeds)
		}
		if cfg.MaxPages != config.DefaultMaxPages {
			t.Errorf("expected MaxPages %d, got %d", config.DefaultMaxPages, cfg.MaxPages)
		}
		if cfg.OuterConcurrency != config.DefaultOuterConcurrency {
			t.Errorf("expected OuterConcurrency %d, got %d", config.DefaultOuterConcurrency, cfg.OuterConcurrency)
		}
		if cfg.HistoryDir == "" {
			t.Error("expected history to be enabled by default")
		}
	})

	t.Run("builds config with custom concurrency", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("outer", "3")
		_ = cmd.Flags().Set("inner", "7")
		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.OuterConcurrency != 3 {
			t.Errorf("expected OuterConcurrency 3, got %d", cfg.OuterConcurrency)
		}
		if cfg.InnerConcurrency != 7 {
			t.Errorf("expected InnerConcurrency 7, got %d", cfg.InnerConcurrency)
		}
	})

	t.Run("builds config with custom timeouts", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("timeout", "3s")
		_ = cmd.Flags().Set("deadline", "1m")
		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.FetchTimeout != 3*time.Second {
			t.Errorf("expected FetchTimeout 3s, got %s", cfg.FetchTimeout)
		}
		if cfg.JobDeadline != time.Minute {
			t.Errorf("expected JobDeadline 1m, got %s", cfg.JobDeadline)
		}
	})

	t.Run("no-history disables the history directory", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("no-history", "true")
		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.HistoryDir != "" {
			t.Errorf("expected empty HistoryDir, got %q", cfg.HistoryDir)
		}
	})

	t.Run("fails on explicit missing config file", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "nope.yml"))

		if _, err := buildConfig(cmd, []string{"example.com"}); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})

	t.Run("loads domain overrides from config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), ".seolens")
		content := `domains:
  example.com:
    sitemapURL: "https://example.com/custom-sitemap.xml"
    maxPages: 10
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		dc := cfg.Overrides.GetDomainConfig("example.com")
		if dc.SitemapURL != "https://example.com/custom-sitemap.xml" {
			t.Errorf("expected sitemap override, got %q", dc.SitemapURL)
		}
		if dc.MaxPages != 10 {
			t.Errorf("expected MaxPages override 10, got %d", dc.MaxPages)
		}
	})

	t.Run("sitemap flag becomes a domain override", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("sitemap", "https://example.com/sm.xml")
		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		dc := cfg.Overrides.GetDomainConfig("example.com")
		if dc.SitemapURL != "https://example.com/sm.xml" {
			t.Errorf("expected sitemap flag override, got %q", dc.SitemapURL)
		}
	})
}

// TestSeedHost tests seed hostname resolution for config lookup.
func TestSeedHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{
			name: "explicit scope wins",
			cfg:  &config.Config{DomainScope: "Example.COM", Seeds: []string{"https://other.example/"}},
			want: "example.com",
		},
		{
			name: "schemeless seed",
			cfg:  &config.Config{Seeds: []string{"example.com"}},
			want: "example.com",
		},
		{
			name: "full URL seed",
			cfg:  &config.Config{Seeds: []string{"https://Example.com/pricing"}},
			want: "example.com",
		},
		{
			name: "no seeds",
			cfg:  &config.Config{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := seedHost(tt.cfg); got != tt.want {
				t.Errorf("seedHost() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestProgressLabel tests the progress line outcome tags.
func TestProgressLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result *model.PageResult
		want   string
	}{
		{
			name:   "success shows status",
			result: &model.PageResult{Outcome: model.SuccessOutcome(200, nil, nil, "", time.Millisecond)},
			want:   "200",
		},
		{
			name:   "timeout",
			result: &model.PageResult{Outcome: model.TimeoutOutcome("deadline", time.Second)},
			want:   "timeout",
		},
		{
			name:   "network error",
			result: &model.PageResult{Outcome: model.NetworkErrorOutcome("refused", 0)},
			want:   "error",
		},
		{
			name:   "skipped",
			result: &model.PageResult{Outcome: model.SkippedOutcome("deadline expired")},
			want:   "skipped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := progressLabel(tt.result); got != tt.want {
				t.Errorf("progressLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestOutputReport tests report output to a file.
func TestOutputReport(t *testing.T) {
	t.Parallel()

	newReport := func() *model.AuditReport {
		r := model.NewAuditReport("example.com", 1)
		r.Results[0] = &model.PageResult{
			URL:     "https://example.com/",
			Outcome: model.SuccessOutcome(200, nil, nil, "https://example.com/", time.Millisecond),
		}
		r.Finalize()
		return r
	}

	t.Run("writes JSON report to file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out", "report.json")
		cfg := &config.Config{JSONReport: true, ReportFile: path}

		if err := outputReport(cfg, newReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read report file: %v", err)
		}

		var decoded model.AuditReport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if decoded.Site != "example.com" {
			t.Errorf("expected site 'example.com', got %q", decoded.Site)
		}
	})

	t.Run("writes markdown report to file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "report.md")
		cfg := &config.Config{MarkdownReport: true, ReportFile: path}

		if err := outputReport(cfg, newReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read report file: %v", err)
		}
		if !strings.Contains(string(data), "# SEO Audit Report") {
			t.Error("expected markdown header in output")
		}
	})

	t.Run("writes excel report to file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "report.xlsx")
		cfg := &config.Config{ExcelReport: true, ReportFile: path}

		if err := outputReport(cfg, newReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("failed to stat report file: %v", err)
		}
		if info.Size() == 0 {
			t.Error("expected non-empty workbook")
		}
	})
}

// TestSaveAuditReport tests history persistence from the audit command.
func TestSaveAuditReport(t *testing.T) {
	t.Parallel()

	t.Run("no-op when history is disabled", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{HistoryDir: ""}
		report := model.NewAuditReport("example.com", 0)
		report.Finalize()

		logger := log.NewAuditLogger(io.Discard, false)
		if err := saveAuditReport(context.Background(), cfg, report, logger); err != nil {
			t.Errorf("expected no-op, got error: %v", err)
		}
	})

	t.Run("persists run to the history directory", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{HistoryDir: t.TempDir()}
		report := model.NewAuditReport("example.com", 0)
		report.Finalize()

		logger := log.NewAuditLogger(io.Discard, false)
		if err := saveAuditReport(context.Background(), cfg, report, logger); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		dbPath := filepath.Join(cfg.HistoryDir, "seolens.db")
		if _, err := os.Stat(dbPath); err != nil {
			t.Errorf("expected history database at %s: %v", dbPath, err)
		}
	})
}
