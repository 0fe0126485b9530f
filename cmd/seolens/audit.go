package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seolens/seolens/internal/analyze"
	"github.com/seolens/seolens/internal/audit"
	"github.com/seolens/seolens/internal/config"
	"github.com/seolens/seolens/internal/discover"
	"github.com/seolens/seolens/internal/fetch"
	"github.com/seolens/seolens/internal/history"
	"github.com/seolens/seolens/internal/linkcheck"
	"github.com/seolens/seolens/internal/log"
	"github.com/seolens/seolens/internal/model"
	"github.com/seolens/seolens/internal/report"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [site or urls...]",
		Short: "Audit a website for on-page SEO issues and broken links",
		Long: `Audit discovers a site's pages and analyzes each one.

Given a single seed domain, page discovery expands the site's sitemap.xml
(one index level deep). Given multiple URLs, exactly those URLs are audited.
Every discovered page gets a result: successes carry SEO metrics and link
checks, failures carry the reason. A run deadline never drops pages
silently; pages not finished in time are reported as skipped.

Examples:
  # Audit a site via its sitemap
  seolens audit example.com

  # Audit an explicit list of pages
  seolens audit https://example.com/ https://example.com/pricing

  # Write a Markdown report to a file
  seolens audit --markdown -o report.md example.com

  # Excel report for stakeholders
  seolens audit --excel -o audit.xlsx example.com

Configuration file (.seolens) example:
  domains:
    example.com:
      sitemapURL: "https://example.com/sitemap_index.xml"
      headers:
        Authorization: "Bearer token"
  defaults:
    maxPages: 100`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Discovery flags
	cmd.Flags().StringP("scope", "s", "",
		"Restrict the audit to this host (default: the seed's host)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to audit")
	cmd.Flags().String("sitemap", "",
		"Sitemap URL (default: <seed>/sitemap.xml)")

	// Concurrency and budget flags
	cmd.Flags().Int("outer", config.DefaultOuterConcurrency,
		"Maximum pages processed concurrently")
	cmd.Flags().Int("inner", config.DefaultInnerConcurrency,
		"Maximum concurrent link checks per page")
	cmd.Flags().IntP("link-checks", "l", config.DefaultMaxLinkChecks,
		"Maximum internal links verified per page (0 disables link checking)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for fetching one page")
	cmd.Flags().Duration("link-timeout", config.DefaultLinkCheckTimeout,
		"Timeout for one link reachability check")
	cmd.Flags().DurationP("deadline", "D", config.DefaultJobDeadline,
		"Deadline for the whole run (0 disables)")
	cmd.Flags().Float64P("rate", "r", config.DefaultRequestsPerSecond,
		"Page fetches per second (0 disables throttling)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .seolens in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report")
	cmd.Flags().BoolP("excel", "x", false,
		"Output Excel report (requires --output)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewAuditLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown.
	// Cancellation lets running stages finish; no new stage starts.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAudit(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.DomainScope, err = cmd.Flags().GetString("scope")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.OuterConcurrency, err = cmd.Flags().GetInt("outer")
	if err != nil {
		return nil, err
	}

	cfg.InnerConcurrency, err = cmd.Flags().GetInt("inner")
	if err != nil {
		return nil, err
	}

	cfg.MaxLinkChecks, err = cmd.Flags().GetInt("link-checks")
	if err != nil {
		return nil, err
	}

	cfg.FetchTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.LinkCheckTimeout, err = cmd.Flags().GetDuration("link-timeout")
	if err != nil {
		return nil, err
	}

	cfg.JobDeadline, err = cmd.Flags().GetDuration("deadline")
	if err != nil {
		return nil, err
	}

	cfg.RequestsPerSecond, err = cmd.Flags().GetFloat64("rate")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-domain configuration from the config file.
	// If the user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Overrides, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Overrides = &config.File{
			Domains: make(map[string]config.DomainConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ExcelReport, err = cmd.Flags().GetBool("excel")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Record runs in the XDG data directory unless disabled.
	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if !noHistory {
		cfg.HistoryDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments are the seeds. The sitemap override from the
	// flag wins; the config file entry applies per domain below.
	cfg.Seeds = args
	sitemapURL, err := cmd.Flags().GetString("sitemap")
	if err != nil {
		return nil, err
	}
	if sitemapURL != "" {
		applyFlagSitemap(cfg, sitemapURL)
	}

	return cfg, nil
}

// applyFlagSitemap stores the --sitemap flag as an override for the seed's
// host so it flows through the same path as config file overrides.
func applyFlagSitemap(cfg *config.Config, sitemapURL string) {
	host := seedHost(cfg)
	if host == "" {
		return
	}
	if cfg.Overrides.Domains == nil {
		cfg.Overrides.Domains = make(map[string]config.DomainConfig)
	}
	dc := cfg.Overrides.Domains[host]
	dc.SitemapURL = sitemapURL
	cfg.Overrides.Domains[host] = dc
}

// seedHost returns the hostname the audit is scoped to, for config lookup.
func seedHost(cfg *config.Config) string {
	if cfg.DomainScope != "" {
		return strings.ToLower(cfg.DomainScope)
	}
	if len(cfg.Seeds) == 0 {
		return ""
	}
	seed := cfg.Seeds[0]
	if !strings.Contains(seed, "://") {
		seed = "https://" + seed
	}
	u, err := url.Parse(seed)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// runAudit executes the audit: discovery, orchestration, report output,
// and history persistence.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	domainCfg := cfg.Overrides.GetDomainConfig(seedHost(cfg))
	if domainCfg.UserAgent != "" {
		cfg.UserAgent = domainCfg.UserAgent
	}
	maxPages := cfg.MaxPages
	if domainCfg.MaxPages > 0 && domainCfg.MaxPages < maxPages {
		maxPages = domainCfg.MaxPages
	}

	logger.Info("starting audit",
		"seeds", cfg.Seeds,
		"maxPages", maxPages,
		"outer", cfg.OuterConcurrency,
		"inner", cfg.InnerConcurrency,
	)

	// One shared client for discovery, fetching, and link checking.
	// Per-request contexts carry the timeouts, so the client itself has none.
	client := &http.Client{}

	source := discover.NewSource(client,
		discover.WithUserAgent(cfg.UserAgent),
		discover.WithTimeout(cfg.FetchTimeout),
		discover.WithLogger(logger),
	)

	startTime := time.Now()
	fmt.Printf("Discovering pages for %s...\n", strings.Join(cfg.Seeds, ", "))

	discovery, err := source.Discover(ctx, discover.Request{
		Seeds:       cfg.Seeds,
		DomainScope: cfg.DomainScope,
		PageCap:     maxPages,
		SitemapURL:  domainCfg.SitemapURL,
	})
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	urls := discovery.Pages.URLs()
	fmt.Printf("Found %d page(s) in scope %s\n\n", len(urls), discovery.Scope)

	fetcher := fetch.New(client,
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithHeaders(domainCfg.Headers),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithRateLimit(cfg.RequestsPerSecond),
		fetch.WithLogger(logger),
	)
	analyzer := analyze.New(discovery.Scope)
	verifier := linkcheck.New(client,
		linkcheck.WithUserAgent(cfg.UserAgent),
		linkcheck.WithTimeout(cfg.LinkCheckTimeout),
		linkcheck.WithLogger(logger),
	)

	orchestrator := audit.New(fetcher, analyzer, verifier,
		audit.WithConcurrency(cfg.OuterConcurrency, cfg.InnerConcurrency),
		audit.WithMaxLinkChecks(cfg.MaxLinkChecks),
		audit.WithFetchTimeout(cfg.FetchTimeout),
		audit.WithLogger(logger),
		audit.WithProgress(func(result *model.PageResult, done, total int) {
			fmt.Printf("[%d/%d] %s %s\n", done, total, progressLabel(result), result.URL)
		}),
	)

	auditReport, err := orchestrator.Run(ctx, audit.Job{
		Site:           seedHost(cfg),
		URLs:           urls,
		RobotsTxtFound: discovery.RobotsTxtFound,
		Deadline:       cfg.JobDeadline,
	})
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nAudit completed in %s\n", elapsed.Round(time.Millisecond))

	if err := outputReport(cfg, auditReport); err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	if err := saveAuditReport(ctx, cfg, auditReport, logger); err != nil {
		logger.Error("failed to save audit report", "site", auditReport.Site, "error", err)
	}

	return nil
}

// progressLabel renders a short outcome tag for the progress line.
func progressLabel(result *model.PageResult) string {
	switch result.Outcome.Kind {
	case model.OutcomeSuccess:
		return fmt.Sprintf("%d", result.Outcome.StatusCode)
	case model.OutcomeTimeout:
		return "timeout"
	case model.OutcomeNetworkError:
		return "error"
	case model.OutcomeSkipped:
		return "skipped"
	default:
		return string(result.Outcome.Kind)
	}
}

// outputReport outputs the audit report in the requested format.
func outputReport(cfg *config.Config, auditReport *model.AuditReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	case cfg.ExcelReport:
		writer = report.NewExcelWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(auditReport)
	return err
}

// saveAuditReport records the run in the history database.
// If history is disabled, this function is a no-op.
func saveAuditReport(ctx context.Context, cfg *config.Config, auditReport *model.AuditReport, logger *slog.Logger) error {
	if cfg.HistoryDir == "" {
		return nil
	}

	db, err := history.Open(cfg.HistoryDir, history.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	if err := db.SaveReport(ctx, auditReport); err != nil {
		return fmt.Errorf("failed to save audit report: %w", err)
	}

	logger.Info("audit report saved", "site", auditReport.Site, "dir", cfg.HistoryDir)
	return nil
}
