package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitemapper/internal/config"
	"github.com/nao1215/sitemapper/internal/crawler"
	applog "github.com/nao1215/sitemapper/internal/log"
	"github.com/nao1215/sitemapper/internal/pipeline"
	"github.com/nao1215/sitemapper/internal/progress"
	"github.com/nao1215/sitemapper/internal/sitemap"
)

// errInterrupted is returned after the partial sitemap of a cancelled crawl
// has been written.
var errInterrupted = errors.New("crawl interrupted")

// addCrawlFlags registers the flags of the crawl run by the root command.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", ".",
		"Directory receiving sitemap.xml, sitemapper.log and the report")
	cmd.Flags().BoolP("silent", "s", false,
		"Suppress progress output")
	cmd.Flags().String("config-dir", ".",
		"Directory containing site.cfg, disallow.cfg and change_prio.cfg")
	cmd.Flags().String("settings", "",
		"Settings file path (default: .sitemapper.yaml in the current, XDG config or home directory)")
	cmd.Flags().String("report", "",
		"Write a summary report: text, json or markdown")
	cmd.Flags().Bool("no-history", false,
		"Do not record this crawl in the history database")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (host:port)")
	cmd.Flags().Int("retries", config.DefaultRetries,
		"Additional attempts after a transport error or 5xx response")
}

// runCrawlCmd executes the crawl.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	settings, err := buildSettings(cmd)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewSecureLogger(cmd.ErrOrStderr(), settings.Verbose)

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, settings, cmd.OutOrStdout(), logger)
}

// buildSettings layers defaults, the settings file and command line flags.
func buildSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings := config.NewSettings()

	settingsPath, err := cmd.Flags().GetString("settings")
	if err != nil {
		return nil, err
	}
	// An explicit path must exist; otherwise a missing file means defaults.
	if path := config.FindSettingsFile(settingsPath); path != "" {
		file, err := config.LoadSettingsFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings file %s: %w", path, err)
		}
		settings.Merge(file)
	} else if settingsPath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrSettingsNotFound, settingsPath)
	}

	if settings.OutputDir, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	if settings.ConfigDir, err = cmd.Flags().GetString("config-dir"); err != nil {
		return nil, err
	}
	if settings.Silent, err = cmd.Flags().GetBool("silent"); err != nil {
		return nil, err
	}
	settings.Verbose = getVerboseFlag(cmd)
	if settings.DBDir, err = getDBDir(cmd); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("report") {
		if settings.Report, err = cmd.Flags().GetString("report"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("proxy") {
		if settings.Proxy, err = cmd.Flags().GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("retries") {
		if settings.Retries, err = cmd.Flags().GetInt("retries"); err != nil {
			return nil, err
		}
	}
	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		history := false
		settings.History = &history
	}

	return settings, nil
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

// getDBDir retrieves the history directory flag from the command or its parent.
func getDBDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return cmd.Root().PersistentFlags().GetString("db-dir")
	}
	return dir, nil
}

// runCrawl loads the crawl configuration, crawls the site and writes the
// outputs. A cancelled crawl still writes its partial sitemap.
func runCrawl(ctx context.Context, settings *config.Settings, out io.Writer, logger *slog.Logger) error {
	cfg, err := loadCrawlConfig(settings, out, logger)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(settings.OutputDir, 0750); err != nil {
		return fmt.Errorf("%w: %s: %w", sitemap.ErrOutputIO, settings.OutputDir, err)
	}
	logFile, err := os.Create(settings.LogFilePath())
	if err != nil {
		return fmt.Errorf("%w: cannot create log file %s: %w", sitemap.ErrOutputIO, settings.LogFilePath(), err)
	}
	defer logFile.Close()
	fileLogger := applog.NewFileLogger(logFile)

	client, err := crawler.NewHTTPClient(settings.Timeout, settings.Proxy)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	fetcher := crawler.NewHTTPFetcher(client,
		crawler.WithUserAgent(settings.UserAgent),
		crawler.WithMaxBodySize(settings.MaxBodySize),
		crawler.WithRetries(settings.Retries),
	)

	sinks := progress.Multi{progress.NewLogSink(fileLogger)}
	if !settings.Silent {
		sinks = append(sinks, progress.NewTerminalSink(out))
	}

	engine, err := crawler.NewEngine(cfg,
		crawler.WithFetcher(fetcher),
		crawler.WithProgressSink(sinks),
		crawler.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	logger.Info("starting crawl",
		"root", cfg.Root.String(),
		"delay", cfg.Delay,
		"disallow", len(cfg.Disallow),
		"adjustments", len(cfg.Adjustments),
	)

	result, crawlErr := engine.Run(ctx)
	if crawlErr != nil && !errors.Is(crawlErr, context.Canceled) {
		return fmt.Errorf("crawl failed: %w", crawlErr)
	}

	p := buildPipeline(settings, logger)
	// Outputs are written even after an interrupt.
	if err := p.Execute(context.WithoutCancel(ctx), result); err != nil {
		return err
	}

	if !settings.Silent {
		fmt.Fprintf(out, "Sitemap written to %s\n", settings.SitemapPath())
	}
	if crawlErr != nil {
		return fmt.Errorf("%w: %d URLs written", errInterrupted, result.Scores.Len())
	}
	return nil
}

// loadCrawlConfig reads the .cfg files and reports what was repaired or
// skipped. A missing site.cfg stops the run with guidance.
func loadCrawlConfig(settings *config.Settings, out io.Writer, logger *slog.Logger) (*config.CrawlConfig, error) {
	cfg, notices, err := config.LoadCrawlConfig(settings.ConfigDir)
	for _, n := range notices {
		var missing *config.MissingError
		if errors.As(n, &missing) {
			if !settings.Silent {
				fmt.Fprintln(out, missing.Error())
			}
			continue
		}
		logger.Warn("configuration line skipped", "error", n)
	}
	if err != nil {
		if errors.Is(err, config.ErrConfigMissing) {
			return nil, fmt.Errorf("%w\nput the URL of the site to crawl in %s and run sitemapper again",
				err, filepath.Join(settings.ConfigDir, config.SiteFile))
		}
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// buildPipeline assembles the output steps enabled by settings.
func buildPipeline(settings *config.Settings, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(pipeline.NewSitemapStep(settings.SitemapPath(), pipeline.WithSitemapLogger(logger)))
	if settings.Report != config.ReportNone {
		p.AddStep(pipeline.NewReportStep(settings.Report, settings.OutputDir,
			pipeline.WithReportLogger(logger),
			pipeline.WithReportVersion(getVersion()),
		))
	}
	if settings.HistoryEnabled() {
		p.AddStep(pipeline.NewHistoryStep(settings.DBDir, pipeline.WithHistoryLogger(logger)))
	}
	logger.Debug("output pipeline", "steps", p.StepNames())
	return p
}
