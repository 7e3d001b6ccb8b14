package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitemapper/internal/config"
)

// NewRootCmd creates the root command. Run without a subcommand, it crawls
// the site configured in the config directory.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemapper",
		Short: "Crawl a website and generate a sitemap with page priorities",
		Long: `sitemapper crawls a single website starting from the root URL in site.cfg,
follows every same-site link and writes sitemap.xml with a priority for each page.

Pages closer to the root get a higher priority: every path segment and every
query parameter lowers the score by 0.1. change_prio.cfg adjusts the score of
URLs matching a pattern, and disallow.cfg excludes URLs from the crawl.

Examples:
  # Create site.cfg, disallow.cfg, change_prio.cfg and .sitemapper.yaml
  sitemapper init

  # Crawl and write sitemap.xml and sitemapper.log into ./out
  sitemapper -o out

  # Crawl without terminal output and write a Markdown report
  sitemapper -s --report markdown

  # Compare the two latest crawls of a site
  sitemapper compare https://example.com/`,
		Args:          cobra.NoArgs,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawlCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(), "Directory of the crawl history database")

	addCrawlFlags(cmd)

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
