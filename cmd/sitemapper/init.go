package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitemapper/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create configuration templates",
		Long: `Init writes commented templates for every configuration file:

- site.cfg: the root URL to crawl and the delay between requests
- disallow.cfg: regular expressions of URLs to skip
- change_prio.cfg: regular expressions and the priority delta they apply
- .sitemapper.yaml: user agent, timeout, retries, proxy and output settings

Existing files are kept unless -f is given.

Examples:
  # Create templates in the current directory
  sitemapper init

  # Create templates in another directory
  sitemapper init -d site-config

  # Overwrite existing files
  sitemapper init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("dir", "d", ".",
		"Directory receiving the templates")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration files")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	written, err := config.WriteTemplates(dir, force)
	for _, path := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	}
	if err != nil {
		return err
	}

	if len(written) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "All configuration files already exist (use -f to overwrite).")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit site.cfg to set the URL of the site to crawl, then run sitemapper.")
	return nil
}
