package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/sitemapper/internal/config"
	"github.com/nao1215/sitemapper/internal/crawler"
	"github.com/nao1215/sitemapper/internal/history"
	"github.com/nao1215/sitemapper/internal/model"
	"github.com/nao1215/sitemapper/internal/sitemap"
)

// NewCompareCmd creates the compare command.
// This command compares crawls stored in the history database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [root-url]",
		Short: "Compare crawls of a site",
		Long: `Compare shows what changed between two crawls of the same site:

- URLs that appeared or disappeared
- URLs whose sitemap priority changed
- pages whose content changed

By default the two latest crawls recorded in the history database are
compared. Only complete crawls are recorded.

Examples:
  # Compare the latest two crawls
  sitemapper compare https://example.com/

  # Compare the latest crawl with an existing sitemap file
  sitemapper compare --against old/sitemap.xml https://example.com/

  # Compare the latest crawl with a specific run
  sitemapper compare --with-run 3f1c... https://example.com/

  # List the recorded crawls of a site
  sitemapper compare --list https://example.com/

  # List every site in the history database
  sitemapper compare --list-sites`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List the recorded crawls of the site")
	cmd.Flags().BoolP("list-sites", "L", false,
		"List every site in the history database")
	cmd.Flags().StringP("against", "a", "",
		"Compare the latest crawl with this sitemap file")
	cmd.Flags().StringP("with-run", "r", "",
		"Compare the latest crawl with the run of this ID (see --list)")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	cmd.MarkFlagsMutuallyExclusive("against", "with-run")

	return cmd
}

// compareOptions holds the parsed compare flags.
type compareOptions struct {
	root      string
	list      bool
	listSites bool
	against   string
	withRun   string
	json      bool
	markdown  bool
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseCompareOptions(cmd, args)
	if err != nil {
		return err
	}

	dbDir, err := getDBDir(cmd)
	if err != nil {
		return err
	}

	// The database must already exist; comparing never creates it.
	store, err := history.Open(dbDir, history.Options{CreateIfNotExists: false})
	if err != nil {
		return fmt.Errorf("no crawl history found (run sitemapper first): %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case opts.listSites:
		return listSites(ctx, store, out, opts)
	case opts.list:
		return listRuns(ctx, store, out, opts)
	default:
		return runComparison(ctx, store, out, opts)
	}
}

// parseCompareOptions reads the flags and normalizes the root argument the
// same way the crawler normalizes its root.
func parseCompareOptions(cmd *cobra.Command, args []string) (*compareOptions, error) {
	opts := &compareOptions{}
	var err error

	if opts.listSites, err = cmd.Flags().GetBool("list-sites"); err != nil {
		return nil, err
	}
	if opts.list, err = cmd.Flags().GetBool("list"); err != nil {
		return nil, err
	}
	if opts.against, err = cmd.Flags().GetString("against"); err != nil {
		return nil, err
	}
	if opts.withRun, err = cmd.Flags().GetString("with-run"); err != nil {
		return nil, err
	}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}

	if opts.listSites {
		return opts, nil
	}
	if len(args) == 0 {
		return nil, errors.New("root URL is required (use --list-sites to see recorded sites)")
	}
	opts.root, err = normalizeRoot(args[0])
	if err != nil {
		return nil, err
	}
	return opts, nil
}

// normalizeRoot turns a user-supplied root URL into the form stored in
// history.
func normalizeRoot(raw string) (string, error) {
	root, err := config.ParseRootURL(raw)
	if err != nil {
		return "", err
	}
	u, err := crawler.NewNormalizer(root).Normalize(root.String())
	if err != nil {
		return "", fmt.Errorf("%w: %w", config.ErrInvalidRootURL, err)
	}
	return u.String(), nil
}

// listSites lists every site with recorded crawls.
func listSites(ctx context.Context, store *history.Store, out io.Writer, opts *compareOptions) error {
	sites, err := store.ListSites(ctx)
	if err != nil {
		return err
	}
	if opts.json {
		return writeJSON(out, sites)
	}

	if len(sites) == 0 {
		fmt.Fprintln(out, "No crawls recorded yet.")
		return nil
	}
	fmt.Fprintf(out, "Recorded sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Fprintf(out, "  • %s\n", site)
	}
	fmt.Fprintln(out, "\nUse 'sitemapper compare --list <root-url>' to see the crawls of a site.")
	return nil
}

// listRuns lists the recorded crawls of one site.
func listRuns(ctx context.Context, store *history.Store, out io.Writer, opts *compareOptions) error {
	runs, err := store.ListRuns(ctx, opts.root)
	if err != nil {
		return err
	}
	if opts.json {
		if runs == nil {
			runs = []history.Run{}
		}
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No crawls recorded for %s\n", opts.root)
		return nil
	}
	fmt.Fprintf(out, "Crawls of %s (%d):\n\n", opts.root, len(runs))
	fmt.Fprintf(out, "  %-36s  %-20s  %s\n", "ID", "Finished", "URLs")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 66))
	for _, run := range runs {
		fmt.Fprintf(out, "  %-36s  %-20s  %d\n",
			run.ID,
			run.Finished.Local().Format("2006-01-02 15:04:05"),
			run.URLs,
		)
	}
	return nil
}

// Comparison is the outcome of comparing two crawls of one site.
type Comparison struct {
	// Root is the normalized root URL.
	Root string `json:"root"`

	// Older describes the baseline.
	Older Source `json:"older"`

	// Newer describes the latest crawl.
	Newer Source `json:"newer"`

	// Diff lists the changes.
	Diff *history.Diff `json:"diff"`
}

// Source identifies one side of a comparison.
type Source struct {
	// RunID is set when the side is a recorded crawl.
	RunID string `json:"run_id,omitempty"`

	// Sitemap is set when the side is a sitemap file.
	Sitemap string `json:"sitemap,omitempty"`

	// Finished is when the crawl ended; zero for sitemap files.
	Finished time.Time `json:"finished,omitzero"`

	// URLs is the number of entries.
	URLs int `json:"urls"`
}

// String describes the source for text output.
func (s Source) String() string {
	if s.Sitemap != "" {
		return fmt.Sprintf("sitemap %s (%d URLs)", s.Sitemap, s.URLs)
	}
	return fmt.Sprintf("run %s, %s (%d URLs)", s.RunID, s.Finished.Local().Format("2006-01-02 15:04:05"), s.URLs)
}

// runComparison compares the latest crawl with the chosen baseline.
func runComparison(ctx context.Context, store *history.Store, out io.Writer, opts *compareOptions) error {
	runs, err := store.ListRuns(ctx, opts.root)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no crawls recorded for %s", opts.root)
	}

	newerRun := runs[0]
	newer, err := store.LoadRun(ctx, newerRun.ID)
	if err != nil {
		return err
	}

	var older *model.CrawlResult
	var olderSource Source
	switch {
	case opts.against != "":
		urls, err := sitemap.ReadFile(opts.against)
		if err != nil {
			return fmt.Errorf("failed to read sitemap %s: %w", opts.against, err)
		}
		older = resultFromSitemap(opts.root, urls)
		olderSource = Source{Sitemap: opts.against, URLs: older.Scores.Len()}
	case opts.withRun != "":
		older, err = store.LoadRun(ctx, opts.withRun)
		if err != nil {
			return err
		}
		if older.Root != opts.root {
			return fmt.Errorf("run %s belongs to %s, not %s", opts.withRun, older.Root, opts.root)
		}
		olderSource = Source{RunID: opts.withRun, Finished: older.Finished, URLs: older.Scores.Len()}
	default:
		if len(runs) < 2 {
			return fmt.Errorf("at least 2 crawls are required for comparison (found %d)", len(runs))
		}
		older, err = store.LoadRun(ctx, runs[1].ID)
		if err != nil {
			return err
		}
		olderSource = Source{RunID: runs[1].ID, Finished: runs[1].Finished, URLs: runs[1].URLs}
	}

	c := &Comparison{
		Root:  opts.root,
		Older: olderSource,
		Newer: Source{RunID: newerRun.ID, Finished: newerRun.Finished, URLs: newerRun.URLs},
		Diff:  history.Compare(older, newer),
	}

	switch {
	case opts.json:
		return writeJSON(out, c)
	case opts.markdown:
		return outputComparisonMarkdown(out, c)
	default:
		outputComparisonText(out, c)
		return nil
	}
}

// resultFromSitemap wraps the entries of a sitemap file as a crawl result.
// Sitemaps carry no digests, so content changes are never reported against
// them.
func resultFromSitemap(root string, urls []sitemap.URL) *model.CrawlResult {
	result := model.NewCrawlResult(root, time.Time{})
	for _, u := range urls {
		result.Scores.Record(u.Loc, u.Priority)
	}
	return result
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// outputComparisonText writes the comparison for the terminal.
func outputComparisonText(out io.Writer, c *Comparison) {
	fmt.Fprintf(out, "Comparing crawls of %s\n", c.Root)
	fmt.Fprintf(out, "  older: %s\n", c.Older)
	fmt.Fprintf(out, "  newer: %s\n\n", c.Newer)

	if c.Diff.Empty() {
		fmt.Fprintln(out, "No changes.")
		return
	}

	writeList(out, "Added", "+", c.Diff.Added)
	writeList(out, "Removed", "-", c.Diff.Removed)
	if len(c.Diff.PriorityChanged) > 0 {
		fmt.Fprintf(out, "Priority changed (%d):\n", len(c.Diff.PriorityChanged))
		for _, pc := range c.Diff.PriorityChanged {
			fmt.Fprintf(out, "  ~ %s  %s -> %s\n", pc.URL, model.FormatPriority(pc.Old), model.FormatPriority(pc.New))
		}
		fmt.Fprintln(out)
	}
	writeList(out, "Content changed", "*", c.Diff.ContentChanged)
}

func writeList(out io.Writer, title, marker string, urls []string) {
	if len(urls) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d):\n", title, len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  %s %s\n", marker, u)
	}
	fmt.Fprintln(out)
}

// outputComparisonMarkdown writes the comparison as a Markdown document.
func outputComparisonMarkdown(out io.Writer, c *Comparison) error {
	md := markdown.NewMarkdown(out)

	md.H1("Crawl Comparison")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Root URL", "`" + c.Root + "`"},
			{"Older", c.Older.String()},
			{"Newer", c.Newer.String()},
			{"Added", strconv.Itoa(len(c.Diff.Added))},
			{"Removed", strconv.Itoa(len(c.Diff.Removed))},
			{"Priority changed", strconv.Itoa(len(c.Diff.PriorityChanged))},
			{"Content changed", strconv.Itoa(len(c.Diff.ContentChanged))},
		},
	})
	md.PlainText("")

	if c.Diff.Empty() {
		md.Note("No changes between the two crawls.")
		return md.Build()
	}

	mdList(md, "Added URLs", c.Diff.Added)
	mdList(md, "Removed URLs", c.Diff.Removed)
	if len(c.Diff.PriorityChanged) > 0 {
		md.H2("Priority Changes")
		md.PlainText("")
		rows := make([][]string, len(c.Diff.PriorityChanged))
		for i, pc := range c.Diff.PriorityChanged {
			rows[i] = []string{pc.URL, model.FormatPriority(pc.Old), model.FormatPriority(pc.New)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Old", "New"},
			Rows:   rows,
		})
		md.PlainText("")
	}
	mdList(md, "Content Changes", c.Diff.ContentChanged)

	return md.Build()
}

func mdList(md *markdown.Markdown, title string, urls []string) {
	if len(urls) == 0 {
		return
	}
	md.H2(title)
	md.PlainText("")
	md.BulletList(urls...)
	md.PlainText("")
}
