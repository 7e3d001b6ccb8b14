// Package config provides configuration structures and loaders for sitemapper.
//
// Two kinds of configuration exist:
//
//   - CrawlConfig: what to crawl. It is assembled from three line-oriented
//     files (site.cfg, disallow.cfg, change_prio.cfg) and is immutable once
//     built. Missing files are replaced by commented templates.
//   - Settings: how to crawl and where to write. It is read from an optional
//     YAML file (.sitemapper.yaml) and overridden by CLI flags.
//
// Lines starting with '#' and blank lines are ignored in every .cfg file.
// Disallow rules and priority adjustments are regular expressions compiled
// once at load time; an invalid pattern is reported as a *PatternError.
package config
