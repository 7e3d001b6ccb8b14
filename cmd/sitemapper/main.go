// Package main provides the entry point for the sitemapper CLI.
//
// sitemapper crawls a single website from the root URL in site.cfg and
// writes a sitemap.xml in which every page carries a priority derived from
// its URL shape and the adjustments in change_prio.cfg.
//
// Usage:
//
//	sitemapper init
//	sitemapper -o out/
//	sitemapper compare https://example.com/
//
// See --help for all available options.
package main

// main is the entry point for sitemapper.
func main() {
	Execute()
}
