// Package model defines the data structures shared by the crawler, the
// output writers and the history store.
//
// This package contains the following main types:
//   - Page: a fetched HTML document
//   - ScoreMap: the priority of every discovered URL, in discovery order
//   - Entry: one ScoreMap row with its fetch metadata
//   - CrawlResult: the outcome of one complete crawl run
//
// The types live in their own package so that crawler, report, sitemap and
// history can share them without import cycles.
package model
