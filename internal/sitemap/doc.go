// Package sitemap writes crawl results as sitemaps.org XML documents and
// reads existing sitemaps back for comparison.
package sitemap
