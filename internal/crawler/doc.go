// Package crawler implements the single-site crawl that feeds the sitemap.
//
// # Architecture
//
// The Engine drives a serial loop over a LIFO Frontier. Every popped URL is
// normalized, checked against the root host, scored once, and fetched. HTML
// pages have their anchors extracted, filtered, resolved and normalized;
// URLs not seen before are pushed back onto the frontier. The loop ends
// when the frontier is empty.
//
// # Components
//
//   - Normalizer: canonical form of a URL (CrawlURL)
//   - Frontier: LIFO queue plus visited-set
//   - Fetcher: GET with response classification
//   - ExtractLinks: anchor hrefs in document order
//   - LinkFilter: scope, disallow and print-view checks
//   - Scorer: path depth, query size and configured adjustments
//   - Engine: the crawl state machine
//   - ProgressSink: where the engine reports what it does
//
// # Error policy
//
// Per-URL failures (*NormalizationError, *HTTPError, *NotHTMLError,
// *TransportError) are contained: the URL keeps any score it already has
// and is not explored. Only context cancellation ends a crawl early.
//
// # Usage
//
//	engine, err := crawler.NewEngine(cfg,
//		crawler.WithFetcher(crawler.NewHTTPFetcher(client)),
//		crawler.WithProgressSink(sink))
//	result, err := engine.Run(ctx)
package crawler
