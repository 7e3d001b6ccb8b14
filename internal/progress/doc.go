// Package progress implements crawler.ProgressSink for the terminal and the
// crawl log file.
//
//   - TerminalSink prints the queue size and the number of URLs found,
//     redrawing the two lines in place when writing to a terminal.
//   - LogSink writes a timestamped narrative of the crawl through slog.
//   - Multi fans events out to several sinks.
package progress
