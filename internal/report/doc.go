// Package report writes human-readable and machine-readable summaries of a
// finished crawl.
//
// Three formats are available: plain text for the terminal, JSON for tools
// and Markdown for sharing. All writers implement Writer, and New selects
// one by the format name used in the settings file and on the command line.
package report
