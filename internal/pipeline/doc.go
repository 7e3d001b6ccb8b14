// Package pipeline runs the output steps that follow a crawl.
//
// A finished crawl result is handed to an ordered list of steps: writing
// the sitemap, writing the optional summary report and recording the run
// in the history database. Each step implements Step. Only the sitemap step
// fails the pipeline; the others log their problems and let the remaining
// steps run.
package pipeline
