// Package history stores finished crawls in SQLite so that later runs of
// the same site can be compared.
//
// Each crawl is a run identified by a random UUID. A run keeps its root,
// timestamps and every sitemap entry with its priority, fetch outcome and
// content digest. The database is a single file under the XDG data
// directory, opened with the CGO-free modernc.org/sqlite driver.
package history
