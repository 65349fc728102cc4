// Package webfetch provides the fetch-and-parse tool: it validates a URL,
// retrieves the page over HTTP with a bounded timeout, and reduces the
// markup to a title, the primary body text and a handful of outbound links.
// HTTP error statuses are reported alongside the extract rather than
// treated as failures; only transport-level problems are errors.
package webfetch
