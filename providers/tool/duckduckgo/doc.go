// Package duckduckgo provides the web-search tool backed by the public,
// unauthenticated DuckDuckGo Instant Answer API. Results are normalized to
// ordered {title, url, snippet} records; the provider's relevance order is
// preserved verbatim.
package duckduckgo
