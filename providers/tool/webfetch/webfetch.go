package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/leofalp/webagent/internal/utils"
	"github.com/leofalp/webagent/pkg/logger"
	"github.com/leofalp/webagent/providers/tool"
	"go.uber.org/zap"
)

// ToolName is the name the fetch tool is registered and invoked under.
const ToolName = "fetch_and_parse_url"

const (
	// DefaultTimeout bounds one fetch end to end, connect included.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxLength is the content cap applied when the caller does
	// not ask for one.
	DefaultMaxLength = 5000
	// MaxLengthCeiling is the largest content cap a caller may request.
	MaxLengthCeiling = 10000
	// MaxBodySize caps how much of the response body is read (2MB).
	MaxBodySize = 2 * 1024 * 1024
	// DefaultUserAgent identifies the agent to fetched sites.
	DefaultUserAgent = "webagent-fetch-tool/1.0"
	// DialTimeout is the maximum time to wait for a TCP connection.
	DialTimeout = 5 * time.Second
	// TLSHandshakeTimeout is the maximum time to wait for TLS handshake.
	TLSHandshakeTimeout = 5 * time.Second
)

// FormatText and FormatMarkdown are the accepted Input.Format values.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// truncationMarker is appended to content cut at the length cap.
const truncationMarker = "..."

// Input is the argument payload for [Fetch].
type Input struct {
	URL       string `json:"url" jsonschema:"description=Address of the page to fetch. A missing scheme defaults to https://,required"`
	MaxLength int    `json:"max_length,omitempty" jsonschema:"description=Maximum number of characters of extracted content to return,minimum=1,maximum=10000,default=5000"`
	Format    string `json:"format,omitempty" jsonschema:"description=Content rendering: plain text or Markdown,enum=text|markdown,default=text"`
}

// Link is one outbound reference found on a fetched page.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Output is the structured result of one fetch.
type Output struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Links      []Link `json:"links"`
	StatusCode int    `json:"status_code"`
	Markdown   string `json:"markdown,omitempty"`
}

// NewFetchTool returns a [tool.Tool] that downloads a page over HTTP and
// reduces it to its title, main text and outbound links.
//
// Example:
//
//	fetchTool := webfetch.NewFetchTool()
//	catalog := tool.NewCatalogWithTools(fetchTool)
func NewFetchTool() *tool.Tool[Input, Output] {
	return tool.NewTool[Input, Output](
		ToolName,
		Fetch,
		tool.WithDescription("Fetches a web page and extracts its readable content: title, main text and up to five outbound links. Handles partial URLs by adding https://. Set format to markdown to also get the page rendered as Markdown."),
	)
}

// Fetch retrieves req.URL and extracts the page's title, main text and
// links. Addresses without a scheme default to https://, except localhost
// and 127.0.0.1 which default to http://. Extracted text is capped at
// req.MaxLength characters (default [DefaultMaxLength], at most
// [MaxLengthCeiling]); truncated content ends with "...".
//
// HTTP error statuses are not tool errors: a 404 or 500 page is returned
// with its status code and whatever content it carries. Fetch fails only
// when the address is invalid, the request cannot complete, or the
// deadline passes.
func Fetch(ctx context.Context, req Input) (Output, error) {
	target, err := normalizeURL(req.URL)
	if err != nil {
		return Output{}, err
	}

	maxLength := req.MaxLength
	switch {
	case maxLength <= 0:
		maxLength = DefaultMaxLength
	case maxLength > MaxLengthCeiling:
		maxLength = MaxLengthCeiling
	}

	format := req.Format
	if format == "" {
		format = FormatText
	}
	if format != FormatText && format != FormatMarkdown {
		return Output{}, tool.Errorf(tool.KindInvalidArgument, "format must be %q or %q, got %q", FormatText, FormatMarkdown, format)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodGet, target.String(), nil)
	if err != nil {
		return Output{}, tool.Errorf(tool.KindInvalidURL, "cannot build request for %q: %v", req.URL, err)
	}
	httpReq.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctxWithTimeout.Err(), context.DeadlineExceeded) {
			return Output{}, tool.Errorf(tool.KindTimeout, "fetching %s timed out after %s", target, DefaultTimeout)
		}
		return Output{}, tool.Errorf(tool.KindConnectionFailed, "fetching %s failed: %v", target, err)
	}
	defer utils.CloseWithLog(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		if errors.Is(ctxWithTimeout.Err(), context.DeadlineExceeded) {
			return Output{}, tool.Errorf(tool.KindTimeout, "fetching %s timed out after %s", target, DefaultTimeout)
		}
		return Output{}, tool.Errorf(tool.KindConnectionFailed, "reading %s failed: %v", target, err)
	}

	rawHTML := string(body)
	page, err := extractPage(rawHTML, resp.Request.URL)
	if err != nil {
		return Output{}, tool.Errorf(tool.KindExecutionError, "parsing %s failed: %v", target, err)
	}

	out := Output{
		URL:        resp.Request.URL.String(),
		Title:      page.Title,
		Content:    truncateContent(page.Content, maxLength),
		Links:      page.Links,
		StatusCode: resp.StatusCode,
	}

	if format == FormatMarkdown {
		markdown, err := htmltomarkdown.ConvertString(rawHTML)
		if err != nil {
			// Markdown is a best-effort extra view; the text
			// extraction above already succeeded.
			logger.Warn("markdown conversion failed", zap.String("url", target.String()), zap.Error(err))
		} else {
			out.Markdown = truncateContent(markdown, maxLength)
		}
	}

	return out, nil
}

// normalizeURL validates and completes a user-supplied address. It never
// performs network I/O: implausible hosts are rejected here so typos and
// plain words fail fast instead of hanging on DNS.
func normalizeURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, tool.Errorf(tool.KindInvalidArgument, "url cannot be empty")
	}

	if !strings.Contains(trimmed, "://") {
		if isLoopbackHost(hostPart(trimmed)) {
			trimmed = "http://" + trimmed
		} else {
			trimmed = "https://" + trimmed
		}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, tool.Errorf(tool.KindInvalidURL, "invalid url %q: %v", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, tool.Errorf(tool.KindInvalidURL, "unsupported scheme %q in %q", parsed.Scheme, raw)
	}

	host := parsed.Hostname()
	if host == "" {
		return nil, tool.Errorf(tool.KindInvalidURL, "missing host in %q", raw)
	}
	// A bare word like "not-a-url" parses fine as a hostname but will
	// never resolve. Require a dot, a loopback name or an IP literal.
	if !strings.Contains(host, ".") && !isLoopbackHost(host) && net.ParseIP(host) == nil {
		return nil, tool.Errorf(tool.KindInvalidURL, "host %q is not a valid address", host)
	}

	return parsed, nil
}

func isLoopbackHost(host string) bool {
	return host == "localhost" || host == "127.0.0.1"
}

// hostPart isolates the host from a scheme-less address like
// "localhost:8080/path".
func hostPart(addr string) string {
	host := addr
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

// truncateContent caps s at maxLength characters, marking the cut. Counting
// is rune-based so multi-byte text is never split mid-character.
func truncateContent(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength]) + truncationMarker
}

// httpClient is shared by all fetches. Package-level so tests can swap in
// a client pointed at a local server.
var httpClient = newHTTPClient()

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: TLSHandshakeTimeout,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			ForceAttemptHTTP2:   true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects (>10)")
			}
			return nil
		},
	}
}
