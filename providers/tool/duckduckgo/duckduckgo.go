package duckduckgo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leofalp/webagent/internal/utils"
	"github.com/leofalp/webagent/providers/tool"
)

const (
	// ToolName is the identifier the model uses to request a search.
	ToolName = "duckduckgo_search"
	// DefaultMaxResults is used when the model omits max_results.
	DefaultMaxResults = 5
	// MaxResultsCeiling caps max_results; out-of-range values are clamped,
	// not rejected.
	MaxResultsCeiling = 10
	// DefaultTimeout bounds one search request.
	DefaultTimeout = 10 * time.Second
	// defaultUserAgent identifies the tool to the API.
	defaultUserAgent = "webagent-search-tool/1.0"
)

// apiBaseURL is a variable so tests can point the tool at a local server.
var apiBaseURL = "https://api.duckduckgo.com/"

// Input holds the parameters the model passes to the search tool.
type Input struct {
	// Query is the search query string.
	Query string `json:"query" jsonschema:"description=The search query. Should be clear and specific.,required"`

	// MaxResults is the maximum number of records to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"description=Maximum number of results to return,minimum=1,maximum=10,default=5"`
}

// Result is one normalized search record.
type Result struct {
	Title   string `json:"title" jsonschema:"description=Title of the search result"`
	URL     string `json:"url" jsonschema:"description=URL of the search result"`
	Snippet string `json:"snippet" jsonschema:"description=Short text snippet describing the result"`
}

// Output holds the result returned to the model.
type Output struct {
	Query   string   `json:"query" jsonschema:"description=The original search query"`
	Results []Result `json:"results" jsonschema:"description=Search records in provider relevance order"`
}

// NewSearchTool returns the web-search [tool.Tool] registered in the
// agent's catalog.
func NewSearchTool() *tool.Tool[Input, Output] {
	return tool.NewTool(
		ToolName,
		Search,
		tool.WithDescription("Search the web using the DuckDuckGo search engine. Use this for questions that need current information, facts, or news. Returns a list of results with title, url and snippet."),
	)
}

// Search executes a web search. An empty or whitespace-only query is
// rejected before any network call; max_results is clamped into
// [1, MaxResultsCeiling] with DefaultMaxResults for the zero value.
// Result order follows the provider's relevance ranking.
func Search(ctx context.Context, req Input) (Output, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Output{}, tool.Errorf(tool.KindInvalidArgument, "query must not be empty")
	}

	maxResults := req.MaxResults
	switch {
	case maxResults == 0:
		maxResults = DefaultMaxResults
	case maxResults < 1:
		maxResults = 1
	case maxResults > MaxResultsCeiling:
		maxResults = MaxResultsCeiling
	}

	ddgResponse, err := fetchDDGResponse(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Output{}, tool.Errorf(tool.KindTimeout, "search timed out for %q: %v", query, err)
		}
		return Output{}, tool.Errorf(tool.KindConnectionFailed, "search failed for %q: %v", query, err)
	}

	return Output{
		Query:   query,
		Results: collectResults(ddgResponse, maxResults),
	}, nil
}

// fetchDDGResponse performs the Instant Answer API call.
func fetchDDGResponse(ctx context.Context, query string) (*ddgResponse, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("no_html", "1")
	params.Add("skip_disambig", "1")

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", defaultUserAgent)

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, errors.New("unexpected status " + resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var decoded ddgResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, err
	}
	return &decoded, nil
}

// collectResults flattens the Instant Answer payload into at most
// maxResults records, keeping the API's own ordering: abstract, answer,
// definition, then listed results and related topics.
func collectResults(resp *ddgResponse, maxResults int) []Result {
	records := make([]Result, 0, maxResults)

	add := func(title, resultURL, snippet string) bool {
		if snippet == "" && title == "" {
			return len(records) < maxResults
		}
		records = append(records, Result{
			Title:   title,
			URL:     makeAbsoluteURL(resultURL),
			Snippet: snippet,
		})
		return len(records) < maxResults
	}

	if resp.AbstractText != "" {
		if !add(resp.Heading, resp.AbstractURL, resp.AbstractText) {
			return records
		}
	}
	if resp.Answer != "" {
		if !add(resp.AnswerType, "", resp.Answer) {
			return records
		}
	}
	if resp.Definition != "" {
		if !add("Definition", resp.DefinitionURL, resp.Definition) {
			return records
		}
	}
	for _, r := range resp.Results {
		if !add(topicTitle(r.Text), r.FirstURL, r.Text) {
			return records
		}
	}
	for _, t := range resp.RelatedTopics {
		// Disambiguation groups nest their topics one level down.
		entries := t.Topics
		if len(entries) == 0 {
			entries = []ddgTopic{t}
		}
		for _, entry := range entries {
			if entry.Text == "" {
				continue
			}
			if !add(topicTitle(entry.Text), entry.FirstURL, entry.Text) {
				return records
			}
		}
	}

	return records
}

// topicTitle derives a short title from a topic's text, which DuckDuckGo
// formats as "Name - description".
func topicTitle(text string) string {
	if title, _, found := strings.Cut(text, " - "); found {
		return title
	}
	return utils.TruncateString(text, 80)
}

// makeAbsoluteURL converts relative DuckDuckGo URLs to absolute URLs.
func makeAbsoluteURL(urlPath string) string {
	if urlPath == "" {
		return ""
	}
	if strings.HasPrefix(urlPath, "http://") || strings.HasPrefix(urlPath, "https://") {
		return urlPath
	}
	if strings.HasPrefix(urlPath, "/") {
		return "https://duckduckgo.com" + urlPath
	}
	return urlPath
}

// ddgResponse represents the DuckDuckGo API response (internal).
type ddgResponse struct {
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Answer        string     `json:"Answer"`
	AnswerType    string     `json:"AnswerType"`
	Definition    string     `json:"Definition"`
	DefinitionURL string     `json:"DefinitionURL"`
	Heading       string     `json:"Heading"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
	Results       []ddgTopic `json:"Results"`
	Type          string     `json:"Type"`
}

type ddgTopic struct {
	FirstURL string     `json:"FirstURL"`
	Text     string     `json:"Text"`
	Name     string     `json:"Name"`
	Topics   []ddgTopic `json:"Topics"`
}
