package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leofalp/webagent/internal/stats"
	"github.com/leofalp/webagent/patterns/react"
	"github.com/leofalp/webagent/providers/ai"
	"github.com/leofalp/webagent/providers/tool"
)

type stubRunner struct {
	result *react.Result
	err    error
	gotMsg string
}

func (r *stubRunner) Run(_ context.Context, userMessage string) (*react.Result, error) {
	r.gotMsg = userMessage
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func newTestServer(t *testing.T, runner ConversationRunner) (*httptest.Server, *stats.Store) {
	t.Helper()
	store, err := stats.Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("stats.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ts := httptest.NewServer(New(runner, store).Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func postChat(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return out
}

func TestChatSuccess(t *testing.T) {
	runner := &stubRunner{result: &react.Result{
		Reply:     "hi there",
		Rounds:    1,
		ToolCalls: map[string]int{"duckduckgo_search": 1},
		Usage:     ai.Usage{TotalTokens: 42},
	}}
	ts, store := newTestServer(t, runner)

	resp := postChat(t, ts, `{"user_message": "hello"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[chatResponse](t, resp)
	if body.Reply != "hi there" {
		t.Errorf("reply = %q", body.Reply)
	}
	if runner.gotMsg != "hello" {
		t.Errorf("runner received %q", runner.gotMsg)
	}

	sum, err := store.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Requests != 1 || sum.Failures != 0 || sum.TotalTokens != 42 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.ToolCalls["duckduckgo_search"] != 1 {
		t.Errorf("tool calls = %v", sum.ToolCalls)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing field", body: `{}`},
		{name: "empty string", body: `{"user_message": ""}`},
		{name: "whitespace only", body: `{"user_message": "   "}`},
		{name: "not json", body: `user_message=hello`},
	}

	runner := &stubRunner{result: &react.Result{Reply: "unreachable"}}
	ts, _ := newTestServer(t, runner)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postChat(t, ts, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestChatErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "round cap", err: react.ErrToolLoopExceeded, wantStatus: http.StatusInternalServerError},
		{name: "empty model turn", err: react.ErrEmptyResponse, wantStatus: http.StatusInternalServerError},
		{name: "deadline", err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout},
		{name: "upstream failure", err: errors.New("connection refused"), wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, store := newTestServer(t, &stubRunner{err: tt.err})

			resp := postChat(t, ts, `{"user_message": "hello"}`)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body := decodeBody[errorResponse](t, resp)
			if body.Error == "" {
				t.Error("error body is empty")
			}

			sum, _ := store.Summary()
			if sum.Failures != 1 {
				t.Errorf("failures = %d, want 1", sum.Failures)
			}
		})
	}
}

func TestChatGetHint(t *testing.T) {
	ts, _ := newTestServer(t, &stubRunner{})

	resp, err := http.Get(ts.URL + "/chat")
	if err != nil {
		t.Fatalf("GET /chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[struct {
		Message string `json:"message"`
		Usage   struct {
			Method string            `json:"method"`
			URL    string            `json:"url"`
			Body   map[string]string `json:"body"`
		} `json:"usage"`
	}](t, resp)
	if body.Message == "" {
		t.Error("hint message is empty")
	}
	if body.Usage.Method != http.MethodPost || body.Usage.URL != "/chat" {
		t.Errorf("usage = %+v, want POST /chat", body.Usage)
	}
	if _, ok := body.Usage.Body["user_message"]; !ok {
		t.Errorf("usage body = %v, want a user_message field", body.Usage.Body)
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, &stubRunner{})

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[map[string]any](t, resp)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["model_configured"]; !ok {
		t.Error("health body lacks model_configured")
	}
	if _, ok := body["uptime"]; !ok {
		t.Error("health body lacks uptime")
	}
}

func TestSummaryEndpoint(t *testing.T) {
	runner := &stubRunner{result: &react.Result{Reply: "x", Usage: ai.Usage{TotalTokens: 9}}}
	ts, _ := newTestServer(t, runner)

	postChat(t, ts, `{"user_message": "hello"}`)

	resp, err := http.Get(ts.URL + "/api/summary")
	if err != nil {
		t.Fatalf("GET /api/summary: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	sum := decodeBody[stats.Summary](t, resp)
	if sum.Requests != 1 || sum.TotalTokens != 9 {
		t.Errorf("summary = %+v", sum)
	}
}

// scriptedProvider drives the real loop end to end through the HTTP layer.
type scriptedProvider struct {
	responses []*ai.ChatResponse
	requests  []ai.ChatRequest
}

func (p *scriptedProvider) SendMessage(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.requests = append(p.requests, req)
	if len(p.responses) == 0 {
		return nil, errors.New("scripted provider exhausted")
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

func (p *scriptedProvider) WithAPIKey(string) ai.Provider           { return p }
func (p *scriptedProvider) WithBaseURL(string) ai.Provider          { return p }
func (p *scriptedProvider) WithHttpClient(*http.Client) ai.Provider { return p }

type searchInput struct {
	Query string `json:"query" jsonschema:"description=Search query,required"`
}

type searchOutput struct {
	Results []map[string]string `json:"results"`
}

func TestEndToEndDirectAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		{Content: "direct answer", FinishReason: "stop"},
	}}
	var searchCalls int
	searchTool := tool.NewTool[searchInput, searchOutput]("duckduckgo_search", func(_ context.Context, _ searchInput) (searchOutput, error) {
		searchCalls++
		return searchOutput{}, nil
	}, tool.WithDescription("Searches the web."))

	loop := react.New(provider, tool.NewCatalogWithTools(searchTool))
	ts, store := newTestServer(t, loop)

	resp := postChat(t, ts, `{"user_message": "hello"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[chatResponse](t, resp)
	if body.Reply != "direct answer" {
		t.Errorf("reply = %q", body.Reply)
	}
	if searchCalls != 0 {
		t.Errorf("search ran %d times, want 0", searchCalls)
	}
	sum, _ := store.Summary()
	if sum.Rounds != 0 || len(sum.ToolCalls) != 0 {
		t.Errorf("summary recorded tool usage for a direct answer: %+v", sum)
	}
}

func TestEndToEndSearchRound(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		{
			ToolCalls: []ai.ToolCall{{
				ID:       "call-1",
				Type:     "function",
				Function: ai.ToolCallFunction{Name: "duckduckgo_search", Arguments: `{"query":"go releases"}`},
			}},
			FinishReason: "tool_calls",
		},
		{Content: "summarized from search", FinishReason: "stop"},
	}}
	searchTool := tool.NewTool[searchInput, searchOutput]("duckduckgo_search", func(_ context.Context, in searchInput) (searchOutput, error) {
		return searchOutput{Results: []map[string]string{{
			"title": "T", "url": "https://x", "snippet": "S",
		}}}, nil
	}, tool.WithDescription("Searches the web."))

	loop := react.New(provider, tool.NewCatalogWithTools(searchTool))
	ts, store := newTestServer(t, loop)

	resp := postChat(t, ts, `{"user_message": "search go releases"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[chatResponse](t, resp)
	if body.Reply != "summarized from search" {
		t.Errorf("reply = %q", body.Reply)
	}

	// The final model turn must have seen the search record.
	final := provider.requests[len(provider.requests)-1]
	transcript := ""
	for _, msg := range final.Messages {
		transcript += msg.Content
	}
	for _, fragment := range []string{"T", "https://x", "S"} {
		if !strings.Contains(transcript, fragment) {
			t.Errorf("final transcript lacks %q", fragment)
		}
	}

	sum, _ := store.Summary()
	if sum.ToolCalls["duckduckgo_search"] != 1 {
		t.Errorf("tool calls = %v", sum.ToolCalls)
	}
}
