package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/leofalp/webagent/providers/ai"
)

// mockTool counts invocations so tests can assert the underlying tool was
// (or was not) called.
type mockTool struct {
	info      ai.ToolDescription
	callCount int
	result    string
	err       error
}

func (m *mockTool) ToolInfo() ai.ToolDescription {
	return m.info
}

func (m *mockTool) Call(ctx context.Context, inputJson string) (string, error) {
	m.callCount++
	if m.err != nil {
		return "", m.err
	}
	return m.result, nil
}

type echoInput struct {
	Query string `json:"query" jsonschema:"required"`
	Limit int    `json:"limit,omitempty"`
}

type echoOutput struct {
	Echo string `json:"echo"`
}

func echoTool() *Tool[echoInput, echoOutput] {
	return NewTool("echo", func(ctx context.Context, in echoInput) (echoOutput, error) {
		return echoOutput{Echo: in.Query}, nil
	}, WithDescription("Echoes the query back."))
}

func TestCatalog_AddAndGet(t *testing.T) {
	catalog := NewCatalogWithTools(echoTool())

	if catalog.Size() != 1 {
		t.Fatalf("Size = %d, want 1", catalog.Size())
	}
	if !catalog.Has("echo") {
		t.Error("catalog should contain echo")
	}
	if !catalog.Has("ECHO") {
		t.Error("lookup should be case-insensitive")
	}
	if _, ok := catalog.Get("missing"); ok {
		t.Error("Get should miss for unregistered names")
	}
}

func TestCatalog_DescriptionsPreserveOrder(t *testing.T) {
	first := &mockTool{info: ai.ToolDescription{Name: "first"}}
	second := &mockTool{info: ai.ToolDescription{Name: "second"}}
	catalog := NewCatalogWithTools(first, second)

	descs := catalog.Descriptions()
	if len(descs) != 2 || descs[0].Name != "first" || descs[1].Name != "second" {
		t.Errorf("Descriptions = %+v, want registration order", descs)
	}
}

func TestInvoke_Success(t *testing.T) {
	catalog := NewCatalogWithTools(echoTool())

	result := catalog.Invoke(context.Background(), "echo", `{"query":"hello"}`)
	if !result.Success {
		t.Fatalf("Invoke failed: %s %s", result.Error, result.Message)
	}

	var out echoOutput
	if err := json.Unmarshal(result.Data, &out); err != nil {
		t.Fatalf("decoding result data: %v", err)
	}
	if out.Echo != "hello" {
		t.Errorf("Echo = %q", out.Echo)
	}
}

func TestInvoke_UnknownTool(t *testing.T) {
	catalog := NewCatalog()

	result := catalog.Invoke(context.Background(), "nope", "{}")
	if result.Success {
		t.Fatal("expected failure for unknown tool")
	}
	if result.Error != string(KindUnknownTool) {
		t.Errorf("Error kind = %q, want %q", result.Error, KindUnknownTool)
	}
	if !strings.Contains(result.Message, "nope") {
		t.Errorf("message should name the tool: %q", result.Message)
	}
}

func TestInvoke_MissingRequiredField(t *testing.T) {
	mock := &mockTool{info: ai.ToolDescription{
		Name:       "echo",
		Parameters: echoTool().Parameters,
	}}
	catalog := NewCatalogWithTools(mock)

	result := catalog.Invoke(context.Background(), "echo", `{"limit": 3}`)
	if result.Success {
		t.Fatal("expected failure for missing required field")
	}
	if result.Error != string(KindInvalidArgument) {
		t.Errorf("Error kind = %q, want %q", result.Error, KindInvalidArgument)
	}
	if mock.callCount != 0 {
		t.Errorf("tool was invoked %d times, want 0", mock.callCount)
	}
}

func TestInvoke_TypeMismatch(t *testing.T) {
	mock := &mockTool{info: ai.ToolDescription{
		Name:       "echo",
		Parameters: echoTool().Parameters,
	}}
	catalog := NewCatalogWithTools(mock)

	result := catalog.Invoke(context.Background(), "echo", `{"query": "ok", "limit": "three"}`)
	if result.Success {
		t.Fatal("expected failure for type mismatch")
	}
	if result.Error != string(KindInvalidArgument) {
		t.Errorf("Error kind = %q, want %q", result.Error, KindInvalidArgument)
	}
	if mock.callCount != 0 {
		t.Errorf("tool was invoked %d times, want 0", mock.callCount)
	}
}

func TestInvoke_NormalizesToolErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
	}{
		{"classified error", Errorf(KindTimeout, "request timed out"), KindTimeout},
		{"plain error", errors.New("boom"), KindExecutionError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockTool{info: ai.ToolDescription{Name: "flaky"}, err: tt.err}
			catalog := NewCatalogWithTools(mock)

			result := catalog.Invoke(context.Background(), "flaky", "{}")
			if result.Success {
				t.Fatal("expected failure")
			}
			if result.Error != string(tt.wantKind) {
				t.Errorf("Error kind = %q, want %q", result.Error, tt.wantKind)
			}
		})
	}
}

func TestToolCall_RepairsArguments(t *testing.T) {
	result := NewCatalogWithTools(echoTool()).
		Invoke(context.Background(), "echo", `{'query': 'single quotes'}`)
	if !result.Success {
		t.Fatalf("Invoke failed: %s %s", result.Error, result.Message)
	}
	if !strings.Contains(string(result.Data), "single quotes") {
		t.Errorf("Data = %s", result.Data)
	}
}
