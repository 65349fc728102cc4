package ai

import (
	"encoding/json"

	"github.com/leofalp/webagent/internal/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a request to send a chat message.
type ChatRequest struct {
	Model        string            `json:"model,omitempty"`         // Model name or identifier
	Messages     []Message         `json:"messages"`                // All messages in the conversation except the system prompt
	SystemPrompt string            `json:"system_prompt,omitempty"` // Optional system prompt
	Tools        []ToolDescription `json:"tools,omitempty"`         // Tool definitions, if any
}

// ToolDescription advertises a single tool to the model.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// Message represents a single message in a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	// Tool calling fields
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For role=assistant requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // For role=tool, links to the tool call being answered
	Name       string     `json:"name,omitempty"`         // For role=tool, name of the tool that produced this message
}

/*
	##### PROVIDER OUTPUT #####
*/

// Usage reports token accounting for one model call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Add accumulates another call's usage into u.
func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// ChatResponse represents the response from a chat completion.
type ChatResponse struct {
	Id           string     `json:"id"`
	Model        string     `json:"model"`
	Created      int64      `json:"created"`
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

/*
	##### TOOL CALLING #####
*/

// ToolCall represents a function/tool call request from the model.
type ToolCall struct {
	ID       string           `json:"id,omitempty"` // Correlation key for the matching ToolResult
	Type     string           `json:"type"`         // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// ToolResult is the uniform shape of a tool execution outcome. Exactly one
// ToolResult exists per ToolCall; failures are carried as data so the model
// can reason about them instead of the error escaping the tool boundary.
type ToolResult struct {
	Success bool            `json:"success"`           // Whether the tool executed successfully
	Error   string          `json:"error,omitempty"`   // Error kind if success=false (e.g. "unknown_tool", "timeout")
	Message string          `json:"message,omitempty"` // Human-readable error description
	Data    json.RawMessage `json:"data,omitempty"`    // Tool output payload if success=true
}

// NewToolResultSuccess creates a successful tool result wrapping the
// JSON-encoded tool output.
func NewToolResultSuccess(data json.RawMessage) ToolResult {
	return ToolResult{
		Success: true,
		Data:    data,
	}
}

// NewToolResultError creates a failed tool result. errorKind is a
// machine-readable code; message describes what went wrong.
func NewToolResultError(errorKind, message string) ToolResult {
	return ToolResult{
		Success: false,
		Error:   errorKind,
		Message: message,
	}
}

// ToJSON renders the ToolResult as the JSON string appended to the
// conversation as a tool-role message.
func (tr ToolResult) ToJSON() (string, error) {
	bytes, err := json.Marshal(tr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

/*
	##### ENUMS #####
*/

// MessageRole represents the role of a message; compatible with string.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
	RoleTool      MessageRole = "tool"      // Tool output
)
