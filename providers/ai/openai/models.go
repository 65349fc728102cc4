package openai

import (
	"github.com/leofalp/webagent/internal/jsonschema"
	"github.com/leofalp/webagent/providers/ai"
)

/*
	CHAT COMPLETIONS API - INPUT
*/

// chatCompletionRequest represents the /v1/chat/completions request format.
type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`

	Tools      []chatTool  `json:"tools,omitempty"`
	ToolChoice interface{} `json:"tool_choice,omitempty"` // "auto", "none", "required", or object
}

type chatMessage struct {
	Role       string         `json:"role"` // system, user, assistant, tool
	Content    string         `json:"content,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"` // For role=tool
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`   // For role=assistant
}

type chatTool struct {
	Type     string       `json:"type"` // "function"
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"` // "function"
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"` // JSON string
	} `json:"function"`
}

/*
	CHAT COMPLETIONS API - OUTPUT
*/

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"` // "chat.completion"
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
}

type chatChoice struct {
	Index        int                 `json:"index"`
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"` // "stop", "length", "tool_calls", "content_filter"
}

type chatResponseMessage struct {
	Role      string         `json:"role"` // "assistant"
	Content   string         `json:"content,omitempty"`
	ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

/*
	CONVERSION
*/

// requestFromGeneric maps the provider-agnostic request onto the chat
// completions wire format. The system prompt becomes the leading message
// and tool choice stays "auto" whenever tools are attached, letting the
// model decide per turn whether to answer or invoke a tool.
func requestFromGeneric(request ai.ChatRequest) chatCompletionRequest {
	out := chatCompletionRequest{
		Model: request.Model,
	}

	if request.SystemPrompt != "" {
		out.Messages = append(out.Messages, chatMessage{Role: string(ai.RoleSystem), Content: request.SystemPrompt})
	}

	for _, m := range request.Messages {
		out.Messages = append(out.Messages, chatMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
			ToolCalls:  toolCallsFromGeneric(m.ToolCalls),
		})
	}

	if len(request.Tools) > 0 {
		for _, t := range request.Tools {
			out.Tools = append(out.Tools, chatTool{
				Type: "function",
				Function: chatFunction{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		out.ToolChoice = "auto"
	}

	return out
}

func toolCallsFromGeneric(calls []ai.ToolCall) []chatToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]chatToolCall, len(calls))
	for i, c := range calls {
		out[i].ID = c.ID
		out[i].Type = "function"
		out[i].Function.Name = c.Function.Name
		out[i].Function.Arguments = c.Function.Arguments
	}
	return out
}

// responseToGeneric maps the first choice of a chat completions response
// onto the provider-agnostic shape.
func responseToGeneric(resp chatCompletionResponse) *ai.ChatResponse {
	choice := resp.Choices[0]

	out := &ai.ChatResponse{
		Id:           resp.ID,
		Model:        resp.Model,
		Created:      resp.Created,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
	}

	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ai.ToolCall{
			ID:   tc.ID,
			Type: tc.Type,
			Function: ai.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	if resp.Usage != nil {
		out.Usage = &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return out
}
