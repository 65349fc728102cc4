// Package ai defines the provider-agnostic types and interfaces for talking
// to a chat-completions language model: [ChatRequest] and [ChatResponse] for
// the exchange itself, [Message] for conversation turns, [ToolCall] for the
// model's tool-invocation requests, and [ToolResult] for the uniform shape
// every tool outcome is normalized into before it re-enters the conversation.
// Provider implementations map these types to their own wire format.
package ai
