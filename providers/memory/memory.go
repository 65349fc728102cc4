// Package memory defines the Provider interface for conversation transcript
// storage. Implementations hold the [ai.Message] values a tool loop
// accumulates over one request: the user turn, assistant turns with tool
// calls, and tool results. Read methods return errors so that persistent
// implementations can surface failures instead of silently swallowing them.
// The bundled reference implementation lives in the sibling package
// [github.com/leofalp/webagent/providers/memory/array].
package memory

import (
	"context"

	"github.com/leofalp/webagent/providers/ai"
)

type Provider interface {
	// AppendMessage stores message at the end of the transcript.
	// Implementations must treat a nil message as a no-op.
	AppendMessage(ctx context.Context, message *ai.Message)
	// AllMessages returns the full transcript in append order.
	AllMessages(ctx context.Context) ([]ai.Message, error)
	// Count returns the number of stored messages.
	Count(ctx context.Context) (int, error)
	// Clear discards the transcript.
	Clear(ctx context.Context) error
}
