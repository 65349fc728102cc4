package react

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/leofalp/webagent/pkg/logger"
	"github.com/leofalp/webagent/providers/ai"
	"github.com/leofalp/webagent/providers/memory"
	"github.com/leofalp/webagent/providers/memory/array"
	"github.com/leofalp/webagent/providers/tool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxRounds bounds how many model rounds one Run may take. A round
// that returns tool calls consumes one unit; the final plain answer does
// not count against the cap.
const DefaultMaxRounds = 5

// ErrToolLoopExceeded is returned when the model keeps requesting tools
// past the configured round cap.
var ErrToolLoopExceeded = errors.New("tool loop exceeded maximum rounds")

// ErrEmptyResponse is returned when the model answers with neither content
// nor tool calls, which leaves the loop nothing to do.
var ErrEmptyResponse = errors.New("model returned neither content nor tool calls")

// Loop drives a tool-using conversation to completion. Construct it with
// [New]; the zero value is not usable.
type Loop struct {
	provider     ai.Provider
	catalog      *tool.Catalog
	model        string
	systemPrompt string
	maxRounds    int
	log          *zap.Logger
}

// Option configures a [Loop].
type Option func(*Loop)

// WithModel sets the model identifier sent on every request.
func WithModel(model string) Option {
	return func(l *Loop) { l.model = model }
}

// WithSystemPrompt sets the system prompt prepended to every request.
func WithSystemPrompt(prompt string) Option {
	return func(l *Loop) { l.systemPrompt = prompt }
}

// WithMaxRounds overrides [DefaultMaxRounds]. Values below one are ignored.
func WithMaxRounds(n int) Option {
	return func(l *Loop) {
		if n >= 1 {
			l.maxRounds = n
		}
	}
}

// WithLogger sets the logger used for per-round progress records.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loop) { l.log = log }
}

// New returns a [Loop] that consults provider for model turns and catalog
// for tool execution.
func New(provider ai.Provider, catalog *tool.Catalog, opts ...Option) *Loop {
	l := &Loop{
		provider:  provider,
		catalog:   catalog,
		maxRounds: DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.Named("react")
	}
	return l
}

// Result is the outcome of one completed [Loop.Run].
type Result struct {
	// Reply is the model's final plain-text answer.
	Reply string
	// Rounds counts the model rounds that requested tools.
	Rounds int
	// ToolCalls maps tool name to how many times it ran.
	ToolCalls map[string]int
	// Usage aggregates token counts across every round.
	Usage ai.Usage
}

// Run executes the loop for userMessage and returns the final reply.
//
// Tool calls within one round run concurrently; their results are appended
// to the transcript in the order the model requested them. A tool failure
// is not a loop failure: the normalized error result is handed back to the
// model, which decides how to proceed. Run fails only when the provider
// fails, the model returns an empty turn ([ErrEmptyResponse]), or the
// round cap is hit ([ErrToolLoopExceeded]).
func (l *Loop) Run(ctx context.Context, userMessage string) (*Result, error) {
	transcript := memory.Provider(array.New())
	transcript.AppendMessage(ctx, &ai.Message{Role: ai.RoleUser, Content: userMessage})

	result := &Result{ToolCalls: map[string]int{}}
	descriptions := l.catalog.Descriptions()

	for {
		messages, err := transcript.AllMessages(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading transcript: %w", err)
		}

		resp, err := l.provider.SendMessage(ctx, ai.ChatRequest{
			Model:        l.model,
			SystemPrompt: l.systemPrompt,
			Messages:     messages,
			Tools:        descriptions,
		})
		if err != nil {
			return nil, fmt.Errorf("model request failed: %w", err)
		}
		result.Usage.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			if resp.Content == "" {
				return nil, ErrEmptyResponse
			}
			result.Reply = resp.Content
			return result, nil
		}

		if result.Rounds >= l.maxRounds {
			return nil, fmt.Errorf("%w (%d)", ErrToolLoopExceeded, l.maxRounds)
		}
		result.Rounds++

		// Some providers omit call IDs; the transcript still needs a
		// stable one to pair result with request, and it must appear
		// on both the assistant turn and the tool message.
		for i := range resp.ToolCalls {
			if resp.ToolCalls[i].ID == "" {
				resp.ToolCalls[i].ID = uuid.NewString()
			}
		}

		transcript.AppendMessage(ctx, &ai.Message{
			Role:      ai.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		outputs, err := l.runTools(ctx, resp.ToolCalls, result)
		if err != nil {
			return nil, err
		}
		for _, msg := range outputs {
			msg := msg
			transcript.AppendMessage(ctx, &msg)
		}
	}
}

// runTools executes one round's tool calls concurrently and returns their
// tool-role messages in request order.
func (l *Loop) runTools(ctx context.Context, calls []ai.ToolCall, result *Result) ([]ai.Message, error) {
	outputs := make([]ai.Message, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		name := call.Function.Name
		result.ToolCalls[name]++

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := l.catalog.Invoke(gctx, name, call.Function.Arguments)
			if !res.Success {
				l.log.Warn("tool call failed",
					zap.String("tool", name),
					zap.String("error_kind", res.Error),
					zap.String("message", res.Message),
				)
			}
			payload, err := res.ToJSON()
			if err != nil {
				return fmt.Errorf("encoding result of %s: %w", name, err)
			}
			outputs[i] = ai.Message{
				Role:       ai.RoleTool,
				Content:    payload,
				ToolCallID: call.ID,
				Name:       name,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
