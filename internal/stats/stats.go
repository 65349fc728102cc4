// Package stats keeps aggregate usage counters for the agent endpoint:
// requests served, tool rounds taken, per-tool call counts and token
// totals. Counters persist across restarts in a local BBolt file.
package stats

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/leofalp/webagent/pkg/logger"
	"github.com/leofalp/webagent/providers/ai"
)

var (
	countersBucket = []byte("counters")
	toolsBucket    = []byte("tools")
)

// Counter keys inside countersBucket.
var (
	keyRequests         = []byte("requests")
	keyFailures         = []byte("failures")
	keyRounds           = []byte("rounds")
	keyPromptTokens     = []byte("prompt_tokens")
	keyCompletionTokens = []byte("completion_tokens")
	keyTotalTokens      = []byte("total_tokens")
)

// Store accumulates usage counters in a BBolt file. All methods are safe
// for concurrent use; BBolt serializes writers.
type Store struct {
	db *bbolt.DB
}

// Open creates or opens the usage database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening usage database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(countersBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(toolsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing usage database: %w", err)
	}

	logger.Info("usage store opened", zap.String("path", path))
	return &Store{db: db}, nil
}

// Sample is the outcome of one served request.
type Sample struct {
	// Failed marks requests that ended in an error response.
	Failed bool
	// Rounds is how many tool rounds the request took.
	Rounds int
	// ToolCalls maps tool name to invocation count for this request.
	ToolCalls map[string]int
	// Usage is the request's aggregate token usage.
	Usage ai.Usage
}

// Record folds one request's outcome into the persistent counters.
func (s *Store) Record(sample Sample) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		counters := tx.Bucket(countersBucket)
		if err := addCounter(counters, keyRequests, 1); err != nil {
			return err
		}
		if sample.Failed {
			if err := addCounter(counters, keyFailures, 1); err != nil {
				return err
			}
		}
		if err := addCounter(counters, keyRounds, uint64(sample.Rounds)); err != nil {
			return err
		}
		if err := addCounter(counters, keyPromptTokens, uint64(sample.Usage.PromptTokens)); err != nil {
			return err
		}
		if err := addCounter(counters, keyCompletionTokens, uint64(sample.Usage.CompletionTokens)); err != nil {
			return err
		}
		if err := addCounter(counters, keyTotalTokens, uint64(sample.Usage.TotalTokens)); err != nil {
			return err
		}

		tools := tx.Bucket(toolsBucket)
		for name, count := range sample.ToolCalls {
			if err := addCounter(tools, []byte(name), uint64(count)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Summary is a point-in-time snapshot of the counters.
type Summary struct {
	Requests         uint64            `json:"requests"`
	Failures         uint64            `json:"failures"`
	Rounds           uint64            `json:"rounds"`
	PromptTokens     uint64            `json:"prompt_tokens"`
	CompletionTokens uint64            `json:"completion_tokens"`
	TotalTokens      uint64            `json:"total_tokens"`
	ToolCalls        map[string]uint64 `json:"tool_calls"`
}

// Summary reads the current counter values.
func (s *Store) Summary() (Summary, error) {
	out := Summary{ToolCalls: map[string]uint64{}}
	err := s.db.View(func(tx *bbolt.Tx) error {
		counters := tx.Bucket(countersBucket)
		out.Requests = readCounter(counters, keyRequests)
		out.Failures = readCounter(counters, keyFailures)
		out.Rounds = readCounter(counters, keyRounds)
		out.PromptTokens = readCounter(counters, keyPromptTokens)
		out.CompletionTokens = readCounter(counters, keyCompletionTokens)
		out.TotalTokens = readCounter(counters, keyTotalTokens)

		return tx.Bucket(toolsBucket).ForEach(func(k, v []byte) error {
			out.ToolCalls[string(k)] = decodeCounter(v)
			return nil
		})
	})
	if err != nil {
		return Summary{}, fmt.Errorf("reading usage summary: %w", err)
	}
	return out, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func addCounter(b *bbolt.Bucket, key []byte, delta uint64) error {
	if delta == 0 {
		return nil
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, decodeCounter(b.Get(key))+delta)
	return b.Put(key, buf)
}

func readCounter(b *bbolt.Bucket, key []byte) uint64 {
	return decodeCounter(b.Get(key))
}

func decodeCounter(v []byte) uint64 {
	if len(v) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}
