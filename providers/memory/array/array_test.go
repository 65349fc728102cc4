package array

import (
	"context"
	"sync"
	"testing"

	"github.com/leofalp/webagent/providers/ai"
)

func TestAppendAndRead(t *testing.T) {
	ctx := context.Background()
	m := New()

	m.AppendMessage(ctx, &ai.Message{Role: ai.RoleUser, Content: "hi"})
	m.AppendMessage(ctx, nil)
	m.AppendMessage(ctx, &ai.Message{Role: ai.RoleAssistant, Content: "hello"})

	n, err := m.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2 (nil append must be a no-op)", n)
	}

	msgs, err := m.AllMessages(ctx)
	if err != nil {
		t.Fatalf("AllMessages: %v", err)
	}
	if msgs[0].Content != "hi" || msgs[1].Content != "hello" {
		t.Errorf("unexpected transcript order: %+v", msgs)
	}

	// Mutating the returned slice must not affect the store.
	msgs[0].Content = "tampered"
	again, _ := m.AllMessages(ctx)
	if again[0].Content != "hi" {
		t.Error("AllMessages leaked internal state")
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	m := New()
	m.AppendMessage(ctx, &ai.Message{Role: ai.RoleUser, Content: "x"})

	if err := m.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	n, _ := m.Count(ctx)
	if n != 0 {
		t.Errorf("Count after Clear = %d, want 0", n)
	}
}

func TestConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	m := New()

	var wg sync.WaitGroup
	const writers = 8
	const perWriter = 50
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				m.AppendMessage(ctx, &ai.Message{Role: ai.RoleUser, Content: "m"})
			}
		}()
	}
	wg.Wait()

	n, _ := m.Count(ctx)
	if n != writers*perWriter {
		t.Errorf("Count = %d, want %d", n, writers*perWriter)
	}
}
