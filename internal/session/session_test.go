package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zolve/advisor/internal/chat"
	"github.com/zolve/advisor/internal/log"
)

// countingAsker tracks how many asks run at the same time.
type countingAsker struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (a *countingAsker) Ask(_ context.Context, mem *chat.Memory, input string) (string, error) {
	cur := a.inFlight.Add(1)
	defer a.inFlight.Add(-1)

	for {
		seen := a.maxSeen.Load()
		if cur <= seen || a.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}

	time.Sleep(5 * time.Millisecond)
	mem.AddUser(input)
	mem.AddAssistant("answer to " + input)
	return "answer to " + input, nil
}

func TestSession_SerializesTurns(t *testing.T) {
	store := NewStore(0, log.NewNop())
	store.SetReady()

	sess, err := store.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	asker := &countingAsker{}
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := sess.Ask(context.Background(), asker, "question"); err != nil {
				t.Errorf("Ask %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	if got := asker.maxSeen.Load(); got != 1 {
		t.Errorf("saw %d concurrent turns on one session, want 1", got)
	}
	if got := sess.Memory.Len(); got != 16 {
		t.Errorf("memory holds %d messages, want 16", got)
	}
}

func TestSession_IndependentSessionsRunInParallel(t *testing.T) {
	store := NewStore(0, log.NewNop())
	store.SetReady()

	asker := &countingAsker{}
	var wg sync.WaitGroup
	for range 4 {
		sess, err := store.Create(context.Background())
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := sess.Ask(context.Background(), asker, "question"); err != nil {
				t.Errorf("Ask: %v", err)
			}
		}()
	}
	wg.Wait()

	// Scheduling can still serialize by accident; only assert nothing
	// blocked forever and every session recorded its turn.
	if store.Len() != 4 {
		t.Errorf("Len() = %d, want 4", store.Len())
	}
}
