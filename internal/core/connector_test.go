package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/duynhne/groc-service/internal/core/domain"
)

type recorder struct {
	mu     sync.Mutex
	states []State
	errs   []error
}

func (r *recorder) observe(s State, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
	r.errs = append(r.errs, err)
}

func waitDone(t *testing.T, c *Connector) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connection attempt did not finish")
	}
}

func TestStartDoesNotBlockAndFailsOnBadURI(t *testing.T) {
	c := NewConnector("notmongo://nowhere", "groc", 200*time.Millisecond)
	rec := &recorder{}
	c.OnStateChange(rec.observe)

	start := time.Now()
	c.Start(context.Background())
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("Start blocked on the connection attempt")
	}
	waitDone(t, c)

	state, err := c.State()
	if state != Failed {
		t.Fatalf("expected Failed, got %s", state)
	}
	if err == nil {
		t.Fatal("expected failure cause")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.states) != 2 || rec.states[0] != Connecting || rec.states[1] != Failed {
		t.Fatalf("unexpected transitions %v", rec.states)
	}
	if rec.errs[1] == nil {
		t.Fatal("Failed observer call must carry the cause")
	}
}

func TestUnreachableServerFailsWithinTimeout(t *testing.T) {
	c := NewConnector("mongodb://127.0.0.1:1/groc", "groc", 150*time.Millisecond)
	c.Start(context.Background())
	waitDone(t, c)

	if state, _ := c.State(); state != Failed {
		t.Fatalf("expected Failed, got %s", state)
	}
}

func TestCollectionUnavailableUntilConnected(t *testing.T) {
	c := NewConnector("mongodb://127.0.0.1:1/groc", "groc", 100*time.Millisecond)

	if _, err := c.Collection("products"); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable before start, got %v", err)
	}

	c.Start(context.Background())
	waitDone(t, c)

	if _, err := c.Collection("products"); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable after failure, got %v", err)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	c := NewConnector("notmongo://nowhere", "groc", 100*time.Millisecond)
	rec := &recorder{}
	c.OnStateChange(rec.observe)

	c.Start(context.Background())
	waitDone(t, c)
	c.Start(context.Background())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.states) != 2 {
		t.Fatalf("second Start must be a no-op, got transitions %v", rec.states)
	}
}

func TestConcurrentStartMakesOneAttempt(t *testing.T) {
	c := NewConnector("notmongo://nowhere", "groc", 100*time.Millisecond)
	rec := &recorder{}
	c.OnStateChange(rec.observe)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Start(context.Background())
		}()
	}
	wg.Wait()
	waitDone(t, c)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.states) != 2 || rec.states[0] != Connecting || rec.states[1] != Failed {
		t.Fatalf("expected exactly one attempt, got transitions %v", rec.states)
	}
}

func TestStartAfterCloseIsNoop(t *testing.T) {
	c := NewConnector("notmongo://nowhere", "groc", 100*time.Millisecond)
	rec := &recorder{}
	c.OnStateChange(rec.observe)

	c.Start(context.Background())
	waitDone(t, c)
	if err := c.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.Start(context.Background())

	closedNever := NewConnector("notmongo://nowhere", "groc", 100*time.Millisecond)
	if err := closedNever.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	closedNever.Start(context.Background())
	if state, _ := closedNever.State(); state != Disconnected {
		t.Fatalf("Start after Close must not connect, state %s", state)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.states) != 2 {
		t.Fatalf("Start after Close must not make another attempt, got transitions %v", rec.states)
	}
}

func TestCloseWithoutClient(t *testing.T) {
	c := NewConnector("notmongo://nowhere", "groc", 100*time.Millisecond)
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close on an idle connector: %v", err)
	}
}

func TestStateString(t *testing.T) {
	if Connected.String() != "connected" || Failed.String() != "failed" {
		t.Fatal("unexpected state names")
	}
}
