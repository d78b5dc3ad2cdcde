package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestMemoryQueue_Publish(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	if err := q.Publish(context.Background(), "sst.jobs", []byte("job")); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}
	if n := q.Pending("sst.jobs"); n != 1 {
		t.Errorf("Expected 1 pending message, got %d", n)
	}
	if q.Kind() != KindMemory {
		t.Errorf("Expected kind %s, got %s", KindMemory, q.Kind())
	}
}

func TestMemoryQueue_PublishCopiesData(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	data := []byte("abc")
	if err := q.Publish(context.Background(), "s", data); err != nil {
		t.Fatal(err)
	}
	data[0] = 'z'

	got := make(chan []byte, 1)
	if err := q.Subscribe("s", func(_ context.Context, d []byte) error {
		got <- d
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case d := <-got:
		if string(d) != "abc" {
			t.Errorf("Expected abc, got %s", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	var mu sync.Mutex
	var received []string
	err := q.Subscribe("sst.jobs", func(_ context.Context, data []byte) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, string(data))
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := q.Publish(context.Background(), "sst.jobs", []byte(fmt.Sprintf("job-%d", i))); err != nil {
			t.Fatalf("Failed to publish: %v", err)
		}
	}

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 5
	})

	mu.Lock()
	defer mu.Unlock()
	for i, msg := range received {
		if want := fmt.Sprintf("job-%d", i); msg != want {
			t.Errorf("Message %d: expected %s, got %s", i, want, msg)
		}
	}
}

func TestMemoryQueue_HandlerErrorDoesNotStopSubscription(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	var mu sync.Mutex
	calls := 0
	_ = q.Subscribe("s", func(_ context.Context, _ []byte) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("bad job")
	})

	_ = q.Publish(context.Background(), "s", []byte("1"))
	_ = q.Publish(context.Background(), "s", []byte("2"))

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	})
}

func TestMemoryQueue_SubscribeTwice(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	noop := func(context.Context, []byte) error { return nil }
	if err := q.Subscribe("s", noop); err != nil {
		t.Fatal(err)
	}
	if err := q.Subscribe("s", noop); !errors.Is(err, ErrAlreadySubscribed) {
		t.Errorf("Expected ErrAlreadySubscribed, got %v", err)
	}
}

func TestMemoryQueue_Unsubscribe(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	if err := q.Unsubscribe("missing"); !errors.Is(err, ErrNotSubscribed) {
		t.Errorf("Expected ErrNotSubscribed, got %v", err)
	}

	_ = q.Subscribe("s", func(context.Context, []byte) error { return nil })
	if err := q.Unsubscribe("s"); err != nil {
		t.Fatalf("Failed to unsubscribe: %v", err)
	}
	if err := q.Subscribe("s", func(context.Context, []byte) error { return nil }); err != nil {
		t.Errorf("Resubscribe after unsubscribe failed: %v", err)
	}
}

func TestMemoryQueue_ChannelFull(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	for i := 0; i < memoryBuffer; i++ {
		if err := q.Publish(context.Background(), "s", []byte("x")); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}
	if err := q.Publish(context.Background(), "s", []byte("x")); err == nil {
		t.Error("Expected error when channel is full")
	}
}

func TestMemoryQueue_Closed(t *testing.T) {
	q := NewMemoryQueue()
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}

	if err := q.Publish(context.Background(), "s", []byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := q.Subscribe("s", func(context.Context, []byte) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestMemoryQueue_CloseCancelsHandlerContext(t *testing.T) {
	q := NewMemoryQueue()

	started := make(chan struct{})
	done := make(chan struct{})
	_ = q.Subscribe("s", func(ctx context.Context, _ []byte) error {
		close(started)
		<-ctx.Done()
		close(done)
		return ctx.Err()
	})
	_ = q.Publish(context.Background(), "s", []byte("x"))

	<-started
	_ = q.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler context not cancelled on close")
	}
}
