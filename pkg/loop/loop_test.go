package loop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLoop(t *testing.T, opts ...Option) (*Loop, context.CancelFunc) {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	l := New(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(cancel)
	return l, cancel
}

func TestTasksRunInOrder(t *testing.T) {
	l, _ := newTestLoop(t)
	ctx := context.Background()

	var order []int
	for i := 0; i < 10; i++ {
		if err := l.Post(ctx, func() { order = append(order, i) }); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}
	if err := l.Do(ctx, func() {}); err != nil {
		t.Fatalf("Do: %v", err)
	}

	var got []int
	if err := l.Do(ctx, func() { got = append(got, order...) }); err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order = %v", got)
		}
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 tasks, got %d", len(got))
	}
}

func TestPanicDoesNotStopLoop(t *testing.T) {
	l, _ := newTestLoop(t)
	ctx := context.Background()

	if err := l.Post(ctx, func() { panic("boom") }); err != nil {
		t.Fatal(err)
	}
	ran := false
	if err := l.Do(ctx, func() { ran = true }); err != nil {
		t.Fatalf("Do after panic: %v", err)
	}
	if !ran {
		t.Error("loop should keep running after a task panics")
	}
}

func TestPostAfterClose(t *testing.T) {
	l, _ := newTestLoop(t)
	l.Close()
	<-l.Done()

	if err := l.Post(context.Background(), func() {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Post = %v, want ErrClosed", err)
	}
	if err := l.TryPost(func() {}); !errors.Is(err, ErrClosed) {
		t.Errorf("TryPost = %v, want ErrClosed", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	select {
	case <-l.Done():
	default:
		t.Error("loop should be closed after Run returns")
	}
}

func TestTryPostQueueFull(t *testing.T) {
	l := New(WithQueueSize(1))
	if err := l.TryPost(func() {}); err != nil {
		t.Fatal(err)
	}
	if err := l.TryPost(func() {}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("TryPost = %v, want ErrQueueFull", err)
	}
}

func TestEvery(t *testing.T) {
	l, _ := newTestLoop(t)
	var ticks atomic.Int32
	stop := l.Every(time.Millisecond, func() { ticks.Add(1) })

	deadline := time.Now().Add(time.Second)
	for ticks.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	stop()
	stop()
	if ticks.Load() < 3 {
		t.Fatalf("expected at least 3 ticks, got %d", ticks.Load())
	}
}
