package reactive

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

type recordingAnchor struct {
	bound   *Node
	writes  []string
	bindErr error
}

func (a *recordingAnchor) Bind(n *Node) error {
	if a.bindErr != nil {
		return a.bindErr
	}
	a.bound = n
	return nil
}

func (a *recordingAnchor) Unbind(*Node) {
	a.bound = nil
}

func (a *recordingAnchor) Write(_ context.Context, u *Update) error {
	a.writes = append(a.writes, u.Markup)
	return nil
}

func (a *recordingAnchor) last() string {
	if len(a.writes) == 0 {
		return ""
	}
	return a.writes[len(a.writes)-1]
}

type countingObserver struct {
	renders int
	changed int
	slow    int
	bubbles int
	writes  int
}

func (o *countingObserver) Rendered(_ time.Duration, changed bool) {
	o.renders++
	if changed {
		o.changed++
	}
}

func (o *countingObserver) SlowRender(time.Duration) { o.slow++ }
func (o *countingObserver) HeadlessBubble()          { o.bubbles++ }
func (o *countingObserver) AnchorsWritten(n int)     { o.writes += n }

func newTestGraph(t *testing.T, opts ...Option) (*Graph, *countingObserver) {
	t.Helper()
	obs := &countingObserver{}
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithObserver(obs),
		WithSlowRenderThreshold(0),
	}
	return NewGraph(append(base, opts...)...), obs
}

// expectUsage fails the test unless fn panics with a usage error of code.
func expectUsage(t *testing.T, code string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic %s, got none", code)
		}
		if !IsUsageError(r, code) {
			t.Fatalf("expected panic %s, got %v", code, r)
		}
	}()
	fn()
}
