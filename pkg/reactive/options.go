package reactive

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultSlowRenderThreshold is the render latency above which a
	// diagnostic is reported.
	DefaultSlowRenderThreshold = 16 * time.Millisecond

	// DefaultIdentityAttr is the reserved attribute carrying identity lists.
	DefaultIdentityAttr = "data-rx-id"

	// PlaceholderAttr marks the wrapper element a parent places around an
	// included child's output.
	PlaceholderAttr = "data-rx-node"

	tracerName = "bind"
)

// Observer receives render diagnostics. Implementations must be cheap; they
// are called synchronously from the render path.
type Observer interface {
	// Rendered is called after every render function run.
	Rendered(d time.Duration, changed bool)

	// SlowRender is called when a render exceeds the slow render threshold.
	SlowRender(d time.Duration)

	// HeadlessBubble is called when an unobserved node propagates dirtiness
	// without rendering.
	HeadlessBubble()

	// AnchorsWritten is called after a node wrote its output to n anchors.
	AnchorsWritten(n int)
}

type nopObserver struct{}

func (nopObserver) Rendered(time.Duration, bool) {}
func (nopObserver) SlowRender(time.Duration)     {}
func (nopObserver) HeadlessBubble()              {}
func (nopObserver) AnchorsWritten(int)           {}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the graph logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithObserver sets the render diagnostics observer.
func WithObserver(o Observer) Option {
	return func(g *Graph) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithTracer sets the tracer used for render spans.
func WithTracer(t trace.Tracer) Option {
	return func(g *Graph) {
		if t != nil {
			g.tracer = t
		}
	}
}

// WithSlowRenderThreshold sets the render latency above which a warning is
// logged. Zero disables the check.
func WithSlowRenderThreshold(d time.Duration) Option {
	return func(g *Graph) {
		g.slowRender = d
	}
}

// WithIdentityAttr sets the attribute identity lists are written to.
func WithIdentityAttr(attr string) Option {
	return func(g *Graph) {
		if attr != "" {
			g.identityAttr = attr
		}
	}
}

func defaultGraph() *Graph {
	return &Graph{
		nodes:        make(map[uint64]*Node),
		identities:   make(map[string]uint64),
		logger:       slog.Default().With("component", "reactive"),
		observer:     nopObserver{},
		tracer:       otel.Tracer(tracerName),
		slowRender:   DefaultSlowRenderThreshold,
		identityAttr: DefaultIdentityAttr,
	}
}
