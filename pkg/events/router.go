package events

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/vango-dev/bind/pkg/dom"
	"github.com/vango-dev/bind/pkg/reactive"
)

// Dispatch outcomes reported to the Observer.
const (
	OutcomeHandled   = "handled"
	OutcomePrevented = "prevented"
	OutcomeFallback  = "fallback"
	OutcomeUnhandled = "unhandled"
)

// Observer receives router diagnostics.
type Observer interface {
	Dispatched(eventType, outcome string)
	Swept(n int)
}

type nopObserver struct{}

func (nopObserver) Dispatched(string, string) {}
func (nopObserver) Swept(int)                 {}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver sets the dispatch observer.
func WithObserver(o Observer) Option {
	return func(r *Router) {
		if o != nil {
			r.observer = o
		}
	}
}

// Router maps raw document events to node handlers.
type Router struct {
	doc       *dom.Document
	graph     *reactive.Graph
	logger    *slog.Logger
	observer  Observer
	removers  map[string]func()
	fallbacks map[string]uint64
}

// NewRouter creates a router for events raised on doc against nodes of g.
func NewRouter(doc *dom.Document, g *reactive.Graph, opts ...Option) *Router {
	r := &Router{
		doc:       doc,
		graph:     g,
		logger:    slog.Default().With("component", "events"),
		observer:  nopObserver{},
		removers:  make(map[string]func()),
		fallbacks: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Listen installs the document listener for each event type. Listening to a
// type twice is a no-op.
func (r *Router) Listen(types ...string) {
	for _, typ := range types {
		if _, ok := r.removers[typ]; ok {
			continue
		}
		r.removers[typ] = r.doc.AddEventListener(typ, r.handle)
	}
}

// Unlisten removes the listeners for the given event types.
func (r *Router) Unlisten(types ...string) {
	for _, typ := range types {
		if remove, ok := r.removers[typ]; ok {
			remove()
			delete(r.removers, typ)
		}
	}
}

// UnlistenAll removes every listener the router installed.
func (r *Router) UnlistenAll() {
	for typ, remove := range r.removers {
		remove()
		delete(r.removers, typ)
	}
}

// Listening reports whether a listener for typ is installed.
func (r *Router) Listening(typ string) bool {
	_, ok := r.removers[typ]
	return ok
}

// SetFallback designates the node consulted for events of typ that matched
// no handler. The router holds it weakly. A nil node clears the fallback.
func (r *Router) SetFallback(typ string, v reactive.Reactive) {
	if v == nil || v.ReactiveNode() == nil {
		delete(r.fallbacks, typ)
		return
	}
	r.fallbacks[typ] = v.ReactiveNode().ID()
}

// Sweep drops registry entries whose nodes have been released. It never
// invalidates anything.
func (r *Router) Sweep() int {
	n := r.graph.SweepIdentities()
	r.observer.Swept(n)
	if n > 0 {
		r.logger.Debug("registry swept", "removed", n)
	}
	return n
}

// Dispatch raises an event on the document and reports whether the default
// action should run.
func (r *Router) Dispatch(typ string, target *html.Node, data map[string]string) bool {
	return r.doc.Dispatch(&dom.Event{Type: typ, Target: target, Data: data})
}

func (r *Router) handle(ev *dom.Event) {
	outcome := r.route(ev)
	r.observer.Dispatched(ev.Type, outcome)
	r.logger.Debug("event routed", "type", ev.Type, "outcome", outcome)
}

func (r *Router) route(ev *dom.Event) string {
	attr := r.graph.IdentityAttr()
	var scope *reactive.Node
	invoked := false
	seen := make(map[*reactive.Node]bool)

	for el := ev.Target; el != nil; el = el.Parent {
		if el.Type != html.ElementNode {
			continue
		}
		for _, identity := range dom.Identities(el, attr) {
			n, ok := r.graph.Resolve(identity)
			if !ok || seen[n] {
				continue
			}
			seen[n] = true
			if scope == nil {
				scope = n
			}
			h, ok := n.Handler(ev.Type)
			if !ok {
				continue
			}
			invoked = true
			if !r.invoke(h, ev, n, scope) {
				return OutcomePrevented
			}
		}
	}
	if invoked {
		return OutcomeHandled
	}
	return r.fallback(ev)
}

func (r *Router) fallback(ev *dom.Event) string {
	id, ok := r.fallbacks[ev.Type]
	if !ok {
		return OutcomeUnhandled
	}
	scope, ok := r.graph.Lookup(id)
	if !ok {
		delete(r.fallbacks, ev.Type)
		return OutcomeUnhandled
	}

	invoked := false
	seen := make(map[*reactive.Node]bool)
	for n := scope; n != nil && !seen[n]; {
		seen[n] = true
		if h, ok := n.Handler(ev.Type); ok {
			invoked = true
			if !r.invoke(h, ev, n, scope) {
				return OutcomePrevented
			}
		}
		next, ok := n.LastParent()
		if !ok {
			break
		}
		n = next
	}
	if !invoked {
		return OutcomeUnhandled
	}
	return OutcomeFallback
}

func (r *Router) invoke(h reactive.Handler, ev *dom.Event, n, scope *reactive.Node) bool {
	ok := h(&reactive.Event{
		Type:    ev.Type,
		Target:  ev.Target,
		Data:    ev.Data,
		Scope:   scope,
		Node:    n,
		Bubbled: n != scope,
	})
	if !ok {
		ev.PreventDefault()
	}
	return ok
}
