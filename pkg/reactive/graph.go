package reactive

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Graph is the arena owning every live node and the weak identity registry
// the event router resolves through. Edges between nodes are node IDs
// resolved through the arena, so releasing a node makes every handle to it
// resolve to nothing.
//
// A Graph is not safe for concurrent use.
type Graph struct {
	nodes      map[uint64]*Node
	identities map[string]uint64

	logger       *slog.Logger
	observer     Observer
	tracer       trace.Tracer
	slowRender   time.Duration
	identityAttr string
}

// NewGraph creates an empty graph.
func NewGraph(opts ...Option) *Graph {
	g := defaultGraph()
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Logger returns the graph logger.
func (g *Graph) Logger() *slog.Logger {
	return g.logger
}

// IdentityAttr returns the attribute identity lists are written to.
func (g *Graph) IdentityAttr() string {
	return g.identityAttr
}

// Lookup resolves a node ID. Released nodes resolve to nothing.
func (g *Graph) Lookup(id uint64) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Resolve resolves an identity string from markup to its node. Identities of
// released nodes resolve to nothing until the next sweep removes them.
func (g *Graph) Resolve(identity string) (*Node, bool) {
	id, ok := g.identities[identity]
	if !ok {
		return nil, false
	}
	return g.Lookup(id)
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// IdentityCount returns the number of registry entries, stale ones included.
func (g *Graph) IdentityCount() int {
	return len(g.identities)
}

// SweepIdentities removes registry entries whose node has been released and
// returns how many were removed.
func (g *Graph) SweepIdentities() int {
	removed := 0
	for identity, id := range g.identities {
		if _, ok := g.nodes[id]; !ok {
			delete(g.identities, identity)
			removed++
		}
	}
	return removed
}

// Release drops a node from the arena. Its anchors are unbound; parent and
// registry handles to it resolve to nothing from now on. Releasing twice is
// a no-op.
func (g *Graph) Release(v Reactive) {
	n := v.ReactiveNode()
	if n == nil || n.released || n.graph != g {
		return
	}
	n.released = true
	for _, a := range n.anchors {
		a.Unbind(n)
	}
	n.anchors = nil
	n.children = nil
	delete(g.nodes, n.id)
	g.logger.Debug("node released", "node", n.String())
}

func (g *Graph) register(n *Node) {
	g.nodes[n.id] = n
	if n.identity != "" {
		g.identities[n.identity] = n.id
	}
}

func (g *Graph) unregister(n *Node) {
	delete(g.nodes, n.id)
	if n.identity != "" {
		delete(g.identities, n.identity)
	}
}

// propagate invalidates every live parent of from listed in ids. A parent
// that is still rendering has already read from's stale output: the edge is
// kept and the parent repeats its render before returning.
func (g *Graph) propagate(ctx context.Context, from *Node, ids []uint64) {
	for _, id := range ids {
		p, ok := g.Lookup(id)
		if !ok {
			continue
		}
		if p.rendering {
			if !from.hasParent(p.id) {
				from.addParent(p.id)
			}
			p.rerender = true
			continue
		}
		p.invalidate(ctx)
	}
}
