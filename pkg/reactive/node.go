package reactive

import (
	"context"
	"strconv"
)

// Reactive is implemented by every value that owns a Node. Embedding *Node in
// a struct makes the struct reactive.
type Reactive interface {
	ReactiveNode() *Node
}

// Of returns the node behind v, or a usage error if v is not reactive.
func Of(v any) (*Node, error) {
	r, ok := v.(Reactive)
	if !ok {
		return nil, usageErr("R001", "%T does not implement Reactive", v)
	}
	n := r.ReactiveNode()
	if n == nil {
		return nil, usageErr("R001", "%T has no node", v)
	}
	return n, nil
}

// RenderFunc produces a node's markup.
type RenderFunc func(r *Renderer) string

// Node is one unit of reactive state and its cached rendering.
type Node struct {
	id       uint64
	graph    *Graph
	name     string
	identity string

	dirty        bool
	rendering    bool
	constructing bool
	released     bool
	propagating  int
	lockCount    int

	// rerender is set when an included node changed while this node was
	// rendering; the render repeats before it completes.
	rerender bool

	cached    string
	final     string
	hasOutput bool
	settings  Settings

	anchors    []Anchor
	observable bool

	// parents are weak; ordered by registration, most recent last.
	parents  []uint64
	children []*Node

	handlers map[string]Handler
	fields   []string
	named    map[string]Reactive
	renderFn RenderFunc
}

// ReactiveNode implements Reactive.
func (n *Node) ReactiveNode() *Node {
	return n
}

// ID returns the node's arena ID.
func (n *Node) ID() uint64 { return n.id }

// Name returns the name the node was built with.
func (n *Node) Name() string { return n.name }

// Graph returns the owning graph.
func (n *Node) Graph() *Graph { return n.graph }

// Identity returns the identity written into markup, or "" if the node is not
// interactive.
func (n *Node) Identity() string { return n.identity }

// Dirty reports whether the cached output is stale.
func (n *Node) Dirty() bool { return n.dirty }

// Locked reports whether rendering is deferred.
func (n *Node) Locked() bool { return n.lockCount > 0 }

// Rendering reports whether the render function is currently running.
func (n *Node) Rendering() bool { return n.rendering }

// Released reports whether the node has been dropped from its graph.
func (n *Node) Released() bool { return n.released }

// Output returns the last computed output without identity annotation.
// A node that is not displayed is not rendered when it goes stale, so its
// output may be out of date while Dirty reports true.
func (n *Node) Output() string { return n.cached }

// FinalOutput returns the last computed output as written to anchors.
func (n *Node) FinalOutput() string { return n.final }

// Settings returns the settings the last render chose.
func (n *Node) Settings() Settings { return n.settings }

// Observable reports whether the node's output is displayed, directly or
// through an ancestor, as of the last time it was computed.
func (n *Node) Observable() bool { return n.observable }

// Anchors returns the attached anchors.
func (n *Node) Anchors() []Anchor {
	return append([]Anchor(nil), n.anchors...)
}

// Fields returns the names of the node's tracked fields.
func (n *Node) Fields() []string {
	return append([]string(nil), n.fields...)
}

// Handler returns the handler for an event type.
func (n *Node) Handler(eventType string) (Handler, bool) {
	h, ok := n.handlers[eventType]
	return h, ok
}

// Parents returns the live parents, stale handles skipped.
func (n *Node) Parents() []*Node {
	out := make([]*Node, 0, len(n.parents))
	for _, id := range n.parents {
		if p, ok := n.graph.Lookup(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// LastParent returns the most recently registered live parent.
func (n *Node) LastParent() (*Node, bool) {
	for i := len(n.parents) - 1; i >= 0; i-- {
		if p, ok := n.graph.Lookup(n.parents[i]); ok {
			return p, true
		}
	}
	return nil, false
}

// Children returns the nodes read by the last render.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

func (n *Node) String() string {
	name := n.name
	if name == "" {
		name = "node"
	}
	return name + "#" + strconv.FormatUint(n.id, 10)
}

// Lock defers rendering until the matching Unlock. Locks nest.
func (n *Node) Lock() {
	n.lockCount++
}

// Unlock releases one level of locking. Releasing the last level of a dirty
// node refreshes it.
func (n *Node) Unlock() {
	if n.constructing {
		usage("R006", "%s", n)
	}
	if n.lockCount == 0 {
		usage("R005", "%s", n)
	}
	n.lockCount--
	if n.lockCount == 0 && n.dirty && !n.released {
		n.refresh(context.Background(), false)
	}
}

// WithLock runs fn with the node locked.
func (n *Node) WithLock(fn func()) {
	n.Lock()
	defer n.Unlock()
	fn()
}

// Attach adds an anchor to a built node. The anchor receives the current
// output, rendering first if the node is stale.
func (n *Node) Attach(a Anchor) error {
	return n.AttachContext(context.Background(), a)
}

// AttachContext is Attach with a context for the render it may trigger.
func (n *Node) AttachContext(ctx context.Context, a Anchor) error {
	if n.released {
		return usageErr("R009", "%s", n)
	}
	if err := a.Bind(n); err != nil {
		return err
	}
	n.anchors = append(n.anchors, a)
	n.observable = true

	if n.dirty && n.lockCount == 0 && n.render(ctx) {
		// The render wrote to every anchor, the new one included.
		return nil
	}
	if !n.hasOutput {
		return nil
	}
	u := newUpdate(n, false)
	return a.Write(ctx, u)
}

// Detach removes an anchor. It reports whether the anchor was attached.
func (n *Node) Detach(a Anchor) bool {
	for i, cur := range n.anchors {
		if cur == a {
			n.anchors = append(n.anchors[:i], n.anchors[i+1:]...)
			a.Unbind(n)
			return true
		}
	}
	return false
}

func (n *Node) addParent(id uint64) {
	for i, cur := range n.parents {
		if cur == id {
			n.parents = append(n.parents[:i], n.parents[i+1:]...)
			break
		}
	}
	n.parents = append(n.parents, id)
}

func (n *Node) hasParent(id uint64) bool {
	for _, cur := range n.parents {
		if cur == id {
			return true
		}
	}
	return false
}

func (n *Node) removeParent(id uint64) {
	for i, cur := range n.parents {
		if cur == id {
			n.parents = append(n.parents[:i], n.parents[i+1:]...)
			return
		}
	}
}

func (n *Node) addChild(c *Node) {
	for _, cur := range n.children {
		if cur == c {
			return
		}
	}
	n.children = append(n.children, c)
}
