package reactive

import (
	"context"
	"fmt"
)

// Builder declares a node. Build enables it with one initial render.
type Builder struct {
	g           *Graph
	node        *Node
	anchors     []Anchor
	interactive bool
	built       bool
	errs        []error
}

// NewBuilder starts declaring a node. The name appears in logs and errors.
func (g *Graph) NewBuilder(name string) *Builder {
	return &Builder{
		g: g,
		node: &Node{
			id:           nextID(),
			graph:        g,
			name:         name,
			dirty:        true,
			constructing: true,
			handlers:     make(map[string]Handler),
			named:        make(map[string]Reactive),
		},
	}
}

// Node returns the node under construction.
func (b *Builder) Node() *Node {
	return b.node
}

// Render sets the render function.
func (b *Builder) Render(fn RenderFunc) *Builder {
	b.node.renderFn = fn
	return b
}

// Anchor attaches anchors the initial render writes to.
func (b *Builder) Anchor(anchors ...Anchor) *Builder {
	b.anchors = append(b.anchors, anchors...)
	return b
}

// Child declares a named child the render function reads with
// Renderer.Child.
func (b *Builder) Child(name string, v Reactive) *Builder {
	c := v.ReactiveNode()
	switch {
	case c == nil:
		b.errs = append(b.errs, usageErr("R001", "child %q of %s", name, b.node))
	case c.released:
		b.errs = append(b.errs, usageErr("R009", "child %q of %s", name, b.node))
	default:
		b.node.named[name] = c
	}
	return b
}

// On registers the handler for an event type.
func (b *Builder) On(eventType string, h Handler) *Builder {
	b.node.handlers[eventType] = h
	return b
}

// Interactive gives the node an identity, annotated onto its output so the
// event router can find it. Registering a handler implies it.
func (b *Builder) Interactive() *Builder {
	b.interactive = true
	return b
}

func (b *Builder) addField(name string) {
	for _, f := range b.node.fields {
		if f == name {
			b.errs = append(b.errs, usageErr("R010", "field %q of %s", name, b.node))
			return
		}
	}
	b.node.fields = append(b.node.fields, name)
}

// Build enables the node: it is registered in the graph, bound to its
// anchors and rendered once.
func (b *Builder) Build() (*Node, error) {
	return b.BuildContext(context.Background())
}

// BuildContext is Build with a context for the initial render.
func (b *Builder) BuildContext(ctx context.Context) (*Node, error) {
	n := b.node
	if b.built {
		return nil, usageErr("R002", "%s", n)
	}
	if n.renderFn == nil {
		return nil, usageErr("R003", "%s", n)
	}
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	b.built = true

	if b.interactive || len(n.handlers) > 0 {
		n.identity = identityFor(n.id)
	}
	b.g.register(n)

	for i, a := range b.anchors {
		if err := a.Bind(n); err != nil {
			for _, bound := range b.anchors[:i] {
				bound.Unbind(n)
			}
			b.g.unregister(n)
			return nil, err
		}
	}
	n.anchors = append(n.anchors, b.anchors...)
	n.observable = len(n.anchors) > 0

	ok := false
	defer func() {
		if !ok {
			for _, a := range n.anchors {
				a.Unbind(n)
			}
			b.g.unregister(n)
		}
	}()
	n.render(ctx)
	n.constructing = false
	ok = true
	return n, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Node {
	n, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("reactive: build %s: %v", b.node, err))
	}
	return n
}
