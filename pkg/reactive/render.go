package reactive

import (
	"context"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/bind/pkg/dom"
)

// Settings are per-render choices a render function makes through its
// Renderer.
type Settings struct {
	container string
	inline    bool
	r         *Renderer
}

// Container sets the tag of the element wrapping the node's output wherever
// a parent includes it and wherever it is parsed for an anchor.
func (s *Settings) Container(tag string) *Settings {
	s.container = tag
	return s
}

// Inline makes parents embed the node's raw output without a wrapper
// element. It must be chosen before the render includes any other node.
func (s *Settings) Inline(on bool) *Settings {
	if on && s.r != nil && s.r.included > 0 {
		usage("R008", "%s", s.r.node)
	}
	s.inline = on
	return s
}

// ContainerTag returns the wrapper tag, defaulting to dom.DefaultContainer.
func (s Settings) ContainerTag() string {
	if s.container == "" {
		return dom.DefaultContainer
	}
	return s.container
}

// IsInline reports whether the output is embedded without a wrapper.
func (s Settings) IsInline() bool {
	return s.inline
}

// Renderer is the handle a render function uses to read other nodes. It is
// valid only for the duration of the render call it was passed to.
type Renderer struct {
	ctx      context.Context
	node     *Node
	settings Settings
	included int
}

// Context returns the context of the render pass.
func (r *Renderer) Context() context.Context { return r.ctx }

// Node returns the node being rendered.
func (r *Renderer) Node() *Node { return r.node }

// Settings returns the settings of the render in progress.
func (r *Renderer) Settings() *Settings { return &r.settings }

// Include reads another node's output, recording it as a dependency of the
// node being rendered. A stale, unlocked child renders first.
func (r *Renderer) Include(v Reactive) string {
	child := v.ReactiveNode()
	if child == nil {
		usage("R001", "%T has no node", v)
	}
	if child.released {
		usage("R009", "%s included by %s", child, r.node)
	}
	if child.rendering {
		usage("R007", "%s included while rendering", child)
	}
	if child.dirty && child.lockCount == 0 {
		child.render(r.ctx)
	}

	r.included++
	child.addParent(r.node.id)
	r.node.addChild(child)
	if r.node.observable {
		child.observable = true
	}

	if child.settings.inline || r.settings.inline {
		return child.final
	}
	tag := child.settings.ContainerTag()
	return "<" + tag + " " + PlaceholderAttr + `="` + strconv.FormatUint(child.id, 10) + `">` +
		child.final + "</" + tag + ">"
}

// Child includes the named child declared with Builder.Child.
func (r *Renderer) Child(name string) string {
	c, ok := r.node.named[name]
	if !ok {
		usage("R001", "%s has no child %q", r.node, name)
	}
	return r.Include(c)
}

// maxRenderPasses bounds how often a render repeats because it changed a
// node it had already included.
const maxRenderPasses = 8

// render recomputes the node's output. It reports whether the output changed.
func (n *Node) render(ctx context.Context) bool {
	if n.lockCount > 0 || !n.dirty {
		return false
	}
	if n.rendering {
		usage("R007", "%s", n)
	}
	g := n.graph
	ctx, span := g.tracer.Start(ctx, "bind.render",
		trace.WithAttributes(attribute.Int64("node.id", int64(n.id))))
	defer span.End()
	start := time.Now()

	var snapshot []uint64
	if !n.constructing {
		snapshot = n.parents
		n.parents = nil
	}

	prev, hadOutput := n.cached, n.hasOutput
	n.rerender = false
	for pass := 1; ; pass++ {
		for _, c := range n.children {
			c.removeParent(n.id)
		}
		n.children = nil

		r := &Renderer{ctx: ctx, node: n}
		r.settings.r = r
		out := n.invoke(r)

		settings := r.settings
		settings.r = nil
		n.settings = settings
		n.cached = out
		n.hasOutput = true

		if !n.rerender {
			break
		}
		n.rerender = false
		if pass == maxRenderPasses {
			usage("R007", "%s did not settle after %d passes", n, pass)
		}
	}

	changed := !hadOutput || n.cached != prev
	if changed {
		n.final = n.annotate(n.cached)
	}
	n.dirty = false

	elapsed := time.Since(start)
	span.SetAttributes(attribute.Bool("changed", changed))
	g.observer.Rendered(elapsed, changed)
	if g.slowRender > 0 && elapsed > g.slowRender {
		g.observer.SlowRender(elapsed)
		g.logger.Warn("slow render",
			"node", n.String(),
			"duration", elapsed,
			"threshold", g.slowRender,
		)
	}

	if changed && len(n.anchors) > 0 {
		n.writeAnchors(ctx)
	}
	if changed && !n.constructing {
		n.propagating++
		defer func() { n.propagating-- }()
		g.propagate(ctx, n, snapshot)
	}
	return changed
}

func (n *Node) invoke(r *Renderer) string {
	n.rendering = true
	defer func() { n.rendering = false }()
	return n.renderFn(r)
}

func (n *Node) annotate(out string) string {
	if n.identity == "" {
		return out
	}
	final, err := dom.Annotate(out, n.settings.ContainerTag(), n.graph.identityAttr, n.identity)
	if err != nil {
		n.graph.logger.Error("annotate failed", "node", n.String(), "error", err)
		return out
	}
	return final
}

func (n *Node) writeAnchors(ctx context.Context) {
	u := newUpdate(n, len(n.anchors) > 1)
	var result *multierror.Error
	for _, a := range n.anchors {
		if err := a.Write(ctx, u); err != nil {
			result = multierror.Append(result, err)
		}
	}
	n.graph.observer.AnchorsWritten(len(n.anchors))
	if err := result.ErrorOrNil(); err != nil {
		n.graph.logger.Error("anchor write failed", "node", n.String(), "error", err)
	}
}
