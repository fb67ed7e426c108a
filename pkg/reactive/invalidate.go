package reactive

import "context"

// Invalidate marks the node's output stale. A displayed node re-renders
// immediately unless locked; an undisplayed node only bubbles the staleness
// to its parents.
func (n *Node) Invalidate() {
	n.invalidate(context.Background())
}

// InvalidateContext is Invalidate with a context for the renders it triggers.
func (n *Node) InvalidateContext(ctx context.Context) {
	n.invalidate(ctx)
}

func (n *Node) invalidate(ctx context.Context) {
	if n.released || n.constructing {
		return
	}
	if n.rendering || n.propagating > 0 {
		usage("R007", "%s invalidated while rendering", n)
	}
	wasDirty := n.dirty
	n.dirty = true
	if n.lockCount > 0 {
		return
	}
	n.refresh(ctx, wasDirty)
}

func (n *Node) refresh(ctx context.Context, wasDirty bool) {
	n.observable = n.hasObservableAnchor()
	if n.observable {
		n.render(ctx)
		return
	}
	if wasDirty {
		// Ancestors were marked when this node first went stale.
		return
	}
	n.graph.observer.HeadlessBubble()
	n.graph.propagate(ctx, n, append([]uint64(nil), n.parents...))
}

// hasObservableAnchor reports whether the node owns an anchor or has a live
// parent whose output is displayed.
func (n *Node) hasObservableAnchor() bool {
	if len(n.anchors) > 0 {
		return true
	}
	for _, id := range n.parents {
		if p, ok := n.graph.Lookup(id); ok && p.observable {
			return true
		}
	}
	return false
}
