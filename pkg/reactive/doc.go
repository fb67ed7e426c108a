// Package reactive provides the dependency-tracking core of bind.
//
// A Node owns a piece of state and a render function producing markup. The
// markup is cached, written to every Anchor the node is attached to, and
// recomputed only when the node is invalidated. Nodes read each other's
// output during render; every read records a dependency edge, so mutating a
// node automatically refreshes every node that displayed it.
//
// # Construction
//
// Nodes are built through a Builder, which declares tracked fields, the
// render function, anchors, event handlers and whether the node is
// interactive. Build performs exactly one initial render:
//
//	b := g.NewBuilder("counter")
//	count := reactive.Track(b, "count", 0)
//	counter := b.Render(func(r *reactive.Renderer) string {
//	    return fmt.Sprintf("<button>%d</button>", count.Get())
//	}).On("click", func(ev *reactive.Event) bool {
//	    count.Update(func(n int) int { return n + 1 })
//	    return true
//	}).Interactive().Anchor(anchor).MustBuild()
//
// # Dependencies
//
// A render function receives a Renderer, the explicit handle for the node
// currently being rendered. Including another node through it records the
// edge in both directions:
//
//	page := g.NewBuilder("page").Render(func(r *reactive.Renderer) string {
//	    return "<main>" + r.Include(counter) + "</main>"
//	}).MustBuild()
//
// Parent edges are weak: they are handles into the Graph arena and resolve to
// nothing once a node has been released. Child edges are strong for the
// duration of one render pass and rebuilt on every render.
//
// # Invalidation
//
// Setting a tracked field invalidates its node. An invalidated node that is
// displayed somewhere, directly or through an ancestor, is re-rendered at
// once and, if its output changed, patched into its anchors and propagated
// to its parents. A node that nobody displays only marks itself and its
// ancestors dirty; the work happens when it is next read or attached.
//
// Lock defers rendering until the matching Unlock:
//
//	n.WithLock(func() {
//	    first.Set("Ada")
//	    last.Set("Lovelace")
//	}) // one render
//
// # Concurrency
//
// A Graph and its nodes are single-threaded. All mutation happens on the
// goroutine that owns the graph; use a loop.Loop to funnel work from other
// goroutines.
package reactive
