package anchor

import (
	"context"

	"golang.org/x/net/html"

	"github.com/vango-dev/bind/internal/errors"
	"github.com/vango-dev/bind/pkg/dom"
	"github.com/vango-dev/bind/pkg/reactive"
	"github.com/vango-dev/bind/pkg/reconcile"
)

// Element anchors a node to a live document element.
type Element struct {
	doc  *dom.Document
	el   *html.Node
	node *reactive.Node
}

// NewElement returns an anchor writing into el.
func NewElement(doc *dom.Document, el *html.Node) *Element {
	return &Element{doc: doc, el: el}
}

// Target returns the anchored element.
func (e *Element) Target() *html.Node {
	return e.el
}

// Bind implements reactive.Anchor. An element anchors one node at a time.
func (e *Element) Bind(n *reactive.Node) error {
	if e.node != nil && e.node != n {
		return errors.New("R004").WithDetailf("<%s> already anchors %s", e.el.Data, e.node)
	}
	e.node = n
	return nil
}

// Unbind implements reactive.Anchor.
func (e *Element) Unbind(n *reactive.Node) {
	if e.node == n {
		e.node = nil
	}
}

// Write implements reactive.Anchor.
func (e *Element) Write(_ context.Context, u *reactive.Update) error {
	frag, err := u.Fragment(e.el.Data)
	if err != nil {
		return errors.FromError(err, "R011")
	}
	reconcile.Patch(e.doc, e.el, frag, u.MayClone)
	return nil
}

// replace reconciles markup into the element outside of a node update.
func (e *Element) replace(markup string, mayClone bool) error {
	frag, err := dom.ParseFragment(markup, e.el.Data)
	if err != nil {
		return errors.FromError(err, "R011")
	}
	reconcile.Patch(e.doc, e.el, frag, mayClone)
	return nil
}
