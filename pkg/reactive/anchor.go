package reactive

import (
	"context"

	"golang.org/x/net/html"

	"github.com/vango-dev/bind/pkg/dom"
)

// Anchor is a destination a node's output is written to: a document
// element, a named slot, or anything else that materializes markup.
type Anchor interface {
	// Bind is called once when the anchor is attached to n. Returning an
	// error rejects the attachment.
	Bind(n *Node) error

	// Unbind is called when n is detached or released.
	Unbind(n *Node)

	// Write materializes a changed output.
	Write(ctx context.Context, u *Update) error
}

// Update is one changed output handed to every anchor of a node.
type Update struct {
	Node *Node

	// Markup is the final output, identity annotation included.
	Markup string

	// Container is the tag the markup parses under.
	Container string

	// MayClone is set when several anchors share this update. Anchors must
	// then copy parsed nodes instead of moving them.
	MayClone bool

	fragments map[string]*html.Node
}

func newUpdate(n *Node, mayClone bool) *Update {
	return &Update{
		Node:      n,
		Markup:    n.final,
		Container: n.settings.ContainerTag(),
		MayClone:  mayClone,
	}
}

// Fragment returns the markup parsed under a container of the given tag,
// or the update's own container when tag is empty. Parses are cached per
// tag, so anchors sharing an update parse once.
func (u *Update) Fragment(tag string) (*html.Node, error) {
	if tag == "" {
		tag = u.Container
	}
	if frag, ok := u.fragments[tag]; ok {
		return frag, nil
	}
	frag, err := dom.ParseFragment(u.Markup, tag)
	if err != nil {
		return nil, err
	}
	if u.fragments == nil {
		u.fragments = make(map[string]*html.Node)
	}
	u.fragments[tag] = frag
	return frag, nil
}
