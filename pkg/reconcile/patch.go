package reconcile

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/bind/pkg/dom"
)

// Patch makes the children of live match the children of updated.
// All mutations go through doc so they are recorded in its op log.
func Patch(doc *dom.Document, live, updated *html.Node, mayClone bool) {
	l := live.FirstChild
	u := updated.FirstChild

	for l != nil && u != nil {
		// Capture successors first: replacement moves u out of updated when
		// cloning is not allowed, and may detach l.
		nextL, nextU := l.NextSibling, u.NextSibling
		patchNode(doc, live, l, u, mayClone)
		l, u = nextL, nextU
	}

	for l != nil {
		next := l.NextSibling
		doc.RemoveChild(live, l)
		l = next
	}

	for u != nil {
		next := u.NextSibling
		doc.AppendChild(live, take(updated, u, mayClone))
		u = next
	}
}

// patchNode reconciles a single live child against its updated counterpart.
func patchNode(doc *dom.Document, parent, l, u *html.Node, mayClone bool) {
	if l.Type != u.Type {
		doc.ReplaceChild(parent, take(u.Parent, u, mayClone), l)
		return
	}

	switch l.Type {
	case html.ElementNode:
		patchElement(doc, parent, l, u, mayClone)
	case html.TextNode, html.CommentNode:
		if l.Data != u.Data {
			doc.SetText(l, u.Data)
		}
	default:
		if dom.OuterHTML(l) != dom.OuterHTML(u) {
			doc.ReplaceChild(parent, take(u.Parent, u, mayClone), l)
		}
	}
}

func patchElement(doc *dom.Document, parent, l, u *html.Node, mayClone bool) {
	if l.Data != u.Data || l.Namespace != u.Namespace {
		el := doc.CreateElement(u.Data)
		el.Namespace = u.Namespace
		doc.MoveChildren(l, el)
		doc.ReplaceChild(parent, el, l)
		l = el
	}

	syncAttributes(doc, l, u)

	if dom.InnerHTML(l) != dom.InnerHTML(u) {
		Patch(doc, l, u, mayClone)
	}
}

// syncAttributes removes live attributes absent from u and sets every
// attribute of u on l. Boolean attributes are mirrored into live property
// state in both directions.
func syncAttributes(doc *dom.Document, l, u *html.Node) {
	for _, a := range append([]html.Attribute(nil), l.Attr...) {
		if a.Namespace != "" {
			continue
		}
		if _, ok := dom.GetAttr(u, a.Key); ok {
			continue
		}
		doc.RemoveAttr(l, a.Key)
		if dom.IsBooleanProperty(a.Key) {
			doc.SetProperty(l, a.Key, false)
		}
	}

	for _, a := range u.Attr {
		if a.Namespace != "" {
			continue
		}
		cur, ok := dom.GetAttr(l, a.Key)
		if !ok || cur != a.Val {
			doc.SetAttr(l, a.Key, a.Val)
		}
		if dom.IsBooleanProperty(a.Key) && !doc.Property(l, a.Key) {
			doc.SetProperty(l, a.Key, true)
		}
	}
}

// take returns u ready for insertion into the live tree: a clone when the
// update may be applied to more than one anchor, otherwise u itself detached
// from the update.
func take(parent, u *html.Node, mayClone bool) *html.Node {
	if mayClone {
		return dom.Clone(u)
	}
	if parent != nil {
		parent.RemoveChild(u)
	}
	return u
}
