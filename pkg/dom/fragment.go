package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultContainer is the generic inline container used when a renderer does
// not declare one.
const DefaultContainer = "span"

// ParseFragment parses markup as the children of a detached container
// element with the given tag. The container tag decides which content is
// legal: table rows must be parsed under "tbody", list items under "ul", and
// so on.
func ParseFragment(markup, container string) (*html.Node, error) {
	if container == "" {
		container = DefaultContainer
	}
	container = strings.ToLower(container)
	ctx := &html.Node{Type: html.ElementNode, DataAtom: atom.Lookup([]byte(container)), Data: container}

	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		ctx.AppendChild(n)
	}
	return ctx, nil
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

// OuterHTML renders n itself.
func OuterHTML(n *html.Node) string {
	var b strings.Builder
	_ = html.Render(&b, n)
	return b.String()
}

// Clone returns a deep, detached copy of n.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(Clone(ch))
	}
	return c
}

// Walk calls fn for n and every descendant in document order.
func Walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// NodePath returns the child-index path from root to n.
func NodePath(root, n *html.Node) ([]int, bool) {
	var rev []int
	for cur := n; cur != root; cur = cur.Parent {
		if cur == nil || cur.Parent == nil {
			return nil, false
		}
		idx := 0
		for s := cur.PrevSibling; s != nil; s = s.PrevSibling {
			idx++
		}
		rev = append(rev, idx)
	}
	path := make([]int, len(rev))
	for i, v := range rev {
		path[len(rev)-1-i] = v
	}
	return path, true
}

// Resolve follows a child-index path from root. It returns nil if the path
// does not exist.
func Resolve(root *html.Node, path []int) *html.Node {
	cur := root
	for _, idx := range path {
		if idx < 0 {
			return nil
		}
		c := cur.FirstChild
		for i := 0; c != nil && i < idx; i++ {
			c = c.NextSibling
		}
		if c == nil {
			return nil
		}
		cur = c
	}
	return cur
}

// GetAttr returns the value of an attribute.
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Identities returns the comma-separated identity list stored on n under
// attr, innermost identity first.
func Identities(n *html.Node, attr string) []string {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	v, ok := GetAttr(n, attr)
	if !ok || v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

// Annotate appends identity to the identity list under attr on every
// top-level element of markup, parsed inside container, and returns the
// re-serialized markup. Top-level text is left as is.
func Annotate(markup, container, attr, identity string) (string, error) {
	frag, err := ParseFragment(markup, container)
	if err != nil {
		return "", err
	}
	for c := frag.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		annotateElement(c, attr, identity)
	}
	return InnerHTML(frag), nil
}

func annotateElement(n *html.Node, attr, identity string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == attr {
			if n.Attr[i].Val == "" {
				n.Attr[i].Val = identity
			} else {
				n.Attr[i].Val += "," + identity
			}
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: attr, Val: identity})
}
