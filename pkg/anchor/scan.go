package anchor

import (
	"regexp"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/bind/pkg/dom"
)

// SlotAttr names the slot a placeholder element stands for.
const SlotAttr = "data-rx-slot"

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)

// Scan replaces ${name} placeholders in text under root with empty slot
// elements and returns element anchors for them keyed by name. Text inside
// script, style and textarea is left alone.
//
// Scan edits the tree directly without recording mutation ops; run it
// before the document is mirrored anywhere.
func Scan(doc *dom.Document, root *html.Node) map[string][]*Element {
	var texts []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Textarea:
				return
			}
		}
		if n.Type == html.TextNode && placeholder.MatchString(n.Data) {
			texts = append(texts, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	found := make(map[string][]*Element)
	for _, t := range texts {
		parent := t.Parent
		if parent == nil {
			continue
		}
		last := 0
		for _, m := range placeholder.FindAllStringSubmatchIndex(t.Data, -1) {
			if m[0] > last {
				parent.InsertBefore(&html.Node{Type: html.TextNode, Data: t.Data[last:m[0]]}, t)
			}
			name := t.Data[m[2]:m[3]]
			el := &html.Node{
				Type:     html.ElementNode,
				DataAtom: atom.Span,
				Data:     "span",
				Attr:     []html.Attribute{{Key: SlotAttr, Val: name}},
			}
			parent.InsertBefore(el, t)
			found[name] = append(found[name], NewElement(doc, el))
			last = m[1]
		}
		if last < len(t.Data) {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: t.Data[last:]}, t)
		}
		parent.RemoveChild(t)
	}
	return found
}
