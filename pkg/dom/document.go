package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// booleanProperties are attributes a browser mirrors as live boolean state.
// Removing the attribute does not reset the property, so the reconciler must
// do it explicitly.
var booleanProperties = map[string]bool{
	"checked":  true,
	"selected": true,
	"disabled": true,
	"readonly": true,
	"multiple": true,
	"hidden":   true,
	"required": true,
	"open":     true,
}

// IsBooleanProperty reports whether an attribute is mirrored as a live
// boolean property.
func IsBooleanProperty(name string) bool {
	return booleanProperties[strings.ToLower(name)]
}

// Document is a live HTML document.
// It is not safe for concurrent use; callers serialize access on a single
// loop the same way a browser does.
type Document struct {
	root *html.Node
	body *html.Node

	// props holds live boolean properties that diverged from markup.
	props map[*html.Node]map[string]bool

	focused *html.Node

	listeners    map[string][]*listener
	nextListener uint64

	ops []Op
}

// NewDocument creates an empty document with a body element.
func NewDocument() *Document {
	doc, err := Parse("<!DOCTYPE html><html><head></head><body></body></html>")
	if err != nil {
		// The literal above always parses.
		panic(err)
	}
	return doc
}

// Parse parses a complete HTML document.
func Parse(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	d := &Document{
		root:      root,
		props:     make(map[*html.Node]map[string]bool),
		listeners: make(map[string][]*listener),
	}
	d.body = findElement(root, atom.Body)
	if d.body == nil {
		// html.Parse always synthesizes a body; keep the guard for hand-built trees.
		d.body = &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
		root.AppendChild(d.body)
	}
	return d, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the body element.
func (d *Document) Body() *html.Node {
	return d.body
}

// String renders the whole document.
func (d *Document) String() string {
	return OuterHTML(d.root)
}

// BodyHTML renders the body's children.
func (d *Document) BodyHTML() string {
	return InnerHTML(d.body)
}

// Contains reports whether n is attached under the document root.
func (d *Document) Contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Primitive operations
// ---------------------------------------------------------------------------

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{Type: html.ElementNode, DataAtom: atom.Lookup([]byte(tag)), Data: tag}
}

// CreateText creates a detached text node.
func (d *Document) CreateText(value string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: value}
}

// SetAttr sets an attribute, adding it if absent.
func (d *Document) SetAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = value
			d.record(Op{Kind: OpSetAttr, Key: key, Value: value}, n)
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
	d.record(Op{Kind: OpSetAttr, Key: key, Value: value}, n)
}

// RemoveAttr removes an attribute if present.
func (d *Document) RemoveAttr(n *html.Node, key string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			d.record(Op{Kind: OpRemoveAttr, Key: key}, n)
			return
		}
	}
}

// SetText overwrites the value of a text or comment node.
func (d *Document) SetText(n *html.Node, value string) {
	n.Data = value
	d.record(Op{Kind: OpSetText, Value: value}, n)
}

// AppendChild appends child as the last child of parent.
func (d *Document) AppendChild(parent, child *html.Node) {
	parent.AppendChild(child)
	d.record(Op{Kind: OpAppend, HTML: OuterHTML(child)}, parent)
}

// RemoveChild removes child from parent.
func (d *Document) RemoveChild(parent, child *html.Node) {
	d.record(Op{Kind: OpRemove}, child)
	parent.RemoveChild(child)
	d.forget(child)
}

// ReplaceChild substitutes newChild for oldChild in place.
func (d *Document) ReplaceChild(parent, newChild, oldChild *html.Node) {
	d.record(Op{Kind: OpReplace, HTML: OuterHTML(newChild)}, oldChild)
	parent.InsertBefore(newChild, oldChild)
	parent.RemoveChild(oldChild)
	d.forget(oldChild)
}

// MoveChildren moves every child of from to the end of to. The move is not
// recorded: it is only valid when to is detached and about to replace from
// through ReplaceChild, which records the combined result.
func (d *Document) MoveChildren(from, to *html.Node) {
	for c := from.FirstChild; c != nil; {
		next := c.NextSibling
		from.RemoveChild(c)
		to.AppendChild(c)
		c = next
	}
}

// ---------------------------------------------------------------------------
// Live properties and focus
// ---------------------------------------------------------------------------

// Property returns the live value of a boolean property. Until it has been
// set explicitly, it reflects the presence of the matching attribute.
func (d *Document) Property(n *html.Node, name string) bool {
	if m, ok := d.props[n]; ok {
		if v, ok := m[name]; ok {
			return v
		}
	}
	_, ok := GetAttr(n, name)
	return ok
}

// SetProperty sets the live value of a boolean property.
func (d *Document) SetProperty(n *html.Node, name string, value bool) {
	m, ok := d.props[n]
	if !ok {
		m = make(map[string]bool)
		d.props[n] = m
	}
	m[name] = value
	d.record(Op{Kind: OpSetProperty, Key: name, Value: strconv.FormatBool(value)}, n)
}

// Focus gives focus to n.
func (d *Document) Focus(n *html.Node) {
	d.focused = n
}

// Focused returns the focused element, or nil if nothing attached has focus.
func (d *Document) Focused() *html.Node {
	if d.focused == nil || !d.Contains(d.focused) {
		return nil
	}
	return d.focused
}

// forget drops live state kept for a removed subtree.
func (d *Document) forget(n *html.Node) {
	if len(d.props) == 0 {
		return
	}
	Walk(n, func(c *html.Node) {
		delete(d.props, c)
	})
}

// ---------------------------------------------------------------------------
// Op log
// ---------------------------------------------------------------------------

// record appends op for target if target is attached under the body.
// Mutations on detached fragments are not observable and are not recorded.
func (d *Document) record(op Op, target *html.Node) {
	path, ok := NodePath(d.body, target)
	if !ok {
		return
	}
	op.Path = path
	d.ops = append(d.ops, op)
}

// TakeOps returns and clears the recorded mutations.
func (d *Document) TakeOps() []Op {
	ops := d.ops
	d.ops = nil
	return ops
}

// PendingOps returns the number of recorded mutations not yet taken.
func (d *Document) PendingOps() int {
	return len(d.ops)
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
