package anchor

import (
	"context"
	"sort"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/net/html"

	"github.com/vango-dev/bind/internal/errors"
	"github.com/vango-dev/bind/pkg/dom"
	"github.com/vango-dev/bind/pkg/reactive"
)

// Sink receives every write to a named slot.
type Sink interface {
	Publish(ctx context.Context, name, markup string) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, name, markup string) error

// Publish implements Sink.
func (f SinkFunc) Publish(ctx context.Context, name, markup string) error {
	return f(ctx, name, markup)
}

// Registry holds named slots.
type Registry struct {
	doc   *dom.Document
	slots map[string]*Slot
	sinks []Sink
}

// NewRegistry creates a registry. doc may be nil when slots are only
// published to sinks.
func NewRegistry(doc *dom.Document) *Registry {
	return &Registry{
		doc:   doc,
		slots: make(map[string]*Slot),
	}
}

// AddSink registers a sink for every slot.
func (r *Registry) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// Slot returns the slot with the given name, creating it if needed.
func (r *Registry) Slot(name string) *Slot {
	s, ok := r.slots[name]
	if !ok {
		s = &Slot{name: name, reg: r}
		r.slots[name] = s
	}
	return s
}

// Get returns the latest markup written to a slot.
func (r *Registry) Get(name string) (string, bool) {
	s, ok := r.slots[name]
	if !ok || !s.written {
		return "", false
	}
	return s.markup, true
}

// Names returns the slot names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.slots))
	for name := range r.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scan replaces ${name} placeholders under root and wires the resulting
// elements to their slots. Slots that already hold markup fill the new
// elements immediately. Registries without a document ignore Scan.
func (r *Registry) Scan(root *html.Node) error {
	if r.doc == nil {
		return nil
	}
	var result *multierror.Error
	for name, els := range Scan(r.doc, root) {
		s := r.Slot(name)
		s.elements = append(s.elements, els...)
		if !s.written {
			continue
		}
		for _, el := range els {
			if err := el.replace(s.markup, false); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}

// Slot is a named anchor. At most one node is bound to a slot.
type Slot struct {
	name     string
	reg      *Registry
	node     *reactive.Node
	markup   string
	written  bool
	elements []*Element
}

// Name returns the slot name.
func (s *Slot) Name() string { return s.name }

// Node returns the bound node, or nil.
func (s *Slot) Node() *reactive.Node { return s.node }

// Markup returns the latest markup written to the slot.
func (s *Slot) Markup() string { return s.markup }

// Elements returns the document placeholders wired to the slot.
func (s *Slot) Elements() []*Element {
	return append([]*Element(nil), s.elements...)
}

// Bind implements reactive.Anchor.
func (s *Slot) Bind(n *reactive.Node) error {
	if s.node != nil && s.node != n {
		return errors.New("R004").WithDetailf("slot %q is bound to %s", s.name, s.node)
	}
	s.node = n
	return nil
}

// Unbind implements reactive.Anchor.
func (s *Slot) Unbind(n *reactive.Node) {
	if s.node == n {
		s.node = nil
	}
}

// Write implements reactive.Anchor.
func (s *Slot) Write(ctx context.Context, u *reactive.Update) error {
	s.markup = u.Markup
	s.written = true

	var result *multierror.Error
	mayClone := u.MayClone || len(s.elements) > 1
	for _, el := range s.elements {
		if err := el.replace(u.Markup, mayClone); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, sink := range s.reg.sinks {
		if err := sink.Publish(ctx, s.name, u.Markup); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
