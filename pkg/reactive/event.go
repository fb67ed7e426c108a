package reactive

import "golang.org/x/net/html"

// Event is a document event delivered to a node handler.
type Event struct {
	Type string

	// Target is the element the event was dispatched on.
	Target *html.Node

	// Data carries the event payload, e.g. "value" or "checked".
	Data map[string]string

	// Scope is the innermost node whose output contains Target.
	Scope *Node

	// Node is the node whose handler is running.
	Node *Node

	// Bubbled is true when Node is not the innermost node.
	Bubbled bool
}

// Handler handles an event. Returning false prevents the default action
// and stops propagation to outer nodes.
type Handler func(ev *Event) bool
