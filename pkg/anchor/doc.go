// Package anchor provides the places a reactive node's output is written to.
//
// An Element anchors a node to a live document element: each changed output
// is parsed under the element's own tag and reconciled into it in place. A
// Registry holds named slots; a slot keeps the latest markup of the node
// bound to it, forwards it to any document placeholders scanned for that
// name, and publishes it to registered sinks.
//
// Placeholders are written as ${name} in document text. Scan replaces each
// with an empty slot element:
//
//	<p>Status: ${status}</p>
//
// becomes
//
//	<p>Status: <span data-rx-slot="status"></span></p>
package anchor
