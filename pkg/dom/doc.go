// Package dom provides the live document model that reactive nodes render
// into.
//
// A Document wraps a golang.org/x/net/html tree and exposes the primitive
// operations the reconciler needs: creating nodes, reading and writing
// attributes and text, inserting, removing and replacing children. Boolean
// form state (checked, selected, disabled, ...) is mirrored as live
// properties next to the markup attributes, the way a browser keeps them, and
// the document tracks which element holds focus.
//
// # Mutation Log
//
// Every primitive mutation applied to a node attached under the document
// body is appended to an op log:
//
//	doc.SetText(textNode, "c")
//	ops := doc.TakeOps()
//	// []Op{{Kind: OpSetText, Path: []int{0, 1, 0}, Value: "c"}}
//
// Paths are child-index paths from the body element. The log lets a remote
// mirror of the document (a browser) replay exactly the mutations applied on
// the server, and lets tests assert reconciliation is minimal.
//
// # Fragments
//
// ParseFragment parses markup in the context of a container tag, which
// matters for content that is only legal inside particular parents:
//
//	rows, _ := dom.ParseFragment("<tr><td>1</td></tr>", "tbody")
//
// Annotate stamps an identity onto every top-level element of a fragment so
// input events can later be routed back to the node that rendered it.
package dom
