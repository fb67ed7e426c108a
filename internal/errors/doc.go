// Package errors provides structured, actionable error values for bind.
//
// Every error carries a short code (e.g. "R007") that maps to a registered
// template with a category, a one-line message and a longer explanation.
//
// # Error Categories
//
//   - usage: programming errors against the reactive graph (cyclic rendering,
//     unbalanced unlocks, duplicate anchors). These are raised as panics at
//     the call site or returned from construction.
//   - config: invalid bind.json values.
//   - protocol: malformed live-session messages.
//
// # Usage
//
//	err := errors.New("R004").
//	    WithDetail(`slot "status" is already bound to node 12`).
//	    WithSuggestion("Give each node its own slot name")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R004: Duplicate named anchor
//	//
//	//   slot "status" is already bound to node 12
//	//
//	//   Hint: Give each node its own slot name
package errors
