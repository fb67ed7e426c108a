// Package reconcile patches a live document fragment in place so that it
// matches freshly rendered markup.
//
// Children are compared pairwise from the start. Nodes that still match keep
// their identity: attributes are synced, text is overwritten only when it
// differs, and element subtrees are only descended into when their serialized
// contents differ. Elements whose tag changed are rebuilt around their
// existing children. Trailing live children are removed and trailing updated
// children appended.
//
// Keeping untouched nodes is a correctness requirement as much as a
// performance one: an input the user is typing into must survive an unrelated
// update elsewhere in the same fragment.
//
// When one update is fanned out to several live anchors, pass mayClone so
// inserted nodes are copied instead of being moved out of the update.
package reconcile
