// Package events routes raw document events to reactive node handlers.
//
// Interactive nodes carry their identity on the top-level elements of their
// output (see reactive.Builder.Interactive). The Router installs one document
// listener per event type and, for each raw event, walks from the target up
// through its ancestors, resolving every identity it finds through the
// graph's weak registry and invoking the matching handlers innermost first.
// A handler returning false prevents the default action and stops the walk.
//
// When no handler matched, the fallback node registered for the event type
// is consulted, followed by its most recently registered parents.
package events
