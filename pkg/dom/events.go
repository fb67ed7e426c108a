package dom

import "golang.org/x/net/html"

// Event is a raw input event raised on the document.
type Event struct {
	// Type is the event type name ("click", "input", ...).
	Type string

	// Target is the element the event originated on.
	Target *html.Node

	// Data carries event payload such as the current value of an input.
	Data map[string]string

	defaultPrevented bool
}

// PreventDefault cancels the platform default action for the event.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Listener receives raw events of one type.
type Listener func(*Event)

type listener struct {
	id uint64
	fn Listener
}

// AddEventListener installs fn for events of type typ and returns a function
// that removes it again.
func (d *Document) AddEventListener(typ string, fn Listener) (remove func()) {
	d.nextListener++
	l := &listener{id: d.nextListener, fn: fn}
	d.listeners[typ] = append(d.listeners[typ], l)

	return func() {
		ls := d.listeners[typ]
		for i, existing := range ls {
			if existing.id == l.id {
				d.listeners[typ] = append(ls[:i], ls[i+1:]...)
				break
			}
		}
		if len(d.listeners[typ]) == 0 {
			delete(d.listeners, typ)
		}
	}
}

// ListenerCount returns the number of listeners installed for typ.
func (d *Document) ListenerCount(typ string) int {
	return len(d.listeners[typ])
}

// Dispatch delivers ev to every listener installed for its type and reports
// whether the default action should still run.
func (d *Document) Dispatch(ev *Event) bool {
	ls := append([]*listener(nil), d.listeners[ev.Type]...)
	for _, l := range ls {
		l.fn(ev)
	}
	if ev.Type == "input" || ev.Type == "change" {
		d.applyInput(ev)
	}
	return !ev.defaultPrevented
}

// applyInput mirrors the user-visible effect of form input onto live state
// when the default action was not cancelled.
func (d *Document) applyInput(ev *Event) {
	if ev.defaultPrevented || ev.Target == nil {
		return
	}
	if v, ok := ev.Data["checked"]; ok {
		m, ok := d.props[ev.Target]
		if !ok {
			m = make(map[string]bool)
			d.props[ev.Target] = m
		}
		m["checked"] = v == "true"
	}
}
