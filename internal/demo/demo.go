// Package demo builds the example graph served by `bind serve` and printed
// by `bind render`: a click counter, a todo table and a status line published
// through a named slot.
package demo

import (
	"fmt"
	"html"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/bind/internal/errors"
	"github.com/vango-dev/bind/pkg/anchor"
	"github.com/vango-dev/bind/pkg/dom"
	"github.com/vango-dev/bind/pkg/events"
	"github.com/vango-dev/bind/pkg/reactive"
)

// Shell is the static page the demo mounts into.
const Shell = `<main id="app"></main><footer>Status: ${status}</footer>`

// Events are the event types the demo listens to.
var Events = []string{"click", "change", "submit"}

// App is a mounted demo.
type App struct {
	Graph   *reactive.Graph
	Doc     *dom.Document
	Router  *events.Router
	Slots   *anchor.Registry
	Page    *reactive.Node
	Counter *Counter
	Todos   *TodoList
	Status  *reactive.Node

	open *reactive.Field[int]
}

// Counter is a button counting its clicks.
type Counter struct {
	*reactive.Node
	count *reactive.Field[int]
}

// Count returns the number of clicks.
func (c *Counter) Count() int { return c.count.Get() }

// Increment adds one click.
func (c *Counter) Increment() { c.count.Update(func(n int) int { return n + 1 }) }

// Todo is one row of the todo table.
type Todo struct {
	*reactive.Node
	Title string
	done  *reactive.Field[bool]
}

// Done reports whether the todo is checked off.
func (t *Todo) Done() bool { return t.done.Get() }

// TodoList renders the table body.
type TodoList struct {
	*reactive.Node
	items *reactive.Field[[]*Todo]
}

// Items returns the todos in display order.
func (l *TodoList) Items() []*Todo {
	return append([]*Todo(nil), l.items.Get()...)
}

// Mount builds the demo graph into doc, which must contain Shell.
func Mount(doc *dom.Document, g *reactive.Graph, router *events.Router, slots *anchor.Registry) (*App, error) {
	root := findID(doc.Body(), "app")
	if root == nil {
		return nil, errors.New("R012").WithDetail("document has no #app element")
	}
	if err := slots.Scan(doc.Body()); err != nil {
		return nil, err
	}

	app := &App{Graph: g, Doc: doc, Router: router, Slots: slots}

	sb := g.NewBuilder("status")
	app.open = reactive.Track(sb, "open", 0)
	status, err := sb.Render(func(*reactive.Renderer) string {
		switch n := app.open.Get(); n {
		case 0:
			return "<strong>all done</strong>"
		case 1:
			return "<strong>1 open</strong>"
		default:
			return fmt.Sprintf("<strong>%d open</strong>", n)
		}
	}).Anchor(slots.Slot("status")).Build()
	if err != nil {
		return nil, err
	}
	app.Status = status

	cb := g.NewBuilder("counter")
	counter := &Counter{count: reactive.Track(cb, "count", 0)}
	counter.Node, err = cb.Render(func(*reactive.Renderer) string {
		return fmt.Sprintf(`<button class="counter">Clicked %d times</button>`, counter.count.Get())
	}).On("click", func(*reactive.Event) bool {
		counter.Increment()
		return true
	}).Build()
	if err != nil {
		return nil, err
	}
	app.Counter = counter

	lb := g.NewBuilder("todos")
	todos := &TodoList{
		items: reactive.Track(lb, "items", []*Todo(nil)).WithEquals(sameTodos),
	}
	todos.Node, err = lb.Render(func(r *reactive.Renderer) string {
		r.Settings().Container("tbody")
		var sb strings.Builder
		for _, t := range todos.items.Get() {
			sb.WriteString(r.Include(t))
		}
		return sb.String()
	}).Build()
	if err != nil {
		return nil, err
	}
	app.Todos = todos

	page, err := g.NewBuilder("page").Render(func(r *reactive.Renderer) string {
		return `<h1>bind</h1>` + r.Include(counter) +
			`<form class="add"><input name="title" value=""><button type="submit">Add</button></form>` +
			`<table><thead><tr><th></th><th>Todo</th><th></th></tr></thead>` +
			r.Include(todos) + `</table>`
	}).On("submit", func(ev *reactive.Event) bool {
		if title := strings.TrimSpace(ev.Data["title"]); title != "" {
			app.AddTodo(title)
		}
		return false
	}).Anchor(anchor.NewElement(doc, root)).Build()
	if err != nil {
		return nil, err
	}
	app.Page = page

	router.Listen(Events...)
	return app, nil
}

// AddTodo appends a todo row.
func (a *App) AddTodo(title string) *Todo {
	b := a.Graph.NewBuilder("todo")
	t := &Todo{Title: title, done: reactive.Track(b, "done", false)}
	t.Node = b.Render(func(r *reactive.Renderer) string {
		// Rows splice straight into the list's tbody and parse as table rows.
		r.Settings().Container("tbody").Inline(true)
		checked := ""
		if t.done.Get() {
			checked = " checked"
		}
		return fmt.Sprintf(`<tr><td><input type="checkbox"%s></td><td>%s</td><td><button class="remove">x</button></td></tr>`,
			checked, html.EscapeString(t.Title))
	}).On("change", func(ev *reactive.Event) bool {
		t.done.Set(ev.Data["checked"] == "true")
		a.refreshStatus()
		return true
	}).On("click", func(ev *reactive.Event) bool {
		if class, _ := dom.GetAttr(ev.Target, "class"); class != "remove" {
			return true
		}
		a.RemoveTodo(t)
		return false
	}).MustBuild()

	a.Todos.items.Update(func(items []*Todo) []*Todo {
		return append(append([]*Todo(nil), items...), t)
	})
	a.refreshStatus()
	return t
}

// RemoveTodo deletes a todo row and releases its node.
func (a *App) RemoveTodo(t *Todo) {
	a.Todos.items.Update(func(items []*Todo) []*Todo {
		out := make([]*Todo, 0, len(items))
		for _, it := range items {
			if it != t {
				out = append(out, it)
			}
		}
		return out
	})
	a.Graph.Release(t)
	a.refreshStatus()
}

// Toggle flips a todo's done state.
func (a *App) Toggle(t *Todo) {
	t.done.Set(!t.done.Get())
	a.refreshStatus()
}

func (a *App) refreshStatus() {
	open := 0
	for _, t := range a.Todos.items.Get() {
		if !t.done.Get() {
			open++
		}
	}
	a.open.Set(open)
}

// CounterButton returns the counter's button element.
func (a *App) CounterButton() *nethtml.Node {
	return findClass(a.Doc.Body(), atom.Button, "counter")
}

// Form returns the add form element.
func (a *App) Form() *nethtml.Node {
	return findClass(a.Doc.Body(), atom.Form, "add")
}

// RowElement returns the table row rendered for t.
func (a *App) RowElement(t *Todo) *nethtml.Node {
	var found *nethtml.Node
	dom.Walk(a.Doc.Body(), func(n *nethtml.Node) {
		if found != nil || n.DataAtom != atom.Tr {
			return
		}
		for _, id := range dom.Identities(n, a.Graph.IdentityAttr()) {
			if id == t.Identity() {
				found = n
			}
		}
	})
	return found
}

func sameTodos(a, b []*Todo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func findID(root *nethtml.Node, id string) *nethtml.Node {
	var found *nethtml.Node
	dom.Walk(root, func(n *nethtml.Node) {
		if v, ok := dom.GetAttr(n, "id"); found == nil && ok && v == id {
			found = n
		}
	})
	return found
}

func findClass(root *nethtml.Node, a atom.Atom, class string) *nethtml.Node {
	var found *nethtml.Node
	dom.Walk(root, func(n *nethtml.Node) {
		if v, ok := dom.GetAttr(n, "class"); found == nil && n.DataAtom == a && ok && v == class {
			found = n
		}
	})
	return found
}
