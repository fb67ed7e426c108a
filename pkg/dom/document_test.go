package dom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func attach(t *testing.T, doc *Document, markup string) {
	t.Helper()
	frag, err := ParseFragment(markup, "div")
	if err != nil {
		t.Fatal(err)
	}
	doc.MoveChildren(frag, doc.Body())
}

func TestDocumentRecordsAttachedMutations(t *testing.T) {
	doc := NewDocument()
	attach(t, doc, `<p id="a">x</p>`)
	p := doc.Body().FirstChild

	doc.SetAttr(p, "class", "on")
	doc.SetText(p.FirstChild, "y")
	doc.RemoveAttr(p, "id")
	doc.RemoveAttr(p, "missing")

	want := []Op{
		{Kind: OpSetAttr, Path: []int{0}, Key: "class", Value: "on"},
		{Kind: OpSetText, Path: []int{0, 0}, Value: "y"},
		{Kind: OpRemoveAttr, Path: []int{0}, Key: "id"},
	}
	if diff := cmp.Diff(want, doc.TakeOps()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if doc.PendingOps() != 0 {
		t.Error("TakeOps should drain the log")
	}
}

func TestDocumentDetachedMutationsNotRecorded(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("DIV")
	if el.Data != "div" {
		t.Errorf("tag = %q, want lower case", el.Data)
	}
	doc.SetAttr(el, "x", "1")
	doc.AppendChild(el, doc.CreateText("t"))
	if doc.PendingOps() != 0 {
		t.Errorf("detached mutations recorded: %v", doc.TakeOps())
	}
}

func TestDocumentReplaceAndRemove(t *testing.T) {
	doc := NewDocument()
	attach(t, doc, "<i>a</i><b>b</b>")
	i := doc.Body().FirstChild

	em := doc.CreateElement("em")
	doc.MoveChildren(i, em)
	doc.ReplaceChild(doc.Body(), em, i)
	doc.RemoveChild(doc.Body(), doc.Body().LastChild)

	if got := doc.BodyHTML(); got != "<em>a</em>" {
		t.Errorf("body = %q", got)
	}
	want := []Op{
		{Kind: OpReplace, Path: []int{0}, HTML: "<em>a</em>"},
		{Kind: OpRemove, Path: []int{1}},
	}
	if diff := cmp.Diff(want, doc.TakeOps()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestDocumentProperties(t *testing.T) {
	doc := NewDocument()
	attach(t, doc, `<input type="checkbox" checked>`)
	input := doc.Body().FirstChild

	if !doc.Property(input, "checked") {
		t.Error("property should default to attribute presence")
	}
	doc.RemoveAttr(input, "checked")
	if doc.Property(input, "checked") {
		t.Error("without an explicit value, property follows the attribute")
	}
	doc.SetProperty(input, "checked", true)
	if !doc.Property(input, "checked") {
		t.Error("explicit property value should win over markup")
	}

	if !IsBooleanProperty("Checked") || IsBooleanProperty("value") {
		t.Error("IsBooleanProperty classification wrong")
	}
}

func TestDocumentFocus(t *testing.T) {
	doc := NewDocument()
	attach(t, doc, "<input><input>")
	first := doc.Body().FirstChild

	doc.Focus(first)
	if doc.Focused() != first {
		t.Fatal("focus not set")
	}
	doc.RemoveChild(doc.Body(), first)
	if doc.Focused() != nil {
		t.Error("detached element must not report focus")
	}
}

func TestDocumentEventListeners(t *testing.T) {
	doc := NewDocument()
	attach(t, doc, "<button>x</button>")

	var calls int
	remove := doc.AddEventListener("click", func(ev *Event) {
		calls++
		ev.PreventDefault()
	})
	if doc.ListenerCount("click") != 1 {
		t.Fatalf("ListenerCount = %d", doc.ListenerCount("click"))
	}

	ok := doc.Dispatch(&Event{Type: "click", Target: doc.Body().FirstChild})
	if ok || calls != 1 {
		t.Errorf("Dispatch = %v calls = %d, want prevented and 1 call", ok, calls)
	}

	remove()
	if doc.ListenerCount("click") != 0 {
		t.Error("listener not removed")
	}
	if !doc.Dispatch(&Event{Type: "click"}) || calls != 1 {
		t.Error("removed listener still invoked")
	}
}

func TestOpKindText(t *testing.T) {
	for k := OpSetText; k <= OpSetProperty; k++ {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", k, err)
		}
		var back OpKind
		if err := back.UnmarshalText(b); err != nil || back != k {
			t.Errorf("round trip %s = %v, %v", b, back, err)
		}
	}
	if _, err := OpKind(0).MarshalText(); err == nil {
		t.Error("zero kind should not marshal")
	}
}
