package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/vango-dev/bind/pkg/dom"
)

// mount builds a document whose body holds a single <div> anchor filled with
// markup, with the op log drained.
func mount(t *testing.T, markup string) (*dom.Document, *html.Node) {
	t.Helper()
	doc := dom.NewDocument()
	anchor := doc.CreateElement("div")
	doc.Body().AppendChild(anchor)
	frag := parse(t, markup)
	Patch(doc, anchor, frag, false)
	doc.TakeOps()
	return doc, anchor
}

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	frag, err := dom.ParseFragment(markup, "div")
	if err != nil {
		t.Fatal(err)
	}
	return frag
}

func TestPatchOnlyTouchesChangedText(t *testing.T) {
	doc, anchor := mount(t, "<ul><li>a</li><li>b</li></ul>")
	ul := anchor.FirstChild
	firstLI := ul.FirstChild
	secondLI := firstLI.NextSibling

	Patch(doc, anchor, parse(t, "<ul><li>a</li><li>c</li></ul>"), false)

	if anchor.FirstChild != ul || ul.FirstChild != firstLI || firstLI.NextSibling != secondLI {
		t.Fatal("element identities changed")
	}
	want := []dom.Op{{Kind: dom.OpSetText, Path: []int{0, 0, 1, 0}, Value: "c"}}
	if diff := cmp.Diff(want, doc.TakeOps()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if got := dom.InnerHTML(anchor); got != "<ul><li>a</li><li>c</li></ul>" {
		t.Errorf("anchor = %q", got)
	}
}

func TestPatchIdenticalIsNoop(t *testing.T) {
	doc, anchor := mount(t, `<p class="x">hello <b>world</b></p>`)
	Patch(doc, anchor, parse(t, `<p class="x">hello <b>world</b></p>`), false)
	if ops := doc.TakeOps(); len(ops) != 0 {
		t.Errorf("expected no mutations, got %v", ops)
	}
}

func TestPatchCases(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		kinds  []dom.OpKind
	}{
		{"append trailing", "<i>a</i>", "<i>a</i><b>b</b>", []dom.OpKind{dom.OpAppend}},
		{"remove trailing", "<i>a</i><b>b</b>", "<i>a</i>", []dom.OpKind{dom.OpRemove}},
		{"category change", "text", "<b>text</b>", []dom.OpKind{dom.OpReplace}},
		{"attribute update", `<a href="/x">l</a>`, `<a href="/y">l</a>`, []dom.OpKind{dom.OpSetAttr}},
		{"attribute removal", `<a href="/x" title="t">l</a>`, `<a href="/x">l</a>`, []dom.OpKind{dom.OpRemoveAttr}},
		{"tag change", "<i>a</i>", "<em>a</em>", []dom.OpKind{dom.OpReplace}},
		{"comment text", "<!--a-->", "<!--b-->", []dom.OpKind{dom.OpSetText}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, anchor := mount(t, tt.before)
			Patch(doc, anchor, parse(t, tt.after), false)

			if got := dom.InnerHTML(anchor); got != tt.after {
				t.Errorf("anchor = %q, want %q", got, tt.after)
			}
			var kinds []dom.OpKind
			for _, op := range doc.TakeOps() {
				kinds = append(kinds, op.Kind)
			}
			if diff := cmp.Diff(tt.kinds, kinds); diff != "" {
				t.Errorf("op kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPatchTagChangeKeepsChildren(t *testing.T) {
	doc, anchor := mount(t, "<i><input></i>")
	input := anchor.FirstChild.FirstChild

	Patch(doc, anchor, parse(t, `<em class="c"><input></em>`), false)

	em := anchor.FirstChild
	if em.Data != "em" {
		t.Fatalf("tag = %q, want em", em.Data)
	}
	if em.FirstChild != input {
		t.Error("children should be moved into the new element, not recreated")
	}
	if v, _ := dom.GetAttr(em, "class"); v != "c" {
		t.Errorf("class = %q", v)
	}
}

func TestPatchPreservesFocusOnUntouchedInput(t *testing.T) {
	doc, anchor := mount(t, `<input name="q"><span>0</span>`)
	input := anchor.FirstChild
	doc.Focus(input)

	Patch(doc, anchor, parse(t, `<input name="q"><span>1</span>`), false)

	if doc.Focused() != input {
		t.Error("focused input was destroyed by an unrelated update")
	}
}

func TestPatchBooleanPropertyReset(t *testing.T) {
	doc, anchor := mount(t, `<input type="checkbox" checked>`)
	input := anchor.FirstChild
	if !doc.Property(input, "checked") {
		t.Fatal("checkbox should start checked")
	}

	Patch(doc, anchor, parse(t, `<input type="checkbox">`), false)
	if doc.Property(input, "checked") {
		t.Error("removing the attribute must reset the live property")
	}
	ops := doc.TakeOps()
	if len(ops) != 2 || ops[0].Kind != dom.OpRemoveAttr || ops[1].Kind != dom.OpSetProperty || ops[1].Value != "false" {
		t.Errorf("ops = %v", ops)
	}

	Patch(doc, anchor, parse(t, `<input type="checkbox" checked>`), false)
	if !doc.Property(input, "checked") {
		t.Error("adding the attribute must set the live property")
	}
}

func TestPatchMayCloneLeavesUpdateIntact(t *testing.T) {
	docA, a := mount(t, "")
	docB, b := mount(t, "")

	update := parse(t, "<p>x</p><p>y</p>")
	Patch(docA, a, update, true)
	Patch(docB, b, update, true)

	if dom.InnerHTML(update) != "<p>x</p><p>y</p>" {
		t.Fatalf("update consumed: %q", dom.InnerHTML(update))
	}
	if a.FirstChild == b.FirstChild || a.FirstChild == update.FirstChild {
		t.Error("anchors alias nodes")
	}
	if dom.InnerHTML(a) != dom.InnerHTML(b) {
		t.Errorf("anchors differ: %q vs %q", dom.InnerHTML(a), dom.InnerHTML(b))
	}
}

func TestPatchWithoutCloneMovesNodes(t *testing.T) {
	doc, anchor := mount(t, "")
	update := parse(t, "<p>x</p>")
	p := update.FirstChild

	Patch(doc, anchor, update, false)

	if anchor.FirstChild != p {
		t.Error("without cloning the updated node itself should be inserted")
	}
	if update.FirstChild != nil {
		t.Error("moved node still attached to the update")
	}
}
