package xref

import (
	"fmt"
	"strings"

	"umlpdf/internal/document"
	"umlpdf/internal/model"
)

// Anchor names a link target inside the produced document.
type Anchor string

// Ref is one occurrence of an entity in the document: its display label and
// the anchor it either defines or points at.
type Ref struct {
	Text    string
	Icon    string
	Anchor  Anchor
	Defines bool
	Kind    model.Kind
}

// Label turns r into a label fragment.
func (r Ref) Label() *document.Label {
	return &document.Label{Icon: r.Icon, Text: r.Text, Anchor: string(r.Anchor), Defines: r.Defines}
}

// Cell turns r into a linked table cell.
func (r Ref) Cell() document.Cell {
	return document.Cell{Icon: r.Icon, Text: r.Text, Link: string(r.Anchor)}
}

type Stats struct {
	Declared   int `json:"declared"`
	Referenced int `json:"referenced"`
	Unresolved int `json:"unresolved"`
}

// Resolver hands out anchors for entities and tracks which of them the
// document actually declares. One resolver serves one generation run.
type Resolver struct {
	declared   map[Anchor]bool
	referenced map[Anchor]Ref
	order      []Anchor
}

func New() *Resolver {
	return &Resolver{
		declared:   make(map[Anchor]bool),
		referenced: make(map[Anchor]Ref),
	}
}

// AnchorFor returns <kind>_<id>. The id is assigned at load time, so two
// entities sharing a name never share an anchor.
func AnchorFor(e model.Entity) Anchor {
	if e == nil {
		return ""
	}
	id := string(e.Base().ID)
	if id == "" {
		id = fmt.Sprintf("%p", e)
	}
	return Anchor(strings.ToLower(string(e.Kind())) + "_" + id)
}

func (r *Resolver) AnchorFor(e model.Entity) Anchor { return AnchorFor(e) }

func refTo(e model.Entity) Ref {
	return Ref{
		Text:   model.DisplayName(e),
		Icon:   model.Icon(e),
		Anchor: AnchorFor(e),
		Kind:   e.Kind(),
	}
}

// ReferenceTo returns a link to e. The target may be declared later.
func (r *Resolver) ReferenceTo(e model.Entity) Ref {
	ref := refTo(e)
	if _, seen := r.referenced[ref.Anchor]; !seen {
		r.referenced[ref.Anchor] = ref
		r.order = append(r.order, ref.Anchor)
	}
	return ref
}

// LabelWithAnchor returns the defining label of e and records the anchor as
// declared.
func (r *Resolver) LabelWithAnchor(e model.Entity) Ref {
	ref := refTo(e)
	ref.Defines = true
	r.Declare(ref.Anchor)
	return ref
}

// Declare records a as defined without producing a label, for sections that
// carry the anchor themselves.
func (r *Resolver) Declare(a Anchor) {
	if a != "" {
		r.declared[a] = true
	}
}

func (r *Resolver) Declared(a Anchor) bool { return r.declared[a] }

// Unresolved lists the references whose anchor was never declared, in the
// order they were first made.
func (r *Resolver) Unresolved() []Ref {
	var out []Ref
	for _, a := range r.order {
		if !r.declared[a] {
			out = append(out, r.referenced[a])
		}
	}
	return out
}

func (r *Resolver) Stats() Stats {
	return Stats{
		Declared:   len(r.declared),
		Referenced: len(r.order),
		Unresolved: len(r.Unresolved()),
	}
}
