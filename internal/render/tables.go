package render

import (
	"strings"

	"umlpdf/internal/doctext"
	"umlpdf/internal/document"
	"umlpdf/internal/model"
)

const blockTitleSize = 16

var (
	summaryWidths  = []float64{1, 2}
	propertyWidths = []float64{1, 3}
	featureWidths  = []float64{2, 3}
	relationWidths = []float64{2, 6}
)

// block appends an untitled subsection to s holding a bold title and
// whatever fill adds. Blocks stay out of the outline; only titled sections
// and member details are bookmarked. A block left without content is
// removed again, so empty blocks never reach the document. A panic inside
// fill keeps what was already added.
func (ac *AssemblyContext) block(s *document.Section, e model.Entity, title string, fill func(b *document.Section)) {
	b := s.AddSubsection("")
	b.Add(&document.Paragraph{Text: title, Size: blockTitleSize, Style: document.Bold, SpaceBefore: 6})
	defer func() {
		if !hasContent(b) {
			s.Remove(b)
		}
	}()
	ac.guard(e, title, func() { fill(b) })
}

func hasContent(b *document.Section) bool {
	for _, f := range b.Content[1:] {
		if t, ok := f.(*document.Table); ok && t.DataRows() == 0 {
			continue
		}
		return true
	}
	return false
}

// tableBlock is a block holding a single table with a header row.
func (ac *AssemblyContext) tableBlock(s *document.Section, e model.Entity, title string, widths []float64, header []string, fill func(t *document.Table)) {
	ac.block(s, e, title, func(b *document.Section) {
		t := document.NewTable(widths, header...)
		b.Add(t)
		fill(t)
	})
}

// define returns the label that declares the anchor of e. An entity shown
// a second time gets a plain link to its first occurrence.
func (ac *AssemblyContext) define(e model.Entity) *document.Label {
	var l *document.Label
	if ac.Refs.Declared(ac.Refs.AnchorFor(e)) {
		l = ac.Refs.ReferenceTo(e).Label()
	} else {
		l = ac.Refs.LabelWithAnchor(e).Label()
	}
	l.Style = document.Bold
	l.Size = blockTitleSize
	return l
}

func (ac *AssemblyContext) link(e model.Entity) document.Cell {
	return ac.Refs.ReferenceTo(e).Cell()
}

// details opens the untitled detail subsection of member e under s, headed
// by its defining label.
func (ac *AssemblyContext) details(s *document.Section, e model.Entity) *document.Section {
	d := s.AddSubsection("")
	d.BookmarkTitle = model.DisplayName(e)
	d.Add(ac.define(e))
	return d
}

func documentation(e model.Entity) document.Cell {
	return document.Text(doctext.Plain(e.Base().Documentation()))
}

func row(property string, value document.Cell) []document.Cell {
	return []document.Cell{document.Text(property), value}
}

// summary lists members with a linked name and their documentation.
func (ac *AssemblyContext) summary(s *document.Section, d *model.Diagram, members []model.Entity) {
	sub := s.AddSubsection("Summary")
	t := document.NewTable(summaryWidths, "Name", "Documentation")
	sub.Add(t)
	ac.guard(d, "summary", func() {
		for _, m := range members {
			t.AddRow(ac.link(m), documentation(m))
		}
	})
}

// modifiers lists the set flags of e in a fixed order: abstract, leaf,
// root, derived and, for classes, active.
func modifiers(e model.Entity) string {
	b := e.Base()
	var out []string
	if b.Abstract {
		out = append(out, "abstract")
	}
	if b.Leaf {
		out = append(out, "leaf")
	}
	if b.Root {
		out = append(out, "root")
	}
	if b.Derived() {
		out = append(out, "derived")
	}
	if c, ok := model.AsClass(e); ok && c.Active {
		out = append(out, "active")
	}
	return strings.Join(out, ", ")
}

func visibility(e model.Entity) string {
	if v := e.Base().Visibility; v != "" {
		return string(v)
	}
	return string(model.VisibilityPublic)
}

// properties is the Modifiers/Visibility table. Enumerations list no
// modifiers.
func (ac *AssemblyContext) properties(s *document.Section, e model.Entity) {
	ac.tableBlock(s, e, "Properties", propertyWidths, []string{"Property", "Value"}, func(t *document.Table) {
		if _, enum := e.(*model.Enumeration); !enum {
			if mods := modifiers(e); mods != "" {
				t.AddRow(row("Modifiers", document.Text(mods))...)
			}
		}
		t.AddRow(row("Visibility", document.Text(visibility(e)))...)
	})
}

// header is the shaded first row of a relationship table:
// "<name> : <Kind>", with the unnamed placeholder when needed.
func header(t *document.Table, e model.Entity, name string) {
	if strings.TrimSpace(name) == "" {
		name = model.UnnamedLabel(e)
	}
	t.HeaderRow(name + " : " + e.Kind().Label())
}

func yesNo(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// participant adds a "<property> | link" row when e passes accept.
// Anything else skips the row only.
func (ac *AssemblyContext) participant(t *document.Table, property string, e model.Entity, accept func(model.Entity) bool) {
	if e == nil || !accept(e) {
		return
	}
	t.AddRow(row(property, ac.link(e))...)
}
