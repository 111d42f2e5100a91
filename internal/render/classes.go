package render

import (
	"strings"

	"umlpdf/internal/document"
	"umlpdf/internal/model"
)

type classDiagram struct{}

// Render writes the diagram image, a summary of its classes, interfaces and
// enumerations, then one detail section per member.
func (classDiagram) Render(ac *AssemblyContext, e model.Entity, parent *document.Section) *document.Section {
	d, ok := e.(*model.Diagram)
	if !ok || !ac.checkpoint(d) {
		return nil
	}
	s := ac.open(parent, model.DisplayName(d))
	ac.embed(s, d)

	var members []model.Entity
	for _, m := range d.Members {
		if model.IsClassifier(m) {
			members = append(members, m)
		}
	}
	if len(members) == 0 {
		return s
	}
	ac.summary(s, d, members)
	details := s.AddSubsection("Details")
	for _, m := range members {
		if ac.err != nil {
			break
		}
		ac.classifier(details, m)
	}
	return s
}

// classifier renders the detail section of a class, association class,
// interface or enumeration.
func (ac *AssemblyContext) classifier(parent *document.Section, e model.Entity) {
	s := ac.details(parent, e)
	ac.properties(s, e)
	if c, ok := model.AsClass(e); ok {
		ac.attributes(s, e, c.Attributes)
	}
	ac.operations(s, e)
	if enum, ok := e.(*model.Enumeration); ok {
		ac.literals(s, enum)
	}
	if _, ok := model.AsClass(e); ok {
		ac.dependencies(s, e)
	}
	ac.hierarchy(s, e)
	ac.associations(s, e)
	ac.stateCharts(s, e)
}

func (ac *AssemblyContext) attributes(s *document.Section, owner model.Entity, attrs []*model.Attribute) {
	if len(attrs) == 0 {
		return
	}
	ac.tableBlock(s, owner, "Attributes", propertyWidths, []string{"Attribute", "Documentation"}, func(t *document.Table) {
		for _, a := range attrs {
			text := a.Name
			if a.Type != nil {
				text += " : " + model.DisplayName(a.Type)
			}
			t.AddRow(document.Text(text), documentation(a))
		}
	})
}

// Signature formats an operation as name(dir p : T = d, ...) : R. Only the
// first return parameter is shown.
func Signature(op *model.Operation) string {
	var params []string
	var ret *model.Parameter
	for _, p := range op.Parameters {
		if p.Direction == model.DirectionReturn {
			if ret == nil {
				ret = p
			}
			continue
		}
		var b strings.Builder
		switch p.Direction {
		case model.DirectionOut:
			b.WriteString("out ")
		case model.DirectionInOut:
			b.WriteString("inout ")
		}
		b.WriteString(p.Name)
		if p.Type != nil {
			b.WriteString(" : " + model.DisplayName(p.Type))
		}
		if p.Default != "" {
			b.WriteString(" = " + p.Default)
		}
		params = append(params, b.String())
	}
	sig := op.Name + "(" + strings.Join(params, ", ") + ")"
	if ret != nil && ret.Type != nil {
		sig += " : " + model.DisplayName(ret.Type)
	}
	return sig
}

func (ac *AssemblyContext) operations(s *document.Section, owner model.Entity) {
	ops := model.OperationsOf(owner)
	if len(ops) == 0 {
		return
	}
	ac.tableBlock(s, owner, "Operations", featureWidths, []string{"Operation", "Documentation"}, func(t *document.Table) {
		for _, op := range ops {
			cell := document.Text(Signature(op))
			if op.Abstract {
				cell.Style |= document.Italic
			}
			if op.Static {
				cell.Style |= document.Underline
			}
			t.AddRow(cell, documentation(op))
		}
	})
}

func (ac *AssemblyContext) literals(s *document.Section, enum *model.Enumeration) {
	if len(enum.Literals) == 0 {
		return
	}
	ac.tableBlock(s, enum, "Literals", featureWidths, []string{"Literal", "Documentation"}, func(t *document.Table) {
		for _, l := range enum.Literals {
			t.AddRow(document.Text(model.DisplayName(l)), documentation(l))
		}
	})
}

func classOrInterface(e model.Entity) bool {
	switch e.(type) {
	case *model.Class, *model.AssociationClass, *model.Interface:
		return true
	}
	return false
}

// dependencies lists the suppliers e depends on and the clients that use it.
func (ac *AssemblyContext) dependencies(s *document.Section, e model.Entity) {
	ac.block(s, e, "Dependencies", func(b *document.Section) {
		var suppliers, clients []model.Entity
		for _, dep := range ac.Facade.ClientDependencies(e) {
			suppliers = append(suppliers, dep.Suppliers...)
		}
		for _, dep := range ac.Facade.SupplierDependencies(e) {
			clients = append(clients, dep.Clients...)
		}
		ac.nameList(b, "Depends on", suppliers, classOrInterface)
		ac.nameList(b, "Used by", clients, classOrInterface)
	})
}

// nameList adds a captioned Name/Documentation table to b when at least one
// entity passes accept.
func (ac *AssemblyContext) nameList(b *document.Section, caption string, list []model.Entity, accept func(model.Entity) bool) {
	var rows [][]document.Cell
	for _, e := range list {
		if e != nil && accept(e) {
			rows = append(rows, []document.Cell{ac.link(e), documentation(e)})
		}
	}
	if len(rows) == 0 {
		return
	}
	t := document.NewTable(summaryWidths, "Name", "Documentation")
	for _, r := range rows {
		t.AddRow(r...)
	}
	b.Add(&document.Paragraph{Text: caption, Style: document.Bold, SpaceBefore: 4}, t)
}

// hierarchy lists the parents and the children of e.
func (ac *AssemblyContext) hierarchy(s *document.Section, e model.Entity) {
	ac.tableBlock(s, e, "Generalizes", summaryWidths, []string{"Name", "Documentation"}, func(t *document.Table) {
		for _, g := range ac.Facade.Generalizations(e) {
			if g.Parent != nil && model.IsClassifier(g.Parent) {
				t.AddRow(ac.link(g.Parent), documentation(g.Parent))
			}
		}
	})
	ac.tableBlock(s, e, "Specializes", summaryWidths, []string{"Name", "Documentation"}, func(t *document.Table) {
		for _, g := range ac.Facade.Specializations(e) {
			if g.Child != nil && model.IsClassifier(g.Child) {
				t.AddRow(ac.link(g.Child), documentation(g.Child))
			}
		}
	})
}

// associations renders one table per association end typed by e.
func (ac *AssemblyContext) associations(s *document.Section, e model.Entity) {
	ac.block(s, e, "Associations", func(b *document.Section) {
		for _, end := range ac.Facade.AssociationEnds(e) {
			if end.Association == nil {
				continue
			}
			b.Add(ac.associationTable(end.Association, model.IsClassifier))
		}
	})
}

func associationName(a model.Associative) string {
	name := strings.TrimSpace(a.Base().Name)
	if name == "" {
		name = model.UnnamedLabel(a)
	}
	return name
}

// associationTable describes a and every connection end whose type passes
// accept.
func (ac *AssemblyContext) associationTable(a model.Associative, accept func(model.Entity) bool) *document.Table {
	t := &document.Table{Widths: relationWidths}
	t.HeaderRow(associationName(a) + " : " + model.KindAssociation.Label())
	t.AddRow(row("Modifiers", document.Text(modifiers(a)))...)
	for _, end := range a.Connections() {
		if end.Type == nil || !accept(end.Type) {
			continue
		}
		t.AddRow(document.Cell{Nested: ac.endTable(end), Span: 2})
	}
	if _, ok := a.(*model.AssociationClass); ok {
		t.AddRow(row("Association Class", ac.link(a))...)
	}
	return t
}

func (ac *AssemblyContext) endTable(end *model.AssociationEnd) *document.Table {
	t := &document.Table{Widths: propertyWidths}
	typ := ac.link(end.Type)
	typ.Span = 2
	typ.Style = document.Bold
	t.AddRow(typ)
	t.AddRow(row("Association End", document.Text(end.Name))...)
	if end.Multiplicity != "" {
		t.AddRow(row("Multiplicity", document.Text(end.Multiplicity))...)
	}
	t.AddRow(row("Visibility", document.Text(visibility(end)))...)
	if end.Aggregation != "" && end.Aggregation != model.AggregationNone {
		t.AddRow(row("Aggregation", document.Text(string(end.Aggregation)))...)
	}
	if end.Navigable {
		t.AddRow(row("Navigable", document.Text("true"))...)
	}
	t.AddRow(row("Documentation", documentation(end))...)
	return t
}

// stateCharts embeds the state chart diagrams owned by e that have an
// image.
func (ac *AssemblyContext) stateCharts(s *document.Section, e model.Entity) {
	if !ac.Options.Diagrams {
		return
	}
	ac.block(s, e, "State Chart Diagrams", func(b *document.Section) {
		for _, d := range ac.Facade.StateCharts(e) {
			r := ac.raster(d)
			if r == nil {
				continue
			}
			b.Add(
				&document.Paragraph{Text: model.DisplayName(d), Style: document.Bold, SpaceBefore: 4},
				document.FitImage(r, ac.BoxWidth, ac.BoxHeight),
			)
		}
	})
}
