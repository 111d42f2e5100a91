package render

import (
	"umlpdf/internal/document"
	"umlpdf/internal/model"
)

// UseCaseChapterTitle heads the chapter that collects use case diagrams.
const UseCaseChapterTitle = "Use Cases"

// UseCases renders the given use case diagrams into one chapter. The
// chapter is numbered and attached only when a diagram produced content.
func UseCases(ac *AssemblyContext, diagrams []*model.Diagram) *document.Section {
	draft := document.NewChapter(UseCaseChapterTitle, 0)
	for _, d := range diagrams {
		if ac.err != nil {
			break
		}
		useCaseDiagram{}.Render(ac, d, draft)
	}
	if draft.Empty() {
		return nil
	}
	ac.Attach(draft)
	return draft
}

type useCaseDiagram struct{}

// Render writes the diagram image, a summary listing actors before use
// cases, and a detail section with the relationships of each.
func (useCaseDiagram) Render(ac *AssemblyContext, e model.Entity, parent *document.Section) *document.Section {
	d, ok := e.(*model.Diagram)
	if !ok || !ac.checkpoint(d) {
		return nil
	}
	s := ac.open(parent, model.DisplayName(d))
	ac.embed(s, d)

	var actors, cases []model.Entity
	for _, m := range d.Members {
		switch m.(type) {
		case *model.Actor:
			actors = append(actors, m)
		case *model.UseCase:
			cases = append(cases, m)
		}
	}
	members := append(actors, cases...)
	if len(members) > 0 {
		ac.summary(s, d, members)
		details := s.AddSubsection("Details")
		for _, m := range members {
			if ac.err != nil {
				break
			}
			sub := ac.details(details, m)
			ac.properties(sub, m)
			ac.relationships(sub, m)
		}
	}
	s.Add(document.PageBreak{})
	return s
}

func isUseCase(e model.Entity) bool {
	_, ok := e.(*model.UseCase)
	return ok
}

// relationships lists every relationship an actor or use case takes part
// in, one table each.
func (ac *AssemblyContext) relationships(s *document.Section, e model.Entity) {
	ac.block(s, e, "Relationships", func(b *document.Section) {
		for _, r := range ac.relationsOf(e) {
			ac.guard(r, "relationship", func() {
				t := &document.Table{Widths: relationWidths}
				b.Add(t)
				ac.relationship(t, r)
			})
		}
	})
}

// relationsOf collects the relationships of an actor or a use case. Actors
// only take part in associations and generalizations.
func (ac *AssemblyContext) relationsOf(e model.Entity) []model.Entity {
	var rels []model.Entity
	for _, end := range ac.Facade.AssociationEnds(e) {
		if end.Association != nil {
			rels = append(rels, end.Association)
		}
	}
	for _, g := range ac.Facade.Generalizations(e) {
		rels = append(rels, g)
	}
	for _, g := range ac.Facade.Specializations(e) {
		rels = append(rels, g)
	}
	uc, ok := e.(*model.UseCase)
	if !ok {
		return rels
	}
	for _, d := range ac.Facade.ClientDependencies(e) {
		rels = append(rels, d)
	}
	for _, d := range ac.Facade.SupplierDependencies(e) {
		rels = append(rels, d)
	}
	for _, x := range ac.Facade.Extends(e) {
		rels = append(rels, x)
	}
	for _, ep := range uc.ExtensionPoints {
		rels = append(rels, ep)
	}
	for _, in := range ac.Facade.Includes(e) {
		rels = append(rels, in)
	}
	return rels
}

func (ac *AssemblyContext) relationship(t *document.Table, r model.Entity) {
	switch v := r.(type) {
	case model.Associative:
		header(t, v, v.Base().Name)
		t.AddRow(row("Abstract", document.Text(yesNo(v.Base().Abstract)))...)
		t.AddRow(row("Leaf", document.Text(yesNo(v.Base().Leaf)))...)
		t.AddRow(row("Root", document.Text(yesNo(v.Base().Root)))...)
		for _, end := range v.Connections() {
			if end.Type == nil || !model.IsUseCaseParticipant(end.Type) {
				continue
			}
			t.AddRow(document.Cell{Nested: ac.endTable(end), Span: 2})
		}
	case *model.Generalization:
		header(t, v, v.Discriminator)
		ac.participant(t, "Parent", v.Parent, model.IsUseCaseParticipant)
		ac.participant(t, "Child", v.Child, model.IsUseCaseParticipant)
		t.AddRow(row("Documentation", documentation(v))...)
	case *model.Dependency:
		header(t, v, v.Name)
		for _, sup := range v.Suppliers {
			ac.participant(t, "Supplier", sup, model.IsUseCaseParticipant)
		}
		for _, cl := range v.Clients {
			ac.participant(t, "Client", cl, model.IsUseCaseParticipant)
		}
		t.AddRow(row("Documentation", documentation(v))...)
	case *model.Extend:
		header(t, v, v.Name)
		ac.participant(t, "Base Use Case", v.BaseCase, isUseCase)
		ac.participant(t, "Extension", v.Extension, isUseCase)
		t.AddRow(row("Condition", document.Text(v.Condition))...)
		t.AddRow(row("Documentation", documentation(v))...)
	case *model.ExtensionPoint:
		header(t, v, v.Name)
		ac.participant(t, "Use Case", v.UseCase, isUseCase)
		t.AddRow(row("Location", document.Text(v.Location))...)
		t.AddRow(row("Documentation", documentation(v))...)
	case *model.Include:
		header(t, v, v.Name)
		ac.participant(t, "Base Use Case", v.BaseCase, isUseCase)
		ac.participant(t, "Included Use Case", v.Addition, isUseCase)
		t.AddRow(row("Documentation", documentation(v))...)
	}
}
