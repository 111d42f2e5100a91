// Package render turns model entities into document sections. Each
// renderer adds to a parent section or, without one, opens a numbered
// chapter.
package render

import (
	"umlpdf/internal/document"
	"umlpdf/internal/model"
)

// Renderer builds the section of one entity. With a nil parent the result
// is a new chapter titled with the entity's display name, otherwise a
// subsection of parent.
type Renderer interface {
	Render(ac *AssemblyContext, e model.Entity, parent *document.Section) *document.Section
}

type RendererFunc func(ac *AssemblyContext, e model.Entity, parent *document.Section) *document.Section

func (f RendererFunc) Render(ac *AssemblyContext, e model.Entity, parent *document.Section) *document.Section {
	return f(ac, e, parent)
}

// For picks the renderer of e. Entities that are never rendered on their
// own get nil.
func For(e model.Entity) Renderer {
	switch v := e.(type) {
	case *model.Diagram:
		switch v.Type {
		case model.DiagramClass:
			return classDiagram{}
		case model.DiagramUseCase:
			return useCaseDiagram{}
		}
		return imageDiagram{}
	case *model.Package:
		return packageRenderer{}
	}
	return nil
}

// Render dispatches e to its renderer. A panic is recorded as a render
// failure and gives whatever was built so far.
func Render(ac *AssemblyContext, e model.Entity, parent *document.Section) *document.Section {
	r := For(e)
	if r == nil || ac.err != nil {
		return nil
	}
	var s *document.Section
	ac.guard(e, "section", func() { s = r.Render(ac, e, parent) })
	return s
}

// imageDiagram covers sequence, collaboration, activity, state chart and
// deployment diagrams: a titled section with the image.
type imageDiagram struct{}

func (imageDiagram) Render(ac *AssemblyContext, e model.Entity, parent *document.Section) *document.Section {
	d, ok := e.(*model.Diagram)
	if !ok || !ac.checkpoint(d) {
		return nil
	}
	s := ac.open(parent, model.DisplayName(d))
	ac.embed(s, d)
	return s
}

type packageRenderer struct{}

// Render writes the class diagrams of the package, each followed by a page
// break, then its other diagrams and its subpackages.
func (packageRenderer) Render(ac *AssemblyContext, e model.Entity, parent *document.Section) *document.Section {
	p, ok := e.(*model.Package)
	if !ok {
		return nil
	}
	s := ac.open(parent, PackageTitle(p))
	fillPackage(ac, p, s)
	return s
}

// PackageDraft builds the chapter of a top-level package without numbering
// it. The caller attaches it with Attach once it has content.
func PackageDraft(ac *AssemblyContext, p *model.Package) *document.Section {
	draft := document.NewChapter(PackageTitle(p), 0)
	if ac.err != nil {
		return draft
	}
	ac.guard(p, "section", func() { fillPackage(ac, p, draft) })
	return draft
}

func fillPackage(ac *AssemblyContext, p *model.Package, s *document.Section) {
	for _, x := range ac.packageContents(p) {
		if ac.err != nil {
			break
		}
		sub := Render(ac, x, s)
		if d, ok := x.(*model.Diagram); ok && d.Type == model.DiagramClass && sub != nil {
			s.Add(document.PageBreak{})
		}
	}
}

// PackageTitle is the section title of a package.
func PackageTitle(p *model.Package) string {
	return "Package " + model.DisplayName(p)
}

func (ac *AssemblyContext) packageContents(p *model.Package) []model.Entity {
	if ac.Contents != nil {
		return ac.Contents(p)
	}
	var out []model.Entity
	for _, d := range ac.Model.OwnedDiagrams(p, model.DiagramClass) {
		out = append(out, d)
	}
	for _, d := range ac.Model.MixedDiagrams(p) {
		out = append(out, d)
	}
	for _, sub := range model.Packages(p) {
		out = append(out, sub)
	}
	return out
}
