package model

import (
	"strings"

	"github.com/google/uuid"
)

// Model is the root namespace. Relationships and diagrams are kept in flat
// lists in document order; their Namespace points at the owning element.
type Model struct {
	Element
	Owned     []Entity
	Relations []Entity
	Diagrams  []*Diagram

	byID      map[ID]Entity
	nameIndex map[string][]ID
}

// New creates an empty model named name.
func New(name string) *Model {
	m := &Model{
		byID:      make(map[ID]Entity),
		nameIndex: make(map[string][]ID),
	}
	m.Name = name
	m.ID = m.stableID(KindModel, name)
	m.Visibility = VisibilityPublic
	m.byID[m.ID] = m
	return m
}

// stableID derives a UUIDv5 from the model name and the element key when a
// key is present and falls back to a random UUID.
func (m *Model) stableID(kind Kind, key string) ID {
	if key == "" {
		return ID(uuid.NewString())
	}
	seed := m.Name + "/" + string(kind) + "/" + key
	return ID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed)).String())
}

// register assigns an ID when missing and indexes e.
func (m *Model) register(e Entity) {
	b := e.Base()
	if b.ID == "" {
		b.ID = m.stableID(e.Kind(), b.Key)
	}
	if b.Visibility == "" {
		b.Visibility = VisibilityPublic
	}
	m.byID[b.ID] = e
	if b.Name != "" {
		m.nameIndex[b.Name] = append(m.nameIndex[b.Name], b.ID)
		if ns := b.Namespace; ns != nil && ns != Entity(m) {
			q := QualifiedName(e)
			if q != b.Name {
				m.nameIndex[q] = append(m.nameIndex[q], b.ID)
			}
		}
	}
}

// QualifiedName joins the names of e and its namespaces below the model
// with "::".
func QualifiedName(e Entity) string {
	parts := []string{e.Base().Name}
	for ns := e.Base().Namespace; ns != nil; ns = ns.Base().Namespace {
		if _, ok := ns.(*Model); ok {
			break
		}
		parts = append([]string{ns.Base().Name}, parts...)
	}
	return strings.Join(parts, "::")
}

// Lookup returns the entity with the given ID.
func (m *Model) Lookup(id ID) (Entity, bool) {
	e, ok := m.byID[id]
	return e, ok
}

// FindByName returns every entity indexed under name. Both simple and
// "::"-qualified names are indexed.
func (m *Model) FindByName(name string) []Entity {
	ids := m.nameIndex[name]
	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := m.byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Elements lists every entity below the model in document order: owned
// elements with their features, then relationships, then diagrams.
func (m *Model) Elements() []Entity {
	var out []Entity
	m.eachOwned(func(e Entity) {
		out = append(out, e)
		out = append(out, children(e)...)
	})
	for _, r := range m.Relations {
		out = append(out, r)
		out = append(out, children(r)...)
	}
	for _, d := range m.Diagrams {
		out = append(out, d)
	}
	return out
}

// Len is the number of indexed entities, the model included.
func (m *Model) Len() int { return len(m.byID) }

// Reindex rebuilds the lookup tables from the containment lists. Call it
// after mutating the model by hand.
func (m *Model) Reindex() {
	m.byID = map[ID]Entity{m.ID: m}
	m.nameIndex = make(map[string][]ID)
	var visit func(owned []Entity)
	visit = func(owned []Entity) {
		for _, e := range owned {
			m.register(e)
			for _, child := range children(e) {
				m.register(child)
			}
			if p, ok := e.(*Package); ok {
				visit(p.Owned)
			}
		}
	}
	visit(m.Owned)
	for _, r := range m.Relations {
		m.register(r)
		for _, child := range children(r) {
			m.register(child)
		}
	}
	for _, d := range m.Diagrams {
		m.register(d)
	}
}

// children lists the features nested in e that are not themselves
// namespaces: attributes, operations, parameters, literals, ends and
// extension points.
func children(e Entity) []Entity {
	var out []Entity
	addOps := func(ops []*Operation) {
		for _, op := range ops {
			out = append(out, op)
			for _, p := range op.Parameters {
				out = append(out, p)
			}
		}
	}
	switch v := e.(type) {
	case *Class:
		for _, a := range v.Attributes {
			out = append(out, a)
		}
		addOps(v.Operations)
	case *AssociationClass:
		for _, a := range v.Attributes {
			out = append(out, a)
		}
		addOps(v.Operations)
		for _, end := range v.Ends {
			out = append(out, end)
		}
	case *Interface:
		addOps(v.Operations)
	case *Enumeration:
		for _, l := range v.Literals {
			out = append(out, l)
		}
		addOps(v.Operations)
	case *UseCase:
		for _, ep := range v.ExtensionPoints {
			out = append(out, ep)
		}
	case *Association:
		for _, end := range v.Ends {
			out = append(out, end)
		}
	}
	return out
}

// Packages returns the packages owned directly by ns (the model or a package).
func Packages(ns Entity) []*Package {
	var owned []Entity
	switch v := ns.(type) {
	case *Model:
		owned = v.Owned
	case *Package:
		owned = v.Owned
	}
	var out []*Package
	for _, e := range owned {
		if p, ok := e.(*Package); ok {
			out = append(out, p)
		}
	}
	return out
}

// DiagramsOf returns the diagrams of kind k in model order.
func (m *Model) DiagramsOf(k DiagramKind) []*Diagram {
	var out []*Diagram
	for _, d := range m.Diagrams {
		if d.Type == k {
			out = append(out, d)
		}
	}
	return out
}

// OwnedDiagrams returns the class diagrams whose namespace is ns.
func (m *Model) OwnedDiagrams(ns Entity, k DiagramKind) []*Diagram {
	var out []*Diagram
	for _, d := range m.Diagrams {
		if d.Type == k && d.Namespace == ns {
			out = append(out, d)
		}
	}
	return out
}

// MixedDiagrams returns the sequence, collaboration and activity diagrams
// whose owner walk ends at ns.
func (m *Model) MixedDiagrams(ns Entity) []*Diagram {
	var out []*Diagram
	for _, d := range m.Diagrams {
		if d.Type.Mixed() && OwningPackage(d, m) == ns {
			out = append(out, d)
		}
	}
	return out
}

// OwningPackage walks the namespace chain of e and stops at the first
// package or at the model. Elements with a broken chain belong to root.
func OwningPackage(e Entity, root *Model) Entity {
	for ns := e.Base().Namespace; ns != nil; ns = ns.Base().Namespace {
		switch ns.(type) {
		case *Package, *Model:
			return ns
		}
	}
	return root
}

// Facade is the read-only relationship query surface the renderers use.
type Facade interface {
	Lookup(id ID) (Entity, bool)
	Generalizations(e Entity) []*Generalization
	Specializations(e Entity) []*Generalization
	AssociationEnds(e Entity) []*AssociationEnd
	ClientDependencies(e Entity) []*Dependency
	SupplierDependencies(e Entity) []*Dependency
	Extends(uc Entity) []*Extend
	Includes(uc Entity) []*Include
	StateCharts(e Entity) []*Diagram
}

var _ Facade = (*Model)(nil)

// Generalizations returns the generalizations in which e is the child.
func (m *Model) Generalizations(e Entity) []*Generalization {
	var out []*Generalization
	for _, r := range m.Relations {
		if g, ok := r.(*Generalization); ok && same(g.Child, e) {
			out = append(out, g)
		}
	}
	return out
}

// Specializations returns the generalizations in which e is the parent.
func (m *Model) Specializations(e Entity) []*Generalization {
	var out []*Generalization
	for _, r := range m.Relations {
		if g, ok := r.(*Generalization); ok && same(g.Parent, e) {
			out = append(out, g)
		}
	}
	return out
}

// AssociationEnds returns the association ends typed by e.
func (m *Model) AssociationEnds(e Entity) []*AssociationEnd {
	var out []*AssociationEnd
	collect := func(a Associative) {
		for _, end := range a.Connections() {
			if same(end.Type, e) {
				out = append(out, end)
			}
		}
	}
	for _, r := range m.Relations {
		if a, ok := r.(*Association); ok {
			collect(a)
		}
	}
	m.eachOwned(func(o Entity) {
		if ac, ok := o.(*AssociationClass); ok {
			collect(ac)
		}
	})
	return out
}

func (m *Model) ClientDependencies(e Entity) []*Dependency {
	var out []*Dependency
	for _, r := range m.Relations {
		if d, ok := r.(*Dependency); ok && contains(d.Clients, e) {
			out = append(out, d)
		}
	}
	return out
}

func (m *Model) SupplierDependencies(e Entity) []*Dependency {
	var out []*Dependency
	for _, r := range m.Relations {
		if d, ok := r.(*Dependency); ok && contains(d.Suppliers, e) {
			out = append(out, d)
		}
	}
	return out
}

// Extends returns the extend relationships in which uc is the extension.
func (m *Model) Extends(uc Entity) []*Extend {
	var out []*Extend
	for _, r := range m.Relations {
		if x, ok := r.(*Extend); ok && same(x.Extension, uc) {
			out = append(out, x)
		}
	}
	return out
}

// Includes returns the include relationships whose base is uc.
func (m *Model) Includes(uc Entity) []*Include {
	var out []*Include
	for _, r := range m.Relations {
		if in, ok := r.(*Include); ok && same(in.BaseCase, uc) {
			out = append(out, in)
		}
	}
	return out
}

// StateCharts returns the state chart diagrams owned by e.
func (m *Model) StateCharts(e Entity) []*Diagram {
	var out []*Diagram
	for _, d := range m.Diagrams {
		if d.Type == DiagramStateChart && same(d.Namespace, e) {
			out = append(out, d)
		}
	}
	return out
}

func (m *Model) eachOwned(fn func(Entity)) {
	var visit func([]Entity)
	visit = func(owned []Entity) {
		for _, e := range owned {
			fn(e)
			if p, ok := e.(*Package); ok {
				visit(p.Owned)
			}
		}
	}
	visit(m.Owned)
}

// same compares entities by identity. An association class is reachable
// both as itself and through its embedded class.
func same(a, b Entity) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Base() == b.Base()
}

func contains(list []Entity, e Entity) bool {
	for _, x := range list {
		if same(x, e) {
			return true
		}
	}
	return false
}
