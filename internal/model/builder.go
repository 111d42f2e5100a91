package model

import "fmt"

// Attach places e in owner (the model or a package) and indexes it along
// with its nested features. Set Key or ID on e beforehand to get a stable
// identifier.
func (m *Model) Attach(owner Entity, e Entity) error {
	if owner == nil {
		owner = m
	}
	switch o := owner.(type) {
	case *Model:
		o.Owned = append(o.Owned, e)
	case *Package:
		o.Owned = append(o.Owned, e)
	default:
		return fmt.Errorf("cannot attach %s to %s", e.Kind(), owner.Kind())
	}
	e.Base().Namespace = owner
	m.register(e)
	for _, child := range children(e) {
		if child.Base().Namespace == nil {
			child.Base().Namespace = e
		}
		m.register(child)
	}
	return nil
}

// Relate records a relationship element owned by the model.
func (m *Model) Relate(r Entity) {
	if r.Base().Namespace == nil {
		r.Base().Namespace = m
	}
	m.Relations = append(m.Relations, r)
	m.register(r)
	for _, child := range children(r) {
		m.register(child)
	}
}

// AddDiagram records d under owner. State chart diagrams are owned by a
// class; every other kind by the model or a package.
func (m *Model) AddDiagram(owner Entity, d *Diagram) {
	if owner == nil {
		owner = m
	}
	d.Namespace = owner
	m.Diagrams = append(m.Diagrams, d)
	m.register(d)
}

func (m *Model) must(owner, e Entity) {
	if err := m.Attach(owner, e); err != nil {
		panic(err)
	}
}

func (m *Model) NewPackage(owner Entity, name string) *Package {
	p := &Package{Element: Element{Name: name}}
	m.must(owner, p)
	return p
}

func (m *Model) NewClass(owner Entity, name string) *Class {
	c := &Class{Element: Element{Name: name}}
	m.must(owner, c)
	return c
}

func (m *Model) NewAssociationClass(owner Entity, name string) *AssociationClass {
	ac := &AssociationClass{Class: Class{Element: Element{Name: name}}}
	m.must(owner, ac)
	return ac
}

func (m *Model) NewInterface(owner Entity, name string) *Interface {
	i := &Interface{Element: Element{Name: name}}
	m.must(owner, i)
	return i
}

func (m *Model) NewEnumeration(owner Entity, name string) *Enumeration {
	e := &Enumeration{Element: Element{Name: name}}
	m.must(owner, e)
	return e
}

func (m *Model) NewDataType(owner Entity, name string) *DataType {
	d := &DataType{Element: Element{Name: name}}
	m.must(owner, d)
	return d
}

func (m *Model) NewActor(owner Entity, name string) *Actor {
	a := &Actor{Element: Element{Name: name}}
	m.must(owner, a)
	return a
}

func (m *Model) NewUseCase(owner Entity, name string) *UseCase {
	u := &UseCase{Element: Element{Name: name}}
	m.must(owner, u)
	return u
}

func (m *Model) NewDiagram(owner Entity, kind DiagramKind, name string, members ...Entity) *Diagram {
	d := &Diagram{Element: Element{Name: name}, Type: kind, Members: members}
	m.AddDiagram(owner, d)
	return d
}

// NewAttribute adds an attribute to a class or association class.
func (m *Model) NewAttribute(owner Entity, name string, typ Entity) *Attribute {
	c, ok := AsClass(owner)
	if !ok {
		panic(fmt.Sprintf("attributes belong to classes, not %s", owner.Kind()))
	}
	a := &Attribute{Element: Element{Name: name, Namespace: owner}, Type: typ}
	c.Attributes = append(c.Attributes, a)
	m.register(a)
	return a
}

// NewOperation adds an operation to a class, interface or enumeration.
func (m *Model) NewOperation(owner Entity, name string) *Operation {
	op := &Operation{Element: Element{Name: name, Namespace: owner}}
	switch v := owner.(type) {
	case *Class:
		v.Operations = append(v.Operations, op)
	case *AssociationClass:
		v.Operations = append(v.Operations, op)
	case *Interface:
		v.Operations = append(v.Operations, op)
	case *Enumeration:
		v.Operations = append(v.Operations, op)
	default:
		panic(fmt.Sprintf("operations belong to classifiers, not %s", owner.Kind()))
	}
	m.register(op)
	return op
}

func (m *Model) NewParameter(op *Operation, name string, dir Direction, typ Entity) *Parameter {
	p := &Parameter{Element: Element{Name: name, Namespace: op}, Direction: dir, Type: typ}
	op.Parameters = append(op.Parameters, p)
	m.register(p)
	return p
}

func (m *Model) NewLiteral(e *Enumeration, name string) *Literal {
	l := &Literal{Element: Element{Name: name, Namespace: e}}
	e.Literals = append(e.Literals, l)
	m.register(l)
	return l
}

// NewAssociation connects the given types with navigable ends.
func (m *Model) NewAssociation(name string, types ...Entity) *Association {
	a := &Association{Element: Element{Name: name}}
	for _, t := range types {
		a.Ends = append(a.Ends, &AssociationEnd{
			Element:     Element{Namespace: a},
			Association: a,
			Type:        t,
			Aggregation: AggregationNone,
			Navigable:   true,
		})
	}
	m.Relate(a)
	return a
}

// Connect adds navigable ends typed by types to an association class.
func (m *Model) Connect(ac *AssociationClass, types ...Entity) {
	for _, t := range types {
		end := &AssociationEnd{
			Element:     Element{Namespace: ac},
			Association: ac,
			Type:        t,
			Aggregation: AggregationNone,
			Navigable:   true,
		}
		ac.Ends = append(ac.Ends, end)
		m.register(end)
	}
}

func (m *Model) NewGeneralization(child, parent Entity, discriminator string) *Generalization {
	g := &Generalization{Child: child, Parent: parent, Discriminator: discriminator}
	m.Relate(g)
	return g
}

func (m *Model) NewDependency(name string, clients, suppliers []Entity) *Dependency {
	d := &Dependency{Element: Element{Name: name}, Clients: clients, Suppliers: suppliers}
	m.Relate(d)
	return d
}

func (m *Model) NewInclude(base, addition Entity) *Include {
	in := &Include{BaseCase: base, Addition: addition}
	m.Relate(in)
	return in
}

func (m *Model) NewExtend(base, extension Entity, condition string) *Extend {
	x := &Extend{BaseCase: base, Extension: extension, Condition: condition}
	m.Relate(x)
	return x
}

func (m *Model) NewExtensionPoint(uc *UseCase, name, location string) *ExtensionPoint {
	ep := &ExtensionPoint{Element: Element{Name: name, Namespace: uc}, UseCase: uc, Location: location}
	uc.ExtensionPoints = append(uc.ExtensionPoints, ep)
	m.register(ep)
	return ep
}
