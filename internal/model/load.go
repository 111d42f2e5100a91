package model

import (
	"fmt"
	"strings"
)

type LoadOptions struct {
	// Strict fails the load when any reference stays unresolved.
	Strict bool
}

// LoadReport describes how references were bound during a load.
type LoadReport struct {
	Elements   int
	Stages     []StageResult
	Unresolved []Reference
}

type loader struct {
	model *Model
	byKey map[string]Entity
	ids   map[ID]string
	refs  []*Reference
}

func (l *loader) pendingCount() int {
	n := 0
	for _, r := range l.refs {
		if !r.done {
			n++
		}
	}
	return n
}

func (l *loader) ref(from Entity, field, target string, typed bool, accept func(Entity) bool, bind func(Entity)) {
	target = strings.TrimSpace(target)
	if target == "" {
		return
	}
	l.refs = append(l.refs, &Reference{
		From:   DisplayName(from),
		Field:  field,
		Target: target,
		typed:  typed,
		accept: accept,
		bind:   bind,
	})
}

// LoadFile reads, validates and builds the model stored at path.
func LoadFile(path string, opts LoadOptions) (*Model, *LoadReport, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, nil, err
	}
	return Build(doc, opts)
}

// Build turns a decoded document into a Model. Elements are created first,
// then every string reference is bound through the default resolver chain.
func Build(doc *Document, opts LoadOptions) (*Model, *LoadReport, error) {
	if doc == nil {
		return nil, nil, fmt.Errorf("model document is nil")
	}
	m := New(doc.Name)
	if doc.Documentation != "" {
		m.SetTag(TagDocumentation, doc.Documentation)
	}
	l := &loader{model: m, byKey: make(map[string]Entity), ids: make(map[ID]string)}

	for i := range doc.Elements {
		if err := l.element(m, &doc.Elements[i]); err != nil {
			return nil, nil, err
		}
	}
	for i := range doc.Relations {
		if err := l.relation(&doc.Relations[i]); err != nil {
			return nil, nil, err
		}
	}
	for i := range doc.Diagrams {
		if err := l.diagram(&doc.Diagrams[i]); err != nil {
			return nil, nil, err
		}
	}

	report := &LoadReport{Stages: NewDefaultChain().Run(l)}
	for _, st := range report.Stages {
		if st.Err != nil {
			return nil, report, fmt.Errorf("failed to resolve references in stage %s: %w", st.Resolver, st.Err)
		}
	}
	for _, r := range l.refs {
		if !r.done {
			report.Unresolved = append(report.Unresolved, *r)
		}
	}
	m.Compact()
	report.Elements = m.Len()
	if opts.Strict && len(report.Unresolved) > 0 {
		first := report.Unresolved[0]
		return nil, report, fmt.Errorf("%d unresolved references (first: %s.%s -> %q, %s)",
			len(report.Unresolved), first.From, first.Field, first.Target, first.Reason)
	}
	return m, report, nil
}

func (l *loader) common(e *Element, c *Common, kind Kind) error {
	if c.ID != "" {
		if prev, dup := l.ids[ID(c.ID)]; dup {
			return fmt.Errorf("duplicate element id %q on %s %q (already used by %s)", c.ID, kind, c.Name, prev)
		}
		l.ids[ID(c.ID)] = fmt.Sprintf("%s %q", kind, c.Name)
	}
	e.ID = ID(c.ID)
	e.Key = c.Key
	e.Name = c.Name
	vis, ok := ParseVisibility(c.Visibility)
	if !ok {
		return fmt.Errorf("invalid visibility %q on %s %q", c.Visibility, kind, c.Name)
	}
	e.Visibility = vis
	e.Abstract = c.Abstract
	e.Leaf = c.Leaf
	e.Root = c.Root
	for k, v := range c.Tags {
		e.SetTag(k, v)
	}
	if c.Documentation != "" {
		e.SetTag(TagDocumentation, c.Documentation)
	}
	return nil
}

func (l *loader) remember(e Entity) error {
	key := e.Base().Key
	if key == "" {
		return nil
	}
	if _, dup := l.byKey[key]; dup {
		return fmt.Errorf("duplicate element key %q", key)
	}
	l.byKey[key] = e
	return nil
}

func acceptClassifier(e Entity) bool {
	switch e.(type) {
	case *Class, *AssociationClass, *Interface, *Enumeration, *DataType:
		return true
	}
	return false
}

func acceptAny(e Entity) bool {
	switch e.(type) {
	case *Diagram, *Model:
		return false
	}
	return true
}

func acceptUseCase(e Entity) bool {
	_, ok := e.(*UseCase)
	return ok
}

func acceptNamespace(e Entity) bool {
	switch e.(type) {
	case *Package, *Model, *Class, *AssociationClass:
		return true
	}
	return false
}

func (l *loader) element(owner Entity, d *ElementDoc) error {
	kind, ok := ParseKind(d.Kind)
	if !ok {
		return fmt.Errorf("unknown element kind %q", d.Kind)
	}
	var e Entity
	switch kind {
	case KindPackage:
		e = &Package{}
	case KindClass:
		e = &Class{Active: d.Active}
	case KindAssociationClass:
		e = &AssociationClass{Class: Class{Active: d.Active}}
	case KindInterface:
		e = &Interface{}
	case KindEnumeration:
		e = &Enumeration{}
	case KindDataType:
		e = &DataType{}
	case KindActor:
		e = &Actor{}
	case KindUseCase:
		e = &UseCase{}
	default:
		return fmt.Errorf("element kind %q cannot be owned by a namespace", d.Kind)
	}
	if err := l.common(e.Base(), &d.Common, kind); err != nil {
		return err
	}
	if err := l.features(e, d); err != nil {
		return err
	}
	if err := l.model.Attach(owner, e); err != nil {
		return err
	}
	if err := l.remember(e); err != nil {
		return err
	}
	if p, ok := e.(*Package); ok {
		for i := range d.Elements {
			if err := l.element(p, &d.Elements[i]); err != nil {
				return err
			}
		}
	} else if len(d.Elements) > 0 {
		return fmt.Errorf("%s %q cannot own nested elements", kind, d.Name)
	}
	return nil
}

// features fills attributes, operations, literals, extension points and
// association class ends before the element is attached.
func (l *loader) features(e Entity, d *ElementDoc) error {
	if len(d.Attributes) > 0 {
		c, ok := AsClass(e)
		if !ok {
			return fmt.Errorf("%s %q cannot have attributes", e.Kind(), d.Name)
		}
		for i := range d.Attributes {
			ad := &d.Attributes[i]
			a := &Attribute{}
			if err := l.common(&a.Element, &ad.Common, KindAttribute); err != nil {
				return err
			}
			l.ref(a, "type", ad.Type, true, acceptClassifier, func(t Entity) { a.Type = t })
			c.Attributes = append(c.Attributes, a)
		}
	}
	if len(d.Operations) > 0 {
		var ops []*Operation
		for i := range d.Operations {
			op, err := l.operation(&d.Operations[i])
			if err != nil {
				return err
			}
			ops = append(ops, op)
		}
		switch v := e.(type) {
		case *Class:
			v.Operations = ops
		case *AssociationClass:
			v.Operations = ops
		case *Interface:
			v.Operations = ops
		case *Enumeration:
			v.Operations = ops
		default:
			return fmt.Errorf("%s %q cannot have operations", e.Kind(), d.Name)
		}
	}
	if len(d.Literals) > 0 {
		en, ok := e.(*Enumeration)
		if !ok {
			return fmt.Errorf("%s %q cannot have literals", e.Kind(), d.Name)
		}
		for i := range d.Literals {
			lit := &Literal{}
			if err := l.common(&lit.Element, &d.Literals[i], KindLiteral); err != nil {
				return err
			}
			en.Literals = append(en.Literals, lit)
		}
	}
	if len(d.ExtensionPoints) > 0 {
		uc, ok := e.(*UseCase)
		if !ok {
			return fmt.Errorf("%s %q cannot have extension points", e.Kind(), d.Name)
		}
		for i := range d.ExtensionPoints {
			epd := &d.ExtensionPoints[i]
			ep := &ExtensionPoint{UseCase: uc, Location: epd.Location}
			if err := l.common(&ep.Element, &epd.Common, KindExtensionPoint); err != nil {
				return err
			}
			uc.ExtensionPoints = append(uc.ExtensionPoints, ep)
		}
	}
	if len(d.Ends) > 0 {
		ac, ok := e.(*AssociationClass)
		if !ok {
			return fmt.Errorf("%s %q cannot have association ends", e.Kind(), d.Name)
		}
		for i := range d.Ends {
			end, err := l.end(ac, &d.Ends[i])
			if err != nil {
				return err
			}
			ac.Ends = append(ac.Ends, end)
		}
	}
	return nil
}

func (l *loader) operation(d *OperationDoc) (*Operation, error) {
	op := &Operation{Static: d.Static}
	if err := l.common(&op.Element, &d.Common, KindOperation); err != nil {
		return nil, err
	}
	for i := range d.Parameters {
		pd := &d.Parameters[i]
		dir, ok := ParseDirection(pd.Direction)
		if !ok {
			return nil, fmt.Errorf("invalid direction %q on parameter %q", pd.Direction, pd.Name)
		}
		p := &Parameter{Direction: dir, Default: pd.Default}
		if err := l.common(&p.Element, &pd.Common, KindParameter); err != nil {
			return nil, err
		}
		p.Namespace = op
		l.ref(p, "type", pd.Type, true, acceptClassifier, func(t Entity) { p.Type = t })
		op.Parameters = append(op.Parameters, p)
	}
	return op, nil
}

func (l *loader) end(owner Associative, d *EndDoc) (*AssociationEnd, error) {
	agg, ok := ParseAggregation(d.Aggregation)
	if !ok {
		return nil, fmt.Errorf("invalid aggregation %q", d.Aggregation)
	}
	end := &AssociationEnd{
		Association:  owner,
		Multiplicity: d.Multiplicity,
		Aggregation:  agg,
		Navigable:    d.Navigable == nil || *d.Navigable,
	}
	if err := l.common(&end.Element, &d.Common, KindAssociationEnd); err != nil {
		return nil, err
	}
	end.Namespace = owner
	l.ref(owner, "end.type", d.Type, false, acceptAny, func(t Entity) { end.Type = t })
	return end, nil
}

func (l *loader) relation(d *RelationDoc) error {
	kind, ok := ParseKind(d.Kind)
	if !ok {
		return fmt.Errorf("unknown relation kind %q", d.Kind)
	}
	var r Entity
	switch kind {
	case KindGeneralization:
		g := &Generalization{Discriminator: d.Discriminator}
		l.ref(g, "parent", d.Parent, false, acceptAny, func(e Entity) { g.Parent = e })
		l.ref(g, "child", d.Child, false, acceptAny, func(e Entity) { g.Child = e })
		r = g
	case KindAssociation:
		a := &Association{}
		for i := range d.Ends {
			end, err := l.end(a, &d.Ends[i])
			if err != nil {
				return err
			}
			a.Ends = append(a.Ends, end)
		}
		r = a
	case KindDependency:
		dep := &Dependency{}
		dep.Clients = make([]Entity, len(d.Clients))
		dep.Suppliers = make([]Entity, len(d.Suppliers))
		for i, c := range d.Clients {
			i := i
			l.ref(dep, "client", c, false, acceptAny, func(e Entity) { dep.Clients[i] = e })
		}
		for i, s := range d.Suppliers {
			i := i
			l.ref(dep, "supplier", s, false, acceptAny, func(e Entity) { dep.Suppliers[i] = e })
		}
		r = dep
	case KindInclude:
		in := &Include{}
		l.ref(in, "base", d.Base, false, acceptUseCase, func(e Entity) { in.BaseCase = e })
		l.ref(in, "addition", d.Addition, false, acceptUseCase, func(e Entity) { in.Addition = e })
		r = in
	case KindExtend:
		x := &Extend{Condition: d.Condition}
		l.ref(x, "base", d.Base, false, acceptUseCase, func(e Entity) { x.BaseCase = e })
		l.ref(x, "extension", d.Extension, false, acceptUseCase, func(e Entity) { x.Extension = e })
		r = x
	default:
		return fmt.Errorf("%q is not a relation kind", d.Kind)
	}
	if err := l.common(r.Base(), &d.Common, kind); err != nil {
		return err
	}
	l.model.Relate(r)
	return l.remember(r)
}

func (l *loader) diagram(d *DiagramDoc) error {
	kind, ok := ParseDiagramKind(d.Kind)
	if !ok {
		return fmt.Errorf("unknown diagram kind %q", d.Kind)
	}
	dg := &Diagram{Type: kind, Image: d.Image, Members: make([]Entity, len(d.Members))}
	if err := l.common(&dg.Element, &d.Common, KindDiagram); err != nil {
		return err
	}
	l.model.AddDiagram(l.model, dg)
	l.ref(dg, "owner", d.Owner, false, acceptNamespace, func(e Entity) { dg.Namespace = e })
	for i, member := range d.Members {
		i := i
		l.ref(dg, "member", member, false, acceptAny, func(e Entity) { dg.Members[i] = e })
	}
	if err := l.remember(dg); err != nil {
		return err
	}
	return nil
}

// Compact drops members and participants left nil by unresolved references.
func (m *Model) Compact() {
	for _, d := range m.Diagrams {
		d.Members = compactEntities(d.Members)
	}
	for _, r := range m.Relations {
		if dep, ok := r.(*Dependency); ok {
			dep.Clients = compactEntities(dep.Clients)
			dep.Suppliers = compactEntities(dep.Suppliers)
		}
	}
}

func compactEntities(in []Entity) []Entity {
	out := in[:0]
	for _, e := range in {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
