package model

import "strings"

// ID is the stable per-entity identifier assigned at load time.
type ID string

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPackage   Visibility = "package"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
)

// ParseVisibility maps a document value to a Visibility. Empty means public.
func ParseVisibility(s string) (Visibility, bool) {
	switch Visibility(strings.ToLower(strings.TrimSpace(s))) {
	case "", VisibilityPublic:
		return VisibilityPublic, true
	case VisibilityPackage:
		return VisibilityPackage, true
	case VisibilityProtected:
		return VisibilityProtected, true
	case VisibilityPrivate:
		return VisibilityPrivate, true
	}
	return VisibilityPublic, false
}

type Direction string

const (
	DirectionIn     Direction = "in"
	DirectionOut    Direction = "out"
	DirectionInOut  Direction = "inout"
	DirectionReturn Direction = "return"
)

func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", DirectionIn:
		return DirectionIn, true
	case DirectionOut:
		return DirectionOut, true
	case DirectionInOut:
		return DirectionInOut, true
	case DirectionReturn:
		return DirectionReturn, true
	}
	return DirectionIn, false
}

type AggregationKind string

const (
	AggregationNone      AggregationKind = "none"
	AggregationAggregate AggregationKind = "aggregate"
	AggregationComposite AggregationKind = "composite"
)

func ParseAggregation(s string) (AggregationKind, bool) {
	switch AggregationKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", AggregationNone:
		return AggregationNone, true
	case AggregationAggregate:
		return AggregationAggregate, true
	case AggregationComposite:
		return AggregationComposite, true
	}
	return AggregationNone, false
}

// Tag keys read by the renderers.
const (
	TagDocumentation = "documentation"
	TagGenerated     = "generated"
)

// Element holds the attributes every modeled entity shares.
type Element struct {
	ID         ID
	Key        string
	Name       string
	Visibility Visibility
	Abstract   bool
	Leaf       bool
	Root       bool
	Tags       map[string]string
	Namespace  Entity
}

func (e *Element) Base() *Element { return e }

// Tag returns the tagged value stored under key.
func (e *Element) Tag(key string) (string, bool) {
	if e == nil || e.Tags == nil {
		return "", false
	}
	v, ok := e.Tags[key]
	return v, ok
}

func (e *Element) SetTag(key, value string) {
	if e.Tags == nil {
		e.Tags = make(map[string]string)
	}
	e.Tags[key] = value
}

func (e *Element) Documentation() string {
	v, _ := e.Tag(TagDocumentation)
	return v
}

// Derived reports whether the element carries generated=true.
func (e *Element) Derived() bool {
	v, _ := e.Tag(TagGenerated)
	return v == "true"
}

// Entity is the closed set of modeled element variants.
type Entity interface {
	Base() *Element
	Kind() Kind
	entity()
}

// Associative is implemented by plain associations and association classes.
type Associative interface {
	Entity
	Connections() []*AssociationEnd
}

type Package struct {
	Element
	Owned []Entity
}

type Class struct {
	Element
	Active     bool
	Attributes []*Attribute
	Operations []*Operation
}

// AssociationClass is both a class and an association.
type AssociationClass struct {
	Class
	Ends []*AssociationEnd
}

type Interface struct {
	Element
	Operations []*Operation
}

type Enumeration struct {
	Element
	Literals   []*Literal
	Operations []*Operation
}

// DataType covers primitive and otherwise undeclared types such as Int.
type DataType struct {
	Element
}

type Actor struct {
	Element
}

type UseCase struct {
	Element
	ExtensionPoints []*ExtensionPoint
}

type Attribute struct {
	Element
	Type Entity
}

type Operation struct {
	Element
	Static     bool
	Parameters []*Parameter
}

type Parameter struct {
	Element
	Direction Direction
	Type      Entity
	Default   string
}

type Literal struct {
	Element
}

type Association struct {
	Element
	Ends []*AssociationEnd
}

type AssociationEnd struct {
	Element
	Association  Associative
	Type         Entity
	Multiplicity string
	Aggregation  AggregationKind
	Navigable    bool
}

type Generalization struct {
	Element
	Discriminator string
	Parent        Entity
	Child         Entity
}

type Dependency struct {
	Element
	Clients   []Entity
	Suppliers []Entity
}

type Include struct {
	Element
	BaseCase Entity
	Addition Entity
}

type Extend struct {
	Element
	BaseCase  Entity
	Extension Entity
	Condition string
}

type ExtensionPoint struct {
	Element
	UseCase  Entity
	Location string
}

type DiagramKind string

const (
	DiagramClass         DiagramKind = "class"
	DiagramUseCase       DiagramKind = "usecase"
	DiagramSequence      DiagramKind = "sequence"
	DiagramCollaboration DiagramKind = "collaboration"
	DiagramActivity      DiagramKind = "activity"
	DiagramDeployment    DiagramKind = "deployment"
	DiagramStateChart    DiagramKind = "statechart"
)

func ParseDiagramKind(s string) (DiagramKind, bool) {
	k := DiagramKind(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")))
	switch k {
	case DiagramClass, DiagramUseCase, DiagramSequence, DiagramCollaboration,
		DiagramActivity, DiagramDeployment, DiagramStateChart:
		return k, true
	case "state":
		return DiagramStateChart, true
	}
	return "", false
}

// Mixed reports whether diagrams of this kind are grouped as
// sequence/collaboration/activity.
func (k DiagramKind) Mixed() bool {
	return k == DiagramSequence || k == DiagramCollaboration || k == DiagramActivity
}

// Diagram is a named view over model members. Owner is its namespace
// (the model, a package, or for state charts the owning class).
type Diagram struct {
	Element
	Type    DiagramKind
	Members []Entity
	Image   string
}

func (m *Model) entity() {}
func (p *Package) entity() {}
func (c *Class) entity() {}
func (i *Interface) entity() {}
func (e *Enumeration) entity() {}
func (d *DataType) entity() {}
func (a *Actor) entity() {}
func (u *UseCase) entity() {}
func (a *Attribute) entity() {}
func (o *Operation) entity() {}
func (p *Parameter) entity() {}
func (l *Literal) entity() {}
func (a *Association) entity() {}
func (a *AssociationEnd) entity() {}
func (g *Generalization) entity() {}
func (d *Dependency) entity() {}
func (i *Include) entity() {}
func (e *Extend) entity() {}
func (e *ExtensionPoint) entity() {}
func (d *Diagram) entity() {}

func (m *Model) Kind() Kind { return KindModel }
func (p *Package) Kind() Kind { return KindPackage }
func (c *Class) Kind() Kind { return KindClass }
func (a *AssociationClass) Kind() Kind { return KindAssociationClass }
func (i *Interface) Kind() Kind { return KindInterface }
func (e *Enumeration) Kind() Kind { return KindEnumeration }
func (d *DataType) Kind() Kind { return KindDataType }
func (a *Actor) Kind() Kind { return KindActor }
func (u *UseCase) Kind() Kind { return KindUseCase }
func (a *Attribute) Kind() Kind { return KindAttribute }
func (o *Operation) Kind() Kind { return KindOperation }
func (p *Parameter) Kind() Kind { return KindParameter }
func (l *Literal) Kind() Kind { return KindLiteral }
func (a *Association) Kind() Kind { return KindAssociation }
func (a *AssociationEnd) Kind() Kind { return KindAssociationEnd }
func (g *Generalization) Kind() Kind { return KindGeneralization }
func (d *Dependency) Kind() Kind { return KindDependency }
func (i *Include) Kind() Kind { return KindInclude }
func (e *Extend) Kind() Kind { return KindExtend }
func (e *ExtensionPoint) Kind() Kind { return KindExtensionPoint }
func (d *Diagram) Kind() Kind { return KindDiagram }

func (a *Association) Connections() []*AssociationEnd { return a.Ends }
func (a *AssociationClass) Connections() []*AssociationEnd { return a.Ends }

// AsClass returns the class view of classes and association classes.
func AsClass(e Entity) (*Class, bool) {
	switch v := e.(type) {
	case *Class:
		return v, true
	case *AssociationClass:
		return &v.Class, true
	}
	return nil, false
}

// IsClassifier reports whether e is a class, interface or enumeration,
// the participant kinds class relationship tables accept.
func IsClassifier(e Entity) bool {
	switch e.(type) {
	case *Class, *AssociationClass, *Interface, *Enumeration:
		return true
	}
	return false
}

// IsUseCaseParticipant reports whether e is an actor or a use case.
func IsUseCaseParticipant(e Entity) bool {
	switch e.(type) {
	case *Actor, *UseCase:
		return true
	}
	return false
}

// OperationsOf returns the operations of classes, interfaces and enumerations.
func OperationsOf(e Entity) []*Operation {
	switch v := e.(type) {
	case *Class:
		return v.Operations
	case *AssociationClass:
		return v.Operations
	case *Interface:
		return v.Operations
	case *Enumeration:
		return v.Operations
	}
	return nil
}
