package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	m := New("Shop")
	tests := []struct {
		name   string
		entity Entity
		want   string
	}{
		{"named class", m.NewClass(m, "Foo"), "Foo"},
		{"unnamed actor", m.NewActor(m, ""), "Unnamed Actor"},
		{"unnamed use case", m.NewUseCase(m, " "), "Unnamed Use Case"},
		{"unnamed association class", m.NewAssociationClass(m, ""), "Unnamed Association Class"},
		{"unnamed dependency", m.NewDependency("", nil, nil), "Unnamed Dependency"},
		{"unnamed sequence diagram", m.NewDiagram(m, DiagramSequence, ""), "Unnamed Sequence Diagram"},
		{"unnamed state chart", m.NewDiagram(m, DiagramStateChart, ""), "Unnamed State Chart Diagram"},
		{"named diagram", m.NewDiagram(m, DiagramClass, "Main"), "Main"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.entity))
		})
	}
}

func TestFacadeRelationships(t *testing.T) {
	m := New("Shop")
	base := m.NewClass(m, "Base")
	foo := m.NewClass(m, "Foo")
	bar := m.NewInterface(m, "Bar")
	gen := m.NewGeneralization(foo, base, "")
	dep := m.NewDependency("uses", []Entity{foo}, []Entity{bar})
	assoc := m.NewAssociation("owns", foo, bar)

	assert.Equal(t, []*Generalization{gen}, m.Generalizations(foo))
	assert.Empty(t, m.Generalizations(base))
	assert.Equal(t, []*Generalization{gen}, m.Specializations(base))
	assert.Equal(t, []*Dependency{dep}, m.ClientDependencies(foo))
	assert.Equal(t, []*Dependency{dep}, m.SupplierDependencies(bar))
	assert.Empty(t, m.SupplierDependencies(foo))

	ends := m.AssociationEnds(foo)
	require.Len(t, ends, 1)
	assert.Same(t, assoc.Ends[0], ends[0])
	assert.Equal(t, Associative(assoc), ends[0].Association)
}

func TestFacadeUseCases(t *testing.T) {
	m := New("Shop")
	login := m.NewUseCase(m, "Login")
	audit := m.NewUseCase(m, "Audit")
	remember := m.NewUseCase(m, "Remember me")
	inc := m.NewInclude(login, audit)
	ext := m.NewExtend(login, remember, "checkbox ticked")

	assert.Equal(t, []*Include{inc}, m.Includes(login))
	assert.Empty(t, m.Includes(audit))
	assert.Equal(t, []*Extend{ext}, m.Extends(remember))
	assert.Empty(t, m.Extends(login))

	for _, rel := range []Entity{inc, ext} {
		assert.Equal(t, "Unnamed "+rel.Kind().Label(), DisplayName(rel))
		got, ok := m.Lookup(rel.Base().ID)
		require.True(t, ok)
		assert.Same(t, rel, got)
	}
	assert.Same(t, login, inc.BaseCase)
	assert.Same(t, login, ext.BaseCase)
}

func TestStateChartsAndAssociationClass(t *testing.T) {
	m := New("Shop")
	order := m.NewClass(m, "Order")
	line := m.NewClass(m, "Line")
	sc := m.NewDiagram(order, DiagramStateChart, "Order states")
	m.NewDiagram(m, DiagramStateChart, "Free chart")

	assert.Equal(t, []*Diagram{sc}, m.StateCharts(order))
	assert.Empty(t, m.StateCharts(line))

	ac := m.NewAssociationClass(m, "OrderLine")
	m.Connect(ac, order, line)
	ends := m.AssociationEnds(line)
	require.Len(t, ends, 1)
	assert.Equal(t, Associative(ac), ends[0].Association)

	cls, ok := AsClass(ac)
	require.True(t, ok)
	assert.Same(t, ac.Base(), cls.Base())
}

func TestOwningPackageWalk(t *testing.T) {
	m := New("Shop")
	pkg := m.NewPackage(m, "Orders")
	cls := m.NewClass(pkg, "Order")
	rootCls := m.NewClass(m, "Session")

	inPkg := m.NewDiagram(cls, DiagramCollaboration, "collab")
	atRoot := m.NewDiagram(rootCls, DiagramSequence, "login flow")
	direct := m.NewDiagram(pkg, DiagramActivity, "checkout")

	assert.Equal(t, Entity(pkg), OwningPackage(inPkg, m))
	assert.Equal(t, Entity(m), OwningPackage(atRoot, m))
	assert.Equal(t, []*Diagram{atRoot}, m.MixedDiagrams(m))
	assert.Equal(t, []*Diagram{inPkg, direct}, m.MixedDiagrams(pkg))
}

func TestLookupAndNameIndex(t *testing.T) {
	m := New("Shop")
	a := m.NewPackage(m, "A")
	b := m.NewPackage(m, "B")
	fooA := m.NewClass(a, "Foo")
	fooB := m.NewClass(b, "Foo")

	assert.NotEqual(t, fooA.ID, fooB.ID)
	got, ok := m.Lookup(fooA.ID)
	require.True(t, ok)
	assert.Same(t, fooA, got)

	assert.Len(t, m.FindByName("Foo"), 2)
	qualified := m.FindByName("B::Foo")
	require.Len(t, qualified, 1)
	assert.Same(t, fooB, qualified[0])

	m.Reindex()
	assert.Len(t, m.FindByName("Foo"), 2)
}

func TestModifiersAndTags(t *testing.T) {
	m := New("Shop")
	c := m.NewClass(m, "Foo")
	assert.False(t, c.Derived())
	c.SetTag(TagGenerated, "true")
	c.SetTag(TagDocumentation, "A foo.")
	assert.True(t, c.Derived())
	assert.Equal(t, "A foo.", c.Documentation())
	assert.Equal(t, VisibilityPublic, c.Visibility)
}

func TestParseKinds(t *testing.T) {
	k, ok := ParseKind("use_case")
	require.True(t, ok)
	assert.Equal(t, KindUseCase, k)

	_, ok = ParseKind("component")
	assert.False(t, ok)

	dk, ok := ParseDiagramKind("state_chart")
	require.True(t, ok)
	assert.Equal(t, DiagramStateChart, dk)
	assert.True(t, DiagramActivity.Mixed())
	assert.False(t, DiagramDeployment.Mixed())
}
