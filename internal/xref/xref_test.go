package xref

import (
	"testing"

	"umlpdf/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorFor_DuplicateNamesGetDistinctAnchors(t *testing.T) {
	m := model.New("Shop")
	a := m.NewClass(m, "Order")
	b := m.NewClass(m, "Order")

	assert.NotEqual(t, AnchorFor(a), AnchorFor(b))
	assert.Equal(t, AnchorFor(a), AnchorFor(a))
	assert.Contains(t, string(AnchorFor(a)), "class_")
}

func TestResolver_ForwardReferenceResolvesOnDeclaration(t *testing.T) {
	m := model.New("Shop")
	order := m.NewClass(m, "Order")
	line := m.NewClass(m, "")

	r := New()
	ref := r.ReferenceTo(order)
	assert.False(t, ref.Defines)
	assert.False(t, r.Declared(ref.Anchor))
	require.Len(t, r.Unresolved(), 1)

	def := r.LabelWithAnchor(order)
	assert.True(t, def.Defines)
	assert.Equal(t, ref.Anchor, def.Anchor)
	assert.Empty(t, r.Unresolved())

	unnamed := r.ReferenceTo(line)
	assert.Equal(t, "Unnamed Class", unnamed.Text)
	assert.Equal(t, "Class", unnamed.Icon)

	stats := r.Stats()
	assert.Equal(t, Stats{Declared: 1, Referenced: 2, Unresolved: 1}, stats)
}

func TestRef_Fragments(t *testing.T) {
	m := model.New("Shop")
	actor := m.NewActor(m, "Customer")
	r := New()

	label := r.LabelWithAnchor(actor).Label()
	assert.True(t, label.Defines)
	assert.Equal(t, "Actor", label.Icon)
	assert.Equal(t, "Customer", label.Text)

	cell := r.ReferenceTo(actor).Cell()
	assert.Equal(t, label.Anchor, cell.Link)
}
