package selection

import (
	"bytes"
	"testing"

	"umlpdf/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel() *model.Model {
	m := model.New("Shop")
	session := m.NewClass(m, "Session")
	orders := m.NewPackage(m, "Orders")
	order := m.NewClass(orders, "Order")
	billing := m.NewPackage(orders, "Billing")

	m.NewDiagram(m, model.DiagramDeployment, "Servers")
	m.NewDiagram(m, model.DiagramUseCase, "Access")
	m.NewDiagram(orders, model.DiagramClass, "Orders overview")
	m.NewDiagram(m, model.DiagramClass, "Main")
	m.NewDiagram(session, model.DiagramSequence, "Login flow")
	m.NewDiagram(order, model.DiagramCollaboration, "Order collab")
	m.NewDiagram(billing, model.DiagramActivity, "Pay")
	m.NewDiagram(m, model.DiagramUseCase, "Admin")
	return m
}

func labels(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Label())
	}
	return out
}

func TestBuild_Order(t *testing.T) {
	root := Build(testModel())

	assert.Equal(t, []string{"Use Cases", "Main", "Login flow", "Orders", "Servers"}, labels(root.Children))
	assert.Equal(t, []string{"Access", "Admin"}, labels(root.Children[0].Children))

	orders := root.Children[3]
	assert.Equal(t, []string{"Orders overview", "Order collab", "Billing"}, labels(orders.Children))
	assert.Equal(t, []string{"Pay"}, labels(orders.Children[2].Children))
	assert.False(t, root.IsSelected())
}

func TestSetSelected_Cascades(t *testing.T) {
	root := Build(testModel())
	orders := root.Find("Orders")
	require.NotNil(t, orders)

	orders.SetSelected(true)
	orders.Walk(func(n *Node, _ int) bool {
		assert.True(t, n.IsSelected(), n.Label())
		return true
	})
	assert.False(t, root.IsSelected(), "ancestors are not forced")
	assert.True(t, root.PartiallySelected())

	orders.SetSelected(false)
	assert.False(t, root.Find("Orders/Billing/Pay").IsSelected())
	assert.False(t, root.PartiallySelected())
}

func TestPartiallySelected(t *testing.T) {
	root := Build(testModel())
	group := root.Find("Use Cases")
	group.Children[0].SetSelected(true)

	assert.True(t, group.PartiallySelected())
	group.Children[1].SetSelected(true)
	assert.False(t, group.PartiallySelected())
	assert.False(t, group.Children[0].PartiallySelected(), "leaves are never partial")
}

func TestSelectPaths(t *testing.T) {
	root := Build(testModel())
	require.NoError(t, SelectPaths(root, "Orders/Billing", "Main"))

	assert.True(t, root.IsSelected())
	assert.True(t, root.Find("Orders").IsSelected())
	assert.False(t, root.Find("Orders/Orders overview").IsSelected(), "ancestor selection does not cascade")
	assert.True(t, root.Find("Orders/Billing/Pay").IsSelected())
	assert.True(t, root.Find("Main").IsSelected())
	assert.False(t, root.Find("Servers").IsSelected())

	err := SelectPaths(root, "Nope", "Orders/Missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nope")
	assert.Contains(t, err.Error(), "Orders/Missing")
}

func TestSelectPaths_All(t *testing.T) {
	root := Build(testModel())
	require.NoError(t, SelectPaths(root, "/"))
	root.Walk(func(n *Node, _ int) bool {
		assert.True(t, n.IsSelected())
		return true
	})
}

func TestPrint(t *testing.T) {
	root := Build(testModel())
	require.NoError(t, SelectPaths(root, "Main"))

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, root))
	out := buf.String()
	assert.Contains(t, out, "[-] Shop\n")
	assert.Contains(t, out, "  [x] Main (Class Diagram)\n")
	assert.Contains(t, out, "  [ ] Use Cases\n")
	assert.Contains(t, out, "      [ ] Pay (Activity Diagram)\n")
}

func TestView(t *testing.T) {
	root := Build(testModel())
	require.NoError(t, SelectPaths(root, "Orders/Billing"))

	v := root.View()
	assert.Equal(t, "Shop", v.Label)
	assert.Equal(t, "model", v.Kind)
	assert.True(t, v.Selected)
	assert.True(t, v.Partial)
	assert.Equal(t, "group", v.Children[0].Kind)
	assert.Equal(t, "usecase_diagram", v.Children[0].Children[0].Kind)

	var orders View
	for _, c := range v.Children {
		if c.Label == "Orders" {
			orders = c
		}
	}
	assert.Equal(t, "package", orders.Kind)
	assert.True(t, orders.Partial)
	billing := orders.Children[len(orders.Children)-1]
	assert.Equal(t, "Billing", billing.Label)
	assert.True(t, billing.Selected)
	assert.False(t, billing.Partial)
}
