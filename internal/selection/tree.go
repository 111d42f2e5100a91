package selection

import (
	"fmt"
	"io"
	"strings"

	"umlpdf/internal/model"
)

// UseCaseGroup is the synthetic node that holds every use case diagram.
type UseCaseGroup struct{}

// UseCaseGroupLabel is the display name of the use case group node.
const UseCaseGroupLabel = "Use Cases"

// Node is one entry of the selection tree. Entity is a *model.Model, a
// *model.Package, a *model.Diagram or UseCaseGroup.
type Node struct {
	Entity   any
	Children []*Node
	Parent   *Node
	selected bool
}

// Build creates the tree for m in document order: the use case group,
// root class diagrams, root mixed diagrams, packages, deployment diagrams.
// Nothing is selected.
func Build(m *model.Model) *Node {
	root := &Node{Entity: m}

	group := root.add(UseCaseGroup{})
	for _, d := range m.DiagramsOf(model.DiagramUseCase) {
		group.add(d)
	}
	for _, d := range m.OwnedDiagrams(m, model.DiagramClass) {
		root.add(d)
	}
	for _, d := range m.MixedDiagrams(m) {
		root.add(d)
	}
	for _, p := range model.Packages(m) {
		addPackage(root, m, p)
	}
	for _, d := range m.DiagramsOf(model.DiagramDeployment) {
		root.add(d)
	}
	return root
}

func addPackage(parent *Node, m *model.Model, p *model.Package) {
	n := parent.add(p)
	for _, d := range m.OwnedDiagrams(p, model.DiagramClass) {
		n.add(d)
	}
	for _, d := range m.MixedDiagrams(p) {
		n.add(d)
	}
	for _, sub := range model.Packages(p) {
		addPackage(n, m, sub)
	}
}

func (n *Node) add(e any) *Node {
	child := &Node{Entity: e, Parent: n}
	n.Children = append(n.Children, child)
	return child
}

// SetSelected marks n and all its descendants.
func (n *Node) SetSelected(b bool) {
	n.selected = b
	for _, c := range n.Children {
		c.SetSelected(b)
	}
}

func (n *Node) IsSelected() bool { return n.selected }

// PartiallySelected reports whether some, but not all, descendants of n are
// selected. Leaves are never partially selected.
func (n *Node) PartiallySelected() bool {
	total, sel := 0, 0
	n.walkDescendants(func(d *Node) {
		total++
		if d.selected {
			sel++
		}
	})
	return sel > 0 && sel < total
}

func (n *Node) walkDescendants(fn func(*Node)) {
	for _, c := range n.Children {
		fn(c)
		c.walkDescendants(fn)
	}
}

// Label is the display name of the node.
func (n *Node) Label() string {
	switch e := n.Entity.(type) {
	case UseCaseGroup:
		return UseCaseGroupLabel
	case model.Entity:
		return model.DisplayName(e)
	}
	return fmt.Sprint(n.Entity)
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of that node.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Find returns the child addressed by a "/"-separated label path relative
// to n, or nil.
func (n *Node) Find(path string) *Node {
	cur := n
	for _, part := range splitPath(path) {
		var next *Node
		for _, c := range cur.Children {
			if c.Label() == part {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

func splitPath(path string) []string {
	var out []string
	for _, p := range strings.Split(path, "/") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SelectPaths selects the subtree under each path and marks the ancestors
// of each addressed node so it is reachable during generation. Ancestors
// are selected without cascading. An empty path or "/" selects everything.
func SelectPaths(root *Node, paths ...string) error {
	var unknown []string
	for _, p := range paths {
		if len(splitPath(p)) == 0 {
			root.SetSelected(true)
			continue
		}
		n := root.Find(p)
		if n == nil {
			unknown = append(unknown, p)
			continue
		}
		n.SetSelected(true)
		for a := n.Parent; a != nil; a = a.Parent {
			a.selected = true
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown selection paths: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Print writes an indented listing of the tree with [x], [-] and [ ] markers.
func Print(w io.Writer, root *Node) error {
	var err error
	root.Walk(func(n *Node, depth int) bool {
		if err != nil {
			return false
		}
		mark := "[ ]"
		switch {
		case n.PartiallySelected():
			mark = "[-]"
		case n.selected:
			mark = "[x]"
		}
		_, err = fmt.Fprintf(w, "%s%s %s%s\n", strings.Repeat("  ", depth), mark, n.Label(), kindSuffix(n))
		return true
	})
	return err
}

func kindSuffix(n *Node) string {
	if d, ok := n.Entity.(*model.Diagram); ok {
		return " (" + d.Type.Label() + ")"
	}
	return ""
}

// View is the serializable form of a node and its subtree.
type View struct {
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Selected bool   `json:"selected"`
	Partial  bool   `json:"partial,omitempty"`
	Children []View `json:"children,omitempty"`
}

func (n *Node) View() View {
	v := View{Label: n.Label(), Kind: nodeKind(n), Selected: n.selected, Partial: n.PartiallySelected()}
	for _, c := range n.Children {
		v.Children = append(v.Children, c.View())
	}
	return v
}

func nodeKind(n *Node) string {
	switch e := n.Entity.(type) {
	case UseCaseGroup:
		return "group"
	case *model.Diagram:
		return string(e.Type) + "_diagram"
	case model.Entity:
		return string(e.Kind())
	}
	return ""
}
