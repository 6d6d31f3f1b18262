package geometry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNodeNotFound    = errors.New("geometry node not found")
	ErrManagerNotFound = errors.New("geometry manager not found")
)

// Volume is a logical volume: a shape plus the nodes placed inside it.
// One volume may be placed many times.
type Volume struct {
	Name  string
	Shape Shape
	Nodes []*Node
}

// Node is a placed volume. Its daughters are the nodes of its volume.
type Node struct {
	Name      string
	Volume    *Volume
	Placement Transform
}

func (n *Node) NDaughters() int {
	if n.Volume == nil {
		return 0
	}
	return len(n.Volume.Nodes)
}

func (n *Node) Daughter(i int) *Node {
	return n.Volume.Nodes[i]
}

// Shape returns the shape of the node's volume, or nil.
func (n *Node) Shape() Shape {
	if n.Volume == nil {
		return nil
	}
	return n.Volume.Shape
}

func (n *Node) daughterByName(name string) *Node {
	for i := 0; i < n.NDaughters(); i++ {
		if d := n.Daughter(i); d.Name == name {
			return d
		}
	}
	return nil
}

// Manager is one named geometry tree.
type Manager struct {
	Name string
	Top  *Node
}

// Located is a node resolved from a path together with the transform
// that maps its local frame into the world frame.
type Located struct {
	Path   string
	Node   *Node
	Global Transform
}

func (l *Located) LocalToMaster(p Vec3) Vec3 {
	return l.Global.LocalToMaster(p)
}

// Resolve walks a slash-separated path of node names starting at the
// top node, e.g. "/volWorld_PV_1/rockBox_lv_PV_0".
func (m *Manager) Resolve(path string) (*Located, error) {
	parts := splitPath(path)
	if len(parts) == 0 || m.Top == nil || parts[0] != m.Top.Name {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, path)
	}

	node := m.Top
	global := m.Top.Placement
	for _, name := range parts[1:] {
		next := node.daughterByName(name)
		if next == nil {
			return nil, fmt.Errorf("%w: %s (no daughter %q under %q)", ErrNodeNotFound, path, name, node.Name)
		}
		global = global.Compose(next.Placement)
		node = next
	}

	return &Located{
		Path:   "/" + strings.Join(parts, "/"),
		Node:   node,
		Global: global,
	}, nil
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// File is a loaded geometry description holding one or more managers.
type File struct {
	managers map[string]*Manager
	order    []string
}

func (f *File) Get(name string) (*Manager, error) {
	m, ok := f.managers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrManagerNotFound, name, strings.Join(f.order, ", "))
	}
	return m, nil
}

// Names lists managers in file order.
func (f *File) Names() []string {
	return append([]string(nil), f.order...)
}
