package scan

import (
	"fmt"
	"io"

	"detkit/internal/geometry"
)

// ModuleInfo summarizes one child of a root by its first grandchild.
type ModuleInfo struct {
	Index   int           `json:"index"`
	Cells   int           `json:"cells"`
	Extents geometry.Vec3 `json:"extents"`
	Name    string        `json:"name"`
	Parent  string        `json:"parent"`
}

// Modules lists the children of root that have at least one daughter,
// with the number of cells of width cellWidth that fit across the
// first daughter's x extent.
func (s *Scanner) Modules(root string, cellWidth float64) ([]ModuleInfo, error) {
	if cellWidth <= 0 {
		return nil, fmt.Errorf("cell width must be positive, got %v", cellWidth)
	}
	top, err := s.geo.Resolve(root)
	if err != nil {
		return nil, err
	}

	var out []ModuleInfo
	n := top.Node
	for i := 0; i < n.NDaughters(); i++ {
		child := n.Daughter(i)
		if child.NDaughters() == 0 {
			continue
		}
		first := child.Daughter(0)
		shape := first.Shape()
		if shape == nil {
			return nil, fmt.Errorf("%s/%s/%s: %w", top.Path, child.Name, first.Name, ErrNoShape)
		}
		ext := shape.HalfExtents()
		out = append(out, ModuleInfo{
			Index:   i,
			Cells:   int(ext.X * 2 / cellWidth),
			Extents: ext,
			Name:    first.Name,
			Parent:  child.Name,
		})
	}
	return out, nil
}

// WriteModules prints one line per module:
// "<i> - [<cells>] dx, dy, dz -- <name> / <parent>".
func WriteModules(w io.Writer, mods []ModuleInfo) error {
	for _, m := range mods {
		_, err := fmt.Fprintf(w, "%d - [%d] %s, %s, %s -- %s / %s\n",
			m.Index, m.Cells,
			FormatFloat(m.Extents.X), FormatFloat(m.Extents.Y), FormatFloat(m.Extents.Z),
			m.Name, m.Parent)
		if err != nil {
			return err
		}
	}
	return nil
}
