package scan

import (
	"errors"
	"fmt"
	"math"

	"detkit/internal/geometry"

	"github.com/rs/zerolog/log"
)

var ErrNoShape = errors.New("node has no shape")

// Edge is one boundary point of a module in local and world coordinates.
type Edge struct {
	Path   string        `json:"path"`
	Kind   string        `json:"shape"`
	Local  geometry.Vec3 `json:"local"`
	Global geometry.Vec3 `json:"global"`
}

// Scanner walks module grandchildren below a root node.
type Scanner struct {
	geo *geometry.Manager
}

func NewScanner(m *geometry.Manager) *Scanner {
	return &Scanner{geo: m}
}

// BoundaryPoints returns the two representative edge points of a shape
// in its local frame. Tube segments use the mid radius at both phi
// limits; every other shape uses the ends of its vertical half extent.
func BoundaryPoints(shape geometry.Shape) ([2]geometry.Vec3, error) {
	if shape == nil {
		return [2]geometry.Vec3{}, ErrNoShape
	}
	if seg, ok := shape.(*geometry.TubeSegment); ok {
		r := seg.MidRadius()
		return [2]geometry.Vec3{
			polar(r, seg.Phi1),
			polar(r, seg.Phi2),
		}, nil
	}
	dy := geometry.HalfHeight(shape)
	return [2]geometry.Vec3{{X: 0, Y: -dy, Z: 0}, {X: 0, Y: dy, Z: 0}}, nil
}

func polar(r, deg float64) geometry.Vec3 {
	rad := deg / 180 * math.Pi
	return geometry.Vec3{X: r * math.Cos(rad), Y: r * math.Sin(rad), Z: 0}
}

// ScanPath emits two edges for every grandchild of the node at root,
// in daughter order.
func (s *Scanner) ScanPath(root string, emit func(Edge) error) error {
	top, err := s.geo.Resolve(root)
	if err != nil {
		return err
	}
	n := top.Node
	log.Debug().Str("root", top.Path).Int("children", n.NDaughters()).Msg("scanning")

	for i := 0; i < n.NDaughters(); i++ {
		child := n.Daughter(i)
		for j := 0; j < child.NDaughters(); j++ {
			path := fmt.Sprintf("%s/%s/%s", top.Path, child.Name, child.Daughter(j).Name)
			loc, err := s.geo.Resolve(path)
			if err != nil {
				return err
			}

			shape := loc.Node.Shape()
			points, err := BoundaryPoints(shape)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			for _, p := range points {
				edge := Edge{
					Path:   loc.Path,
					Kind:   string(shape.Kind()),
					Local:  p,
					Global: loc.LocalToMaster(p),
				}
				if err := emit(edge); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Scan runs ScanPath over each root in order.
func (s *Scanner) Scan(roots []string, emit func(Edge) error) error {
	for _, root := range roots {
		if err := s.ScanPath(root, emit); err != nil {
			return err
		}
	}
	return nil
}

// Collect is a convenience wrapper returning all edges of the roots.
func (s *Scanner) Collect(roots ...string) ([]Edge, error) {
	var edges []Edge
	err := s.Scan(roots, func(e Edge) error {
		edges = append(edges, e)
		return nil
	})
	return edges, err
}
