package geometry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const schemaURL = "https://detkit.local/schema/geometry.schema.json"

//go:embed schema.json
var schemaText string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

var ErrInvalidDescription = errors.New("invalid geometry description")

type fileDoc struct {
	Geometries []geometryDoc `yaml:"geometries"`
}

type geometryDoc struct {
	Name    string       `yaml:"name"`
	Top     placementDoc `yaml:"top"`
	Volumes []volumeDoc  `yaml:"volumes"`
}

type volumeDoc struct {
	Name      string         `yaml:"name"`
	Shape     *shapeDoc      `yaml:"shape"`
	Daughters []placementDoc `yaml:"daughters"`
}

type placementDoc struct {
	Name        string       `yaml:"name"`
	Volume      string       `yaml:"volume"`
	Translation []float64    `yaml:"translation"`
	Rotation    *rotationDoc `yaml:"rotation"`
	Matrix      []float64    `yaml:"matrix"`
}

type rotationDoc struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type shapeDoc struct {
	Type string  `yaml:"type"`
	DX   float64 `yaml:"dx"`
	DY   float64 `yaml:"dy"`
	DZ   float64 `yaml:"dz"`
	DX1  float64 `yaml:"dx1"`
	DX2  float64 `yaml:"dx2"`
	DY1  float64 `yaml:"dy1"`
	DY2  float64 `yaml:"dy2"`
	RMin float64 `yaml:"rmin"`
	RMax float64 `yaml:"rmax"`
	Phi1 float64 `yaml:"phi1"`
	Phi2 float64 `yaml:"phi2"`
}

// Load reads and validates a geometry description file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse validates data against the embedded schema and builds the
// volume/node graph of every geometry it describes.
func Parse(data []byte) (*File, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}

	f := &File{managers: make(map[string]*Manager)}
	for _, gd := range doc.Geometries {
		if _, dup := f.managers[gd.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate geometry %q", ErrInvalidDescription, gd.Name)
		}
		m, err := buildManager(gd)
		if err != nil {
			return nil, fmt.Errorf("geometry %q: %w", gd.Name, err)
		}
		f.managers[gd.Name] = m
		f.order = append(f.order, gd.Name)
	}
	return f, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaText)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

func validate(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compile geometry schema: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}
	// The validator expects encoding/json values.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}
	return nil
}

func buildManager(gd geometryDoc) (*Manager, error) {
	volumes := make(map[string]*Volume, len(gd.Volumes))
	for _, vd := range gd.Volumes {
		if _, dup := volumes[vd.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate volume %q", ErrInvalidDescription, vd.Name)
		}
		volumes[vd.Name] = &Volume{Name: vd.Name, Shape: vd.Shape.build()}
	}

	for _, vd := range gd.Volumes {
		mother := volumes[vd.Name]
		seen := make(map[string]bool, len(vd.Daughters))
		for _, pd := range vd.Daughters {
			if seen[pd.Name] {
				return nil, fmt.Errorf("%w: volume %q places %q twice", ErrInvalidDescription, vd.Name, pd.Name)
			}
			seen[pd.Name] = true
			node, err := pd.build(volumes)
			if err != nil {
				return nil, err
			}
			mother.Nodes = append(mother.Nodes, node)
		}
	}

	top, err := gd.Top.build(volumes)
	if err != nil {
		return nil, err
	}
	if err := checkAcyclic(top.Volume, map[*Volume]int{}); err != nil {
		return nil, err
	}
	return &Manager{Name: gd.Name, Top: top}, nil
}

func (pd placementDoc) build(volumes map[string]*Volume) (*Node, error) {
	vol, ok := volumes[pd.Volume]
	if !ok {
		return nil, fmt.Errorf("%w: node %q references unknown volume %q", ErrInvalidDescription, pd.Name, pd.Volume)
	}

	t := Identity()
	switch {
	case len(pd.Matrix) == 9:
		copy(t.Rotation[:], pd.Matrix)
	case pd.Rotation != nil:
		t.Rotation = RotationXYZ(pd.Rotation.X, pd.Rotation.Y, pd.Rotation.Z)
	}
	if len(pd.Translation) == 3 {
		t.Translation = Vec3{pd.Translation[0], pd.Translation[1], pd.Translation[2]}
	}
	return &Node{Name: pd.Name, Volume: vol, Placement: t}, nil
}

func (sd *shapeDoc) build() Shape {
	if sd == nil {
		return nil
	}
	switch ShapeKind(sd.Type) {
	case KindBox:
		return &Box{DX: sd.DX, DY: sd.DY, DZ: sd.DZ}
	case KindTrd:
		return &Trd{DX1: sd.DX1, DX2: sd.DX2, DY1: sd.DY1, DY2: sd.DY2, DZ: sd.DZ}
	case KindTube:
		return &Tube{RMin: sd.RMin, RMax: sd.RMax, DZ: sd.DZ}
	case KindTubeSeg:
		return &TubeSegment{RMin: sd.RMin, RMax: sd.RMax, DZ: sd.DZ, Phi1: sd.Phi1, Phi2: sd.Phi2}
	}
	return nil
}

// checkAcyclic rejects a volume that is (indirectly) placed inside
// itself. state: 1 = on the current walk, 2 = done.
func checkAcyclic(v *Volume, state map[*Volume]int) error {
	switch state[v] {
	case 1:
		return fmt.Errorf("%w: volume %q contains itself", ErrInvalidDescription, v.Name)
	case 2:
		return nil
	}
	state[v] = 1
	for _, n := range v.Nodes {
		if err := checkAcyclic(n.Volume, state); err != nil {
			return err
		}
	}
	state[v] = 2
	return nil
}
