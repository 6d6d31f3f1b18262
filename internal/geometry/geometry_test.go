package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endcapRoot = "/volWorld_PV_1/rockBox_lv_PV_0/volDetEnclosure_PV_0/volSAND_PV_0/MagIntVol_volume_PV_0/kloe_calo_volume_PV_0/ECAL_endcap_lv_PV_0"

func loadFixture(t *testing.T) *Manager {
	t.Helper()
	f, err := Load("testdata/endcap.yaml")
	require.NoError(t, err)
	m, err := f.Get("EDepSimGeometry")
	require.NoError(t, err)
	return m
}

func assertVec(t *testing.T, want, got Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-9, "z")
}

func TestTransform_ComposeMatchesSequentialApplication(t *testing.T) {
	parent := Transform{Rotation: RotationXYZ(0, 0, 90), Translation: Vec3{1, 2, 3}}
	child := Transform{Rotation: RotationXYZ(90, 0, 0), Translation: Vec3{10, 0, 0}}
	p := Vec3{1, 2, 3}

	sequential := parent.LocalToMaster(child.LocalToMaster(p))
	composed := parent.Compose(child).LocalToMaster(p)
	assertVec(t, sequential, composed)
}

func TestRotationXYZ_AppliesXThenZ(t *testing.T) {
	r := Transform{Rotation: RotationXYZ(90, 0, 90)}
	// x-rotation sends +y to +z; z-rotation leaves +z alone.
	assertVec(t, Vec3{0, 0, 1}, r.LocalToMaster(Vec3{0, 1, 0}))
	// +x is untouched by x-rotation, then z-rotation sends it to +y.
	assertVec(t, Vec3{0, 1, 0}, r.LocalToMaster(Vec3{1, 0, 0}))
}

func TestManager_ResolveAccumulatesPlacements(t *testing.T) {
	m := loadFixture(t)

	loc, err := m.Resolve(endcapRoot + "/ECAL_ec_mod_0_lv_PV_1/ECAL_ec_mod_vert_0_lv_PV_0")
	require.NoError(t, err)
	assert.Equal(t, "ECAL_ec_mod_vert_0_lv_PV_0", loc.Node.Name)

	// Module PV_1 is turned by 180 degrees about z and shifted to +x.
	assertVec(t, Vec3{1000, 510, -1690}, loc.LocalToMaster(Vec3{0, -510, 0}))
}

func TestManager_ResolveSecondEndcapIsMirrored(t *testing.T) {
	m := loadFixture(t)

	path := "/volWorld_PV_1/rockBox_lv_PV_0/volDetEnclosure_PV_0/volSAND_PV_0/MagIntVol_volume_PV_0/kloe_calo_volume_PV_0/ECAL_endcap_lv_PV_1/ECAL_ec_mod_0_lv_PV_0/ECAL_ec_mod_vert_0_lv_PV_0"
	loc, err := m.Resolve(path)
	require.NoError(t, err)
	assertVec(t, Vec3{1000, -510, 1690}, loc.LocalToMaster(Vec3{0, -510, 0}))
}

func TestManager_ResolveToleratesSlashes(t *testing.T) {
	m := loadFixture(t)

	loc, err := m.Resolve("volWorld_PV_1//rockBox_lv_PV_0/")
	require.NoError(t, err)
	assert.Equal(t, "/volWorld_PV_1/rockBox_lv_PV_0", loc.Path)
}

func TestManager_ResolveUnknown(t *testing.T) {
	m := loadFixture(t)

	_, err := m.Resolve("/volWorld_PV_1/nope")
	assert.True(t, errors.Is(err, ErrNodeNotFound))

	_, err = m.Resolve("/otherWorld")
	assert.True(t, errors.Is(err, ErrNodeNotFound))

	_, err = m.Resolve("")
	assert.True(t, errors.Is(err, ErrNodeNotFound))
}

func TestFile_GetUnknownManager(t *testing.T) {
	f, err := Load("testdata/endcap.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"EDepSimGeometry"}, f.Names())

	_, err = f.Get("Missing")
	assert.True(t, errors.Is(err, ErrManagerNotFound))
}

func TestNode_SharedVolumeDaughters(t *testing.T) {
	m := loadFixture(t)

	a, err := m.Resolve(endcapRoot + "/ECAL_ec_mod_0_lv_PV_0")
	require.NoError(t, err)
	b, err := m.Resolve(endcapRoot + "/ECAL_ec_mod_0_lv_PV_1")
	require.NoError(t, err)

	assert.Same(t, a.Node.Volume, b.Node.Volume)
	assert.Equal(t, 1, a.Node.NDaughters())
	assert.Equal(t, KindBox, a.Node.Daughter(0).Shape().Kind())
}

func TestParse_SchemaRejectsMissingShapeFields(t *testing.T) {
	doc := `
geometries:
  - name: g
    top: {name: top_PV, volume: top}
    volumes:
      - name: top
        shape: {type: tube_seg, rmin: 1, rmax: 2, dz: 3}
`
	_, err := Parse([]byte(doc))
	assert.True(t, errors.Is(err, ErrInvalidDescription))
}

func TestParse_SchemaRejectsOutOfRangeAngles(t *testing.T) {
	for _, phi := range []string{"1e20", "-1000", ".inf", ".nan"} {
		doc := `
geometries:
  - name: g
    top: {name: top_PV, volume: top}
    volumes:
      - name: top
        shape: {type: tube_seg, rmin: 1, rmax: 2, dz: 3, phi1: ` + phi + `, phi2: 90}
`
		_, err := Parse([]byte(doc))
		assert.True(t, errors.Is(err, ErrInvalidDescription), "phi1 %s: %v", phi, err)
	}
}

func TestParse_SchemaRejectsUnknownShape(t *testing.T) {
	doc := `
geometries:
  - name: g
    top: {name: top_PV, volume: top}
    volumes:
      - name: top
        shape: {type: sphere, rmax: 2}
`
	_, err := Parse([]byte(doc))
	assert.True(t, errors.Is(err, ErrInvalidDescription))
}

func TestParse_RejectsUnknownVolume(t *testing.T) {
	doc := `
geometries:
  - name: g
    top: {name: top_PV, volume: top}
    volumes:
      - name: top
        daughters:
          - {name: a_PV, volume: ghost}
`
	_, err := Parse([]byte(doc))
	assert.True(t, errors.Is(err, ErrInvalidDescription))
}

func TestParse_RejectsCycle(t *testing.T) {
	doc := `
geometries:
  - name: g
    top: {name: top_PV, volume: a}
    volumes:
      - name: a
        daughters:
          - {name: b_PV, volume: b}
      - name: b
        daughters:
          - {name: a_PV, volume: a}
`
	_, err := Parse([]byte(doc))
	assert.True(t, errors.Is(err, ErrInvalidDescription))
}

func TestParse_MatrixPlacement(t *testing.T) {
	doc := `
geometries:
  - name: g
    top: {name: top_PV, volume: top}
    volumes:
      - name: top
        daughters:
          - name: a_PV
            volume: a
            translation: [1, 2, 3]
            matrix: [0, -1, 0, 1, 0, 0, 0, 0, 1]
      - name: a
        shape: {type: box, dx: 1, dy: 1, dz: 1}
`
	f, err := Parse([]byte(doc))
	require.NoError(t, err)
	m, err := f.Get("g")
	require.NoError(t, err)

	loc, err := m.Resolve("/top_PV/a_PV")
	require.NoError(t, err)
	assertVec(t, Vec3{1, 3, 3}, loc.LocalToMaster(Vec3{1, 0, 0}))
}

func TestShape_HalfExtents(t *testing.T) {
	assert.Equal(t, 50.0, HalfHeight(&Box{DX: 1, DY: 50, DZ: 2}))
	assert.Equal(t, 7.0, HalfHeight(&Trd{DX1: 1, DX2: 2, DY1: 7, DY2: 3, DZ: 4}))
	assert.Equal(t, 20.0, HalfHeight(&Tube{RMin: 10, RMax: 20, DZ: 5}))

	// Quarter annulus in the first quadrant spans [0, 20] on both axes.
	seg := &TubeSegment{RMin: 10, RMax: 20, DZ: 5, Phi1: 0, Phi2: 90}
	ext := seg.HalfExtents()
	assert.InDelta(t, 10.0, ext.X, 1e-9)
	assert.InDelta(t, 10.0, ext.Y, 1e-9)
	assert.Equal(t, 15.0, seg.MidRadius())

	// Half annulus over the top crosses the +y axis.
	top := &TubeSegment{RMin: 10, RMax: 20, Phi1: 0, Phi2: 180}
	assert.InDelta(t, 10.0, top.HalfExtents().Y, 1e-9)
	assert.InDelta(t, 20.0, top.HalfExtents().X, 1e-9)
	assert.False(t, math.IsInf(top.HalfExtents().X, 0))

	t.Run("Wrapped and extreme angles", func(t *testing.T) {
		// Same sector as 0..90, written across the 360 boundary.
		wrapped := &TubeSegment{RMin: 10, RMax: 20, Phi1: 360, Phi2: 450}
		assert.InDelta(t, 10.0, wrapped.HalfExtents().X, 1e-9)
		assert.InDelta(t, 10.0, wrapped.HalfExtents().Y, 1e-9)

		// Reversed limits run the long way round.
		reversed := &TubeSegment{RMin: 10, RMax: 20, Phi1: 90, Phi2: 0}
		assert.InDelta(t, 20.0, reversed.HalfExtents().X, 1e-9)

		for _, seg := range []*TubeSegment{
			{RMin: 1, RMax: 2, DZ: 1, Phi1: 1e20, Phi2: 0},
			{RMin: 1, RMax: 2, DZ: 1, Phi1: math.Inf(1), Phi2: 0},
			{RMin: 1, RMax: 2, DZ: 1, Phi1: 0, Phi2: math.NaN()},
		} {
			ext := seg.HalfExtents()
			assert.False(t, math.IsNaN(ext.X) || math.IsInf(ext.X, 0), "phi %v..%v", seg.Phi1, seg.Phi2)
			assert.LessOrEqual(t, ext.X, 2.0)
		}
	})
}
