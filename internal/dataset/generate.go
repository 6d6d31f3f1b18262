package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
)

// pcgStream is the fixed second PCG seed word; the user seed is the
// first.
const pcgStream = 0x5eed_da7a_5eed_da7a

// Generator draws reproducible arrays from its own seeded source. Two
// generators with the same seed produce the same sequence when asked for
// the same specs in the same order.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(uint64(seed), pcgStream))}
}

// maxValue is the largest value representable by an integer dtype.
func maxValue(d DType) uint64 {
	bits := uint(8 * d.Size())
	if d.IsSigned() {
		bits--
	}
	if bits == 64 {
		return math.MaxUint64
	}
	return 1<<bits - 1
}

// Generate fills an array for spec. Integers are uniform in
// [0, max of the type), floats uniform in [-1, 1).
func (g *Generator) Generate(spec Spec) (*Array, error) {
	n := spec.Len()
	size := spec.DType.Size()
	data := make([]byte, 0, n*size)
	le := binary.LittleEndian

	switch {
	case spec.DType.IsInteger():
		upper := maxValue(spec.DType)
		for i := 0; i < n; i++ {
			v := g.rng.Uint64N(upper)
			switch size {
			case 1:
				data = append(data, byte(v))
			case 2:
				data = le.AppendUint16(data, uint16(v))
			case 4:
				data = le.AppendUint32(data, uint32(v))
			default:
				data = le.AppendUint64(data, v)
			}
		}
	case spec.DType == Float32:
		below := math.Nextafter32(1, 0)
		for i := 0; i < n; i++ {
			f := float32(g.uniform())
			// Rounding to single precision can land exactly on 1.
			if f >= 1 {
				f = below
			}
			data = le.AppendUint32(data, math.Float32bits(f))
		}
	case spec.DType == Float64:
		for i := 0; i < n; i++ {
			data = le.AppendUint64(data, math.Float64bits(g.uniform()))
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, spec.DType)
	}

	return &Array{
		Name:  spec.Name,
		DType: spec.DType,
		Shape: append([]int(nil), spec.Dims...),
		Data:  data,
	}, nil
}

func (g *Generator) uniform() float64 {
	return -1 + 2*g.rng.Float64()
}
