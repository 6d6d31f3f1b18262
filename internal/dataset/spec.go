package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var ErrMalformedSpec = errors.New("malformed dataset spec")

// Spec describes one named array as "name:dtype:d1,d2,...".
type Spec struct {
	Raw   string
	Name  string
	DType DType
	Dims  []int
}

func (s Spec) String() string {
	return s.Raw
}

// Len is the number of elements.
func (s Spec) Len() int {
	n := 1
	for _, d := range s.Dims {
		n *= d
	}
	return n
}

// ParseSpec splits raw into exactly three colon-separated fields and the
// dims field into positive integers.
func ParseSpec(raw string) (Spec, error) {
	fields := strings.Split(raw, ":")
	if len(fields) != 3 {
		return Spec{}, fmt.Errorf("%w %q: want name:dtype:d1,d2,... (got %d fields)", ErrMalformedSpec, raw, len(fields))
	}
	name := fields[0]
	if name == "" {
		return Spec{}, fmt.Errorf("%w %q: empty name", ErrMalformedSpec, raw)
	}

	dtype, err := ParseDType(fields[1])
	if err != nil {
		return Spec{}, err
	}

	// Total elements must fit in one addressable byte slice.
	maxElems := math.MaxInt / dtype.Size()
	total := 1
	var dims []int
	for _, part := range strings.Split(fields[2], ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Spec{}, fmt.Errorf("%w %q: dimension %q is not an integer", ErrMalformedSpec, raw, part)
		}
		if d <= 0 {
			return Spec{}, fmt.Errorf("%w %q: dimension %d is not positive", ErrMalformedSpec, raw, d)
		}
		if d > maxElems/total {
			return Spec{}, fmt.Errorf("%w %q: total size overflows", ErrMalformedSpec, raw)
		}
		total *= d
		dims = append(dims, d)
	}

	return Spec{Raw: raw, Name: name, DType: dtype, Dims: dims}, nil
}

// ParseSpecs parses every entry and stops at the first error.
func ParseSpecs(raws []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(raws))
	for _, raw := range raws {
		s, err := ParseSpec(raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// SortSpecs orders specs by their raw text. Generation always follows
// this order so the stored arrays do not depend on argument order.
func SortSpecs(specs []Spec) {
	sort.SliceStable(specs, func(i, j int) bool {
		return specs[i].Raw < specs[j].Raw
	})
}
