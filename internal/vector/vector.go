package vector

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Point is a fixed-length numeric vector: one model call's input or output.
type Point []float64

func (p Point) Clone() Point {
	c := make(Point, len(p))
	copy(c, p)
	return c
}

func (p Point) Equal(q Point) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if math.Float64bits(p[i]) != math.Float64bits(q[i]) {
			return false
		}
	}
	return true
}

// Key returns an exact byte-level representation of p, suitable as a cache
// key. Two points map to the same key iff every coordinate is bit-identical.
func (p Point) Key() string {
	buf := make([]byte, 8*len(p))
	for i, v := range p {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return string(buf)
}

func (p Point) IsValid() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Point) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Sample is an ordered collection of points, e.g. a design of experiments.
type Sample []Point

func (s Sample) Clone() Sample {
	c := make(Sample, len(s))
	for i, p := range s {
		c[i] = p.Clone()
	}
	return c
}

// Dimension returns the length of the first non-nil point, or 0.
func (s Sample) Dimension() int {
	for _, p := range s {
		if p != nil {
			return len(p)
		}
	}
	return 0
}
