package vector

import (
	"math"
	"testing"
)

func TestPointKey(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Point
		equal bool
	}{
		{"identical", Point{1, 2, 3}, Point{1, 2, 3}, true},
		{"different value", Point{1, 2, 3}, Point{1, 2, 4}, false},
		{"different length", Point{1, 2}, Point{1, 2, 0}, false},
		{"negative zero", Point{0.0}, Point{math.Copysign(0, -1)}, false},
		{"large values", Point{10000.0, 3e7, 5.0, 100.0}, Point{10000.0, 3e7, 5.0, 100.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Key() == tt.b.Key(); got != tt.equal {
				t.Errorf("key equality = %v, want %v", got, tt.equal)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal = %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestPointClone(t *testing.T) {
	p := Point{1, 2, 3}
	c := p.Clone()
	c[0] = 99

	if p[0] != 1 {
		t.Errorf("clone mutated the original: %v", p)
	}
}

func TestPointIsValid(t *testing.T) {
	if !(Point{1, 2}).IsValid() {
		t.Error("finite point reported invalid")
	}
	if (Point{1, math.NaN()}).IsValid() {
		t.Error("NaN point reported valid")
	}
	if (Point{math.Inf(1)}).IsValid() {
		t.Error("Inf point reported valid")
	}
}

func TestSampleDimension(t *testing.T) {
	s := Sample{nil, Point{1, 2, 3}, Point{4, 5, 6}}
	if got := s.Dimension(); got != 3 {
		t.Errorf("dimension = %d, want 3", got)
	}
	if got := (Sample{}).Dimension(); got != 0 {
		t.Errorf("empty sample dimension = %d, want 0", got)
	}
}

func TestSamplerDeterministic(t *testing.T) {
	marginals := []Marginal{
		{Name: "a", Mean: 10, StdDev: 2},
		{Name: "b", Mean: -1, StdDev: 0.5},
	}

	s1, err := NewSampler(marginals, 42)
	if err != nil {
		t.Fatalf("new sampler: %v", err)
	}
	s2, err := NewSampler(marginals, 42)
	if err != nil {
		t.Fatalf("new sampler: %v", err)
	}

	a := s1.Draw(50)
	b := s2.Draw(50)

	if len(a) != 50 {
		t.Fatalf("draw returned %d points, want 50", len(a))
	}
	for i := range a {
		if len(a[i]) != 2 {
			t.Fatalf("point %d has dimension %d, want 2", i, len(a[i]))
		}
		if !a[i].Equal(b[i]) {
			t.Fatalf("same seed diverged at point %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestSamplerRejectsBadMarginals(t *testing.T) {
	if _, err := NewSampler(nil, 0); err == nil {
		t.Error("expected error for empty marginals")
	}
	if _, err := NewSampler([]Marginal{{Name: "a", StdDev: -1}}, 0); err == nil {
		t.Error("expected error for negative stddev")
	}
}
