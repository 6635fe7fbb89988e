// Package doe persists designs of experiments and their results as
// parquet files, so input collections can be produced and consumed across
// separate runs.
package doe

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/jschueller/otwrapy/internal/vector"
)

type row struct {
	Values []float64 `parquet:"values"`
}

// Save writes the sample to path, one row per point. Failed positions
// (nil points) are rejected; persist only resolved samples.
func Save(path string, s vector.Sample) error {
	dim := s.Dimension()
	rows := make([]row, len(s))
	for i, p := range s {
		if p == nil {
			return fmt.Errorf("save %s: point %d is unresolved", path, i)
		}
		if len(p) != dim {
			return fmt.Errorf("save %s: point %d has dimension %d, want %d", path, i, len(p), dim)
		}
		rows[i] = row{Values: p}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Load reads a sample previously written with Save.
func Load(path string) (vector.Sample, error) {
	rows, err := parquet.ReadFile[row](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s := make(vector.Sample, len(rows))
	for i, r := range rows {
		s[i] = vector.Point(r.Values)
	}
	if dim := s.Dimension(); dim > 0 {
		for i, p := range s {
			if len(p) != dim {
				return nil, fmt.Errorf("read %s: point %d has dimension %d, want %d", path, i, len(p), dim)
			}
		}
	}
	return s, nil
}
