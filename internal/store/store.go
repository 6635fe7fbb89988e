// Package store persists batch runs (metadata plus input/output samples)
// under a data directory, so designs of experiments can be produced in one
// run and post-treated in another.
package store

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jschueller/otwrapy/internal/doe"
	"github.com/jschueller/otwrapy/internal/vector"
)

const (
	metadataFile = "metadata.json"
	inputsFile   = "inputs.parquet"
	outputsFile  = "outputs.parquet"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Site      string    `json:"site"`
	Backend   string    `json:"backend"`
	Workers   int       `json:"workers"`
	Seed      int64     `json:"seed"`
	Size      int       `json:"size"`
	Failed    int       `json:"failed"`
	WallTime  float64   `json:"wall_time_seconds"`
	Timestamp time.Time `json:"timestamp"`
}

// Save persists one run. Unresolved output positions (nil points) are
// written as NaN vectors and counted in the metadata's Failed field.
func (s *Store) Save(meta RunMetadata, inputs, outputs vector.Sample) (string, error) {
	if len(inputs) != len(outputs) {
		return "", fmt.Errorf("inputs (%d) and outputs (%d) differ in size", len(inputs), len(outputs))
	}

	runID := fmt.Sprintf("run_%d_%s", time.Now().Unix(), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Size = len(inputs)
	meta.Timestamp = time.Now()

	resolved, failed := fillUnresolved(outputs)
	meta.Failed = failed

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := doe.Save(filepath.Join(runDir, inputsFile), inputs); err != nil {
		return "", err
	}
	if err := doe.Save(filepath.Join(runDir, outputsFile), resolved); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) (inputs, outputs vector.Sample, err error) {
	runDir := filepath.Join(s.baseDir, runID)
	inputs, err = doe.Load(filepath.Join(runDir, inputsFile))
	if err != nil {
		return nil, nil, err
	}
	outputs, err = doe.Load(filepath.Join(runDir, outputsFile))
	if err != nil {
		return nil, nil, err
	}
	return inputs, outputs, nil
}

// fillUnresolved replaces nil points with NaN vectors of the sample's
// output dimension so the parquet file stays rectangular.
func fillUnresolved(outputs vector.Sample) (vector.Sample, int) {
	dim := outputs.Dimension()
	if dim == 0 {
		dim = 1
	}
	nan := make(vector.Point, dim)
	for i := range nan {
		nan[i] = math.NaN()
	}

	resolved := make(vector.Sample, len(outputs))
	failed := 0
	for i, p := range outputs {
		if p == nil {
			resolved[i] = nan.Clone()
			failed++
			continue
		}
		resolved[i] = p
	}
	return resolved, failed
}
