// Package beam is the cantilever beam model from the original wrapper
// example: four inputs (load, Young modulus, length, inertia) fed to an
// external `beam` executable through a templated XML input file, one
// output (deviation) read back from the XML it produces.
package beam

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jschueller/otwrapy/internal/vector"
)

const (
	// InputFile is the artifact name the executable reads.
	InputFile = "beam.xml"
	// OutputFile is the artifact name the executable writes.
	OutputFile = "_beam_outputs_.xml"

	defaultTimeout = 5 * time.Minute
)

// tokens are replaced positionally by the input vector's coordinates.
var tokens = []string{"@F", "@E", "@L", "@I"}

var inputDescription = []string{"Load", "Young modulus", "Length", "Inertia"}
var outputDescription = []string{"deviation"}

// Model drives the external beam executable.
type Model struct {
	TemplatePath string
	Executable   string
	Args         []string
	Timeout      time.Duration
}

func (m *Model) InputDimension() int         { return len(tokens) }
func (m *Model) OutputDimension() int        { return 1 }
func (m *Model) InputDescription() []string  { return inputDescription }
func (m *Model) OutputDescription() []string { return outputDescription }

// CreateInput substitutes the coordinates of x for the template tokens and
// writes beam.xml into dir.
func (m *Model) CreateInput(dir string, x vector.Point) error {
	if len(x) != len(tokens) {
		return fmt.Errorf("expected %d inputs, got %d", len(tokens), len(x))
	}
	tpl, err := os.ReadFile(m.TemplatePath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	content := string(tpl)
	for i, tok := range tokens {
		content = strings.ReplaceAll(content, tok, strconv.FormatFloat(x[i], 'g', -1, 64))
	}
	if err := os.WriteFile(filepath.Join(dir, InputFile), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", InputFile, err)
	}
	return nil
}

// Invoke runs the executable to completion with dir as its working
// directory and returns the wall-clock runtime.
func (m *Model) Invoke(ctx context.Context, dir string) (time.Duration, error) {
	timeout := m.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.Executable, m.Args...)
	cmd.Dir = dir

	start := time.Now()
	output, err := cmd.CombinedOutput()
	runtime := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		return runtime, fmt.Errorf("executable timeout after %s", timeout)
	}
	if err != nil {
		return runtime, fmt.Errorf("run %s: %w: %s", m.Executable, err, tail(output))
	}
	return runtime, nil
}

// ParseOutput reads the deviation attribute from _beam_outputs_.xml.
func (m *Model) ParseOutput(dir string) (vector.Point, error) {
	data, err := os.ReadFile(filepath.Join(dir, OutputFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", OutputFile, err)
	}
	var doc struct {
		XMLName   xml.Name `xml:"outputs"`
		Deviation *float64 `xml:"deviation,attr"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", OutputFile, err)
	}
	if doc.Deviation == nil {
		return nil, fmt.Errorf("parse %s: missing deviation attribute", OutputFile)
	}
	return vector.Point{*doc.Deviation}, nil
}

// Marginals are the default Monte Carlo input distributions for the beam.
func Marginals() []vector.Marginal {
	return []vector.Marginal{
		{Name: "Load", Mean: 3.0e4, StdDev: 9.0e3},
		{Name: "Young modulus", Mean: 3.0e7, StdDev: 9.0e6},
		{Name: "Length", Mean: 250, StdDev: 5.5},
		{Name: "Inertia", Mean: 400, StdDev: 100},
	}
}

func tail(output []byte) string {
	s := strings.TrimSpace(string(output))
	if len(s) > 512 {
		s = "..." + s[len(s)-512:]
	}
	return s
}
