package wrapper

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jschueller/otwrapy/internal/beam"
	"github.com/jschueller/otwrapy/internal/model"
	"github.com/jschueller/otwrapy/internal/vector"
)

// Full pipeline against the real beam model: templated input file, fake
// executable run in the scoped work directory, XML output parsing, cache
// on top. The fake executable echoes the load back as the deviation and
// records every run in a shared count file.
func TestBeamPipelineWithCache(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	dir := t.TempDir()

	tplPath := filepath.Join(dir, "beam_input_template.xml")
	tpl := `<beam F="@F" E="@E" L="@L" I="@I"/>`
	if err := os.WriteFile(tplPath, []byte(tpl), 0o644); err != nil {
		t.Fatal(err)
	}

	countPath := filepath.Join(dir, "runs.txt")
	exePath := filepath.Join(dir, "beam.sh")
	script := fmt.Sprintf(`#!/bin/sh
f=$(sed -n 's/.*F="\([^"]*\)".*/\1/p' %s)
echo "<outputs deviation=\"$f\"/>" > %s
echo run >> %s
`, beam.InputFile, beam.OutputFile, countPath)
	if err := os.WriteFile(exePath, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	m := &beam.Model{TemplatePath: tplPath, Executable: exePath}
	f := newTestFunction(t, m, Config{Mode: ModeLocal, Workers: 2},
		WithEvaluatorOptions(model.WithBaseDir(dir)))

	sampler, err := vector.NewSampler(beam.Marginals(), 42)
	if err != nil {
		t.Fatal(err)
	}
	xs := sampler.Draw(4)

	ys, err := f.CallBatch(context.Background(), xs)
	if err != nil {
		t.Fatalf("CallBatch: %v", err)
	}
	for i, y := range ys {
		if len(y) != 1 {
			t.Fatalf("point %d: output dimension %d", i, len(y))
		}
		// The script echoes F back, modulo decimal formatting.
		if math.Abs(y[0]-xs[i][0]) > 1e-6*math.Abs(xs[i][0]) {
			t.Errorf("point %d: deviation %v, want %v", i, y[0], xs[i][0])
		}
	}

	data, err := os.ReadFile(countPath)
	if err != nil {
		t.Fatal(err)
	}
	if runs := strings.Count(string(data), "run"); runs != 4 {
		t.Errorf("executable ran %d times, want 4", runs)
	}
	if got := f.CacheLen(); got != 4 {
		t.Errorf("CacheLen() = %d, want 4", got)
	}

	// A second batch repeating the first is served from the cache.
	repeat := append(xs.Clone(), xs[0].Clone(), xs[2].Clone())
	if _, err := f.CallBatch(context.Background(), repeat); err != nil {
		t.Fatalf("second CallBatch: %v", err)
	}
	data, _ = os.ReadFile(countPath)
	if runs := strings.Count(string(data), "run"); runs != 4 {
		t.Errorf("executable ran %d times after warm batch, want 4", runs)
	}
}
