package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jschueller/otwrapy/internal/vector"
)

// delayModel is the synthetic model the bench command runs: it writes the
// input point to a file, sleeps for a fixed delay in place of an external
// executable, and reads the file back to return the coordinate sum. It
// exercises the whole work directory pipeline without needing the beam
// binary installed.
type delayModel struct {
	delay time.Duration
}

const delayInputFile = "point.txt"

func (m *delayModel) InputDimension() int         { return 2 }
func (m *delayModel) OutputDimension() int        { return 1 }
func (m *delayModel) InputDescription() []string  { return []string{"x0", "x1"} }
func (m *delayModel) OutputDescription() []string { return []string{"sum"} }

func (m *delayModel) CreateInput(dir string, x vector.Point) error {
	f, err := os.Create(filepath.Join(dir, delayInputFile))
	if err != nil {
		return err
	}
	defer f.Close()
	for _, v := range x {
		if _, err := fmt.Fprintln(f, strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}

func (m *delayModel) Invoke(ctx context.Context, dir string) (time.Duration, error) {
	start := time.Now()
	select {
	case <-time.After(m.delay):
	case <-ctx.Done():
		return time.Since(start), ctx.Err()
	}
	return time.Since(start), nil
}

func (m *delayModel) ParseOutput(dir string) (vector.Point, error) {
	f, err := os.Open(filepath.Join(dir, delayInputFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sum := 0.0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", delayInputFile, err)
		}
		sum += v
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vector.Point{sum}, nil
}
