package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jschueller/otwrapy/internal/vector"
)

func constant(y vector.Point) func() (vector.Point, error) {
	return func() (vector.Point, error) { return y, nil }
}

func TestGetOrComputeMemoizes(t *testing.T) {
	c := New(10)

	calls := 0
	compute := func() (vector.Point, error) {
		calls++
		return vector.Point{42}, nil
	}

	x := vector.Point{1, 2, 3}
	y1, err := c.GetOrCompute(x, compute)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	y2, err := c.GetOrCompute(x, compute)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if !y1.Equal(y2) {
		t.Errorf("results differ: %v vs %v", y1, y2)
	}
	if calls != 1 {
		t.Errorf("compute invoked %d times, want 1", calls)
	}
}

func TestLRUEviction(t *testing.T) {
	c := New(3)

	points := []vector.Point{{1}, {2}, {3}, {4}}
	for _, p := range points {
		if _, err := c.GetOrCompute(p, constant(vector.Point{0})); err != nil {
			t.Fatalf("compute %v: %v", p, err)
		}
	}

	if c.Len() != 3 {
		t.Fatalf("len = %d, want capacity 3", c.Len())
	}
	if c.Contains(vector.Point{1}) {
		t.Error("first-inserted key survived past capacity")
	}
	for _, p := range points[1:] {
		if !c.Contains(p) {
			t.Errorf("key %v evicted too early", p)
		}
	}
}

func TestHitRefreshesRecency(t *testing.T) {
	c := New(2)

	a, b, d := vector.Point{1}, vector.Point{2}, vector.Point{3}
	c.Put(a, vector.Point{10})
	c.Put(b, vector.Point{20})

	// Touch a so b becomes the eviction candidate.
	if _, ok := c.Get(a); !ok {
		t.Fatal("expected hit for a")
	}
	c.Put(d, vector.Point{30})

	if !c.Contains(a) {
		t.Error("recently used key was evicted")
	}
	if c.Contains(b) {
		t.Error("least recently used key survived")
	}
}

func TestNeverExceedsCapacity(t *testing.T) {
	c := New(5)
	for i := 0; i < 100; i++ {
		c.Put(vector.Point{float64(i)}, vector.Point{0})
		if c.Len() > 5 {
			t.Fatalf("len = %d exceeds capacity after %d inserts", c.Len(), i+1)
		}
	}
}

func TestConcurrentSameKeyCollapses(t *testing.T) {
	c := New(10)

	var calls atomic.Int64
	compute := func() (vector.Point, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return vector.Point{7}, nil
	}

	x := vector.Point{1, 2}
	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			y, err := c.GetOrCompute(x, compute)
			if err != nil {
				t.Errorf("get or compute: %v", err)
				return
			}
			if y[0] != 7 {
				t.Errorf("y = %v, want [7]", y)
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("compute ran %d times for one key, want 1", got)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}

func TestFailedComputeNotCached(t *testing.T) {
	c := New(10)
	x := vector.Point{1}

	boom := errors.New("exit status 1")
	if _, err := c.GetOrCompute(x, func() (vector.Point, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if c.Contains(x) {
		t.Error("failed computation was cached")
	}

	// A later successful computation must still run.
	y, err := c.GetOrCompute(x, constant(vector.Point{5}))
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if y[0] != 5 {
		t.Errorf("y = %v, want [5]", y)
	}
}

func TestConcurrentDistinctKeys(t *testing.T) {
	c := New(1000)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			y, err := c.GetOrCompute(vector.Point{v}, constant(vector.Point{v * 2}))
			if err != nil {
				t.Errorf("compute: %v", err)
				return
			}
			if y[0] != v*2 {
				t.Errorf("y = %v, want [%g]", y, v*2)
			}
		}(float64(i))
	}
	wg.Wait()

	if c.Len() != 64 {
		t.Errorf("len = %d, want 64", c.Len())
	}
}
