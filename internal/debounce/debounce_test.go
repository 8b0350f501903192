package debounce

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	values []int
	times  []time.Time
}

func (r *recorder) record(v int) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.times = append(r.times, time.Now())
	r.mu.Unlock()
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.values))
	copy(out, r.values)
	return out
}

// Scaled-down version of the reference burst: values at t=0,100,150 with a
// 300ms quiet period emit exactly once, carrying the t=150 value; the next
// value at t=500 starts a fresh burst.
func TestTrailingEdgeBurst(t *testing.T) {
	const unit = 10 * time.Millisecond // 1 unit = 10ms keeps the test fast

	rec := &recorder{}
	d := New[int](30*unit, rec.record)
	start := time.Now()

	d.Set(1)                // t=0
	time.Sleep(10 * unit)   //
	d.Set(2)                // t=100
	time.Sleep(5 * unit)    //
	d.Set(3)                // t=150
	time.Sleep(35 * unit)   // quiet period elapses around t=450
	d.Set(4)                // t=500, new burst
	time.Sleep(40 * unit)   // second emission around t=800
	defer d.Stop()

	got := rec.snapshot()
	if len(got) != 2 {
		t.Fatalf("Expected 2 emissions, got %d (%v)", len(got), got)
	}
	if got[0] != 3 {
		t.Errorf("First emission carried %d, want 3 (last of the burst)", got[0])
	}
	if got[1] != 4 {
		t.Errorf("Second emission carried %d, want 4", got[1])
	}

	rec.mu.Lock()
	first := rec.times[0].Sub(start)
	rec.mu.Unlock()
	// ~450 in scaled units; wide margins against scheduler jitter.
	if first < 40*unit || first > 60*unit {
		t.Errorf("First emission at %v, want around %v", first, 45*unit)
	}
}

func TestStopCancelsPending(t *testing.T) {
	rec := &recorder{}
	d := New[int](20*time.Millisecond, rec.record)

	d.Set(1)
	d.Stop()
	time.Sleep(60 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("Expected no emissions after Stop, got %v", got)
	}

	// Still usable after Stop.
	d.Set(2)
	time.Sleep(60 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("Expected single emission of 2, got %v", got)
	}
}

func TestStructuredPayload(t *testing.T) {
	type req struct {
		YStart int
		Token  string
	}

	var mu sync.Mutex
	var got []req
	d := New[req](15*time.Millisecond, func(r req) {
		mu.Lock()
		got = append(got, r)
		mu.Unlock()
	})

	d.Set(req{YStart: 100, Token: "a"})
	d.Set(req{YStart: 250, Token: "b"})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("Expected 1 emission, got %d", len(got))
	}
	if got[0].YStart != 250 || got[0].Token != "b" {
		t.Errorf("Expected latest payload {250 b}, got %+v", got[0])
	}
}
