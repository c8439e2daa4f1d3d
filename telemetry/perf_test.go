package telemetry

import (
	"math"
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few ticks
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSpatialGrid)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseCompute)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[PhaseSpatialGrid]; !ok {
		t.Error("expected spatial_grid phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseCompute]; !ok {
		t.Error("expected compute phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSpatialGrid)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}

	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)
	clock := &fakeClock{t: time.Unix(0, 0)}
	pc.now = clock.Now

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseCompute)
		clock.Advance(1 * time.Millisecond)
		pc.StartPhase(PhaseResolve)
		clock.Advance(3 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if got := stats.PhaseAvg[PhaseCompute]; got != time.Millisecond {
		t.Errorf("compute avg = %v, want 1ms", got)
	}
	if got := stats.PhaseAvg[PhaseResolve]; got != 3*time.Millisecond {
		t.Errorf("resolve avg = %v, want 3ms", got)
	}
	if got := stats.PhasePct[PhaseResolve]; math.Abs(got-75) > 1e-9 {
		t.Errorf("resolve share = %v%%, want 75%%", got)
	}
	if got := stats.PhasePct[PhaseCompute]; math.Abs(got-25) > 1e-9 {
		t.Errorf("compute share = %v%%, want 25%%", got)
	}
	if stats.AvgTickDuration != 4*time.Millisecond {
		t.Errorf("avg tick = %v, want 4ms", stats.AvgTickDuration)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}
