package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsImmediatelyAndTicks(t *testing.T) {
	t.Parallel()

	var runs atomic.Int64
	s := NewIntervalScheduler(20 * time.Millisecond)

	if err := s.Start(context.Background(), func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop(context.Background())

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected startup run plus at least one tick, got %d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestIntervalSchedulerDisabled(t *testing.T) {
	t.Parallel()

	var runs atomic.Int64
	s := NewIntervalScheduler(0)

	if err := s.Start(context.Background(), func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if runs.Load() != 0 {
		t.Fatalf("disabled scheduler must never run the job, got %d", runs.Load())
	}
}

func TestIntervalSchedulerStopWhileTicking(t *testing.T) {
	t.Parallel()

	var runs atomic.Int64
	s := NewIntervalScheduler(time.Millisecond)

	if err := s.Start(context.Background(), func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}

	// wait until the ticker loop is demonstrably live
	for runs.Load() < 2 {
		time.Sleep(time.Millisecond)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Stop(context.Background()); err != nil {
				t.Errorf("stop: %v", err)
			}
		}()
	}
	wg.Wait()

	// a tick already drawn when Stop closed the channel may still run;
	// after the loop observes the close the count must hold steady
	time.Sleep(20 * time.Millisecond)
	settled := runs.Load()
	time.Sleep(20 * time.Millisecond)
	if runs.Load() != settled {
		t.Fatal("job ran after stop")
	}

	// stopped scheduler can be started again
	if err := s.Start(context.Background(), func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer s.Stop(context.Background())

	for runs.Load() == settled {
		time.Sleep(time.Millisecond)
	}
}

func TestIntervalSchedulerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour)
	if err := s.Start(context.Background(), func(time.Time) {}); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
