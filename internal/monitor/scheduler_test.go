package monitor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewScheduler_DefaultInterval(t *testing.T) {
	s := NewScheduler(0, func(Tick) {})
	if s.Interval() != DefaultInterval {
		t.Errorf("expected %v, got %v", DefaultInterval, s.Interval())
	}
}

func TestScheduler_TicksInOrder(t *testing.T) {
	var mu sync.Mutex
	var seqs []uint64
	s := NewScheduler(5*time.Millisecond, func(tk Tick) {
		mu.Lock()
		seqs = append(seqs, tk.Seq)
		mu.Unlock()
	})
	s.Start()
	eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seqs) >= 3
	})
	s.Stop()
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	seen := make(map[uint64]bool)
	for _, seq := range seqs {
		if seq == 0 || seen[seq] {
			t.Fatalf("tick sequence not unique and positive: %v", seqs)
		}
		seen[seq] = true
	}
}

func TestScheduler_NoTickAfterStop(t *testing.T) {
	var count atomic.Int32
	s := NewScheduler(2*time.Millisecond, func(Tick) { count.Add(1) })
	s.Start()
	eventually(t, func() bool { return count.Load() > 0 })

	s.Stop()
	s.Wait()
	stopped := count.Load()
	time.Sleep(20 * time.Millisecond)
	if n := count.Load(); n != stopped {
		t.Errorf("ticks fired after stop: %d -> %d", stopped, n)
	}
}

func TestScheduler_OverlappingCycles(t *testing.T) {
	release := make(chan struct{})
	var running atomic.Int32
	var peak atomic.Int32
	s := NewScheduler(2*time.Millisecond, func(Tick) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
	})
	s.Start()
	eventually(t, func() bool { return peak.Load() >= 2 })
	s.Stop()
	close(release)
	s.Wait()

	if running.Load() != 0 {
		t.Errorf("expected all cycles finished, %d still running", running.Load())
	}
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := NewScheduler(time.Millisecond, func(Tick) { t.Error("tick on a scheduler that never started") })

	done := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop()
		close(done)
	}()
	wait(t, done)

	s.Start()
	time.Sleep(10 * time.Millisecond)
}

func TestScheduler_FirstTickAfterInterval(t *testing.T) {
	fired := make(chan time.Time, 1)
	start := time.Now()
	s := NewScheduler(30*time.Millisecond, func(tk Tick) {
		select {
		case fired <- tk.At:
		default:
		}
	})
	s.Start()
	defer s.Stop()

	select {
	case at := <-fired:
		if at.Sub(start) < 25*time.Millisecond {
			t.Errorf("first tick fired too early: %v", at.Sub(start))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no tick")
	}
}
