package monitor

import (
	"sync"
	"time"
)

const DefaultInterval = 3 * time.Second

// Tick identifies one dispatched cycle. Seq increases strictly with issue
// order within a scheduler's lifetime.
type Tick struct {
	Seq uint64
	At  time.Time
}

// Scheduler fires fn on a fixed period. Every tick gets its own goroutine,
// so a slow cycle never delays the next one.
type Scheduler struct {
	interval time.Duration
	fn       func(Tick)

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
	cycles  sync.WaitGroup
}

func NewScheduler(interval time.Duration, fn func(Tick)) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		interval: interval,
		fn:       fn,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	go s.loop()
}

// Stop returns once the tick loop has exited. Cycles already dispatched keep
// running; use Wait to block on them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	close(s.stop)
	s.mu.Unlock()

	if started {
		<-s.done
	}
}

func (s *Scheduler) Wait() {
	s.cycles.Wait()
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-s.stop:
			return
		case at := <-ticker.C:
			select {
			case <-s.stop:
				return
			default:
			}
			seq++
			s.cycles.Add(1)
			go func(t Tick) {
				defer s.cycles.Done()
				s.fn(t)
			}(Tick{Seq: seq, At: at})
		}
	}
}
