package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/eleven-am/careflow/internal/observation"
)

// StatusSink receives every status a session applies, in apply order.
type StatusSink interface {
	Publish(ctx context.Context, sessionID string, st Status) error
}

// RecordSink is implemented by sinks that keep an observation log. Results
// that finish after a newer tick is already displayed reach it through
// AppendRecord without touching the displayed status.
type RecordSink interface {
	AppendRecord(ctx context.Context, sessionID string, rec observation.Record) error
}

const (
	sinkQueueSize = 64
	sinkTimeout   = 5 * time.Second
)

type sinkUpdate struct {
	sessionID string
	status    Status
	late      *observation.Record
}

// notifier hands statuses to sinks off the session lock while keeping
// their order.
type notifier struct {
	sinks  []StatusSink
	queue  chan sinkUpdate
	done   chan struct{}
	logger *slog.Logger
}

func newNotifier(sinks []StatusSink, logger *slog.Logger) *notifier {
	n := &notifier{
		sinks:  sinks,
		queue:  make(chan sinkUpdate, sinkQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go n.run()
	return n
}

func (n *notifier) enqueue(sessionID string, st Status) {
	n.push(sinkUpdate{sessionID: sessionID, status: st})
}

func (n *notifier) enqueueRecord(sessionID string, rec observation.Record) {
	n.push(sinkUpdate{sessionID: sessionID, late: &rec})
}

func (n *notifier) push(u sinkUpdate) {
	if len(n.sinks) == 0 {
		return
	}
	select {
	case n.queue <- u:
	default:
		n.logger.Warn("status sink queue full, dropping update", "kind", u.status.Kind)
	}
}

func (n *notifier) run() {
	defer close(n.done)
	for u := range n.queue {
		for _, sink := range n.sinks {
			n.deliver(sink, u)
		}
	}
}

func (n *notifier) deliver(sink StatusSink, u sinkUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	if u.late != nil {
		rs, ok := sink.(RecordSink)
		if !ok {
			return
		}
		if err := rs.AppendRecord(ctx, u.sessionID, *u.late); err != nil {
			n.logger.Warn("record sink append failed", "error", err)
		}
		return
	}
	if err := sink.Publish(ctx, u.sessionID, u.status); err != nil {
		n.logger.Warn("status sink publish failed", "error", err)
	}
}

// close drains queued updates and stops the worker.
func (n *notifier) close() {
	close(n.queue)
	<-n.done
}
