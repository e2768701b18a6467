package observation

import "strings"

const DefaultHistoryLen = 4

// Window is the bounded FIFO of the most recent records of one session.
// It is not safe for concurrent use; the owning session serializes access.
type Window struct {
	capacity int
	records  []Record
}

func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = DefaultHistoryLen
	}
	return &Window{
		capacity: capacity,
		records:  make([]Record, 0, capacity),
	}
}

func (w *Window) Append(r Record) {
	w.records = append(w.records, r)
	if over := len(w.records) - w.capacity; over > 0 {
		kept := make([]Record, w.capacity)
		copy(kept, w.records[over:])
		w.records = kept
	}
}

// Render lists the records oldest first, one per line.
func (w *Window) Render() string {
	if len(w.records) == 0 {
		return ""
	}
	lines := make([]string, len(w.records))
	for i, r := range w.records {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

func (w *Window) Reset() {
	w.records = w.records[:0]
}

func (w *Window) Len() int {
	return len(w.records)
}

func (w *Window) Cap() int {
	return w.capacity
}

func (w *Window) Records() []Record {
	out := make([]Record, len(w.records))
	copy(out, w.records)
	return out
}
