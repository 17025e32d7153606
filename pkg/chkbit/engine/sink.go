package engine

import (
	"sync"

	"github.com/chkbit-go/chkbit/pkg/chkbit/event"
)

// Summary is the aggregate result of draining a Sink's events for one run.
type Summary struct {
	// Total counts files classified OK, UPDATE, or NEW.
	Total int
	// Damaged lists paths classified ERR_DMG, in the order observed.
	Damaged []string
	// Errors lists paths classified INTERNAL_EXCEPTION, paired with their
	// message, in the order observed.
	Errors []ErrorEntry
	// IndexesUpdated counts UPDATE_INDEX events.
	IndexesUpdated int
	// FilesHashed and BytesHashed accumulate Throughput deltas.
	FilesHashed int
	BytesHashed int64
}

// ErrorEntry pairs an INTERNAL_EXCEPTION path with its message.
type ErrorEntry struct {
	Path    string
	Message string
}

// HasFailures reports whether the run should exit nonzero: any damage or
// internal exception occurred.
func (s Summary) HasFailures() bool {
	return len(s.Damaged) > 0 || len(s.Errors) > 0
}

// Sink is a single consumer draining an Engine's result channel. Workers
// never print; the Sink (via its Observer, if set) is the only path to
// user-visible output, per spec.md section 4.5.
type Sink struct {
	// Observer, if non-nil, is invoked synchronously for every event as it
	// is drained, after the Sink updates its own aggregate state. This is
	// how the CLI renderer receives per-file classifications and
	// throughput ticks without the core engine depending on any rendering
	// package.
	Observer func(event.Event)

	mu      sync.Mutex
	summary Summary
}

// Drain consumes events until the channel is closed, updating the
// aggregate Summary and invoking Observer for each event. It returns the
// final Summary.
func (s *Sink) Drain(events <-chan event.Event) Summary {
	for e := range events {
		s.mu.Lock()
		s.apply(e)
		s.mu.Unlock()
		if s.Observer != nil {
			s.Observer(e)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

func (s *Sink) apply(e event.Event) {
	switch e.Kind {
	case event.KindThroughput:
		s.summary.FilesHashed += e.FilesDelta
		s.summary.BytesHashed += e.BytesDelta
	case event.KindClassification:
		switch e.Status {
		case event.StatusOK, event.StatusUpdate, event.StatusNew:
			s.summary.Total++
		case event.StatusDamage:
			s.summary.Damaged = append(s.summary.Damaged, e.Path)
		case event.StatusInternalException:
			s.summary.Errors = append(s.summary.Errors, ErrorEntry{Path: e.Path, Message: e.Message})
		case event.StatusUpdateIndex:
			s.summary.IndexesUpdated++
		}
	}
}
