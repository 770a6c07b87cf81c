package wizard

import (
	"slices"
	"sort"
)

// snapshot captures every observable property so a mutation can report
// exactly what it changed.
type snapshot struct {
	original           string
	placeholders       []string
	index              int
	currentPlaceholder string
	currentValue       string
	processed          string
	complete           bool
	canNext            bool
	canPrev            bool
}

func (s *Session) snapshot() snapshot {
	return snapshot{
		original:           s.original,
		placeholders:       s.placeholders,
		index:              s.index,
		currentPlaceholder: s.CurrentPlaceholder(),
		currentValue:       s.current,
		processed:          s.processed,
		complete:           s.IsComplete(),
		canNext:            s.CanGoNext(),
		canPrev:            s.CanGoPrevious(),
	}
}

func (a snapshot) differs(b snapshot, p Property) bool {
	switch p {
	case PropOriginalContent:
		return a.original != b.original
	case PropPlaceholders:
		return !slices.Equal(a.placeholders, b.placeholders)
	case PropCurrentIndex:
		return a.index != b.index
	case PropCurrentPlaceholder:
		return a.currentPlaceholder != b.currentPlaceholder
	case PropCurrentValue:
		return a.currentValue != b.currentValue
	case PropProcessedContent:
		return a.processed != b.processed
	case PropIsComplete:
		return a.complete != b.complete
	case PropCanGoNext:
		return a.canNext != b.canNext
	case PropCanGoPrevious:
		return a.canPrev != b.canPrev
	}
	return false
}

// mutate runs fn as one atomic state change followed by its notifications.
// fn returns true when every property must be reported regardless of change.
// Calls made while another mutation is running (from a listener) are queued
// and run afterwards; mutate then returns false.
func (s *Session) mutate(fn func() (forceAll bool)) bool {
	if s.busy {
		s.pending = append(s.pending, func() { s.apply(fn) })
		return false
	}

	s.busy = true
	defer func() {
		s.busy = false
		s.pending = nil
	}()

	s.apply(fn)
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		next()
	}
	return true
}

func (s *Session) apply(fn func() bool) {
	before := s.snapshot()
	forceAll := fn()
	after := s.snapshot()

	events := s.notices
	s.notices = nil
	for _, p := range allProperties {
		if forceAll || before.differs(after, p) {
			events = append(events, propertyChanged(p))
		}
	}
	if s.allDone {
		s.allDone = false
		events = append(events, Event{Kind: EventAllCompleted})
	}

	if len(events) == 0 {
		return
	}
	s.version++
	s.dispatch(events)
}

func (s *Session) dispatch(events []Event) {
	if len(s.listeners) == 0 {
		return
	}

	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, ev := range events {
		for _, id := range ids {
			if l, ok := s.listeners[id]; ok {
				l(ev)
			}
		}
	}
}
