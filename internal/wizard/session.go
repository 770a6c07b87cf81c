// Package wizard implements the guided, one-placeholder-at-a-time fill
// session that sits on top of the placeholder engine.
//
// A Session owns its state exclusively and is not safe for concurrent use.
// Observers either Subscribe to events or poll Version.
package wizard

import (
	"slices"

	"github.com/dpshade/pocket-fill/internal/placeholder"
)

// Session tracks one fill pass over a template.
type Session struct {
	original     string
	placeholders []string
	values       map[string]string
	index        int
	current      string
	processed    string

	// completed latches AllCompleted so it fires once per transition.
	completed bool
	version   uint64

	listeners  map[int]Listener
	listenerID int

	busy    bool
	pending []func()
	notices []Event
	allDone bool
}

// New returns an empty session with no placeholders.
func New() *Session {
	return &Session{
		index:     -1,
		values:    make(map[string]string),
		listeners: make(map[int]Listener),
	}
}

// NewWithContent returns a session initialised with content.
func NewWithContent(content string) *Session {
	s := New()
	s.Initialize(content)
	return s
}

// Subscribe registers l for every event the session emits and returns a
// function that removes it.
func (s *Session) Subscribe(l Listener) (cancel func()) {
	if s.listeners == nil {
		s.listeners = make(map[int]Listener)
	}
	id := s.listenerID
	s.listenerID++
	s.listeners[id] = l
	return func() { delete(s.listeners, id) }
}

// Version increases every time a mutation changes observable state.
func (s *Session) Version() uint64 { return s.version }

// OriginalContent returns the template text being filled.
func (s *Session) OriginalContent() string { return s.original }

// Placeholders returns the ordered, distinct placeholder names.
func (s *Session) Placeholders() []string { return slices.Clone(s.placeholders) }

// Len returns the number of placeholders.
func (s *Session) Len() int { return len(s.placeholders) }

// CurrentIndex returns the active position, or -1 when there are no placeholders.
func (s *Session) CurrentIndex() int { return s.index }

// CurrentPlaceholder returns the active placeholder name, or "".
func (s *Session) CurrentPlaceholder() string {
	if !s.validIndex(s.index) {
		return ""
	}
	return s.placeholders[s.index]
}

// CurrentValue returns the staged, uncommitted value for the active placeholder.
func (s *Session) CurrentValue() string { return s.current }

// ProcessedContent returns the live preview of the template.
func (s *Session) ProcessedContent() string { return s.processed }

// CanGoNext reports whether GoNext would move.
func (s *Session) CanGoNext() bool { return s.index < len(s.placeholders)-1 }

// CanGoPrevious reports whether GoPrevious would move.
func (s *Session) CanGoPrevious() bool { return s.index > 0 }

// IsComplete reports whether every placeholder has a committed non-empty
// value or a non-empty default on its first occurrence in the template.
// The staged value does not count until it is saved.
func (s *Session) IsComplete() bool {
	for _, name := range s.placeholders {
		if !s.satisfied(name) {
			return false
		}
	}
	return true
}

// Missing returns the placeholders that still block completion.
func (s *Session) Missing() []string {
	var missing []string
	for _, name := range s.placeholders {
		if !s.satisfied(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Values returns a copy of the committed values.
func (s *Session) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// HasDefaultValue reports whether name's first occurrence carries a default.
func (s *Session) HasDefaultValue(name string) bool {
	return s.DefaultValue(name) != ""
}

// DefaultValue returns the default embedded in name's first occurrence.
func (s *Session) DefaultValue(name string) string {
	def, _ := placeholder.DefaultFor(s.original, name)
	return def
}

// Preview renders the template with committed values and the staged value.
func (s *Session) Preview() string {
	return placeholder.Preview(s.original, s.overlay())
}

// Result returns the resolved text handed to callers on completion. Tokens
// with neither a value nor a default stay as literal token text.
func (s *Session) Result() string {
	return placeholder.Replace(s.original, s.overlay())
}

// Initialize loads content, clears all values and moves to the first
// placeholder. Every property is reported as changed.
func (s *Session) Initialize(content string) {
	s.mutate(func() bool {
		s.load(content)
		return true
	})
}

// SetOriginalContent behaves like Initialize unless content is unchanged.
func (s *Session) SetOriginalContent(content string) {
	s.mutate(func() bool {
		if content == s.original {
			return false
		}
		s.load(content)
		return true
	})
}

// Reset clears committed and staged values and returns to the first
// placeholder. The template and placeholder list are kept.
func (s *Session) Reset() {
	s.mutate(func() bool {
		clear(s.values)
		s.current = ""
		s.index = s.firstIndex()
		s.refresh()
		s.completed = s.IsComplete()
		return false
	})
}

// GoNext commits the staged value and advances. It returns false when
// already on the last placeholder or when the call was deferred.
func (s *Session) GoNext() bool {
	moved := false
	applied := s.mutate(func() bool {
		if !s.CanGoNext() {
			return false
		}
		s.save()
		s.moveTo(s.index + 1)
		moved = true
		return false
	})
	return applied && moved
}

// GoPrevious commits the staged value and steps back.
func (s *Session) GoPrevious() bool {
	moved := false
	applied := s.mutate(func() bool {
		if !s.CanGoPrevious() {
			return false
		}
		s.save()
		s.moveTo(s.index - 1)
		moved = true
		return false
	})
	return applied && moved
}

// SetCurrentIndex commits the staged value and jumps to index. Out of range
// or unchanged indexes are ignored.
func (s *Session) SetCurrentIndex(index int) bool {
	moved := false
	applied := s.mutate(func() bool {
		if !s.validIndex(index) || index == s.index {
			return false
		}
		s.save()
		s.moveTo(index)
		moved = true
		return false
	})
	return applied && moved
}

// SetCurrentValue stages v for the active placeholder and refreshes the
// preview. Nothing is committed until SaveCurrentValue or navigation.
func (s *Session) SetCurrentValue(v string) {
	s.mutate(func() bool {
		if !s.validIndex(s.index) || v == s.current {
			return false
		}
		s.current = v
		s.refresh()
		return false
	})
}

// SaveCurrentValue commits the staged value for the active placeholder.
func (s *Session) SaveCurrentValue() {
	s.mutate(func() bool {
		s.save()
		return false
	})
}

func (s *Session) load(content string) {
	s.original = content
	if s.values == nil {
		s.values = make(map[string]string)
	}
	clear(s.values)
	s.placeholders = placeholder.Extract(content)
	s.index = s.firstIndex()
	s.current = ""
	s.refresh()
	// a template complete through defaults alone never transitions
	s.completed = s.IsComplete()
}

func (s *Session) save() {
	if !s.validIndex(s.index) {
		return
	}
	name := s.placeholders[s.index]
	s.values[name] = s.current
	s.notices = append(s.notices, Event{
		Kind:        EventPlaceholderCompleted,
		Placeholder: name,
		Value:       s.current,
	})
	s.refresh()

	if !s.IsComplete() {
		s.completed = false
		return
	}
	if !s.completed {
		s.completed = true
		s.allDone = true
	}
}

func (s *Session) moveTo(index int) {
	s.index = index
	s.current = s.values[s.placeholders[index]]
	s.refresh()
}

// refresh recomputes the processed content from scratch.
func (s *Session) refresh() {
	s.processed = placeholder.Preview(s.original, s.overlay())
}

// overlay returns committed values with the staged value on top.
func (s *Session) overlay() map[string]string {
	merged := s.Values()
	if name := s.CurrentPlaceholder(); name != "" {
		merged[name] = s.current
	}
	return merged
}

func (s *Session) satisfied(name string) bool {
	return s.values[name] != "" || s.HasDefaultValue(name)
}

func (s *Session) firstIndex() int {
	if len(s.placeholders) == 0 {
		return -1
	}
	return 0
}

func (s *Session) validIndex(i int) bool {
	return i >= 0 && i < len(s.placeholders)
}
