package wizard

import (
	"reflect"
	"testing"
)

// recorder collects events for assertions.
type recorder struct {
	events []Event
}

func (r *recorder) listen(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) changed(p Property) bool {
	for _, ev := range r.events {
		if ev.Kind == EventPropertyChanged && ev.Property == p {
			return true
		}
	}
	return false
}

func (r *recorder) reset() { r.events = nil }

func TestInitialize(t *testing.T) {
	s := New()
	rec := &recorder{}
	s.Subscribe(rec.listen)

	s.Initialize("Hello {{name}}, welcome to {{place|the shop}}.")

	if got := s.Placeholders(); !reflect.DeepEqual(got, []string{"name", "place"}) {
		t.Errorf("Placeholders() = %q", got)
	}
	if s.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", s.CurrentIndex())
	}
	if s.CurrentPlaceholder() != "name" {
		t.Errorf("CurrentPlaceholder() = %q", s.CurrentPlaceholder())
	}
	if want := "Hello {{name}}, welcome to the shop."; s.ProcessedContent() != want {
		t.Errorf("ProcessedContent() = %q, want %q", s.ProcessedContent(), want)
	}

	for _, p := range allProperties {
		if !rec.changed(p) {
			t.Errorf("Initialize did not report %s", p)
		}
	}
}

func TestNoPlaceholders(t *testing.T) {
	s := NewWithContent("no placeholders here")

	if len(s.Placeholders()) != 0 {
		t.Errorf("Placeholders() = %q, want empty", s.Placeholders())
	}
	if s.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", s.CurrentIndex())
	}
	if !s.IsComplete() {
		t.Error("template without placeholders should be complete")
	}
	if s.CanGoNext() || s.CanGoPrevious() {
		t.Error("navigation should be disabled")
	}
	if s.GoNext() || s.GoPrevious() {
		t.Error("navigation should be a no-op")
	}

	// Saving with no active placeholder must not panic or emit.
	rec := &recorder{}
	s.Subscribe(rec.listen)
	s.SaveCurrentValue()
	s.SetCurrentValue("ignored")
	if rec.count(EventPlaceholderCompleted) != 0 {
		t.Error("no placeholder should have been completed")
	}
	if s.Result() != "no placeholders here" {
		t.Errorf("Result() = %q", s.Result())
	}
}

func TestDefaultSatisfiesCompletion(t *testing.T) {
	s := NewWithContent("{{city|Paris}}")

	if !s.IsComplete() {
		t.Error("default value should satisfy completion without input")
	}
	if s.Result() != "Paris" {
		t.Errorf("Result() = %q, want %q", s.Result(), "Paris")
	}
	if !s.HasDefaultValue("city") || s.DefaultValue("city") != "Paris" {
		t.Errorf("default lookup failed: %q", s.DefaultValue("city"))
	}
}

func TestEmptyDefaultIsAbsent(t *testing.T) {
	s := NewWithContent("{{name|}}")

	if s.IsComplete() {
		t.Error("empty default must not satisfy completion")
	}
	if s.HasDefaultValue("name") {
		t.Error("empty default should not count as a default")
	}
	if got := s.Missing(); !reflect.DeepEqual(got, []string{"name"}) {
		t.Errorf("Missing() = %q", got)
	}

	s.SetCurrentValue("Ana")
	s.SaveCurrentValue()
	if !s.IsComplete() {
		t.Error("saved value should complete the session")
	}
}

func TestGuidedFill(t *testing.T) {
	s := New()
	rec := &recorder{}
	s.Subscribe(rec.listen)
	s.Initialize("{{x}} {{y}}")
	rec.reset()

	if s.CurrentIndex() != 0 {
		t.Fatalf("CurrentIndex() = %d, want 0", s.CurrentIndex())
	}

	s.SetCurrentValue("1")
	if s.ProcessedContent() != "1 {{y}}" {
		t.Errorf("staged value not previewed: %q", s.ProcessedContent())
	}
	if _, committed := s.Values()["x"]; committed {
		t.Error("SetCurrentValue must not commit")
	}

	if !s.GoNext() {
		t.Fatal("GoNext() returned false")
	}
	if s.Values()["x"] != "1" {
		t.Errorf("x = %q, want committed %q", s.Values()["x"], "1")
	}
	if s.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", s.CurrentIndex())
	}
	if s.CurrentValue() != "" {
		t.Errorf("CurrentValue() = %q, want empty for unvisited placeholder", s.CurrentValue())
	}
	if s.IsComplete() {
		t.Error("should not be complete before y is saved")
	}
	if rec.count(EventAllCompleted) != 0 {
		t.Error("AllCompleted fired too early")
	}

	s.SetCurrentValue("2")
	if s.IsComplete() {
		t.Error("staged value must not complete the session")
	}
	s.SaveCurrentValue()

	if !s.IsComplete() {
		t.Fatal("should be complete after saving y")
	}
	if got := rec.count(EventAllCompleted); got != 1 {
		t.Errorf("AllCompleted fired %d times, want 1", got)
	}
	if s.Result() != "1 2" {
		t.Errorf("Result() = %q", s.Result())
	}

	s.SaveCurrentValue()
	s.GoPrevious()
	if got := rec.count(EventAllCompleted); got != 1 {
		t.Errorf("AllCompleted refired while staying complete: %d", got)
	}
}

func TestAllCompletedFiresAgainAfterLeavingCompletion(t *testing.T) {
	s := NewWithContent("{{a}}")
	rec := &recorder{}
	s.Subscribe(rec.listen)

	s.SetCurrentValue("x")
	s.SaveCurrentValue()
	s.SetCurrentValue("")
	s.SaveCurrentValue()
	if s.IsComplete() {
		t.Fatal("clearing the only value should leave completion")
	}
	s.SetCurrentValue("y")
	s.SaveCurrentValue()

	if got := rec.count(EventAllCompleted); got != 2 {
		t.Errorf("AllCompleted fired %d times, want 2", got)
	}
}

func TestPlaceholderCompletedEvent(t *testing.T) {
	s := NewWithContent("{{a}} {{b}}")
	rec := &recorder{}
	s.Subscribe(rec.listen)

	s.SetCurrentValue("one")
	s.GoNext()

	var got []Event
	for _, ev := range rec.events {
		if ev.Kind == EventPlaceholderCompleted {
			got = append(got, ev)
		}
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 completion event, got %d", len(got))
	}
	if got[0].Placeholder != "a" || got[0].Value != "one" {
		t.Errorf("unexpected event %+v", got[0])
	}
}

func TestNavigationBounds(t *testing.T) {
	s := NewWithContent("{{a}} {{b}} {{c}}")

	if s.CanGoPrevious() {
		t.Error("CanGoPrevious at start")
	}
	if s.GoPrevious() {
		t.Error("GoPrevious at start should be a no-op")
	}

	s.GoNext()
	s.GoNext()
	if s.CurrentIndex() != 2 {
		t.Fatalf("CurrentIndex() = %d, want 2", s.CurrentIndex())
	}
	if s.CanGoNext() {
		t.Error("CanGoNext at end")
	}
	version := s.Version()
	if s.GoNext() {
		t.Error("GoNext at end should be a no-op")
	}
	if s.Version() != version {
		t.Error("no-op navigation must not bump the version")
	}
}

func TestGoPreviousRestoresCommittedValue(t *testing.T) {
	s := NewWithContent("{{a}} {{b}}")

	s.SetCurrentValue("first")
	s.GoNext()
	s.SetCurrentValue("second")
	s.GoPrevious()

	if s.CurrentValue() != "first" {
		t.Errorf("CurrentValue() = %q, want %q", s.CurrentValue(), "first")
	}
	if s.Values()["b"] != "second" {
		t.Errorf("GoPrevious should commit b, got %q", s.Values()["b"])
	}
}

func TestSetCurrentIndex(t *testing.T) {
	s := NewWithContent("{{a}} {{b}} {{c}}")
	s.SetCurrentValue("A")

	if !s.SetCurrentIndex(2) {
		t.Fatal("SetCurrentIndex(2) returned false")
	}
	if s.CurrentPlaceholder() != "c" {
		t.Errorf("CurrentPlaceholder() = %q", s.CurrentPlaceholder())
	}
	if s.Values()["a"] != "A" {
		t.Error("jumping should commit the staged value")
	}

	for _, bad := range []int{-1, 3, 2} {
		if s.SetCurrentIndex(bad) {
			t.Errorf("SetCurrentIndex(%d) should be ignored", bad)
		}
	}
}

func TestReset(t *testing.T) {
	s := NewWithContent("{{a}} {{b|bee}}")
	s.SetCurrentValue("x")
	s.GoNext()
	s.SetCurrentValue("y")

	s.Reset()

	if s.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", s.CurrentIndex())
	}
	if len(s.Values()) != 0 {
		t.Errorf("Values() = %v, want empty", s.Values())
	}
	if s.CurrentValue() != "" {
		t.Errorf("CurrentValue() = %q", s.CurrentValue())
	}
	if !reflect.DeepEqual(s.Placeholders(), []string{"a", "b"}) {
		t.Errorf("Reset must keep placeholders, got %q", s.Placeholders())
	}
	if s.OriginalContent() != "{{a}} {{b|bee}}" {
		t.Error("Reset must keep the original content")
	}
	if s.ProcessedContent() != "{{a}} bee" {
		t.Errorf("ProcessedContent() = %q", s.ProcessedContent())
	}
}

func TestSetOriginalContent(t *testing.T) {
	s := NewWithContent("{{a}}")
	s.SetCurrentValue("kept")
	s.SaveCurrentValue()

	rec := &recorder{}
	s.Subscribe(rec.listen)

	s.SetOriginalContent("{{a}}")
	if len(rec.events) != 0 {
		t.Errorf("unchanged content emitted %d events", len(rec.events))
	}
	if s.Values()["a"] != "kept" {
		t.Error("unchanged content must not clear values")
	}

	s.SetOriginalContent("{{b}} {{c}}")
	if !reflect.DeepEqual(s.Placeholders(), []string{"b", "c"}) {
		t.Errorf("Placeholders() = %q", s.Placeholders())
	}
	if len(s.Values()) != 0 {
		t.Error("new content should clear values")
	}
	if !rec.changed(PropOriginalContent) || !rec.changed(PropPlaceholders) {
		t.Error("new content should report its property changes")
	}
}

func TestProcessedContentAlwaysDerived(t *testing.T) {
	s := NewWithContent("{{greet|Hi}} {{who}} from {{where}}")

	steps := []func(){
		func() { s.SetCurrentValue("Hey") },
		func() { s.GoNext() },
		func() { s.SetCurrentValue("Bo") },
		func() { s.SetCurrentIndex(2) },
		func() { s.SetCurrentValue("Oslo") },
		func() { s.GoPrevious() },
		func() { s.Reset() },
	}
	for i, step := range steps {
		step()
		if s.ProcessedContent() != s.Preview() {
			t.Errorf("step %d: ProcessedContent %q != Preview %q", i, s.ProcessedContent(), s.Preview())
		}
	}
}

func TestOnlyChangedPropertiesReported(t *testing.T) {
	s := NewWithContent("{{a}} {{b}}")
	rec := &recorder{}
	s.Subscribe(rec.listen)

	s.SetCurrentValue("v")

	if !rec.changed(PropCurrentValue) || !rec.changed(PropProcessedContent) {
		t.Error("expected currentValue and processedContent changes")
	}
	if rec.changed(PropCurrentIndex) || rec.changed(PropPlaceholders) || rec.changed(PropIsComplete) {
		t.Errorf("unexpected property events: %+v", rec.events)
	}

	rec.reset()
	s.SetCurrentValue("v")
	if len(rec.events) != 0 {
		t.Errorf("repeating the same value emitted %d events", len(rec.events))
	}
}

func TestUnsubscribe(t *testing.T) {
	s := NewWithContent("{{a}}")
	rec := &recorder{}
	cancel := s.Subscribe(rec.listen)
	cancel()

	s.SetCurrentValue("x")
	if len(rec.events) != 0 {
		t.Error("cancelled listener still received events")
	}
}

func TestReentrantMutationIsDeferred(t *testing.T) {
	s := NewWithContent("{{a}} {{b}}")

	var order []string
	s.Subscribe(func(ev Event) {
		if ev.Kind != EventPlaceholderCompleted || ev.Placeholder != "a" {
			return
		}
		order = append(order, "handler:start")
		// Runs after the GoNext that triggered this event has finished.
		s.SetCurrentValue("auto")
		if s.CurrentIndex() != 1 || s.CurrentValue() != "" {
			t.Errorf("handler observed a half-applied mutation (index %d, value %q)", s.CurrentIndex(), s.CurrentValue())
		}
		order = append(order, "handler:end")
	})

	s.SetCurrentValue("first")
	if !s.GoNext() {
		t.Fatal("GoNext() returned false")
	}
	order = append(order, "after:GoNext")

	if s.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", s.CurrentIndex())
	}
	if s.CurrentValue() != "auto" {
		t.Errorf("deferred SetCurrentValue not applied, got %q", s.CurrentValue())
	}
	if s.ProcessedContent() != "first auto" {
		t.Errorf("ProcessedContent() = %q", s.ProcessedContent())
	}
	want := []string{"handler:start", "handler:end", "after:GoNext"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %q, want %q", order, want)
	}
}

func TestVersionPolling(t *testing.T) {
	s := New()
	v0 := s.Version()

	s.Initialize("{{a}}")
	v1 := s.Version()
	if v1 <= v0 {
		t.Error("Initialize should bump the version")
	}

	s.SetCurrentValue("x")
	if s.Version() <= v1 {
		t.Error("SetCurrentValue should bump the version")
	}
}

func TestDuplicateNamesWithDifferentDefaults(t *testing.T) {
	// Completion consults only the first occurrence's default.
	s := NewWithContent("{{tone}} ... {{tone|formal}}")
	if s.IsComplete() {
		t.Error("first occurrence has no default, so the session is incomplete")
	}
	if s.ProcessedContent() != "{{tone}} ... formal" {
		t.Errorf("ProcessedContent() = %q", s.ProcessedContent())
	}

	s = NewWithContent("{{tone|formal}} ... {{tone}}")
	if !s.IsComplete() {
		t.Error("first occurrence default should satisfy completion")
	}
}

func TestCompleteThroughDefaultsNeverTransitions(t *testing.T) {
	s := NewWithContent("{{a|x}} {{b|y}}")
	if !s.IsComplete() {
		t.Fatal("defaults should complete the session before any input")
	}
	rec := &recorder{}
	s.Subscribe(rec.listen)

	s.GoNext()
	s.SaveCurrentValue()
	s.GoPrevious()
	if got := rec.count(EventAllCompleted); got != 0 {
		t.Errorf("AllCompleted fired %d times on a session that was already complete", got)
	}

	s.Reset()
	s.GoNext()
	if got := rec.count(EventAllCompleted); got != 0 {
		t.Errorf("AllCompleted fired %d times after Reset", got)
	}

	s.SetOriginalContent("{{c|z}}")
	s.SaveCurrentValue()
	if got := rec.count(EventAllCompleted); got != 0 {
		t.Errorf("AllCompleted fired %d times after loading complete content", got)
	}
}

func TestZeroValueSession(t *testing.T) {
	var s Session
	rec := &recorder{}
	cancel := s.Subscribe(rec.listen)
	defer cancel()

	s.Initialize("Hi {{name}}")
	s.SetCurrentValue("Ada")
	s.SaveCurrentValue()
	if s.Result() != "Hi Ada" {
		t.Errorf("Result() = %q", s.Result())
	}
	if rec.count(EventAllCompleted) != 1 {
		t.Errorf("AllCompleted fired %d times, want 1", rec.count(EventAllCompleted))
	}
}

func TestPanickingListenerDropsQueuedMutations(t *testing.T) {
	s := NewWithContent("{{a}} {{b}}")
	armed := true
	s.Subscribe(func(ev Event) {
		if !armed || ev.Kind != EventPlaceholderCompleted {
			return
		}
		armed = false
		s.SetCurrentValue("queued")
		panic("listener failed")
	})

	s.SetCurrentValue("x")
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the listener panic to propagate")
			}
		}()
		s.SaveCurrentValue()
	}()

	if !s.GoNext() {
		t.Fatal("GoNext() returned false after a listener panic")
	}
	if s.CurrentValue() != "" {
		t.Errorf("stale queued mutation ran: CurrentValue() = %q", s.CurrentValue())
	}
}
