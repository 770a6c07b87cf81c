package wizard

// Property names a derived session field that callers can observe.
type Property string

const (
	PropOriginalContent    Property = "originalContent"
	PropPlaceholders       Property = "placeholders"
	PropCurrentIndex       Property = "currentIndex"
	PropCurrentPlaceholder Property = "currentPlaceholder"
	PropCurrentValue       Property = "currentValue"
	PropProcessedContent   Property = "processedContent"
	PropIsComplete         Property = "isComplete"
	PropCanGoNext          Property = "canGoNext"
	PropCanGoPrevious      Property = "canGoPrevious"
)

// allProperties is the emission order used for change notifications.
var allProperties = []Property{
	PropOriginalContent,
	PropPlaceholders,
	PropCurrentIndex,
	PropCurrentPlaceholder,
	PropCurrentValue,
	PropProcessedContent,
	PropIsComplete,
	PropCanGoNext,
	PropCanGoPrevious,
}

// EventKind identifies the type of a session event.
type EventKind string

const (
	// EventPropertyChanged fires when a derived property changes value.
	EventPropertyChanged EventKind = "property_changed"
	// EventPlaceholderCompleted fires each time a value is committed.
	EventPlaceholderCompleted EventKind = "placeholder_completed"
	// EventAllCompleted fires once each time the session becomes complete.
	EventAllCompleted EventKind = "all_completed"
)

// Event is delivered to subscribers after a mutation has been applied.
type Event struct {
	Kind EventKind

	// Set for EventPropertyChanged.
	Property Property

	// Set for EventPlaceholderCompleted.
	Placeholder string
	Value       string
}

// Listener receives session events. Listeners may call back into the
// session; such mutations run after the current one has finished.
type Listener func(Event)

func propertyChanged(p Property) Event {
	return Event{Kind: EventPropertyChanged, Property: p}
}
