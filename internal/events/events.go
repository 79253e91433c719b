package events

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rescale/box-browse/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog EventType = "log"

	// Listing events
	EventListingChanged EventType = "listing_changed" // Items replaced or appended
	EventListingTitle   EventType = "listing_title"   // Human-readable title changed
	EventListingError   EventType = "listing_error"   // A page fetch failed

	// Per-item operations
	EventThumbnail EventType = "thumbnail" // Thumbnail delivered or failed
	EventFanOut    EventType = "fan_out"   // One item of a move/copy/share batch reported
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// NewBase returns a BaseEvent stamped with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// LogEvent represents log messages
type LogEvent struct {
	BaseEvent
	Level     LogLevel
	Message   string
	Component string
}

// ListingChange tells whether a listing's items were replaced or extended.
type ListingChange string

const (
	ChangeReplaced ListingChange = "replaced"
	ChangeAppended ListingChange = "appended"
)

// ListingChangedEvent is published after a page was applied to a listing.
type ListingChangedEvent struct {
	BaseEvent
	ListingID string
	Title     string
	Change    ListingChange
	Added     int  // Items in the applied page
	Total     int  // Items in the listing afterwards
	Finished  bool // No further pages will be loaded
}

// ListingTitleEvent is published when a listing's title changes.
type ListingTitleEvent struct {
	BaseEvent
	ListingID string
	Title     string
}

// ListingErrorEvent is published when a page fetch fails.
type ListingErrorEvent struct {
	BaseEvent
	ListingID string
	Title     string
	Error     error
}

// ThumbnailEvent reports the outcome of a thumbnail request.
type ThumbnailEvent struct {
	BaseEvent
	FileID string
	Cached bool
	Error  error
}

// FanOutEvent reports one finished item of a batch operation.
type FanOutEvent struct {
	BaseEvent
	Operation string // "move", "copy", "share"
	ItemID    string
	Done      int
	Total     int
	Error     error
}

// allEvents keys the subscribers that receive every event type.
const allEvents EventType = "*"

// EventBus fans events out to buffered subscriber channels. Publishing never
// blocks: an event for a full channel is dropped and counted.
type EventBus struct {
	mu         sync.RWMutex
	subs       map[EventType][]chan Event
	bufferSize int
	closed     bool
	dropped    atomic.Int64
}

// NewEventBus creates a bus whose subscriber channels hold bufferSize
// events, clamped to the configured bounds.
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	return &EventBus{
		subs:       make(map[EventType][]chan Event),
		bufferSize: min(bufferSize, constants.EventBusMaxBuffer),
	}
}

// Subscribe returns a channel receiving events of one type.
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	return eb.subscribe(eventType)
}

// SubscribeAll returns a channel receiving every event.
func (eb *EventBus) SubscribeAll() <-chan Event {
	return eb.subscribe(allEvents)
}

func (eb *EventBus) subscribe(key EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	ch := make(chan Event, eb.bufferSize)
	eb.subs[key] = append(eb.subs[key], ch)
	return ch
}

// Publish delivers event to its type's subscribers and to SubscribeAll
// channels. A nil bus ignores it.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}
	eb.deliver(eb.subs[event.Type()], event)
	eb.deliver(eb.subs[allEvents], event)
}

func (eb *EventBus) deliver(chans []chan Event, event Event) {
	for _, ch := range chans {
		select {
		case ch <- event:
		default:
			eb.dropped.Add(1)
		}
	}
}

// PublishLog publishes a LogEvent.
func (eb *EventBus) PublishLog(level LogLevel, component, message string) {
	eb.Publish(&LogEvent{
		BaseEvent: NewBase(EventLog),
		Level:     level,
		Message:   message,
		Component: component,
	})
}

// Unsubscribe detaches ch wherever it was subscribed. The channel is not
// closed.
func (eb *EventBus) Unsubscribe(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for key, chans := range eb.subs {
		eb.subs[key] = slices.DeleteFunc(chans, func(c chan Event) bool {
			return (<-chan Event)(c) == ch
		})
	}
}

// Close closes every subscriber channel. Later publishes are ignored.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true
	for _, chans := range eb.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
}

// Dropped returns the number of events dropped for full buffers.
func (eb *EventBus) Dropped() int64 {
	return eb.dropped.Load()
}

// ResetDropped zeroes the drop counter and returns its previous value.
func (eb *EventBus) ResetDropped() int64 {
	return eb.dropped.Swap(0)
}
