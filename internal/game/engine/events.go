package engine

import (
	"sync"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
)

// EventType indicates the category of a match event.
type EventType string

const (
	EventMatchStarted    EventType = "MATCH_STARTED"
	EventTurnStarted     EventType = "TURN_STARTED"
	EventTurnTimedOut    EventType = "TURN_TIMED_OUT"
	EventCardUsed        EventType = "CARD_USED"
	EventCreaturePlaced  EventType = "CREATURE_PLACED"
	EventEffectApplied   EventType = "EFFECT_APPLIED"
	EventAttack          EventType = "ATTACK"
	EventCreatureDamaged EventType = "CREATURE_DAMAGED"
	EventPlayerDamaged   EventType = "PLAYER_DAMAGED"
	EventCreatureDied    EventType = "CREATURE_DIED"
	EventMatchEnded      EventType = "MATCH_ENDED"
)

// Event describes a state change of a match.
type Event struct {
	Type   EventType
	Turn   int
	Seat   int // acting or affected player
	Card   cards.ID
	Amount int
	Data   string
}

// Listener reacts to events.
type Listener func(Event)

type typedListener struct {
	handle    int
	eventType EventType
	callback  Listener
}

// EventBus is a synchronous publish/subscribe hub with type filtering.
// Listeners run on the match goroutine and must not call back into the match.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]typedListener
	nextHandle     int
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]typedListener),
	}
}

// Subscribe registers a listener for all events and returns its handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for one event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback Listener) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], typedListener{
		handle:    handle,
		eventType: eventType,
		callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all matching listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type] {
		listener.callback(event)
	}
}
