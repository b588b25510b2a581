package scene

type EventType int

const (
	EventChapter EventType = iota
	EventBillboardAdded
	EventMediaListChanged
)

type Event struct {
	Type    EventType
	Chapter int // EventChapter: new active chapter index
	Count   int // live billboards or list length
}

type EventHandler func(Event)

// EventBus is owned by the engine. Handlers run synchronously on the
// frame thread.
type EventBus struct {
	handlers map[EventType][]*subscription
}

type subscription struct {
	fn EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]*subscription),
	}
}

// Subscribe registers fn and returns a func that detaches it.
func (eb *EventBus) Subscribe(t EventType, fn EventHandler) (unsubscribe func()) {
	s := &subscription{fn: fn}
	eb.handlers[t] = append(eb.handlers[t], s)
	return func() {
		subs := eb.handlers[t]
		for i, cur := range subs {
			if cur == s {
				eb.handlers[t] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (eb *EventBus) Emit(e Event) {
	for _, s := range eb.handlers[e.Type] {
		s.fn(e)
	}
}

// Reset drops every handler.
func (eb *EventBus) Reset() {
	clear(eb.handlers)
}
