package workout

import (
	"sync"
)

// Notifier receives the side effects of set completion and rest timers. Implementations must not block.
//
// Haptic and Tone are best-effort cues, so a Notifier that drops them is valid.
type Notifier interface {
	Haptic(username string)
	Tone(username string)
	ExerciseComplete(username, exerciseID string)
	RestTick(username, exerciseID string, remaining int)
	RestDone(username, exerciseID string)
}

type EventKind string

const (
	EventHaptic           EventKind = "haptic"
	EventTone             EventKind = "tone"
	EventExerciseComplete EventKind = "exercise-complete"
	EventRestTick         EventKind = "rest-tick"
	EventRestDone         EventKind = "rest-done"
)

type Event struct {
	Kind       EventKind
	ExerciseID string
	// Remaining is set for EventRestTick.
	Remaining int
}

// subscriberBuffer is how many events a subscriber may lag behind before events are dropped.
const subscriberBuffer = 32

// Broadcaster is a Notifier that fans events out to the subscribers of each member.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		mu:   sync.Mutex{},
		subs: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe returns a channel receiving the events of username and a function that unsubscribes and closes it.
func (b *Broadcaster) Subscribe(username string) (<-chan Event, func()) {
	username = NormalizeUsername(username)
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[username] == nil {
		b.subs[username] = make(map[chan Event]struct{})
	}
	b.subs[username][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[username], ch)
			if len(b.subs[username]) == 0 {
				delete(b.subs, username)
			}
			close(ch)
		})
	}
}

func (b *Broadcaster) publish(username string, e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[NormalizeUsername(username)] {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *Broadcaster) Haptic(username string) {
	b.publish(username, Event{Kind: EventHaptic, ExerciseID: "", Remaining: 0})
}

func (b *Broadcaster) Tone(username string) {
	b.publish(username, Event{Kind: EventTone, ExerciseID: "", Remaining: 0})
}

func (b *Broadcaster) ExerciseComplete(username, exerciseID string) {
	b.publish(username, Event{Kind: EventExerciseComplete, ExerciseID: exerciseID, Remaining: 0})
}

func (b *Broadcaster) RestTick(username, exerciseID string, remaining int) {
	b.publish(username, Event{Kind: EventRestTick, ExerciseID: exerciseID, Remaining: remaining})
}

func (b *Broadcaster) RestDone(username, exerciseID string) {
	b.publish(username, Event{Kind: EventRestDone, ExerciseID: exerciseID, Remaining: 0})
}
