package workout_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/tatugym/internal/workout"
)

func TestBroadcaster(t *testing.T) {
	b := workout.NewBroadcaster()
	events, unsubscribe := b.Subscribe("Jessica")
	other, unsubscribeOther := b.Subscribe("ana")
	defer unsubscribeOther()

	b.RestTick("jessica", "a1", 30)
	b.RestDone(" JESSICA", "a1")
	b.Haptic("jessica")

	want := []workout.Event{
		{Kind: workout.EventRestTick, ExerciseID: "a1", Remaining: 30},
		{Kind: workout.EventRestDone, ExerciseID: "a1", Remaining: 0},
		{Kind: workout.EventHaptic, ExerciseID: "", Remaining: 0},
	}
	got := make([]workout.Event, 0, len(want))
	for range want {
		got = append(got, <-events)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	select {
	case e := <-other:
		t.Errorf("other member received %+v", e)
	default:
	}

	unsubscribe()
	unsubscribe()
	if _, open := <-events; open {
		t.Error("channel still open after unsubscribe")
	}
	// Publishing without subscribers does nothing.
	b.Tone("jessica")
}

func TestBroadcaster_slowSubscriberDropsEvents(t *testing.T) {
	b := workout.NewBroadcaster()
	events, unsubscribe := b.Subscribe("jessica")
	defer unsubscribe()

	for i := range 1000 {
		b.RestTick("jessica", "a1", i)
	}
	if n := len(events); n == 0 || n == 1000 {
		t.Errorf("buffered %d events, want a bounded non-empty buffer", n)
	}
}
