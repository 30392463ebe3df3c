package main

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/tatugym/internal/contexthelpers"
	"github.com/myrjola/tatugym/internal/errors"
	"github.com/myrjola/tatugym/internal/i18n"
	"github.com/myrjola/tatugym/internal/workout"
	"github.com/starfederation/datastar-go/datastar"
)

func restElementID(exerciseID string) string {
	return "rest-" + exerciseID
}

func exerciseStatusElementID(exerciseID string) string {
	return "exercise-status-" + exerciseID
}

// workoutSignals counts the haptic pulses and tones so that the page can tell a new signal from a repeated patch.
type workoutSignals struct {
	Haptic int `json:"haptic,omitempty"`
	Tone   int `json:"tone,omitempty"`
}

// workoutStream writes the timer events of one member as Datastar patches.
type workoutStream struct {
	sse      *datastar.ServerSentEventGenerator
	language i18n.Language
	haptics  int
	tones    int
}

func (s *workoutStream) patchRest(exerciseID string, remaining int) error {
	html := fmt.Sprintf(`<span class="rest-remaining">%s %s</span>`,
		template.HTMLEscapeString(i18n.Translate(s.language, "workout.rest")), formatSeconds(remaining))
	if err := s.sse.PatchElements(html,
		datastar.WithSelectorID(restElementID(exerciseID)), datastar.WithModeInner()); err != nil {
		return fmt.Errorf("patch rest timer: %w", err)
	}
	return nil
}

func (s *workoutStream) send(e workout.Event) error {
	var err error
	switch e.Kind {
	case workout.EventRestTick:
		return s.patchRest(e.ExerciseID, e.Remaining)
	case workout.EventRestDone:
		err = s.sse.PatchElements(`<span class="rest-done"></span>`,
			datastar.WithSelectorID(restElementID(e.ExerciseID)), datastar.WithModeInner())
	case workout.EventExerciseComplete:
		html := fmt.Sprintf(`<span class="exercise-done">%s</span>`,
			template.HTMLEscapeString(i18n.Translate(s.language, "workout.exerciseDone")))
		err = s.sse.PatchElements(html,
			datastar.WithSelectorID(exerciseStatusElementID(e.ExerciseID)), datastar.WithModeInner())
	case workout.EventHaptic:
		s.haptics++
		err = s.sse.MarshalAndPatchSignals(workoutSignals{Haptic: s.haptics, Tone: 0})
	case workout.EventTone:
		s.tones++
		err = s.sse.MarshalAndPatchSignals(workoutSignals{Haptic: 0, Tone: s.tones})
	}
	if err != nil {
		return fmt.Errorf("send %s: %w", e.Kind, err)
	}
	return nil
}

// workoutEventsGET streams rest timer ticks and workout signals to the open workout page as Server-Sent Events.
func (app *application) workoutEventsGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := username(r)

	// The stream outlives the server write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "clear write deadline", errors.SlogError(err))
	}

	events, unsubscribe := app.events.Subscribe(user)
	defer unsubscribe()

	stream := &workoutStream{
		sse:      datastar.NewSSE(w, r),
		language: contexthelpers.Language(ctx),
		haptics:  0,
		tones:    0,
	}
	for exerciseID, remaining := range app.workoutService.RestTimers(user) {
		if err := stream.patchRest(exerciseID, remaining); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelDebug, "workout stream closed", errors.SlogError(err))
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := stream.send(e); err != nil {
				app.logger.LogAttrs(ctx, slog.LevelDebug, "workout stream closed", errors.SlogError(err))
				return
			}
		}
	}
}
