package main

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// pageTimeout leaves the response some time before the server write timeout.
	pageTimeout = defaultTimeout - 200*time.Millisecond //nolint:mnd // writing the response takes time.
	// assistantTimeout covers a round trip to the chat completions API.
	assistantTimeout = 29 * time.Second
)

func (app *application) routes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	var (
		base = func(next http.Handler) http.Handler {
			return app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(commonContext(next))))
		}
		noAuth = func(next http.Handler) http.Handler {
			return app.recoverPanic(base(app.timeout(pageTimeout)(next)))
		}
		withSession = func(timeout time.Duration, next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessionManager.LoadAndSave(
				app.authenticator.AuthenticateMiddleware(base(app.timeout(timeout)(next))))))
		}
		session = func(next http.Handler) http.Handler {
			return withSession(pageTimeout, next)
		}
		mustSession = func(next http.Handler) http.Handler {
			return session(app.mustAuthenticate(next))
		}
		// elsewhere is for pages that navigate away from the workout.
		elsewhere = func(next http.Handler) http.Handler {
			return mustSession(app.leavesWorkout(next))
		}
		assistant = func(next http.Handler) http.Handler {
			return withSession(assistantTimeout, app.mustAuthenticate(app.leavesWorkout(next)))
		}
		// stream skips the timeout because http.TimeoutHandler does not support flushing.
		stream = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessionManager.LoadAndSave(
				app.authenticator.AuthenticateMiddleware(base(app.mustAuthenticate(next))))))
		}
	)

	mux.Handle("GET /login", session(http.HandlerFunc(app.loginGET)))
	mux.Handle("POST /login", session(http.HandlerFunc(app.loginPOST)))
	mux.Handle("POST /logout", session(http.HandlerFunc(app.logoutPOST)))

	mux.Handle("GET /onboarding", mustSession(http.HandlerFunc(app.onboardingGET)))
	mux.Handle("POST /onboarding", mustSession(http.HandlerFunc(app.onboardingPOST)))

	mux.Handle("POST /checkin", mustSession(http.HandlerFunc(app.checkInPOST)))
	mux.Handle("GET /advice", assistant(http.HandlerFunc(app.adviceGET)))

	mux.Handle("POST /routines/{routineID}/start", mustSession(http.HandlerFunc(app.workoutStartPOST)))
	mux.Handle("GET /workout", mustSession(http.HandlerFunc(app.workoutGET)))
	mux.Handle("GET /workout/events", stream(http.HandlerFunc(app.workoutEventsGET)))
	mux.Handle("POST /workout/exercises/{exerciseID}/sets/{setIndex}",
		mustSession(http.HandlerFunc(app.workoutSetPOST)))
	mux.Handle("POST /workout/exercises/{exerciseID}/sets/{setIndex}/adjust",
		mustSession(http.HandlerFunc(app.workoutSetAdjustPOST)))
	mux.Handle("POST /workout/finish", mustSession(http.HandlerFunc(app.workoutFinishPOST)))
	mux.Handle("GET /workout/abandon", mustSession(http.HandlerFunc(app.workoutAbandonGET)))
	mux.Handle("POST /workout/abandon", mustSession(http.HandlerFunc(app.workoutAbandonPOST)))

	mux.Handle("GET /history", elsewhere(http.HandlerFunc(app.historyGET)))
	mux.Handle("GET /history/{entryID}", elsewhere(http.HandlerFunc(app.historyEntryGET)))

	mux.Handle("GET /chat", elsewhere(http.HandlerFunc(app.chatGET)))
	mux.Handle("POST /chat", assistant(http.HandlerFunc(app.chatPOST)))
	mux.Handle("POST /chat/clear", elsewhere(http.HandlerFunc(app.chatClearPOST)))

	mux.Handle("GET /settings", elsewhere(http.HandlerFunc(app.settingsGET)))
	mux.Handle("POST /settings", elsewhere(http.HandlerFunc(app.settingsPOST)))
	mux.Handle("POST /language", session(http.HandlerFunc(app.setLanguagePOST)))

	mux.Handle("GET /api/healthy", noAuth(http.HandlerFunc(app.healthy)))
	mux.Handle("POST /api/csp-violation", noAuth(http.HandlerFunc(app.cspViolation)))
	mux.Handle("POST /api/reports", noAuth(http.HandlerFunc(app.reportingAPI)))

	mux.Handle("GET /{$}", mustSession(http.HandlerFunc(app.dashboardGET)))

	// File server with custom 404 handling
	fileServerHandler, err := app.fileServerHandler()
	if err != nil {
		return nil, fmt.Errorf("fileServerHandler: %w", err)
	}
	mux.Handle("/", fileServerHandler)

	return mux, nil
}
