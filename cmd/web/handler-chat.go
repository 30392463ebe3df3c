package main

import (
	"net/http"
	"slices"
	"strings"

	"github.com/myrjola/tatugym/internal/chat"
)

const (
	chatTranscriptKey = "chat_transcript"
	// maxTranscriptTurns bounds the transcript kept in the session.
	maxTranscriptTurns = 50
)

type chatTemplateData struct {
	BaseTemplateData
	Turns   []chat.Turn
	Enabled bool
}

func (app *application) transcript(r *http.Request) []chat.Turn {
	turns, _ := app.sessionManager.Get(r.Context(), chatTranscriptKey).([]chat.Turn)
	return turns
}

func (app *application) chatGET(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusOK, "chat", chatTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Turns:            app.transcript(r),
		Enabled:          app.chatGateway.Enabled(),
	})
}

func (app *application) chatPOST(w http.ResponseWriter, r *http.Request) {
	message := strings.TrimSpace(r.PostFormValue("message"))
	if message == "" {
		redirect(w, r, "/chat")
		return
	}
	history := slices.Clone(app.transcript(r))
	reply := app.chatGateway.SendMessage(r.Context(), history, message)

	history = append(history,
		chat.Turn{Role: chat.RoleUser, Text: message},
		chat.Turn{Role: chat.RoleAssistant, Text: reply},
	)
	if len(history) > maxTranscriptTurns {
		history = history[len(history)-maxTranscriptTurns:]
	}
	app.sessionManager.Put(r.Context(), chatTranscriptKey, history)
	redirect(w, r, "/chat#latest")
}

func (app *application) chatClearPOST(w http.ResponseWriter, r *http.Request) {
	app.sessionManager.Remove(r.Context(), chatTranscriptKey)
	redirect(w, r, "/chat")
}
