package main

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/tatugym/internal/e2etest"
	"github.com/myrjola/tatugym/internal/testhelpers"
)

const (
	testUsername = "jessica"
	testPassword = "1345"
)

func testLookupEnv(key string) (string, bool) {
	switch key {
	case "TATUGYM_SQLITE_URL":
		return ":memory:", true
	case "TATUGYM_ADDR":
		return "localhost:0", true
	case "TATUGYM_REMEMBER_SECRET":
		return "test-remember-secret", true
	default:
		return "", false
	}
}

// lookupEnvWith overrides testLookupEnv with the given variables.
func lookupEnvWith(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := vars[key]; ok {
			return v, true
		}
		return testLookupEnv(key)
	}
}

func startServer(t *testing.T, lookupEnv func(string) (string, bool)) *e2etest.Server {
	t.Helper()
	server, err := e2etest.StartServer(t, testhelpers.NewWriter(t), lookupEnv, run)
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	return server
}

// onboardedClient logs in and completes the onboarding form. It returns the dashboard document.
func onboardedClient(t *testing.T, server *e2etest.Server) (*e2etest.Client, *goquery.Document) {
	t.Helper()
	ctx := t.Context()
	client := server.Client()
	doc, err := client.Login(ctx, testUsername, testPassword)
	if err != nil {
		t.Fatalf("Failed to login: %v", err)
	}
	if doc, err = client.SubmitForm(ctx, doc, "/onboarding", map[string]string{
		"Nome":         "Jéssica",
		"Idade":        "31",
		"Peso (kg)":    "70",
		"Altura (m)":   "1,70",
		"IMC desejado": "22",
	}); err != nil {
		t.Fatalf("Failed to submit onboarding: %v", err)
	}
	return client, doc
}

// readDoc parses the response body and closes it.
func readDoc(t *testing.T, resp *http.Response) *goquery.Document {
	t.Helper()
	defer func() {
		_ = resp.Body.Close()
	}()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("Failed to parse document: %v", err)
	}
	return doc
}

func checkStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Errorf("Expected status %d, got %d", want, resp.StatusCode)
	}
}

func checkText(t *testing.T, doc *goquery.Document, selector, want string) {
	t.Helper()
	got := strings.TrimSpace(doc.Find(selector).First().Text())
	if !strings.Contains(got, want) {
		t.Errorf("Expected %q to contain %q, got %q", selector, want, got)
	}
}

// fakeOpenAI answers every chat completion with reply.
func fakeOpenAI(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": %q}}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}
