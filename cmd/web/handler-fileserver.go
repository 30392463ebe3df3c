package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// fileServerHandler serves ui/static and renders the not found page for everything else.
func (app *application) fileServerHandler() (http.Handler, error) {
	fileRoot, err := uiDir("", "static")
	if err != nil {
		return nil, fmt.Errorf("resolve static files: %w", err)
	}
	fileServer := http.FileServer(http.Dir(fileRoot))

	// The not found page shows the navigation of logged-in members so it needs the session.
	notFound := app.recoverPanic(noCache(app.sessionManager.LoadAndSave(
		app.authenticator.AuthenticateMiddleware(app.logAndTraceRequest(secureHeaders(commonContext(
			app.timeout(pageTimeout)(http.HandlerFunc(app.notFound)))))))))

	return app.recoverPanic(app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
		app.timeout(pageTimeout)(cacheForever(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Directory listings and traversal attempts are not served.
			cleanPath := filepath.Clean(r.URL.Path)
			if strings.Contains(cleanPath, "..") || strings.HasSuffix(r.URL.Path, "/") {
				notFound.ServeHTTP(w, r)
				return
			}
			staticPath := filepath.Join(fileRoot, cleanPath)
			if info, statErr := os.Stat(staticPath); statErr != nil || info.IsDir() {
				notFound.ServeHTTP(w, r)
				return
			}
			fileServer.ServeHTTP(w, r)
		}))))))), nil
}
