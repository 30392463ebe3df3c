// Command smoketest signs in to a running deployment and walks through the member pages.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/myrjola/tatugym/internal/e2etest"
	"github.com/myrjola/tatugym/internal/errors"
	"github.com/myrjola/tatugym/internal/logging"
	"github.com/myrjola/tatugym/internal/testhelpers"
)

// pages are fetched after signing in. None of them changes the member's profile.
//
//nolint:gochecknoglobals // static list.
var pages = []string{"/", "/history", "/chat", "/settings"}

func walkMemberPages(client *e2etest.Client, username, password string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	doc, err := client.Login(ctx, username, password)
	if err != nil {
		return errors.Wrap(err, "login")
	}
	if doc.Find("form[action='/login']").Length() > 0 {
		return errors.New("still on the login page after signing in")
	}
	for _, page := range pages {
		if _, err = client.GetDoc(ctx, page); err != nil {
			return errors.Wrap(err, "get page", slog.String("page", page))
		}
	}
	if _, err = client.Logout(ctx); err != nil {
		return errors.Wrap(err, "logout")
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}
	username, password := os.Getenv("TATUGYM_SMOKETEST_USERNAME"), os.Getenv("TATUGYM_SMOKETEST_PASSWORD")
	if username == "" || password == "" {
		logger.LogAttrs(ctx, slog.LevelError,
			"TATUGYM_SMOKETEST_USERNAME and TATUGYM_SMOKETEST_PASSWORD must be set")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		client   *e2etest.Client
		err      error
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname), slog.String("username", username))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		os.Exit(1)
	}
	if err = walkMemberPages(client, username, password); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, fmt.Sprintf("smoke test failed after %s", time.Since(start)),
			errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
	os.Exit(0)
}
