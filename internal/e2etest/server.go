package e2etest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/myrjola/tatugym/internal/logging"
)

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "addr"

type Server struct {
	url      string
	client   *Client
	cancel   context.CancelCauseFunc
	done     chan struct{}
	shutdown sync.Once
}

// StartServer runs the application in the background until the test finishes and waits until it answers on
// /api/healthy.
//
// logSink receives the server logs, usually testhelpers.NewWriter. lookupEnv has the signature of [os.LookupEnv].
// run must log the address it listens on with LogAddrKey.
func StartServer(
	t *testing.T,
	logSink io.Writer,
	lookupEnv func(string) (string, bool),
	run func(context.Context, *slog.Logger, func(string) (string, bool)) error,
) (*Server, error) {
	t.Helper()
	ctx, cancel := context.WithCancelCause(t.Context())
	server := &Server{
		url:      "",
		client:   nil,
		cancel:   cancel,
		done:     make(chan struct{}),
		shutdown: sync.Once{},
	}
	t.Cleanup(server.Shutdown)

	// The port is allocated dynamically so it is read from the log output.
	addrCh := make(chan string, 1)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == LogAddrKey {
				select {
				case addrCh <- a.Value.String():
				default:
				}
			}
			return a
		},
	})))

	go func() {
		defer close(server.done)
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()

	var addr string
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("server stopped before listening: %w", context.Cause(ctx))
	case addr = <-addrCh:
	}

	server.url = "http://" + addr
	client, err := NewClient(server.url)
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	server.client = client
	return server, nil
}

// Client returns the client created at startup. Use NewClient for a second browser.
func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// Shutdown stops the server and waits for run to return. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.shutdown.Do(func() {
		s.cancel(nil)
		<-s.done
	})
}
