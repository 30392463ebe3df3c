package main

import (
	"context"
	"crypto/rand"
	"encoding/gob"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/tatugym/internal/auth"
	"github.com/myrjola/tatugym/internal/catalog"
	"github.com/myrjola/tatugym/internal/chat"
	"github.com/myrjola/tatugym/internal/envstruct"
	"github.com/myrjola/tatugym/internal/errors"
	"github.com/myrjola/tatugym/internal/flightrecorder"
	"github.com/myrjola/tatugym/internal/logging"
	"github.com/myrjola/tatugym/internal/sqlite"
	"github.com/myrjola/tatugym/internal/workout"
)

type application struct {
	logger         *slog.Logger
	authenticator  *auth.Authenticator
	sessionManager *scs.SessionManager
	templateFS     fs.FS
	workoutService *workout.Service
	events         *workout.Broadcaster
	chatGateway    *chat.Gateway
	flightRecorder *flightrecorder.Recorder
	// now is the clock used for check-ins and history dates.
	now func() time.Time
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"TATUGYM_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"TATUGYM_SQLITE_URL" envDefault:"./tatugym.sqlite3"`
	// TemplatePath is the path to the directory containing the HTML templates.
	TemplatePath string `env:"TATUGYM_TEMPLATE_PATH" envDefault:""`
	// Accounts is the comma separated allow-list of username:password pairs.
	Accounts string `env:"TATUGYM_ACCOUNTS" envDefault:"jessica:1345"`
	// RememberSecret signs the remember-me cookie. A random secret is generated when empty, which forgets every
	// remembered username on restart.
	RememberSecret string `env:"TATUGYM_REMEMBER_SECRET" envDefault:""`
	// OpenAIAPIKey enables the Tatu chat. Without it the chat always answers with the fallback reply.
	OpenAIAPIKey  string        `env:"TATUGYM_OPENAI_API_KEY" envDefault:""`
	OpenAIBaseURL string        `env:"TATUGYM_OPENAI_BASE_URL" envDefault:""`
	OpenAIModel   string        `env:"TATUGYM_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAITimeout time.Duration `env:"TATUGYM_OPENAI_TIMEOUT" envDefault:"20s"`
	// TracesDir enables capturing a runtime trace of timed out requests into the directory.
	TracesDir string `env:"TATUGYM_TRACES_DIR" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	accounts, err := auth.ParseAccounts(cfg.Accounts)
	if err != nil {
		return errors.Wrap(err, "parse accounts")
	}
	rememberSecret := cfg.RememberSecret
	if rememberSecret == "" {
		logger.LogAttrs(ctx, slog.LevelWarn, "TATUGYM_REMEMBER_SECRET not set, using a random secret")
		rememberSecret = rand.Text()
	}

	var htmlTemplatePath string
	if htmlTemplatePath, err = uiDir(cfg.TemplatePath, "templates"); err != nil {
		return errors.Wrap(err, "resolve template path")
	}

	routines, err := catalog.New()
	if err != nil {
		return errors.Wrap(err, "load routine catalog")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(context.WithoutCancel(ctx), slog.LevelError, "close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	recorder, err := flightrecorder.New(flightrecorder.Config{MinAge: 0, MaxBytes: 0, Directory: cfg.TracesDir}, logger)
	if err != nil {
		return errors.Wrap(err, "new flight recorder")
	}
	if err = recorder.Start(ctx); err != nil {
		return errors.Wrap(err, "start flight recorder")
	}
	defer recorder.Stop(context.WithoutCancel(ctx))

	sessionStore := sqlite3store.NewWithCleanupInterval(db.ReadWrite, 24*time.Hour) //nolint:mnd // day
	defer sessionStore.StopCleanup()
	sessionManager := initializeSessionManager(sessionStore)
	events := workout.NewBroadcaster()
	workoutService := workout.NewService(workout.NewStore(db, logger), routines, events, logger)
	defer workoutService.Close()

	app := application{
		logger:         logger,
		authenticator:  auth.New(logger, sessionManager, accounts, []byte(rememberSecret)),
		sessionManager: sessionManager,
		templateFS:     os.DirFS(htmlTemplatePath),
		workoutService: workoutService,
		events:         events,
		chatGateway: chat.NewGateway(chat.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.OpenAITimeout,
		}, logger),
		flightRecorder: recorder,
		now:            time.Now,
	}

	handler, err := app.routes()
	if err != nil {
		return errors.Wrap(err, "routes")
	}
	if err = app.configureAndStartServer(ctx, cfg.Addr, handler); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func initializeSessionManager(store scs.Store) *scs.SessionManager {
	// The chat transcript lives in the session and scs encodes session values with gob.
	gob.Register([]chat.Turn{})

	sessionManager := scs.New()
	sessionManager.Store = store
	sessionManager.Lifetime = 12 * time.Hour //nolint:mnd // half a day
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	return sessionManager
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
