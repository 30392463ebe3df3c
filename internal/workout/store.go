package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/myrjola/tatugym/internal/errors"
	"github.com/myrjola/tatugym/internal/sqlite"
)

var (
	// ErrNotFound is returned when a member has no stored profile.
	ErrNotFound = errors.NewSentinel("not found")
	// ErrNoActiveSession is returned when a member has no workout in progress.
	ErrNoActiveSession = errors.NewSentinel("no active session")
)

// mirrored is the in-memory copy of a record. Pending marks that the last write of the record did not reach SQLite
// so the copy is newer than the database.
type mirrored[T any] struct {
	value   T
	present bool
	pending bool
}

// Store persists profiles and in-progress sessions, one record of each per username.
//
// Every write is mirrored in memory. When SQLite fails the store logs the failure and keeps operating on the
// mirror, so storage errors reach the caller only when a record has never been seen by this process.
type Store struct {
	db     *sqlite.Database
	logger *slog.Logger

	mu       sync.Mutex
	profiles map[string]mirrored[Profile]
	sessions map[string]mirrored[Session]
}

func NewStore(db *sqlite.Database, logger *slog.Logger) *Store {
	return &Store{
		db:       db,
		logger:   logger,
		mu:       sync.Mutex{},
		profiles: make(map[string]mirrored[Profile]),
		sessions: make(map[string]mirrored[Session]),
	}
}

// NormalizeUsername trims and lowercases so that "Jessica " and "jessica" share one record.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (s *Store) storageFailed(ctx context.Context, err error) {
	s.logger.LogAttrs(ctx, slog.LevelWarn, "storage failed, continuing in memory", errors.SlogError(err))
}

func (s *Store) profileMirror(username string) mirrored[Profile] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[username]
}

func (s *Store) sessionMirror(username string) mirrored[Session] {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.sessions[username]
	m.value = m.value.clone()
	return m
}

// Load returns the stored profile of username or ErrNotFound.
func (s *Store) Load(ctx context.Context, username string) (Profile, error) {
	username = NormalizeUsername(username)
	if m := s.profileMirror(username); m.pending {
		return m.value, nil
	}

	var data []byte
	err := s.db.ReadOnly.QueryRowContext(ctx, `SELECT data FROM profiles WHERE username = ?`, username).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		err = errors.Wrap(err, "query profile", slog.String("username", username))
		if m := s.profileMirror(username); m.present {
			s.storageFailed(ctx, err)
			return m.value, nil
		}
		return Profile{}, err
	}

	var p Profile
	if err = json.Unmarshal(data, &p); err != nil {
		s.storageFailed(ctx, errors.Wrap(err, "decode profile", slog.String("username", username)))
		if m := s.profileMirror(username); m.present {
			return m.value, nil
		}
		// An unreadable record is as good as none. The next Save replaces it.
		return Profile{}, ErrNotFound
	}
	p.normalize(username)
	return p, nil
}

// normalize repairs fields that older or hand-edited records may lack.
func (p *Profile) normalize(username string) {
	p.Username = username
	if p.CheckIns == nil {
		p.CheckIns = []string{}
	}
	if p.Weights == nil {
		p.Weights = map[string]float64{}
	}
	if p.History == nil {
		p.History = []HistoryEntry{}
	}
}

// Save replaces the stored profile of username.
func (s *Store) Save(ctx context.Context, username string, p Profile) error {
	username = NormalizeUsername(username)
	p.normalize(username)
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	_, err = s.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO profiles (username, data) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`, username, string(data))
	if err != nil {
		s.storageFailed(ctx, errors.Wrap(err, "upsert profile", slog.String("username", username)))
	}

	s.mu.Lock()
	s.profiles[username] = mirrored[Profile]{value: p, present: true, pending: err != nil}
	s.mu.Unlock()
	return nil
}

// Update loads the profile of username, lets updateFn mutate it and saves it when updateFn reports a change.
func (s *Store) Update(
	ctx context.Context,
	username string,
	updateFn func(p *Profile) (bool, error),
) (Profile, error) {
	p, err := s.Load(ctx, username)
	if err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}
	var changed bool
	if changed, err = updateFn(&p); err != nil {
		return Profile{}, err //nolint:wrapcheck // error from caller
	}
	if !changed {
		return p, nil
	}
	if err = s.Save(ctx, username, p); err != nil {
		return Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// Patch merges the non-nil fields of patch into the stored profile. The last write wins.
func (s *Store) Patch(ctx context.Context, username string, patch ProfilePatch) (Profile, error) {
	return s.Update(ctx, username, func(p *Profile) (bool, error) {
		patch.apply(p)
		return true, nil
	})
}

// LoadActiveSession returns the in-progress session of username or ErrNoActiveSession.
//
// A session that cannot be read is dropped, which leaves the member on the dashboard.
func (s *Store) LoadActiveSession(ctx context.Context, username string) (Session, error) {
	username = NormalizeUsername(username)
	if m := s.sessionMirror(username); m.pending {
		if !m.present {
			return Session{}, ErrNoActiveSession
		}
		return m.value, nil
	}

	var data []byte
	err := s.db.ReadOnly.QueryRowContext(ctx,
		`SELECT data FROM active_sessions WHERE username = ?`, username).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoActiveSession
	}
	if err != nil {
		s.storageFailed(ctx, errors.Wrap(err, "query active session", slog.String("username", username)))
		if m := s.sessionMirror(username); m.present {
			return m.value, nil
		}
		return Session{}, ErrNoActiveSession
	}

	var session Session
	if err = json.Unmarshal(data, &session); err == nil && session.RoutineID == "" {
		err = errors.New("session has no routine")
	}
	if err != nil {
		s.storageFailed(ctx, errors.Wrap(err, "decode active session", slog.String("username", username)))
		return Session{}, ErrNoActiveSession
	}
	if session.Exercises == nil {
		session.Exercises = map[string]ExerciseSession{}
	}
	return session, nil
}

// SaveActiveSession persists session before returning so that it survives the browser closing right after.
func (s *Store) SaveActiveSession(ctx context.Context, username string, session Session) error {
	username = NormalizeUsername(username)
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode active session: %w", err)
	}

	_, err = s.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO active_sessions (username, routine_id, data) VALUES (?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			routine_id = excluded.routine_id,
			data = excluded.data,
			updated_at = excluded.updated_at`, username, session.RoutineID, string(data))
	if err != nil {
		s.storageFailed(ctx, errors.Wrap(err, "upsert active session",
			slog.String("username", username), slog.String("routine_id", session.RoutineID)))
	}

	s.mu.Lock()
	s.sessions[username] = mirrored[Session]{value: session.clone(), present: true, pending: err != nil}
	s.mu.Unlock()
	return nil
}

// ClearActiveSession forgets the in-progress session of username.
func (s *Store) ClearActiveSession(ctx context.Context, username string) error {
	username = NormalizeUsername(username)
	_, err := s.db.ReadWrite.ExecContext(ctx, `DELETE FROM active_sessions WHERE username = ?`, username)
	if err != nil {
		s.storageFailed(ctx, errors.Wrap(err, "delete active session", slog.String("username", username)))
	}

	var cleared mirrored[Session]
	cleared.pending = err != nil
	s.mu.Lock()
	s.sessions[username] = cleared
	s.mu.Unlock()
	return nil
}
