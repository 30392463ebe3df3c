package sqlite_test

import (
	"testing"

	"github.com/myrjola/tatugym/internal/sqlite"
	"github.com/myrjola/tatugym/internal/testhelpers"
)

func TestNewDatabase_schema(t *testing.T) {
	ctx := t.Context()
	logger := testhelpers.NewTestLogger(t)
	db, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	for _, table := range []string{"profiles", "active_sessions", "sessions"} {
		var n int
		if err = db.ReadOnly.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_schema WHERE type = 'table' AND name = ?", table).Scan(&n); err != nil {
			t.Fatalf("query table %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}

	if _, err = db.ReadWrite.ExecContext(ctx,
		"INSERT INTO profiles (username, data) VALUES ('jessica', 'not json')"); err == nil {
		t.Error("expected invalid JSON to be rejected")
	}
	if _, err = db.ReadWrite.ExecContext(ctx,
		`INSERT INTO profiles (username, data) VALUES ('jessica', '{}')`); err != nil {
		t.Fatalf("insert profile: %v", err)
	}
	var data string
	if err = db.ReadOnly.QueryRowContext(ctx,
		"SELECT data FROM profiles WHERE username = 'jessica'").Scan(&data); err != nil {
		t.Fatalf("read back through the read-only pool: %v", err)
	}
	if data != "{}" {
		t.Errorf("data = %q, want {}", data)
	}

	if _, err = db.ReadOnly.ExecContext(ctx, "DELETE FROM profiles"); err == nil {
		t.Error("expected the read-only pool to reject writes")
	}
}
