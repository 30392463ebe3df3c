package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/myrjola/tatugym/internal/errors"
)

// migrateTo makes the live schema match schemaDefinition.
//
// The migration is declarative. schemaDefinition is applied to an empty in-memory database that is attached as
// "schema_target" and the two sqlite_schema tables are diffed:
//
//   - tables missing from the target are dropped and new ones created,
//   - changed tables are rebuilt with the generalized ALTER TABLE procedure
//     https://www.sqlite.org/lang_altertable.html#otheralter, keeping the columns both versions share,
//   - triggers and indexes are dropped, created or replaced to match.
//
// Based on https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach target schema: %w", err)
	}
	defer detach()

	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		// Leaving foreign keys off would silently corrupt data so the failure takes precedence.
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, errors.Wrap(fkErr, "re-enable foreign keys"))
		}
	}()

	var tx *sql.Tx
	if tx, err = db.ReadWrite.BeginTx(ctx, nil); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer db.rollback(ctx, tx)

	if err = db.migrateTables(ctx, tx); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	for _, typ := range []schemaType{schemaTypeTrigger, schemaTypeIndex} {
		if err = db.migrateSchema(ctx, tx, typ); err != nil {
			return fmt.Errorf("migrate %ss: %w", typ, err)
		}
	}
	if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachTarget attaches an in-memory database holding schemaDefinition as "schema_target". The returned function
// detaches it and must be called once the migration is done.
func (db *Database) attachTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open target database: %w", err)
	}
	defer func() {
		// The shared cache keeps the in-memory database alive while it is attached.
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close target database",
				errors.SlogError(closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("apply schema to target database: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schema_target", dsn); err != nil {
		return nil, fmt.Errorf("attach target database: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schema_target"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach target database", errors.SlogError(detachErr))
		}
	}, nil
}

func (db *Database) rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction", errors.SlogError(err))
	}
}

type schemaType string

const (
	schemaTypeTable   schemaType = "table"
	schemaTypeTrigger schemaType = "trigger"
	schemaTypeIndex   schemaType = "index"
)

// schemaEntry is a row of sqlite_schema. For changed entries liveSQL and targetSQL differ.
type schemaEntry struct {
	name      string
	liveSQL   string
	targetSQL string
}

// internalNames excludes the SQLite bookkeeping entries and the tables Litestream adds for replication.
const internalNames = `name NOT LIKE 'sqlite_%' AND name NOT LIKE '_litestream_%'`

// schemaDiff lists the entries of typ only present in the live schema, only present in the target schema or present
// in both with a different definition.
func (db *Database) schemaDiff(
	ctx context.Context,
	tx *sql.Tx,
	typ schemaType,
) (removed []schemaEntry, added []schemaEntry, changed []schemaEntry, err error) {
	// Renaming a table quotes its name in sqlite_schema so quotes are ignored when comparing.
	const query = `
		SELECT name, live_sql, target_sql FROM (
			SELECT live.name AS name, COALESCE(live.sql, '') AS live_sql, COALESCE(target.sql, '') AS target_sql
			FROM main.sqlite_schema AS live
			LEFT JOIN schema_target.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
			WHERE live.type = :type
			UNION ALL
			SELECT target.name, '', COALESCE(target.sql, '')
			FROM schema_target.sqlite_schema AS target
			LEFT JOIN main.sqlite_schema AS live ON live.name = target.name AND live.type = target.type
			WHERE target.type = :type AND live.name IS NULL
		)
		WHERE ` + internalNames + `
		  AND REPLACE(live_sql, '"', '') <> REPLACE(target_sql, '"', '')
		ORDER BY name`

	entries, err := queryRows(ctx, db.logger, tx, func(rows *sql.Rows) (schemaEntry, error) {
		var e schemaEntry
		err := rows.Scan(&e.name, &e.liveSQL, &e.targetSQL)
		return e, err //nolint:wrapcheck // wrapped by queryRows
	}, query, sql.Named("type", string(typ)))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("diff %ss: %w", typ, err)
	}
	for _, e := range entries {
		switch {
		case e.targetSQL == "":
			removed = append(removed, e)
		case e.liveSQL == "":
			added = append(added, e)
		default:
			changed = append(changed, e)
		}
	}
	return removed, added, changed, nil
}

func (db *Database) exec(ctx context.Context, tx *sql.Tx, msg string, query string, attrs ...slog.Attr) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, msg, append(attrs, slog.String("query", query))...)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return errors.Wrap(err, msg, append(attrs, slog.String("query", query))...)
	}
	return nil
}

// migrateTables drops, creates and rebuilds tables. Rebuilt tables keep the data of the columns that exist in both
// the live and the target definition.
func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx) error {
	removed, added, changed, err := db.schemaDiff(ctx, tx, schemaTypeTable)
	if err != nil {
		return err
	}
	for _, t := range removed {
		if err = db.exec(ctx, tx, "dropping table", "DROP TABLE "+t.name, slog.String("table", t.name)); err != nil {
			return err
		}
	}
	for _, t := range added {
		if err = db.exec(ctx, tx, "creating table", t.targetSQL, slog.String("table", t.name)); err != nil {
			return err
		}
	}
	for _, t := range changed {
		if err = db.rebuildTable(ctx, tx, t); err != nil {
			return fmt.Errorf("rebuild table %s: %w", t.name, err)
		}
	}
	return nil
}

func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, t schemaEntry) error {
	attr := slog.String("table", t.name)
	tempName := t.name + "_migration_temp"
	createTemp := strings.Replace(t.targetSQL, t.name, tempName, 1)
	if err := db.exec(ctx, tx, "creating table under temporary name", createTemp, attr); err != nil {
		return err
	}

	// Quoted so that columns named after SQLite keywords work.
	columns, err := queryRows(ctx, db.logger, tx, func(rows *sql.Rows) (string, error) {
		var column string
		err := rows.Scan(&column)
		return column, err //nolint:wrapcheck // wrapped by queryRows
	}, `SELECT '"' || target.name || '"'
		FROM PRAGMA_TABLE_INFO(:table) AS live
		JOIN PRAGMA_TABLE_INFO(:table, 'schema_target') AS target ON target.name = live.name`,
		sql.Named("table", t.name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}
	common := strings.Join(columns, ", ")

	steps := []struct {
		msg   string
		query string
	}{
		{msg: "copying data", query: fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			tempName, common, common, t.name)},
		{msg: "dropping old table", query: "DROP TABLE " + t.name},
		{msg: "renaming new table", query: fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempName, t.name)},
	}
	for _, step := range steps {
		if err = db.exec(ctx, tx, step.msg, step.query, attr); err != nil {
			return err
		}
	}
	return nil
}

// migrateSchema synchronises the triggers or indexes. A changed entry is dropped and recreated.
func (db *Database) migrateSchema(ctx context.Context, tx *sql.Tx, typ schemaType) error {
	removed, added, changed, err := db.schemaDiff(ctx, tx, typ)
	if err != nil {
		return err
	}
	keyword := strings.ToUpper(string(typ))
	for _, e := range removed {
		if err = db.exec(ctx, tx, "dropping "+string(typ), fmt.Sprintf("DROP %s %s", keyword, e.name),
			slog.String("name", e.name)); err != nil {
			return err
		}
	}
	for _, e := range changed {
		if err = db.exec(ctx, tx, "dropping changed "+string(typ), fmt.Sprintf("DROP %s %s", keyword, e.name),
			slog.String("name", e.name), slog.String("target_sql", e.targetSQL)); err != nil {
			return err
		}
	}
	for _, e := range slices.Concat(added, changed) {
		if err = db.exec(ctx, tx, "creating "+string(typ), e.targetSQL, slog.String("name", e.name)); err != nil {
			return err
		}
	}
	return nil
}

// queryRows runs query in tx and scans every row with scan.
func queryRows[T any](
	ctx context.Context,
	logger *slog.Logger,
	tx *sql.Tx,
	scan func(*sql.Rows) (T, error),
	query string,
	args ...any,
) ([]T, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "could not close rows", errors.SlogError(closeErr))
		}
	}()
	var results []T
	for rows.Next() {
		var v T
		if v, err = scan(rows); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}
