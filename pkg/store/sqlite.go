package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/secure"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS forms (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// sqliteTimeLayout is fixed width so updated_at sorts as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteBackend stores forms in a SQLite database, one row per form id.
// Load returns the most recently saved form.
type SQLiteBackend struct {
	db     *sql.DB
	sealer *secure.Sealer
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string, sealer *secure.Sealer) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, werrors.StorageWrap(err, werrors.ErrStorageWriteFailed, "failed to create database directory")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, werrors.StorageWrap(err, werrors.ErrStorageReadFailed, "failed to open database").
			WithContext("path", path)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, werrors.StorageWrap(err, werrors.ErrStorageWriteFailed, "failed to create schema").
			WithContext("path", path)
	}
	return &SQLiteBackend{db: db, sealer: sealer}, nil
}

// Name implements Backend.
func (b *SQLiteBackend) Name() string { return "sqlite" }

// Load implements Backend.
func (b *SQLiteBackend) Load(ctx context.Context) (*audit.Form, error) {
	var data string
	err := b.db.QueryRowContext(ctx,
		`SELECT data FROM forms ORDER BY updated_at DESC, rowid DESC LIMIT 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, werrors.StorageWrap(err, werrors.ErrStorageReadFailed, "failed to query saved form")
	}
	return decodeForm([]byte(data), b.sealer)
}

// Save implements Backend.
func (b *SQLiteBackend) Save(ctx context.Context, f *audit.Form) error {
	data, err := encodeForm(f, b.sealer)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO forms (id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		f.ID, string(data), time.Now().UTC().Format(sqliteTimeLayout))
	if err != nil {
		return werrors.StorageWrap(err, werrors.ErrStorageWriteFailed, "failed to save form")
	}
	return nil
}

// Clear implements Backend.
func (b *SQLiteBackend) Clear(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM forms`); err != nil {
		return werrors.StorageWrap(err, werrors.ErrStorageWriteFailed, "failed to clear saved forms")
	}
	return nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
