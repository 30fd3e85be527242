// Package store handles the persistent stores touched by a deploy: the
// application's SQLite data store, whose schema is initialized exactly once
// per store lifetime, and solodeploy's own deploy history database.
//
// The orchestrator never reads or migrates the application store after
// creation; its contents belong to the deployed application.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultSchema is the built-in schema applied when no schema_file is
// configured. It gives the freshly provisioned application a usable store.
const DefaultSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	score INTEGER NOT NULL DEFAULT 0,
	total INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS app_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

INSERT OR IGNORE INTO app_meta (key, value) VALUES ('schema_version', '1');
`

// Initializer creates the application data store schema on first run.
type Initializer interface {
	// Init creates the store at dbPath and applies the schema. Called only
	// when the store file does not exist yet.
	Init(ctx context.Context, dbPath string) error
}

// SQLiteInitializer implements Initializer by executing schema SQL against
// a new SQLite database file.
type SQLiteInitializer struct {
	// Schema is the SQL executed once at store creation.
	Schema string
}

// NewSQLiteInitializer creates a SQLiteInitializer with the given schema,
// falling back to DefaultSchema when empty.
func NewSQLiteInitializer(schema string) *SQLiteInitializer {
	if schema == "" {
		schema = DefaultSchema
	}
	return &SQLiteInitializer{Schema: schema}
}

// Init creates the database file and applies the schema.
func (i *SQLiteInitializer) Init(ctx context.Context, dbPath string) error {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("failed to open data store: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if _, err := db.ExecContext(ctx, i.Schema); err != nil {
		// Leave no half-initialized store behind: existence of the file is
		// the at-most-once gate for initialization.
		_ = db.Close()
		_ = os.Remove(dbPath)
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// LoadSchema reads schema SQL from schemaFile, or returns DefaultSchema
// when schemaFile is empty.
func LoadSchema(schemaFile string) (string, error) {
	if schemaFile == "" {
		return DefaultSchema, nil
	}
	data, err := os.ReadFile(schemaFile)
	if err != nil {
		return "", fmt.Errorf("failed to read schema file %s: %w", schemaFile, err)
	}
	return string(data), nil
}

// FakeInitializer implements Initializer with recorded calls for testing.
type FakeInitializer struct {
	// Calls records the dbPath of each Init call.
	Calls []string

	// CreateFile controls whether Init creates the file, mimicking a real
	// initializer. Defaults to true via NewFakeInitializer.
	CreateFile bool

	err error
}

// NewFakeInitializer creates a FakeInitializer that creates the store file.
func NewFakeInitializer() *FakeInitializer {
	return &FakeInitializer{CreateFile: true}
}

// SetError sets the error returned by Init.
func (i *FakeInitializer) SetError(err error) {
	i.err = err
}

// Init records the call and optionally creates an empty file.
func (i *FakeInitializer) Init(ctx context.Context, dbPath string) error {
	if i.err != nil {
		return i.err
	}
	i.Calls = append(i.Calls, dbPath)
	if i.CreateFile {
		return os.WriteFile(dbPath, []byte{}, 0644)
	}
	return nil
}
