package persist

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DurableConfig holds settings for the durable SQLite store.
type DurableConfig struct {
	// Path is the file path to the SQLite database.
	// Use ":memory:" for an in-memory database (useful for testing).
	Path string

	// BusyTimeout sets how long to wait when the database is locked.
	// Default: 5 seconds.
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode. Default: WAL.
	JournalMode string

	// Synchronous sets the SQLite synchronous mode. Default: NORMAL.
	Synchronous string
}

// DefaultDurableConfig returns a config with sensible defaults.
func DefaultDurableConfig(path string) *DurableConfig {
	return &DurableConfig{
		Path:        path,
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
		Synchronous: "NORMAL",
	}
}

// DurableStore is the cross-session tier, backed by SQLite. A record
// survives process restarts, so a returning user neither re-fetches
// nor re-sees decided cards.
type DurableStore struct {
	conn *sql.DB
}

// OpenDurable opens (and migrates) the durable store.
func OpenDurable(config *DurableConfig) (*DurableStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}
	if config.JournalMode == "" {
		config.JournalMode = "WAL"
	}
	if config.Synchronous == "" {
		config.Synchronous = "NORMAL"
	}

	if config.Path != ":memory:" {
		dir := filepath.Dir(config.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=%s&_synchronous=%s",
		config.Path,
		config.BusyTimeout.Milliseconds(),
		config.JournalMode,
		config.Synchronous,
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single writer keeps in-memory databases coherent and is plenty
	// for a per-user deck mirror.
	conn.SetMaxOpenConns(1)

	store := &DurableStore{conn: conn}
	if err := store.migrateUp(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return store, nil
}

// migrateUp applies pending schema migrations from the embedded set.
func (d *DurableStore) migrateUp() error {
	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsDir, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := migratesqlite.WithInstance(d.conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Load returns the record for a deck key.
func (d *DurableStore) Load(key string) (*Record, bool, error) {
	var payload []byte
	err := d.conn.QueryRow(
		`SELECT payload FROM deck_states WHERE key = ?`, key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load deck state %s: %w", key, err)
	}

	record, err := Unmarshal(payload)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// Save upserts the record for a deck key.
func (d *DurableStore) Save(key string, record *Record) error {
	payload, err := Marshal(record)
	if err != nil {
		return err
	}

	_, err = d.conn.Exec(
		`INSERT INTO deck_states (key, payload, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		key, payload, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save deck state %s: %w", key, err)
	}
	return nil
}

// Delete removes the record for a deck key.
func (d *DurableStore) Delete(key string) error {
	if _, err := d.conn.Exec(`DELETE FROM deck_states WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete deck state %s: %w", key, err)
	}
	return nil
}

// List returns all stored records by key.
func (d *DurableStore) List() (map[string]*Record, error) {
	rows, err := d.conn.Query(`SELECT key, payload FROM deck_states`)
	if err != nil {
		return nil, fmt.Errorf("list deck states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]*Record)
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("scan deck state: %w", err)
		}
		record, err := Unmarshal(payload)
		if err != nil {
			return nil, err
		}
		out[key] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deck states: %w", err)
	}
	return out, nil
}

// Close closes the underlying database connection.
func (d *DurableStore) Close() error {
	return d.conn.Close()
}
