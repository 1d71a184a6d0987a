package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"archivist/internal/adapters/filesystem"
	"archivist/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "2"

// ContactIndex implements ports.ContactDirectory. Person listings come from
// the people directory itself; known-sender lookups run against a SQLite copy
// of every note so ingestion does not rescan the tree for each thread.
type ContactIndex struct {
	db     *sql.DB
	people *filesystem.PeopleDir
	dbPath string
	log    *slog.Logger
	stale  bool
}

var _ ports.ContactDirectory = (*ContactIndex)(nil)

// Open initializes the index for people. An empty dbPath uses DatabasePath.
func Open(people *filesystem.PeopleDir, dbPath string, log *slog.Logger) (*ContactIndex, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if dbPath == "" {
		dbPath = DatabasePath(people.Root())
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS notes (
			path TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			mtime INTEGER NOT NULL,
			body TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notes_slug ON notes(slug);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	idx := &ContactIndex{db: db, people: people, dbPath: dbPath, log: log}
	idx.stale = idx.needsFullRebuild()
	return idx, nil
}

// Close closes the database connection
func (idx *ContactIndex) Close() error {
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

// Path returns the database file
func (idx *ContactIndex) Path() string {
	return idx.dbPath
}

// Refresh brings the index up to date, rebuilding it when the schema or
// the people root changed since it was written.
func (idx *ContactIndex) Refresh(ctx context.Context) (*SyncStats, error) {
	if idx.stale {
		stats, err := idx.SyncFull(ctx)
		if err != nil {
			return stats, err
		}
		idx.stale = false
		return stats, nil
	}
	return idx.SyncIncremental(ctx)
}

func (idx *ContactIndex) needsFullRebuild() bool {
	var version, rootHash string
	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'root_hash'").Scan(&rootHash)
	return version != schemaVersion || rootHash != hashRoot(idx.people.Root())
}

// DatabasePath returns the per-directory index location under the XDG data home
func DatabasePath(root string) string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "archivist", hashRoot(root)+".db")
}

// hashRoot returns a short hash of the people root
func hashRoot(root string) string {
	h := sha256.Sum256([]byte(root))
	return hex.EncodeToString(h[:8])
}

// List returns every person folder
func (idx *ContactIndex) List(ctx context.Context) ([]ports.Contact, error) {
	return idx.people.List(ctx)
}

// Get returns one person with the full README
func (idx *ContactIndex) Get(ctx context.Context, slug string) (ports.Contact, error) {
	return idx.people.Get(ctx, slug)
}

// IsKnown reports whether address appears in any indexed note, ignoring case
func (idx *ContactIndex) IsKnown(ctx context.Context, address string) (bool, error) {
	needle := strings.ToLower(strings.TrimSpace(address))
	if needle == "" {
		return false, nil
	}

	var one int
	err := idx.db.QueryRowContext(ctx,
		`SELECT 1 FROM notes WHERE instr(body, ?) > 0 LIMIT 1`, needle).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query contact index: %w", err)
	}
	return true, nil
}

// SlugsForAddress returns the people whose notes mention address
func (idx *ContactIndex) SlugsForAddress(ctx context.Context, address string) ([]string, error) {
	needle := strings.ToLower(strings.TrimSpace(address))
	if needle == "" {
		return nil, nil
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT DISTINCT slug FROM notes
		WHERE instr(body, ?) > 0 AND slug != ''
		ORDER BY slug
	`, needle)
	if err != nil {
		return nil, fmt.Errorf("query contact index: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slugs = append(slugs, s)
	}
	return slugs, rows.Err()
}
