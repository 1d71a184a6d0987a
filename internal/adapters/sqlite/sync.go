package sqlite

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"archivist/internal/adapters/filesystem"
)

// SyncStats describes one index pass
type SyncStats struct {
	FilesScanned int
	NotesAdded   int
	NotesUpdated int
	NotesDeleted int
	Duration     time.Duration
}

type note struct {
	path  string
	slug  string
	mtime int64
	body  string
}

func (idx *ContactIndex) readNote(path string, info fs.FileInfo) (note, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return note{}, err
	}
	rel, _ := filepath.Rel(idx.people.Root(), path)
	return note{
		path:  filepath.ToSlash(rel),
		slug:  filesystem.SlugFromPath(idx.people.Root(), path),
		mtime: info.ModTime().UnixNano(),
		body:  strings.ToLower(string(content)),
	}, nil
}

// SyncFull performs a complete rebuild of the index
func (idx *ContactIndex) SyncFull(ctx context.Context) (*SyncStats, error) {
	start := time.Now()
	stats := &SyncStats{}

	tx, err := idx.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.rollback()

	if err := tx.clear(); err != nil {
		return nil, err
	}

	err = idx.people.WalkNotes(func(path string, info fs.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.FilesScanned++
		n, err := idx.readNote(path, info)
		if err != nil {
			idx.log.Warn("skipping unreadable note", "path", path, "err", err)
			return nil
		}
		if err := tx.upsertNote(n); err != nil {
			return err
		}
		stats.NotesAdded++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("index people: %w", err)
	}

	if err := idx.finish(tx); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	idx.log.Debug("contact index rebuilt", "notes", stats.NotesAdded, "duration", stats.Duration)
	return stats, nil
}

// SyncIncremental updates only notes whose mtime changed and drops removed ones
func (idx *ContactIndex) SyncIncremental(ctx context.Context) (*SyncStats, error) {
	start := time.Now()
	stats := &SyncStats{}

	existing := make(map[string]int64)
	rows, err := idx.db.QueryContext(ctx, `SELECT path, mtime FROM notes`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			rows.Close()
			return nil, err
		}
		existing[path] = mtime
	}
	rows.Close()

	tx, err := idx.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.rollback()

	seen := make(map[string]bool)
	err = idx.people.WalkNotes(func(path string, info fs.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.FilesScanned++

		rel, _ := filepath.Rel(idx.people.Root(), path)
		rel = filepath.ToSlash(rel)
		seen[rel] = true

		prev, known := existing[rel]
		if known && prev == info.ModTime().UnixNano() {
			return nil
		}

		n, err := idx.readNote(path, info)
		if err != nil {
			idx.log.Warn("skipping unreadable note", "path", path, "err", err)
			return nil
		}
		if err := tx.upsertNote(n); err != nil {
			return err
		}
		if known {
			stats.NotesUpdated++
		} else {
			stats.NotesAdded++
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("index people: %w", err)
	}

	for path := range existing {
		if seen[path] {
			continue
		}
		if err := tx.deleteNote(path); err != nil {
			return stats, err
		}
		stats.NotesDeleted++
	}

	if err := idx.finish(tx); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

func (idx *ContactIndex) finish(tx *indexTx) error {
	if err := tx.setMeta("schema_version", schemaVersion); err != nil {
		return err
	}
	if err := tx.setMeta("root_hash", hashRoot(idx.people.Root())); err != nil {
		return err
	}
	if err := tx.setMeta("last_sync_time", strconv.FormatInt(time.Now().Unix(), 10)); err != nil {
		return err
	}
	return tx.commit()
}
