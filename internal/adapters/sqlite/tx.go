package sqlite

import (
	"context"
	"database/sql"
)

// indexTx batches note writes for one sync pass
type indexTx struct {
	tx *sql.Tx
}

func (idx *ContactIndex) beginTx(ctx context.Context) (*indexTx, error) {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &indexTx{tx: tx}, nil
}

// upsertNote inserts or replaces a note body
func (t *indexTx) upsertNote(n note) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO notes (path, slug, mtime, body)
		VALUES (?, ?, ?, ?)
	`, n.path, n.slug, n.mtime, n.body)
	return err
}

// deleteNote removes a note by path
func (t *indexTx) deleteNote(path string) error {
	_, err := t.tx.Exec(`DELETE FROM notes WHERE path = ?`, path)
	return err
}

// clear drops every note before a full rebuild
func (t *indexTx) clear() error {
	_, err := t.tx.Exec(`DELETE FROM notes`)
	return err
}

// setMeta records a metadata value
func (t *indexTx) setMeta(key, value string) error {
	_, err := t.tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value)
	return err
}

func (t *indexTx) commit() error {
	return t.tx.Commit()
}

func (t *indexTx) rollback() error {
	return t.tx.Rollback()
}
