package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
)

const upsertSyncMetaSQL = `INSERT INTO sync_meta
	(sync_meta_id, song_id, path, mtime, meta_tags, pinned)
VALUES (:sync_meta_id, :song_id, :path, :mtime, :meta_tags, :pinned)
ON CONFLICT (sync_meta_id) DO UPDATE SET
	song_id = :song_id, path = :path, mtime = :mtime, meta_tags = :meta_tags,
	pinned = :pinned`

const upsertResourceFileSQL = `INSERT INTO resource_file
	(sync_meta_id, kind, fname, mtime, resource)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (sync_meta_id, kind) DO UPDATE SET
	fname = excluded.fname, mtime = excluded.mtime, resource = excluded.resource`

func upsertSyncMetaTx(tx *sqlx.Tx, meta *domain.SyncMeta) error {
	if _, err := tx.NamedExec(upsertSyncMetaSQL, meta); err != nil {
		return fmt.Errorf("upserting sync meta: %w", err)
	}
	presentKinds := make([]any, 0, 5)
	for _, kind := range domain.AllResourceKinds() {
		file := meta.Resource(kind)
		if file == nil {
			continue
		}
		presentKinds = append(presentKinds, string(kind))
		_, err := tx.Exec(upsertResourceFileSQL,
			meta.SyncMetaID, string(kind), file.FName, file.MTime, file.Resource)
		if err != nil {
			return fmt.Errorf("upserting %s resource: %w", kind, err)
		}
	}
	query := "DELETE FROM resource_file WHERE sync_meta_id = ?"
	args := []any{meta.SyncMetaID}
	if len(presentKinds) > 0 {
		query += " AND kind NOT IN (?" + repeatPlaceholders(len(presentKinds)-1) + ")"
		args = append(args, presentKinds...)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("pruning resources: %w", err)
	}
	return nil
}

func repeatPlaceholders(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}

// SaveSyncMeta persists the sync meta and its resource files. Resource
// kinds no longer present on the meta are removed.
func (db *DB) SaveSyncMeta(meta *domain.SyncMeta) error {
	if err := db.guard(); err != nil {
		return err
	}
	return db.Transaction(func(tx *sqlx.Tx) error {
		return upsertSyncMetaTx(tx, meta)
	})
}

// SaveSyncMetas persists multiple sync metas in a single transaction.
func (db *DB) SaveSyncMetas(metas []*domain.SyncMeta) error {
	if err := db.guard(); err != nil {
		return err
	}
	return db.Transaction(func(tx *sqlx.Tx) error {
		for _, meta := range metas {
			if err := upsertSyncMetaTx(tx, meta); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSyncMeta removes the sync meta, its resource files and its active
// marker if set.
func (db *DB) DeleteSyncMeta(syncMetaID string) error {
	if err := db.guard(); err != nil {
		return err
	}
	return db.Transaction(func(tx *sqlx.Tx) error {
		return deleteSyncMetasTx(tx, []string{syncMetaID})
	})
}

// DeleteSyncMetas removes multiple sync metas and their dependent rows.
func (db *DB) DeleteSyncMetas(syncMetaIDs []string) error {
	if len(syncMetaIDs) == 0 {
		return nil
	}
	if err := db.guard(); err != nil {
		return err
	}
	return db.Transaction(func(tx *sqlx.Tx) error {
		return deleteSyncMetasTx(tx, syncMetaIDs)
	})
}

func deleteSyncMetasTx(tx *sqlx.Tx, syncMetaIDs []string) error {
	for _, stmt := range []string{
		"DELETE FROM resource_file WHERE sync_meta_id IN (?)",
		"DELETE FROM active_sync_meta WHERE sync_meta_id IN (?)",
		"DELETE FROM sync_meta WHERE sync_meta_id IN (?)",
	} {
		query, args, err := sqlx.In(stmt, syncMetaIDs)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("deleting sync metas: %w", err)
		}
	}
	return nil
}

// SyncMetasInFolder returns all sync metas whose path lies inside the
// folder, with their resource files attached.
func (db *DB) SyncMetasInFolder(folder string) ([]*domain.SyncMeta, error) {
	if err := db.guard(); err != nil {
		return nil, err
	}
	var metas []*domain.SyncMeta
	err := db.Select(&metas,
		"SELECT * FROM sync_meta WHERE path GLOB ? || '/*'", folder)
	if err != nil {
		return nil, fmt.Errorf("selecting sync metas: %w", err)
	}
	for _, meta := range metas {
		if err := db.attachResourceFiles(meta); err != nil {
			return nil, err
		}
	}
	return metas, nil
}

// GetActiveSyncMeta returns the sync meta currently marked active for the
// song, or nil if the song has no local copy.
func (db *DB) GetActiveSyncMeta(songID domain.SongId) (*domain.SyncMeta, error) {
	if err := db.guard(); err != nil {
		return nil, err
	}
	var meta domain.SyncMeta
	err := db.Get(&meta, `SELECT sync_meta.* FROM sync_meta
		JOIN active_sync_meta ON sync_meta.sync_meta_id = active_sync_meta.sync_meta_id
		WHERE active_sync_meta.song_id = ?`, songID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting active sync meta: %w", err)
	}
	if err := db.attachResourceFiles(&meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

type resourceFileRow struct {
	SyncMetaID string `db:"sync_meta_id"`
	Kind       string `db:"kind"`
	FName      string `db:"fname"`
	MTime      int64  `db:"mtime"`
	Resource   string `db:"resource"`
}

func (db *DB) attachResourceFiles(meta *domain.SyncMeta) error {
	var rows []resourceFileRow
	err := db.Select(&rows,
		"SELECT * FROM resource_file WHERE sync_meta_id = ?", meta.SyncMetaID)
	if err != nil {
		return fmt.Errorf("selecting resource files: %w", err)
	}
	for _, row := range rows {
		meta.SetResource(domain.ResourceKind(row.Kind), &domain.ResourceFile{
			FName:    row.FName,
			MTime:    row.MTime,
			Resource: row.Resource,
		})
	}
	return nil
}

const rebuildActiveSyncMetasSQL = `INSERT INTO active_sync_meta (song_id, sync_meta_id)
SELECT song_id, sync_meta_id FROM (
	SELECT song_id, sync_meta_id, MAX(pinned * 4102444800000 + mtime)
	FROM sync_meta WHERE path GLOB ? || '/*' GROUP BY song_id
)`

// ResetActiveSyncMetas rebuilds the set of active sync metas for the given
// song folder. Per song, a pinned meta wins over an unpinned one, then the
// most recently modified wins.
func (db *DB) ResetActiveSyncMetas(folder string) error {
	if err := db.guard(); err != nil {
		return err
	}
	return db.Transaction(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec("DELETE FROM active_sync_meta"); err != nil {
			return fmt.Errorf("clearing active sync metas: %w", err)
		}
		if _, err := tx.Exec(rebuildActiveSyncMetasSQL, folder); err != nil {
			return fmt.Errorf("rebuilding active sync metas: %w", err)
		}
		return nil
	})
}

// UpdateActiveSyncMeta recalculates the active sync meta for a single song.
func (db *DB) UpdateActiveSyncMeta(folder string, songID domain.SongId) error {
	if err := db.guard(); err != nil {
		return err
	}
	return db.Transaction(func(tx *sqlx.Tx) error {
		return updateActiveSyncMetaTx(tx, folder, songID)
	})
}

func updateActiveSyncMetaTx(tx *sqlx.Tx, folder string, songID domain.SongId) error {
	if _, err := tx.Exec(
		"DELETE FROM active_sync_meta WHERE song_id = ?", songID); err != nil {
		return fmt.Errorf("clearing active sync meta: %w", err)
	}
	_, err := tx.Exec(`INSERT INTO active_sync_meta (song_id, sync_meta_id)
		SELECT song_id, sync_meta_id FROM (
			SELECT song_id, sync_meta_id, MAX(pinned * 4102444800000 + mtime)
			FROM sync_meta WHERE path GLOB ? || '/*' AND song_id = ? GROUP BY song_id
		)`, folder, songID)
	if err != nil {
		return fmt.Errorf("updating active sync meta: %w", err)
	}
	return nil
}

// CommitSync stores the outcome of a successful sync as one transaction:
// the song cache row, its sync meta with resource files, and the active
// marker for the song.
func (db *DB) CommitSync(song *domain.UsdbSong, meta *domain.SyncMeta, folder string) error {
	if err := db.guard(); err != nil {
		return err
	}
	return db.Transaction(func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExec(upsertSongSQL, song); err != nil {
			return fmt.Errorf("upserting song: %w", err)
		}
		if err := upsertSyncMetaTx(tx, meta); err != nil {
			return err
		}
		return updateActiveSyncMetaTx(tx, folder, song.SongID)
	})
}
