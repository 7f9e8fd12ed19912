package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
)

const upsertSongSQL = `INSERT INTO usdb_song (
	song_id, artist, title, language, edition, golden_notes, rating, views
) VALUES (
	:song_id, :artist, :title, :language, :edition, :golden_notes, :rating, :views
) ON CONFLICT (song_id) DO UPDATE SET
	artist = excluded.artist, title = excluded.title,
	language = excluded.language, edition = excluded.edition,
	golden_notes = excluded.golden_notes, rating = excluded.rating,
	views = excluded.views`

// UpsertSong inserts or updates one cached catalog row, idempotent on song
// id.
func (db *DB) UpsertSong(song *domain.UsdbSong) error {
	if err := db.guard(); err != nil {
		return err
	}
	if _, err := db.NamedExec(upsertSongSQL, song); err != nil {
		return fmt.Errorf("failed to upsert song %s: %w", song.SongID, err)
	}
	return nil
}

// UpsertSongs bulk-upserts catalog rows, used when refreshing the cache
// from a catalog listing.
func (db *DB) UpsertSongs(songs []domain.UsdbSong) error {
	if len(songs) == 0 {
		return nil
	}
	return db.Transaction(func(tx *sqlx.Tx) error {
		for i := range songs {
			if _, err := tx.NamedExec(upsertSongSQL, &songs[i]); err != nil {
				return fmt.Errorf("failed to upsert song %s: %w", songs[i].SongID, err)
			}
		}
		return nil
	})
}

// GetSong returns the cached row for a song id, or nil if not cached.
func (db *DB) GetSong(id domain.SongId) (*domain.UsdbSong, error) {
	if err := db.guard(); err != nil {
		return nil, err
	}
	var song domain.UsdbSong
	err := db.Get(&song, "SELECT * FROM usdb_song WHERE song_id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &song, nil
}

// DeleteSong removes a song's cache row together with all of its sync state
// (sync metas, resource files, active set entry).
func (db *DB) DeleteSong(id domain.SongId) error {
	return db.Transaction(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(
			`DELETE FROM resource_file WHERE sync_meta_id IN
				(SELECT sync_meta_id FROM sync_meta WHERE song_id = ?)`, id,
		); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM sync_meta WHERE song_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM active_sync_meta WHERE song_id = ?", id); err != nil {
			return err
		}
		_, err := tx.Exec("DELETE FROM usdb_song WHERE song_id = ?", id)
		return err
	})
}

// DeleteAllSongs clears the catalog cache, leaving sync state untouched.
func (db *DB) DeleteAllSongs() error {
	if err := db.guard(); err != nil {
		return err
	}
	_, err := db.Exec("DELETE FROM usdb_song")
	return err
}

// SongCount returns the number of cached catalog rows.
func (db *DB) SongCount() (int, error) {
	if err := db.guard(); err != nil {
		return 0, err
	}
	var count int
	err := db.Get(&count, "SELECT count(*) FROM usdb_song")
	return count, err
}

// MaxSongID returns the highest cached song id, 0 when the cache is empty.
func (db *DB) MaxSongID() (domain.SongId, error) {
	if err := db.guard(); err != nil {
		return 0, err
	}
	var id domain.SongId
	err := db.Get(&id, "SELECT COALESCE(MAX(song_id), 0) FROM usdb_song")
	return id, err
}

// LocalSongIDs returns the ids of all songs with at least one local copy.
func (db *DB) LocalSongIDs() ([]domain.SongId, error) {
	if err := db.guard(); err != nil {
		return nil, err
	}
	var ids []domain.SongId
	err := db.Select(&ids, "SELECT DISTINCT song_id FROM sync_meta ORDER BY song_id")
	return ids, err
}

// FindSimilarSongs matches artist and title as initial phrases against the
// full-text index, used for duplicate detection.
func (db *DB) FindSimilarSongs(artist, title string) ([]domain.SongId, error) {
	if err := db.guard(); err != nil {
		return nil, err
	}
	var ids []domain.SongId
	err := db.Select(&ids,
		"SELECT rowid FROM fts_usdb_song WHERE artist MATCH ? AND title MATCH ?",
		fts5StartPhrase(artist), fts5StartPhrase(title),
	)
	return ids, err
}

// NameCount is one value of a song attribute with its number of occurrences.
type NameCount struct {
	Name  string `db:"name"`
	Count int    `db:"count"`
}

func (db *DB) groupedCounts(column string) ([]NameCount, error) {
	if err := db.guard(); err != nil {
		return nil, err
	}
	var counts []NameCount
	stmt := fmt.Sprintf(
		"SELECT %s AS name, COUNT(*) AS count FROM usdb_song GROUP BY %s ORDER BY %s",
		column, column, column,
	)
	err := db.Select(&counts, stmt)
	return counts, err
}

// ArtistCounts returns all distinct artists with occurrence counts.
func (db *DB) ArtistCounts() ([]NameCount, error) { return db.groupedCounts("artist") }

// TitleCounts returns all distinct titles with occurrence counts.
func (db *DB) TitleCounts() ([]NameCount, error) { return db.groupedCounts("title") }

// EditionCounts returns all distinct editions with occurrence counts.
func (db *DB) EditionCounts() ([]NameCount, error) { return db.groupedCounts("edition") }

// LanguageCounts returns all distinct languages with occurrence counts.
func (db *DB) LanguageCounts() ([]NameCount, error) { return db.groupedCounts("language") }
