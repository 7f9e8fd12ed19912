package store

import (
	"fmt"
	"strings"

	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
)

// SongOrder is an attribute songs can be sorted by. The values are the SQL
// expressions used in the ORDER BY clause.
type SongOrder string

const (
	OrderNone        SongOrder = ""
	OrderSongID      SongOrder = "usdb_song.song_id"
	OrderArtist      SongOrder = "usdb_song.artist"
	OrderTitle       SongOrder = "usdb_song.title"
	OrderEdition     SongOrder = "usdb_song.edition"
	OrderLanguage    SongOrder = "usdb_song.language"
	OrderGoldenNotes SongOrder = "usdb_song.golden_notes"
	OrderRating      SongOrder = "usdb_song.rating"
	OrderViews       SongOrder = "usdb_song.views"
	OrderPinned      SongOrder = "sync_meta.pinned"
	OrderTxt         SongOrder = "txt.sync_meta_id IS NULL"
	OrderAudio       SongOrder = "audio.sync_meta_id IS NULL"
	OrderVideo       SongOrder = "video.sync_meta_id IS NULL"
	OrderCover       SongOrder = "cover.sync_meta_id IS NULL"
	OrderBackground  SongOrder = "background.sync_meta_id IS NULL"
	OrderSyncTime    SongOrder = "sync_meta.mtime"
)

const selectSongIDSQL = `SELECT usdb_song.song_id FROM usdb_song
JOIN fts_usdb_song ON usdb_song.song_id = fts_usdb_song.rowid
LEFT JOIN active_sync_meta ON usdb_song.song_id = active_sync_meta.song_id
LEFT JOIN sync_meta ON active_sync_meta.sync_meta_id = sync_meta.sync_meta_id
LEFT JOIN resource_file AS txt
	ON sync_meta.sync_meta_id = txt.sync_meta_id AND txt.kind = 'txt'
LEFT JOIN resource_file AS audio
	ON sync_meta.sync_meta_id = audio.sync_meta_id AND audio.kind = 'audio'
LEFT JOIN resource_file AS video
	ON sync_meta.sync_meta_id = video.sync_meta_id AND video.kind = 'video'
LEFT JOIN resource_file AS cover
	ON sync_meta.sync_meta_id = cover.sync_meta_id AND cover.kind = 'cover'
LEFT JOIN resource_file AS background
	ON sync_meta.sync_meta_id = background.sync_meta_id AND background.kind = 'background'`

// ViewRange filters view counts, inclusive lower bound, exclusive upper
// bound. A nil Max leaves the range open-ended.
type ViewRange struct {
	Min int
	Max *int
}

// SearchBuilder composes a where clause to find songs. All present filters
// are combined by conjunction; a zero builder matches every song.
type SearchBuilder struct {
	Order       SongOrder
	Descending  bool
	Text        string
	Artists     []string
	Titles      []string
	Editions    []string
	Languages   []string
	GoldenNotes *bool
	Ratings     []int
	Views       []ViewRange
	Downloaded  *bool
}

func (b *SearchBuilder) filters() (clauses []string, args []any) {
	if text := fts5Phrases(b.Text); text != "" {
		clauses = append(clauses, "fts_usdb_song MATCH ?")
		args = append(args, text)
	}
	for _, f := range []struct {
		column string
		values []string
	}{
		{"usdb_song.artist", b.Artists},
		{"usdb_song.title", b.Titles},
		{"usdb_song.edition", b.Editions},
		{"usdb_song.language", b.Languages},
	} {
		if len(f.values) > 0 {
			clauses = append(clauses, inValuesClause(f.column, len(f.values)))
			for _, v := range f.values {
				args = append(args, v)
			}
		}
	}
	if b.GoldenNotes != nil {
		clauses = append(clauses, "usdb_song.golden_notes = ?")
		args = append(args, *b.GoldenNotes)
	}
	if len(b.Ratings) > 0 {
		clauses = append(clauses, inValuesClause("usdb_song.rating", len(b.Ratings)))
		for _, r := range b.Ratings {
			args = append(args, r)
		}
	}
	if len(b.Views) > 0 {
		ranges := make([]string, 0, len(b.Views))
		for _, v := range b.Views {
			if v.Max == nil {
				ranges = append(ranges, "usdb_song.views >= ?")
				args = append(args, v.Min)
			} else {
				ranges = append(ranges, "usdb_song.views >= ? AND usdb_song.views < ?")
				args = append(args, v.Min, *v.Max)
			}
		}
		clauses = append(clauses, "("+strings.Join(ranges, " OR ")+")")
	}
	if b.Downloaded != nil {
		if *b.Downloaded {
			clauses = append(clauses, "sync_meta.sync_meta_id IS NOT NULL")
		} else {
			clauses = append(clauses, "sync_meta.sync_meta_id IS NULL")
		}
	}
	return clauses, args
}

// Statement returns the full query and its parameters.
func (b *SearchBuilder) Statement() (string, []any) {
	clauses, args := b.filters()
	stmt := selectSongIDSQL
	if len(clauses) > 0 {
		stmt += "\nWHERE " + strings.Join(clauses, " AND ")
	}
	if b.Order != OrderNone {
		direction := "ASC"
		if b.Descending {
			direction = "DESC"
		}
		stmt += fmt.Sprintf("\nORDER BY %s %s", b.Order, direction)
	}
	return stmt, args
}

// SearchSongs returns the ids of all songs matching the search. Callers
// join back to the cache for display data.
func (db *DB) SearchSongs(search *SearchBuilder) ([]domain.SongId, error) {
	if err := db.guard(); err != nil {
		return nil, err
	}
	stmt, args := search.Statement()
	var ids []domain.SongId
	err := db.Select(&ids, stmt, args...)
	return ids, err
}

func inValuesClause(column string, count int) string {
	return fmt.Sprintf("%s IN (?%s)", column, strings.Repeat(", ?", count-1))
}

// fts5Phrases turns each whitespace-separated word into a required FTS5
// phrase.
func fts5Phrases(text string) string {
	var phrases []string
	for _, word := range strings.Fields(strings.ReplaceAll(text, `"`, "")) {
		phrases = append(phrases, `"`+word+`"`)
	}
	return strings.Join(phrases, " ")
}

// fts5StartPhrase turns the entire string into an FTS5 initial phrase.
func fts5StartPhrase(text string) string {
	return `^"` + strings.ReplaceAll(text, `"`, "") + `"`
}
