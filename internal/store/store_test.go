package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testSong(id domain.SongId, artist, title string) domain.UsdbSong {
	return domain.UsdbSong{
		SongID:   id,
		Artist:   artist,
		Title:    title,
		Language: "English",
		Edition:  "Rock Classics",
		Rating:   4,
		Views:    100,
	}
}

func TestDB_SchemaVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Connect(path)
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	if _, err := db.Exec("UPDATE meta SET version = 999"); err != nil {
		t.Fatalf("Failed to bump version: %v", err)
	}
	db.Close()

	if _, err := Connect(path); !errors.Is(err, ErrSchemaVersionMismatch) {
		t.Errorf("Expected ErrSchemaVersionMismatch, got %v", err)
	}
}

func TestDB_ClosedConnection(t *testing.T) {
	db := setupTestDB(t)
	db.Close()
	if _, err := db.SongCount(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestDB_Songs(t *testing.T) {
	db := setupTestDB(t)

	song := testSong(123, "Foo", "Bar")
	if err := db.UpsertSong(&song); err != nil {
		t.Fatalf("UpsertSong failed: %v", err)
	}

	fetched, err := db.GetSong(123)
	if err != nil {
		t.Fatalf("GetSong failed: %v", err)
	}
	if fetched == nil || fetched.Artist != "Foo" {
		t.Errorf("Unexpected song: %+v", fetched)
	}

	// upsert is idempotent on song id
	song.Views = 200
	if err := db.UpsertSong(&song); err != nil {
		t.Fatalf("Second UpsertSong failed: %v", err)
	}
	count, err := db.SongCount()
	if err != nil || count != 1 {
		t.Errorf("Expected 1 song, got %d (%v)", count, err)
	}
	fetched, _ = db.GetSong(123)
	if fetched.Views != 200 {
		t.Errorf("Expected updated views, got %d", fetched.Views)
	}

	missing, err := db.GetSong(999)
	if err != nil || missing != nil {
		t.Errorf("Expected nil for unknown song, got %+v (%v)", missing, err)
	}

	maxID, err := db.MaxSongID()
	if err != nil || maxID != 123 {
		t.Errorf("Expected max id 123, got %d (%v)", maxID, err)
	}

	if err := db.DeleteSong(123); err != nil {
		t.Fatalf("DeleteSong failed: %v", err)
	}
	count, _ = db.SongCount()
	if count != 0 {
		t.Errorf("Expected empty cache, got %d songs", count)
	}
}

func TestDB_SearchSongs(t *testing.T) {
	db := setupTestDB(t)

	songs := []domain.UsdbSong{
		testSong(1, "ABBA", "Waterloo"),
		testSong(2, "ABBA", "SOS"),
		testSong(3, "Queen", "Bohemian Rhapsody"),
	}
	songs[2].Language = "Spanish"
	songs[2].GoldenNotes = true
	if err := db.UpsertSongs(songs); err != nil {
		t.Fatalf("UpsertSongs failed: %v", err)
	}

	// empty search matches everything
	ids, err := db.SearchSongs(&SearchBuilder{Order: OrderSongID})
	if err != nil {
		t.Fatalf("SearchSongs failed: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("Expected 3 songs, got %d", len(ids))
	}

	// filters are conjunctive
	ids, err = db.SearchSongs(&SearchBuilder{Text: "abba", Titles: []string{"SOS"}})
	if err != nil {
		t.Fatalf("SearchSongs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("Expected only song 2, got %v", ids)
	}

	// conflicting filters match nothing
	ids, err = db.SearchSongs(&SearchBuilder{Text: "abba", Languages: []string{"Spanish"}})
	if err != nil {
		t.Fatalf("SearchSongs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected no songs, got %v", ids)
	}

	golden := true
	ids, err = db.SearchSongs(&SearchBuilder{GoldenNotes: &golden})
	if err != nil {
		t.Fatalf("SearchSongs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != 3 {
		t.Errorf("Expected only song 3, got %v", ids)
	}

	max := 50
	ids, err = db.SearchSongs(&SearchBuilder{Views: []ViewRange{{Min: 0, Max: &max}}})
	if err != nil {
		t.Fatalf("SearchSongs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected no songs below 50 views, got %v", ids)
	}

	downloaded := false
	ids, err = db.SearchSongs(&SearchBuilder{Downloaded: &downloaded, Order: OrderSongID, Descending: true})
	if err != nil {
		t.Fatalf("SearchSongs failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != 3 {
		t.Errorf("Expected all songs descending, got %v", ids)
	}
}

func TestDB_SearchSongs_UpdatedRowsReindexed(t *testing.T) {
	db := setupTestDB(t)

	song := testSong(1, "Wrong Artist", "Song")
	if err := db.UpsertSong(&song); err != nil {
		t.Fatalf("UpsertSong failed: %v", err)
	}
	song.Artist = "Right Artist"
	if err := db.UpsertSong(&song); err != nil {
		t.Fatalf("UpsertSong failed: %v", err)
	}

	ids, err := db.SearchSongs(&SearchBuilder{Text: "wrong"})
	if err != nil {
		t.Fatalf("SearchSongs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Stale index entry matched: %v", ids)
	}
	ids, err = db.SearchSongs(&SearchBuilder{Text: "right"})
	if err != nil {
		t.Fatalf("SearchSongs failed: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("Expected updated row to match, got %v", ids)
	}
}

func TestDB_SyncMetas(t *testing.T) {
	db := setupTestDB(t)
	songDir := t.TempDir()

	song := testSong(42, "Foo", "Bar")
	if err := db.UpsertSong(&song); err != nil {
		t.Fatalf("UpsertSong failed: %v", err)
	}

	folder := filepath.Join(songDir, "Foo - Bar")
	meta := domain.NewSyncMeta(42, folder, "a=xyz")
	meta.Txt = &domain.ResourceFile{FName: "Foo - Bar.txt", MTime: 1000, Resource: "url"}
	meta.BumpMTime()

	if err := db.SaveSyncMeta(meta); err != nil {
		t.Fatalf("SaveSyncMeta failed: %v", err)
	}
	if err := db.UpdateActiveSyncMeta(songDir, 42); err != nil {
		t.Fatalf("UpdateActiveSyncMeta failed: %v", err)
	}

	active, err := db.GetActiveSyncMeta(42)
	if err != nil {
		t.Fatalf("GetActiveSyncMeta failed: %v", err)
	}
	if active == nil || active.SyncMetaID != meta.SyncMetaID {
		t.Fatalf("Unexpected active meta: %+v", active)
	}
	if active.Txt == nil || active.Txt.FName != "Foo - Bar.txt" {
		t.Errorf("Expected txt resource attached, got %+v", active.Txt)
	}

	// removing the resource must prune the stored row
	meta.Txt = nil
	if err := db.SaveSyncMeta(meta); err != nil {
		t.Fatalf("SaveSyncMeta failed: %v", err)
	}
	active, _ = db.GetActiveSyncMeta(42)
	if active.Txt != nil {
		t.Errorf("Expected txt resource pruned, got %+v", active.Txt)
	}

	metas, err := db.SyncMetasInFolder(songDir)
	if err != nil {
		t.Fatalf("SyncMetasInFolder failed: %v", err)
	}
	if len(metas) != 1 {
		t.Errorf("Expected 1 meta in folder, got %d", len(metas))
	}

	ids, err := db.LocalSongIDs()
	if err != nil || len(ids) != 1 || ids[0] != 42 {
		t.Errorf("Unexpected local ids: %v (%v)", ids, err)
	}

	if err := db.DeleteSyncMeta(meta.SyncMetaID); err != nil {
		t.Fatalf("DeleteSyncMeta failed: %v", err)
	}
	active, err = db.GetActiveSyncMeta(42)
	if err != nil || active != nil {
		t.Errorf("Expected no active meta after delete, got %+v (%v)", active, err)
	}
}

func TestDB_DeleteSyncMetas(t *testing.T) {
	db := setupTestDB(t)
	songDir := t.TempDir()

	var ids []string
	for i, name := range []string{"One", "Two"} {
		song := testSong(domain.SongId(i+1), "Artist", name)
		if err := db.UpsertSong(&song); err != nil {
			t.Fatalf("UpsertSong failed: %v", err)
		}
		meta := domain.NewSyncMeta(song.SongID, filepath.Join(songDir, name), "")
		if err := db.SaveSyncMeta(meta); err != nil {
			t.Fatalf("SaveSyncMeta failed: %v", err)
		}
		ids = append(ids, meta.SyncMetaID)
	}

	if err := db.DeleteSyncMetas(ids); err != nil {
		t.Fatalf("DeleteSyncMetas failed: %v", err)
	}
	metas, err := db.SyncMetasInFolder(songDir)
	if err != nil {
		t.Fatalf("SyncMetasInFolder failed: %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("Expected no metas after delete, got %d", len(metas))
	}
}

func TestDB_ResetActiveSyncMetas_PinnedWins(t *testing.T) {
	db := setupTestDB(t)
	songDir := t.TempDir()

	song := testSong(7, "Foo", "Bar")
	if err := db.UpsertSong(&song); err != nil {
		t.Fatalf("UpsertSong failed: %v", err)
	}

	newer := domain.NewSyncMeta(7, filepath.Join(songDir, "Foo - Bar"), "")
	newer.MTime = 2000
	pinned := domain.NewSyncMeta(7, filepath.Join(songDir, "Foo - Bar (1)"), "")
	pinned.MTime = 1000
	pinned.Pinned = true
	if err := db.SaveSyncMetas([]*domain.SyncMeta{newer, pinned}); err != nil {
		t.Fatalf("SaveSyncMetas failed: %v", err)
	}

	if err := db.ResetActiveSyncMetas(songDir); err != nil {
		t.Fatalf("ResetActiveSyncMetas failed: %v", err)
	}

	active, err := db.GetActiveSyncMeta(7)
	if err != nil {
		t.Fatalf("GetActiveSyncMeta failed: %v", err)
	}
	if active == nil || active.SyncMetaID != pinned.SyncMetaID {
		t.Errorf("Expected pinned meta to win, got %+v", active)
	}
}

func TestDB_CommitSync(t *testing.T) {
	db := setupTestDB(t)
	songDir := t.TempDir()

	song := testSong(99, "Foo", "Bar")
	meta := domain.NewSyncMeta(99, filepath.Join(songDir, "Foo - Bar"), "a=xyz")
	meta.Audio = &domain.ResourceFile{FName: "Foo - Bar.mp3", MTime: 5, Resource: "https://x/y.mp3"}
	meta.BumpMTime()

	if err := db.CommitSync(&song, meta, songDir); err != nil {
		t.Fatalf("CommitSync failed: %v", err)
	}

	fetched, err := db.GetSong(99)
	if err != nil || fetched == nil {
		t.Fatalf("Expected cached song after commit: %v", err)
	}
	active, err := db.GetActiveSyncMeta(99)
	if err != nil || active == nil {
		t.Fatalf("Expected active meta after commit: %v", err)
	}
	if active.Audio == nil || active.Audio.FName != "Foo - Bar.mp3" {
		t.Errorf("Expected audio resource, got %+v", active.Audio)
	}

	counts, err := db.ArtistCounts()
	if err != nil || len(counts) != 1 || counts[0].Name != "Foo" || counts[0].Count != 1 {
		t.Errorf("Unexpected artist counts: %v (%v)", counts, err)
	}
}

func TestDB_FindSimilarSongs(t *testing.T) {
	db := setupTestDB(t)

	if err := db.UpsertSongs([]domain.UsdbSong{
		testSong(1, "ABBA", "Waterloo"),
		testSong(2, "Queen", "Waterloo Sunset"),
	}); err != nil {
		t.Fatalf("UpsertSongs failed: %v", err)
	}

	ids, err := db.FindSimilarSongs("ABBA", "Waterloo")
	if err != nil {
		t.Fatalf("FindSimilarSongs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("Expected song 1, got %v", ids)
	}
}
