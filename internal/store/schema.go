package store

// Schema is applied once, when connecting to a store without a meta table.
// There is no automatic cascade between tables; the delete helpers in this
// package issue the cascading deletes themselves.
const Schema = `
CREATE TABLE meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL,
	ctime INTEGER NOT NULL
);

CREATE TABLE usdb_song (
	song_id INTEGER PRIMARY KEY,
	artist TEXT NOT NULL,
	title TEXT NOT NULL,
	language TEXT NOT NULL,
	edition TEXT NOT NULL,
	golden_notes BOOLEAN NOT NULL,
	rating INTEGER NOT NULL,
	views INTEGER NOT NULL
);

CREATE VIRTUAL TABLE fts_usdb_song USING fts5(
	artist, title, edition, language,
	content=usdb_song, content_rowid=song_id
);

CREATE TRIGGER trg_usdb_song_ai AFTER INSERT ON usdb_song BEGIN
	INSERT INTO fts_usdb_song (rowid, artist, title, edition, language)
	VALUES (new.song_id, new.artist, new.title, new.edition, new.language);
END;

CREATE TRIGGER trg_usdb_song_ad AFTER DELETE ON usdb_song BEGIN
	INSERT INTO fts_usdb_song (fts_usdb_song, rowid, artist, title, edition, language)
	VALUES ('delete', old.song_id, old.artist, old.title, old.edition, old.language);
END;

CREATE TRIGGER trg_usdb_song_au AFTER UPDATE ON usdb_song BEGIN
	INSERT INTO fts_usdb_song (fts_usdb_song, rowid, artist, title, edition, language)
	VALUES ('delete', old.song_id, old.artist, old.title, old.edition, old.language);
	INSERT INTO fts_usdb_song (rowid, artist, title, edition, language)
	VALUES (new.song_id, new.artist, new.title, new.edition, new.language);
END;

CREATE TABLE sync_meta (
	sync_meta_id TEXT PRIMARY KEY,
	song_id INTEGER NOT NULL,
	path TEXT NOT NULL UNIQUE,
	mtime INTEGER NOT NULL,
	meta_tags TEXT NOT NULL,
	pinned BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX idx_sync_meta_song_id ON sync_meta(song_id);

CREATE TABLE resource_file (
	sync_meta_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	fname TEXT NOT NULL,
	mtime INTEGER NOT NULL,
	resource TEXT NOT NULL,
	PRIMARY KEY (sync_meta_id, kind)
);

CREATE TABLE active_sync_meta (
	song_id INTEGER PRIMARY KEY,
	sync_meta_id TEXT NOT NULL
);
`
