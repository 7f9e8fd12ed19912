package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/DeinAlptraum/usdb-syncer/internal/constants"
)

// SongId identifies a song on the remote catalog. Ids are assigned remotely,
// are non-negative and are never reused for a different song.
type SongId int

// ParseSongId parses a decimal song id, rejecting negative values.
func ParseSongId(value string) (SongId, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid song id: %q", value)
	}
	return SongId(id), nil
}

func (id SongId) String() string {
	return strconv.Itoa(int(id))
}

// TxtURL returns the remote resource reference for the song's raw txt.
func (id SongId) TxtURL() string {
	return fmt.Sprintf("%s/?link=gettxt&id=%d", constants.DefaultCatalogURL, int(id))
}

// UsdbSong is the locally cached metadata the catalog shows in its result
// list. Rows are bulk-replaced on catalog refresh.
type UsdbSong struct {
	SongID      SongId `json:"song_id" db:"song_id"`
	Artist      string `json:"artist" db:"artist"`
	Title       string `json:"title" db:"title"`
	Language    string `json:"language" db:"language"`
	Edition     string `json:"edition" db:"edition"`
	GoldenNotes bool   `json:"golden_notes" db:"golden_notes"`
	Rating      int    `json:"rating" db:"rating"`
	Views       int    `json:"views" db:"views"`
}

// ResourceKind identifies one of the files kept in a song folder.
type ResourceKind string

const (
	ResourceTxt        ResourceKind = "txt"
	ResourceAudio      ResourceKind = "audio"
	ResourceVideo      ResourceKind = "video"
	ResourceCover      ResourceKind = "cover"
	ResourceBackground ResourceKind = "background"
)

// AllResourceKinds lists every kind in a fixed order.
func AllResourceKinds() []ResourceKind {
	return []ResourceKind{
		ResourceTxt, ResourceAudio, ResourceVideo, ResourceCover, ResourceBackground,
	}
}

// ResourceFile records a local file inside a song folder together with the
// remote resource it was fetched from. The stored mtime detects local
// modifications, the resource reference detects remote changes.
type ResourceFile struct {
	FName    string `db:"fname"`
	MTime    int64  `db:"mtime"`
	Resource string `db:"resource"`
}

// NewResourceFile builds a record for an existing file, capturing its
// current modification time.
func NewResourceFile(path, resource string) (*ResourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &ResourceFile{
		FName:    filepath.Base(path),
		MTime:    info.ModTime().UnixMilli(),
		Resource: resource,
	}, nil
}

// IsInSync reports whether the file exists in the given folder with an
// unchanged modification time.
func (f *ResourceFile) IsInSync(folder string) bool {
	info, err := os.Stat(filepath.Join(folder, f.FName))
	return err == nil && info.ModTime().UnixMilli() == f.MTime
}

// SyncMeta is the synchronization state of one local copy of a song. There
// may be several per song id under different folders; the active set in the
// store restricts to one per song id within a root folder.
type SyncMeta struct {
	SyncMetaID string `db:"sync_meta_id"`
	SongID     SongId `db:"song_id"`
	Path       string `db:"path"`
	MTime      int64  `db:"mtime"`
	MetaTags   string `db:"meta_tags"`
	Pinned     bool   `db:"pinned"`

	Txt        *ResourceFile `db:"-"`
	Audio      *ResourceFile `db:"-"`
	Video      *ResourceFile `db:"-"`
	Cover      *ResourceFile `db:"-"`
	Background *ResourceFile `db:"-"`
}

// NewSyncMeta creates the sync state for a song first synchronized into the
// given folder.
func NewSyncMeta(songID SongId, folder, metaTags string) *SyncMeta {
	return &SyncMeta{
		SyncMetaID: uuid.New().String(),
		SongID:     songID,
		Path:       filepath.Join(folder, songID.String()+constants.SnapshotExt),
		MetaTags:   metaTags,
	}
}

// Folder returns the song folder this sync meta lives in.
func (m *SyncMeta) Folder() string {
	return filepath.Dir(m.Path)
}

// Resource returns the record for the given kind, or nil.
func (m *SyncMeta) Resource(kind ResourceKind) *ResourceFile {
	switch kind {
	case ResourceTxt:
		return m.Txt
	case ResourceAudio:
		return m.Audio
	case ResourceVideo:
		return m.Video
	case ResourceCover:
		return m.Cover
	case ResourceBackground:
		return m.Background
	}
	return nil
}

// SetResource replaces the record for the given kind.
func (m *SyncMeta) SetResource(kind ResourceKind, file *ResourceFile) {
	switch kind {
	case ResourceTxt:
		m.Txt = file
	case ResourceAudio:
		m.Audio = file
	case ResourceVideo:
		m.Video = file
	case ResourceCover:
		m.Cover = file
	case ResourceBackground:
		m.Background = file
	}
}

// SyncedResource returns the record for the given kind if its file is still
// present and unmodified in the folder.
func (m *SyncMeta) SyncedResource(folder string, kind ResourceKind) *ResourceFile {
	if file := m.Resource(kind); file != nil && file.IsInSync(folder) {
		return file
	}
	return nil
}

// BumpMTime marks the sync state as updated now.
func (m *SyncMeta) BumpMTime() {
	m.MTime = time.Now().UnixMilli()
}
