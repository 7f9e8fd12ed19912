// Package syncer drives the per-song synchronization pipeline.
package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/DeinAlptraum/usdb-syncer/internal/catalog"
	"github.com/DeinAlptraum/usdb-syncer/internal/constants"
	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
	"github.com/DeinAlptraum/usdb-syncer/internal/fetcher"
	"github.com/DeinAlptraum/usdb-syncer/internal/logger"
	"github.com/DeinAlptraum/usdb-syncer/internal/songtxt"
	"github.com/DeinAlptraum/usdb-syncer/internal/storage"
	"github.com/DeinAlptraum/usdb-syncer/internal/store"
	"github.com/DeinAlptraum/usdb-syncer/internal/tagging"
)

// Syncer synchronizes songs from the remote catalog into local song
// folders. One Syncer is shared between all sync jobs; per-song state lives
// in the job.
type Syncer struct {
	db      *store.DB
	catalog catalog.Client
	fetcher fetcher.Fetcher
	dirs    *storage.DirectoryCache
	opts    Options
	log     *logger.Logger
}

func New(db *store.DB, cat catalog.Client, fet fetcher.Fetcher, dirs *storage.DirectoryCache, opts Options, log *logger.Logger) *Syncer {
	if log == nil {
		log = logger.Default()
	}
	return &Syncer{
		db:      db,
		catalog: cat,
		fetcher: fet,
		dirs:    dirs,
		opts:    opts,
		log:     log.WithComponent("syncer"),
	}
}

// job carries the state of one sync run through the pipeline stages.
type job struct {
	songID   domain.SongId
	song     domain.UsdbSong
	details  *catalog.SongDetails
	rawTxt   []byte
	txt      *songtxt.SongTxt
	metaTags string
	meta     *domain.SyncMeta
	folder   string
	basename string
	log      *logger.Logger
}

// SyncSong runs the full pipeline for one song. A song that vanished from
// the catalog is removed locally and does not count as an error. Failing to
// fetch an optional resource is logged and the sync continues without it;
// the failed resource is retried on the next run.
func (s *Syncer) SyncSong(ctx context.Context, songID domain.SongId) error {
	log := s.log.WithSong(songID.String())
	log.Info("Starting sync")

	j := &job{songID: songID, log: log}
	if err := s.fetchStage(ctx, j); err != nil {
		if errors.Is(err, catalog.ErrSongNotFound) {
			log.Info("Song no longer on catalog, removing local entry")
			return s.db.DeleteSong(songID)
		}
		return err
	}
	if err := s.parseStage(j); err != nil {
		return err
	}
	if err := s.locateStage(j); err != nil {
		return err
	}
	if s.upToDate(j) {
		log.Info("Song already up to date")
		return nil
	}
	s.audioStage(ctx, j)
	s.videoStage(ctx, j)
	s.coverStage(ctx, j)
	s.backgroundStage(ctx, j)
	if err := s.txtStage(j); err != nil {
		return err
	}
	return s.commitStage(j)
}

func (s *Syncer) fetchStage(ctx context.Context, j *job) error {
	log := j.log.WithStage("fetch")
	details, err := s.catalog.GetSongDetails(ctx, j.songID)
	if err != nil {
		return err
	}
	raw, err := s.catalog.GetSongTxt(ctx, j.songID)
	if err != nil {
		return err
	}
	j.details = details
	j.song = details.Song
	j.rawTxt = []byte(raw)
	log.Info("Fetched song data", "bytes", len(j.rawTxt))
	return nil
}

// bracketed remarks like "[VIDEO]" or "[DUET]" are catalog annotations,
// not part of the title
var titleRemark = regexp.MustCompile(`\s*\[.*?\]`)

func (s *Syncer) parseStage(j *job) error {
	log := j.log.WithStage("parse")
	txt, err := songtxt.Parse(string(j.rawTxt), log)
	if err != nil {
		return fmt.Errorf("parsing song %s: %w", j.songID, err)
	}
	// a "[Duet]" remark counts for duet detection, so decide before it is
	// stripped from the title
	isDuet := txt.IsDuet()
	txt.Headers.Title = strings.TrimSpace(titleRemark.ReplaceAllString(txt.Headers.Title, ""))

	if txt.Headers.Genre == "" {
		txt.Headers.Genre = j.details.Genre
	}
	if txt.Headers.Year == "" {
		txt.Headers.Year = j.details.Year
	}
	if txt.Headers.Creator == "" {
		txt.Headers.Creator = j.details.Creator
	}
	if txt.Headers.Language == "" {
		txt.Headers.Language = j.song.Language
	}
	if txt.Headers.Edition == "" {
		txt.Headers.Edition = j.song.Edition
	}

	j.metaTags = txt.MetaTags.String()
	txt.Headers.ResetFileLocationHeaders()

	if isDuet {
		if !txt.Notes.IsDuet() && txt.SplitDuet() {
			log.Info("Split notes into duet players")
		}
		if txt.Headers.P1 == "" {
			txt.Headers.P1 = firstNonEmpty(txt.MetaTags.Player1, "P1")
		}
		if txt.Headers.P2 == "" {
			txt.Headers.P2 = firstNonEmpty(txt.MetaTags.Player2, "P2")
		}
	}

	j.txt = txt
	j.basename = storage.Sanitize(txt.Headers.ArtistTitleStr())
	return nil
}

func (s *Syncer) locateStage(j *job) error {
	log := j.log.WithStage("locate")
	meta, err := s.db.GetActiveSyncMeta(j.songID)
	if err != nil {
		return err
	}
	if meta != nil {
		j.meta = meta
		j.folder = meta.Folder()
		log.Info("Reusing song folder", "folder", j.folder)
		return nil
	}
	folder, err := s.dirs.NextUnique(filepath.Join(s.opts.SongDir, j.basename))
	if err != nil {
		return err
	}
	j.folder = folder
	j.meta = domain.NewSyncMeta(j.songID, folder, j.metaTags)
	log.Info("Allocated song folder", "folder", folder)
	return nil
}

// upToDate reports whether the stored raw txt matches the fetched one and
// all recorded resource files are still unmodified on disk.
func (s *Syncer) upToDate(j *job) bool {
	old, err := os.ReadFile(j.meta.Path)
	if err != nil || !bytes.Equal(old, j.rawTxt) {
		return false
	}
	for _, kind := range domain.AllResourceKinds() {
		file := j.meta.Resource(kind)
		if file == nil {
			// a wanted resource without a record failed last run; retry it
			if s.wantsResource(j, kind) {
				return false
			}
			continue
		}
		if !file.IsInSync(j.folder) {
			return false
		}
	}
	return true
}

// wantsResource reports whether the current options and the song's embedded
// tags ask for the given resource kind.
func (s *Syncer) wantsResource(j *job, kind domain.ResourceKind) bool {
	tags := j.txt.MetaTags
	switch kind {
	case domain.ResourceAudio:
		return s.opts.Audio && firstNonEmpty(tags.Audio, tags.Video) != ""
	case domain.ResourceVideo:
		return s.opts.Video && !tags.IsAudioOnly() && tags.Video != ""
	case domain.ResourceCover:
		return s.opts.Cover && firstNonEmpty(tags.Cover, j.details.CoverURL) != ""
	case domain.ResourceBackground:
		return s.opts.WantsBackground(tags.Video != "") && tags.Background != ""
	default:
		return true
	}
}

func (s *Syncer) audioStage(ctx context.Context, j *job) {
	if !s.opts.Audio {
		return
	}
	resource := firstNonEmpty(j.txt.MetaTags.Audio, j.txt.MetaTags.Video)
	fname := s.syncResource(ctx, j, domain.ResourceAudio, resource, j.basename)
	j.txt.Headers.MP3 = fname
}

func (s *Syncer) videoStage(ctx context.Context, j *job) {
	if !s.opts.Video || j.txt.MetaTags.IsAudioOnly() {
		return
	}
	fname := s.syncResource(ctx, j, domain.ResourceVideo, j.txt.MetaTags.Video, j.basename)
	j.txt.Headers.Video = fname
}

func (s *Syncer) coverStage(ctx context.Context, j *job) {
	if !s.opts.Cover {
		return
	}
	resource := firstNonEmpty(j.txt.MetaTags.Cover, j.details.CoverURL)
	fname := s.syncResource(ctx, j, domain.ResourceCover, resource,
		j.basename+constants.CoverSuffix)
	j.txt.Headers.Cover = fname
}

func (s *Syncer) backgroundStage(ctx context.Context, j *job) {
	// the video header is only set when the video stage succeeded, so a
	// failed or disabled video download still gets a background
	if !s.opts.WantsBackground(j.txt.Headers.Video != "") {
		return
	}
	fname := s.syncResource(ctx, j, domain.ResourceBackground, j.txt.MetaTags.Background,
		j.basename+constants.BackgroundSuffix)
	j.txt.Headers.Background = fname
}

// syncResource brings one resource file up to date and returns its file
// name, or "" if the song has no such resource or fetching failed.
func (s *Syncer) syncResource(ctx context.Context, j *job, kind domain.ResourceKind, resource, destName string) string {
	log := j.log.WithStage(string(kind))
	if resource == "" {
		j.meta.SetResource(kind, nil)
		return ""
	}
	resource = absoluteURL(resource)
	if old := j.meta.SyncedResource(j.folder, kind); old != nil && old.Resource == resource {
		log.Info("Resource unchanged, skipping download")
		return old.FName
	}
	path, err := s.fetcher.Fetch(ctx, resource, kind, filepath.Join(j.folder, destName))
	if err != nil {
		log.Error("Failed to fetch resource", "error", err)
		j.meta.SetResource(kind, nil)
		return ""
	}
	file, err := domain.NewResourceFile(path, resource)
	if err != nil {
		log.Error("Failed to stat fetched resource", "error", err)
		j.meta.SetResource(kind, nil)
		return ""
	}
	j.meta.SetResource(kind, file)
	log.Info("Resource downloaded", "file", file.FName)
	return file.FName
}

func (s *Syncer) txtStage(j *job) error {
	log := j.log.WithStage("txt")
	fname := j.basename + constants.TxtExt
	path := filepath.Join(j.folder, fname)
	if err := storage.WriteFile(path, j.txt.Bytes(s.opts.Encoding, s.opts.LineEndings)); err != nil {
		return err
	}
	file, err := domain.NewResourceFile(path, j.songID.TxtURL())
	if err != nil {
		return err
	}
	j.meta.SetResource(domain.ResourceTxt, file)
	log.Info("Song txt written", "file", fname)
	return nil
}

func (s *Syncer) commitStage(j *job) error {
	log := j.log.WithStage("commit")
	s.tagAudio(j)
	if err := storage.WriteFile(j.meta.Path, j.rawTxt); err != nil {
		return err
	}
	j.meta.MetaTags = j.metaTags
	j.meta.BumpMTime()
	if err := s.db.CommitSync(&j.song, j.meta, s.opts.SongDir); err != nil {
		return err
	}
	log.Info("Sync finished", "folder", j.folder)
	return nil
}

func (s *Syncer) tagAudio(j *job) {
	audio := j.meta.Resource(domain.ResourceAudio)
	if audio == nil {
		return
	}
	var coverData []byte
	if cover := j.meta.Resource(domain.ResourceCover); cover != nil {
		coverData, _ = os.ReadFile(filepath.Join(j.folder, cover.FName))
	}
	path := filepath.Join(j.folder, audio.FName)
	if err := tagging.TagFile(path, j.txt, coverData, j.songID.TxtURL()); err != nil {
		j.log.Warn("Failed to tag audio file", "file", audio.FName, "error", err)
	}
	// tagging rewrites the file, so the recorded mtime must be refreshed
	if updated, err := domain.NewResourceFile(path, audio.Resource); err == nil {
		j.meta.SetResource(domain.ResourceAudio, updated)
	}
}

// RefreshCatalog replaces the local song cache with the current catalog
// listing and returns the number of songs.
func (s *Syncer) RefreshCatalog(ctx context.Context) (int, error) {
	log := s.log.WithStage("refresh")
	songs, err := s.catalog.ListSongs(ctx)
	if err != nil {
		return 0, fmt.Errorf("refreshing catalog: %w", err)
	}
	// songs dropped from the catalog must not linger in the cache
	if err := s.db.DeleteAllSongs(); err != nil {
		return 0, err
	}
	if err := s.db.UpsertSongs(songs); err != nil {
		return 0, err
	}
	log.Info("Catalog refreshed", "songs", len(songs))
	return len(songs), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// absoluteURL prepends https to schemeless resource references, which is
// how the catalog's embedded tags store them.
func absoluteURL(resource string) string {
	if strings.Contains(resource, "://") {
		return resource
	}
	return "https://" + resource
}
