package syncer

import "github.com/DeinAlptraum/usdb-syncer/internal/constants"

// Options controls what a sync run downloads and how files are written.
type Options struct {
	// SongDir is the root folder song folders are created under.
	SongDir string

	Encoding    string
	LineEndings string

	Audio bool
	Video bool
	Cover bool
	// Background download is further gated by BackgroundPolicy.
	Background       bool
	BackgroundPolicy string
}

// DefaultOptions downloads everything with default formats.
func DefaultOptions(songDir string) Options {
	return Options{
		SongDir:          songDir,
		Encoding:         constants.DefaultEncoding,
		LineEndings:      constants.DefaultLineEndings,
		Audio:            true,
		Video:            true,
		Cover:            true,
		Background:       true,
		BackgroundPolicy: constants.BackgroundNoVideo,
	}
}

// WantsBackground reports whether the background image should be fetched
// for a song that does or does not have a video.
func (o Options) WantsBackground(hasVideo bool) bool {
	if !o.Background {
		return false
	}
	return o.BackgroundPolicy == constants.BackgroundAlways || !hasVideo
}
