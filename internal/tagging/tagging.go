// Package tagging writes metadata tags to synchronized audio files.
package tagging

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"

	"github.com/DeinAlptraum/usdb-syncer/internal/songtxt"
)

// TagFile writes metadata from the song txt to the audio file at filePath,
// embedding the cover art if given and recording source as the origin of
// the file. Formats without a supported tag container are left untouched.
func TagFile(filePath string, txt *songtxt.SongTxt, coverData []byte, source string) error {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		return tagMP3(filePath, txt, coverData, source)
	default:
		return nil
	}
}

func tagMP3(filePath string, txt *songtxt.SongTxt, coverData []byte, source string) error {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)

	if txt.Headers.Title != "" {
		tag.SetTitle(txt.Headers.Title)
	}
	if txt.Headers.Artist != "" {
		tag.SetArtist(txt.Headers.Artist)
	}
	if txt.Headers.Genre != "" {
		tag.SetGenre(txt.Headers.Genre)
	}
	if txt.Headers.Year != "" {
		tag.SetYear(txt.Headers.Year)
	}
	if txt.Headers.Language != "" {
		tag.AddTextFrame(tag.CommonID("Language"), tag.DefaultEncoding(), txt.Headers.Language)
	}

	if lyrics := txt.UnsynchronizedLyrics(); lyrics != "" {
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF8,
			Language:          "und",
			ContentDescriptor: "Lyrics",
			Lyrics:            lyrics,
		})
	}

	if source != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "und",
			Description: "Source",
			Text:        source,
		})
	}

	if len(coverData) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     coverData,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save MP3 tags: %w", err)
	}
	return nil
}
