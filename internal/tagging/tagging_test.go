package tagging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"

	"github.com/DeinAlptraum/usdb-syncer/internal/logger"
	"github.com/DeinAlptraum/usdb-syncer/internal/songtxt"
)

const taggingTxt = `#ARTIST:Foo
#TITLE:Bar
#GENRE:Pop
#YEAR:1999
#LANGUAGE:English
#BPM:100
: 0 2 0 Hel
: 2 2 0 lo
E`

func parseTxt(t *testing.T) *songtxt.SongTxt {
	t.Helper()
	txt, err := songtxt.Parse(taggingTxt, logger.Default())
	if err != nil {
		t.Fatalf("Failed to parse txt: %v", err)
	}
	return txt
}

// untagged mp3-like file, large enough to hold a frame sync word
func writeAudioFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := append([]byte{0xFF, 0xFB}, make([]byte, 510)...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write audio file: %v", err)
	}
	return path
}

func TestTagFile_MP3(t *testing.T) {
	path := writeAudioFile(t, "song.mp3")
	cover := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	if err := TagFile(path, parseTxt(t), cover, "https://example.org/song"); err != nil {
		t.Fatalf("TagFile failed: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("Failed to reopen tagged file: %v", err)
	}
	defer tag.Close()

	if tag.Title() != "Bar" {
		t.Errorf("Expected title Bar, got %q", tag.Title())
	}
	if tag.Artist() != "Foo" {
		t.Errorf("Expected artist Foo, got %q", tag.Artist())
	}
	if tag.Genre() != "Pop" {
		t.Errorf("Expected genre Pop, got %q", tag.Genre())
	}
	if tag.Year() != "1999" {
		t.Errorf("Expected year 1999, got %q", tag.Year())
	}

	lyrics := tag.GetFrames(tag.CommonID("Unsynchronised lyrics/text transcription"))
	if len(lyrics) != 1 {
		t.Fatalf("Expected one lyrics frame, got %d", len(lyrics))
	}
	if uslt, ok := lyrics[0].(id3v2.UnsynchronisedLyricsFrame); !ok || uslt.Lyrics != "Hello" {
		t.Errorf("Unexpected lyrics frame: %+v", lyrics[0])
	}

	comments := tag.GetFrames(tag.CommonID("Comments"))
	if len(comments) != 1 {
		t.Fatalf("Expected one comment frame, got %d", len(comments))
	}
	if comment, ok := comments[0].(id3v2.CommentFrame); !ok || comment.Text != "https://example.org/song" {
		t.Errorf("Unexpected comment frame: %+v", comments[0])
	}

	pictures := tag.GetFrames(tag.CommonID("Attached picture"))
	if len(pictures) != 1 {
		t.Fatalf("Expected one picture frame, got %d", len(pictures))
	}
	if pic, ok := pictures[0].(id3v2.PictureFrame); !ok || !bytes.Equal(pic.Picture, cover) {
		t.Errorf("Unexpected picture frame: %+v", pictures[0])
	}
}

func TestTagFile_EmptyHeadersSkipped(t *testing.T) {
	path := writeAudioFile(t, "song.mp3")
	txt := parseTxt(t)
	txt.Headers.Genre = ""
	txt.Headers.Year = ""

	if err := TagFile(path, txt, nil, ""); err != nil {
		t.Fatalf("TagFile failed: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("Failed to reopen tagged file: %v", err)
	}
	defer tag.Close()

	if tag.Genre() != "" || tag.Year() != "" {
		t.Errorf("Expected empty headers to be skipped, got genre %q year %q",
			tag.Genre(), tag.Year())
	}
	if len(tag.GetFrames(tag.CommonID("Comments"))) != 0 {
		t.Error("Expected no comment frame without a source")
	}
	if len(tag.GetFrames(tag.CommonID("Attached picture"))) != 0 {
		t.Error("Expected no picture frame without cover data")
	}
}

func TestTagFile_UnsupportedFormatUntouched(t *testing.T) {
	path := writeAudioFile(t, "song.ogg")
	before, _ := os.ReadFile(path)

	if err := TagFile(path, parseTxt(t), nil, ""); err != nil {
		t.Fatalf("TagFile failed: %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(before, after) {
		t.Error("Unsupported formats must be left untouched")
	}
}
