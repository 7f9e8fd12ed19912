package songtxt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/DeinAlptraum/usdb-syncer/internal/logger"
)

// ErrMissingRequiredHeaders is returned when a chart lacks artist or title.
// All other header problems are recoverable.
var ErrMissingRequiredHeaders = errors.New("cannot parse song without artist and title")

// UnknownHeader is an unrecognized header preserved verbatim for round-trips.
type UnknownHeader struct {
	Name  string
	Value string
}

// Headers holds the chart metadata. Optional string fields are empty when
// absent; optional numeric fields are nil.
type Headers struct {
	Title  string
	Artist string
	BPM    float64
	Gap    float64

	Language string
	Edition  string
	Genre    string
	Album    string
	Year     string
	Creator  string

	MP3        string
	Cover      string
	Background string
	Video      string

	VideoGap        *float64
	Start           *float64
	End             *float64
	PreviewStart    *float64
	MedleyStartBeat *int
	MedleyEndBeat   *int

	Relative   string
	P1         string
	P2         string
	Comment    string
	Resolution string

	// parsed but never rewritten, as it depends on the chosen encoding
	Encoding string

	Unknown []UnknownHeader
}

// parseHeaders consumes lines from the stream while they are headers.
func parseHeaders(s *lineStream, log *logger.Logger) (Headers, error) {
	var h Headers
	var haveTitle, haveArtist, haveBPM bool
	for {
		raw, ok := s.peek()
		if !ok || !strings.HasPrefix(raw, "#") {
			break
		}
		s.next()
		line := strings.TrimPrefix(raw, "#")
		name, value, found := strings.Cut(line, ":")
		if !found {
			log.Warn("header without value", "line", line)
			continue
		}
		if value == "" {
			// ignore headers with empty values
			continue
		}
		switch ok := h.set(name, value); {
		case !ok:
			log.Warn("invalid header value", "line", line)
		case strings.EqualFold(name, "TITLE"):
			haveTitle = true
		case strings.EqualFold(name, "ARTIST"):
			haveArtist = true
		case strings.EqualFold(name, "BPM"):
			haveBPM = true
		}
	}
	if !haveTitle || !haveArtist {
		return h, ErrMissingRequiredHeaders
	}
	if !haveBPM {
		log.Warn("missing bpm")
	}
	return h, nil
}

// set assigns a header value to its typed field, or records it as unknown.
// Returns false if the value fails to convert.
func (h *Headers) set(name, value string) bool {
	name = strings.ToLower(name)
	if name == "author" {
		name = "creator"
	}
	switch name {
	case "title":
		h.Title = value
	case "artist":
		h.Artist = value
	case "language":
		h.Language = value
	case "edition":
		h.Edition = value
	case "genre":
		h.Genre = value
	case "album":
		h.Album = value
	case "year":
		h.Year = value
	case "creator":
		h.Creator = value
	case "mp3":
		h.MP3 = value
	case "cover":
		h.Cover = value
	case "background":
		h.Background = value
	case "video":
		h.Video = value
	case "relative":
		h.Relative = value
	case "p1":
		h.P1 = value
	case "p2":
		h.P2 = value
	case "encoding":
		h.Encoding = value
	case "comment":
		h.Comment = value
	case "resolution":
		h.Resolution = value
	case "bpm", "gap", "videogap", "start", "end", "previewstart":
		f, err := parseDecimal(value)
		if err != nil {
			return false
		}
		switch name {
		case "bpm":
			h.BPM = f
		case "gap":
			h.Gap = f
		case "videogap":
			h.VideoGap = &f
		case "start":
			h.Start = &f
		case "end":
			h.End = &f
		case "previewstart":
			h.PreviewStart = &f
		}
	case "medleystartbeat", "medleyendbeat":
		i, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		if name == "medleystartbeat" {
			h.MedleyStartBeat = &i
		} else {
			h.MedleyEndBeat = &i
		}
	default:
		h.Unknown = append(h.Unknown, UnknownHeader{Name: name, Value: value})
	}
	return true
}

// parseDecimal parses a decimal number accepting both '.' and ',' as
// decimal separator.
func parseDecimal(value string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
}

// String serializes the headers in canonical order. Only recognized fields
// with a present value are emitted; unknown headers follow in their original
// insertion order. The encoding header is never rewritten.
func (h *Headers) String() string {
	var b strings.Builder
	emit := func(name, value string) {
		if value == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "#%s:%s", name, value)
	}
	emit("ARTIST", h.Artist)
	emit("TITLE", h.Title)
	emit("LANGUAGE", h.Language)
	emit("EDITION", h.Edition)
	emit("YEAR", h.Year)
	emit("GENRE", h.Genre)
	emit("ALBUM", h.Album)
	emit("CREATOR", h.Creator)
	emit("BPM", formatDecimal(h.BPM))
	emit("GAP", formatDecimal(h.Gap))
	emit("VIDEOGAP", formatOptDecimal(h.VideoGap))
	emit("START", formatOptDecimal(h.Start))
	emit("END", formatOptDecimal(h.End))
	emit("PREVIEWSTART", formatOptDecimal(h.PreviewStart))
	emit("MEDLEYSTARTBEAT", formatOptInt(h.MedleyStartBeat))
	emit("MEDLEYENDBEAT", formatOptInt(h.MedleyEndBeat))
	emit("MP3", h.MP3)
	emit("VIDEO", h.Video)
	emit("COVER", h.Cover)
	emit("BACKGROUND", h.Background)
	emit("P1", h.P1)
	emit("P2", h.P2)
	emit("RELATIVE", h.Relative)
	emit("RESOLUTION", h.Resolution)
	emit("COMMENT", h.Comment)
	for _, u := range h.Unknown {
		emit(strings.ToUpper(u.Name), u.Value)
	}
	return b.String()
}

func formatDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatOptDecimal(f *float64) string {
	if f == nil {
		return ""
	}
	return formatDecimal(*f)
}

func formatOptInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

// ArtistTitleStr is the canonical display name used for folder and file
// names.
func (h *Headers) ArtistTitleStr() string {
	return fmt.Sprintf("%s - %s", h.Artist, h.Title)
}

// ResetFileLocationHeaders clears the resource filename headers. They are
// re-populated by the sync pipeline as resource stages succeed.
func (h *Headers) ResetFileLocationHeaders() {
	h.MP3 = ""
	h.Video = ""
	h.Cover = ""
	h.Background = ""
}
