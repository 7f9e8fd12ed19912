// Package songtxt parses and serializes the UltraStar song txt format.
//
// A chart consists of a header section (#NAME:value lines), followed by note
// lines, line-break records and player markers, terminated by "E". The
// serializer reproduces a parsed chart up to whitespace normalization and
// canonical header ordering; unknown headers survive unchanged.
package songtxt

import (
	"strings"

	"github.com/DeinAlptraum/usdb-syncer/internal/constants"
	"github.com/DeinAlptraum/usdb-syncer/internal/logger"
)

// lineStream is a forward reader over the non-empty lines of a chart, with a
// one-record pushback for dangling line-break suffixes.
type lineStream struct {
	lines []string
}

func newLineStream(value string) *lineStream {
	raw := strings.Split(value, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return &lineStream{lines: lines}
}

func (s *lineStream) peek() (string, bool) {
	if len(s.lines) == 0 {
		return "", false
	}
	return s.lines[0], true
}

func (s *lineStream) next() (string, bool) {
	line, ok := s.peek()
	if ok {
		s.lines = s.lines[1:]
	}
	return line, ok
}

func (s *lineStream) pushFront(line string) {
	s.lines = append([]string{line}, s.lines...)
}

func (s *lineStream) empty() bool {
	return len(s.lines) == 0
}

func (s *lineStream) remaining() []string {
	return s.lines
}

// parseLine consumes notes until a line or document terminator is yielded.
func parseLine(s *lineStream, log *logger.Logger) Line {
	var notes []Note
	var brk *LineBreak
	terminated := false
	for {
		raw, ok := s.next()
		if !ok {
			break
		}
		txt := strings.TrimLeft(raw, " \t")
		if t := strings.TrimRight(txt, " \t"); t == "E" || t == "P2" {
			terminated = true
			break
		}
		if strings.HasPrefix(txt, "-") {
			parsed, rest, err := parseLineBreak(txt)
			if err != nil {
				log.Warn(err.Error())
				continue
			}
			if rest != "" {
				s.pushFront(rest)
			}
			brk = parsed
			terminated = true
			break
		}
		note, err := ParseNote(txt)
		if err != nil {
			log.Warn(err.Error())
			continue
		}
		notes = append(notes, note)
	}
	if !terminated {
		log.Warn("unterminated line")
	}
	return Line{Notes: notes, Break: brk}
}

// playerLines consumes one player's block of lines.
func playerLines(s *lineStream, log *logger.Logger) []Line {
	var lines []Line
	if raw, ok := s.peek(); ok && strings.HasPrefix(raw, "P") {
		s.next()
	}
	for !s.empty() {
		line := parseLine(s, log)
		if len(line.Notes) > 0 {
			lines = append(lines, line)
		}
		if line.IsLast() {
			// end of file or player block
			break
		}
	}
	if len(lines) > 0 {
		// ensure there is no trailing line break, e.g. because the last note
		// was invalid
		lines[len(lines)-1].Break = nil
	}
	return lines
}

// PlayerNotes holds all lines for player 1, and player 2 for duets.
type PlayerNotes struct {
	Player1 []Line
	Player2 []Line
}

func parsePlayerNotes(s *lineStream, log *logger.Logger) PlayerNotes {
	return PlayerNotes{
		Player1: playerLines(s, log),
		Player2: playerLines(s, log),
	}
}

// IsDuet reports whether notes exist for a second player.
func (n *PlayerNotes) IsDuet() bool {
	return len(n.Player2) > 0
}

func (n *PlayerNotes) String() string {
	parts := make([]string, 0, len(n.Player1))
	for _, line := range n.Player1 {
		parts = append(parts, line.String())
	}
	body := strings.Join(parts, "\n")
	if n.IsDuet() {
		parts = parts[:0]
		for _, line := range n.Player2 {
			parts = append(parts, line.String())
		}
		body = "P1\n" + body + "\nP2\n" + strings.Join(parts, "\n")
	}
	return body + "\nE"
}

// SongTxt is a fully parsed chart.
type SongTxt struct {
	Headers  Headers
	Notes    PlayerNotes
	MetaTags MetaTags
}

// Parse parses a chart. Missing artist or title is fatal; any other problem
// is logged as a warning and parsing continues with best effort.
func Parse(value string, log *logger.Logger) (*SongTxt, error) {
	s := newLineStream(value)
	headers, err := parseHeaders(s, log)
	if err != nil {
		return nil, err
	}
	tags := ParseMetaTags(headers.Video)
	notes := parsePlayerNotes(s, log)
	if !s.empty() {
		log.Warn("trailing text in song txt", "lines", strings.Join(s.remaining(), "\\n"))
	}
	return &SongTxt{Headers: headers, Notes: notes, MetaTags: tags}, nil
}

func (t *SongTxt) String() string {
	return t.Headers.String() + "\n" + t.Notes.String()
}

// IsDuet reports whether the chart should be treated as a two-player song,
// based on parsed player blocks, embedded resource tags, and header text.
func (t *SongTxt) IsDuet() bool {
	if t.Notes.IsDuet() || t.MetaTags.HasDuetTags() {
		return true
	}
	lowered := strings.ToLower(t.Headers.Title + " " + t.Headers.Edition)
	return strings.Contains(lowered, "duet")
}

// Bytes renders the chart with the given encoding and line endings.
func (t *SongTxt) Bytes(encoding, lineEndings string) []byte {
	text := t.String() + "\n"
	if lineEndings == constants.LineEndingsCRLF {
		text = strings.ReplaceAll(text, "\n", "\r\n")
	}
	if encoding == constants.EncodingUTF8BOM {
		return append([]byte{0xEF, 0xBB, 0xBF}, text...)
	}
	return []byte(text)
}

// UnsynchronizedLyrics returns the plain lyrics text, one lyric line per
// parsed Line, used for audio tagging.
func (t *SongTxt) UnsynchronizedLyrics() string {
	var lines []string
	for _, player := range [][]Line{t.Notes.Player1, t.Notes.Player2} {
		for _, line := range player {
			var b strings.Builder
			for _, note := range line.Notes {
				b.WriteString(note.Text)
			}
			if text := strings.TrimSpace(b.String()); text != "" {
				lines = append(lines, text)
			}
		}
	}
	return strings.Join(lines, "\n")
}
