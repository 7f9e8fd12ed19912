package songtxt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NoteKind is the type of a timed note, identified by its one-character
// marker in the txt format.
type NoteKind string

const (
	NoteRegular   NoteKind = ":"
	NoteGolden    NoteKind = "*"
	NoteFreestyle NoteKind = "F"
	NoteRap       NoteKind = "R"
	NoteGoldenRap NoteKind = "G"
)

var noteKinds = map[string]NoteKind{
	":": NoteRegular,
	"*": NoteGolden,
	"F": NoteFreestyle,
	"R": NoteRap,
	"G": NoteGoldenRap,
}

var noteRegex = regexp.MustCompile(`^(:|\*|F|R|G):? +(-?\d+) +(\d+) +(-?\d+) (.+)$`)

// Note is one timed event: kind, start beat, duration in beats, pitch and
// the displayed text.
type Note struct {
	Kind     NoteKind
	Start    int
	Duration int
	Pitch    int
	Text     string
}

// ParseNote parses a single note line.
func ParseNote(value string) (Note, error) {
	match := noteRegex.FindStringSubmatch(value)
	if match == nil {
		return Note{}, fmt.Errorf("invalid note: '%s'", value)
	}
	kind, ok := noteKinds[match[1]]
	if !ok {
		return Note{}, fmt.Errorf("invalid note: '%s'", value)
	}
	start, err := strconv.Atoi(match[2])
	if err != nil {
		return Note{}, fmt.Errorf("invalid note: '%s'", value)
	}
	duration, err := strconv.Atoi(match[3])
	if err != nil {
		return Note{}, fmt.Errorf("invalid note: '%s'", value)
	}
	pitch, err := strconv.Atoi(match[4])
	if err != nil {
		return Note{}, fmt.Errorf("invalid note: '%s'", value)
	}
	return Note{Kind: kind, Start: start, Duration: duration, Pitch: pitch, Text: match[5]}, nil
}

func (n Note) String() string {
	return fmt.Sprintf("%s %d %d %d %s", string(n.Kind), n.Start, n.Duration, n.Pitch, n.Text)
}

// LineBreak separates two lines of lyrics. End is the beat the current line
// ends on; NextStart optionally carries the beat the next line starts on.
type LineBreak struct {
	End       int
	NextStart int
	HasNext   bool
}

func (b *LineBreak) String() string {
	if b.HasNext {
		return fmt.Sprintf("- %d %d", b.End, b.NextStart)
	}
	return fmt.Sprintf("- %d", b.End)
}

// Line is an ordered sequence of notes with a trailing line break. A nil
// Break marks the last line of a player.
type Line struct {
	Notes []Note
	Break *LineBreak
}

// IsLast reports whether this is the final line for a player.
func (l Line) IsLast() bool {
	return l.Break == nil
}

func (l Line) String() string {
	parts := make([]string, 0, len(l.Notes)+1)
	for _, note := range l.Notes {
		parts = append(parts, note.String())
	}
	if l.Break != nil {
		parts = append(parts, l.Break.String())
	}
	return strings.Join(parts, "\n")
}

// Line breaks may carry one or two beat values. Some are not terminated by a
// newline; the dangling rest is returned and treated as the next record.
var lineBreakRegex = regexp.MustCompile(`^- *(-?\d+) *(-?\d+)? *(.+)?$`)

func parseLineBreak(value string) (*LineBreak, string, error) {
	match := lineBreakRegex.FindStringSubmatch(value)
	if match == nil {
		return nil, "", fmt.Errorf("invalid line break: '%s'", value)
	}
	end, err := strconv.Atoi(match[1])
	if err != nil {
		return nil, "", fmt.Errorf("invalid line break: '%s'", value)
	}
	brk := &LineBreak{End: end}
	if match[2] != "" {
		next, err := strconv.Atoi(match[2])
		if err != nil {
			return nil, "", fmt.Errorf("invalid line break: '%s'", value)
		}
		brk.NextStart = next
		brk.HasNext = true
	}
	return brk, match[3], nil
}
