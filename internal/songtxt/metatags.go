package songtxt

import "strings"

// MetaTags are the machine-readable resource references the catalog embeds
// in the VIDEO header, e.g. "a=wxyz,co=img.example.org/cover.jpg,p1=Elvis".
// They point at the remote resources a song folder is built from.
type MetaTags struct {
	Audio      string
	Video      string
	Cover      string
	Background string
	Player1    string
	Player2    string
	Duet       bool
}

// ParseMetaTags parses a resource tag string. Unknown keys and malformed
// pairs are ignored; a plain video filename yields empty tags.
func ParseMetaTags(value string) MetaTags {
	var tags MetaTags
	for _, pair := range strings.Split(value, ",") {
		key, val, found := strings.Cut(pair, "=")
		if !found {
			if strings.EqualFold(strings.TrimSpace(pair), "duet") {
				tags.Duet = true
			}
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "a":
			tags.Audio = val
		case "v":
			tags.Video = val
		case "co":
			tags.Cover = val
		case "bg":
			tags.Background = val
		case "p1":
			tags.Player1 = val
		case "p2":
			tags.Player2 = val
		}
	}
	return tags
}

// String serializes the tags back into the embedded format.
func (t MetaTags) String() string {
	var parts []string
	add := func(key, val string) {
		if val != "" {
			parts = append(parts, key+"="+val)
		}
	}
	add("v", t.Video)
	add("a", t.Audio)
	add("co", t.Cover)
	add("bg", t.Background)
	add("p1", t.Player1)
	add("p2", t.Player2)
	if t.Duet {
		parts = append(parts, "duet")
	}
	return strings.Join(parts, ",")
}

// IsAudioOnly reports whether the song has an audio resource but no video.
func (t MetaTags) IsAudioOnly() bool {
	return t.Audio != "" && t.Video == ""
}

// HasDuetTags reports whether the tags mark the song as a duet.
func (t MetaTags) HasDuetTags() bool {
	return t.Duet || t.Player1 != "" || t.Player2 != ""
}
