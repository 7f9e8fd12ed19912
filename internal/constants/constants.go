// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort           = "8080"
	DefaultConcurrency    = 2
	DefaultHTTPTimeout    = 5 * time.Minute
	DefaultRetryCount     = 3
	DefaultRetryBase      = 1 * time.Second
	DefaultRequestSpacing = 500 * time.Millisecond
	DefaultEncoding       = EncodingUTF8
	DefaultLineEndings    = LineEndingsLF
)

// USDB remote catalog
const (
	DefaultCatalogURL = "https://usdb.animux.de"
)

// Text encodings for written song txt files
const (
	EncodingUTF8    = "utf-8"
	EncodingUTF8BOM = "utf-8-bom"
)

// Line endings for written song txt files
const (
	LineEndingsLF   = "lf"
	LineEndingsCRLF = "crlf"
)

// Background download policies
const (
	BackgroundAlways  = "always"
	BackgroundNoVideo = "no-video"
)

// Song folder contents
const (
	TxtExt           = ".txt"
	SnapshotExt      = ".usdb"
	CoverSuffix      = " [CO]"
	BackgroundSuffix = " [BG]"
	ImageExt         = "jpg"
)

// Directory allocation
const (
	DirCacheLifetime = time.Hour
)

// Resource resolution
const (
	MaxResourceCandidates = 10
)

// Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)
