// Package storage handles the on-disk layout of song folders.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/DeinAlptraum/usdb-syncer/internal/constants"
)

const forbiddenCharacters = `<>:"/\|?*`

// Sanitize strips characters that are not universally allowed in file names
// and trims trailing dots and spaces, which Windows rejects.
func Sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbiddenCharacters, r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimRight(name, ". ")
}

// EnsureDir creates the directory and any missing parents.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, constants.DirPermissions); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return nil
}

// WriteFile writes the file, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// CreateFile creates the file for writing, creating parent directories as
// needed.
func CreateFile(path string) (*os.File, error) {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// MoveFile renames the file, creating the target's parent directories.
func MoveFile(src, dst string) error {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving file: %w", err)
	}
	return nil
}

// RemoveFile deletes the file if it exists.
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing file: %w", err)
	}
	return nil
}

// FileExists reports whether the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

var resourceFileEnding = regexp.MustCompile(`^.+?((?: \[(?:CO|BG)\])?\.[^.]+)$`)

// ResourceFileEnding returns the resource-relevant ending of a file name,
// which is its extension plus a preceding cover or background marker.
func ResourceFileEnding(name string) string {
	if match := resourceFileEnding.FindStringSubmatch(name); match != nil {
		return match[1]
	}
	return ""
}

// IsNameMaybeWithSuffix reports whether text equals name, optionally
// followed by a numeric duplicate suffix like " (1)".
func IsNameMaybeWithSuffix(text, name string) bool {
	if text == name {
		return true
	}
	rest, ok := strings.CutPrefix(text, name+" (")
	if !ok {
		return false
	}
	rest, ok = strings.CutSuffix(rest, ")")
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
