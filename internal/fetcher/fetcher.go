// Package fetcher downloads song resources to disk.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/DeinAlptraum/usdb-syncer/internal/constants"
	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
	"github.com/DeinAlptraum/usdb-syncer/internal/httpclient"
	"github.com/DeinAlptraum/usdb-syncer/internal/storage"
)

// Fetcher retrieves a remote resource and stores it under destPathNoExt
// plus an extension derived from the response. It returns the final path.
type Fetcher interface {
	Fetch(ctx context.Context, resource string, kind domain.ResourceKind, destPathNoExt string) (string, error)
}

type fetcher struct {
	client *httpclient.Client
}

func NewFetcher(client *httpclient.Client) Fetcher {
	return &fetcher{client: client}
}

func (f *fetcher) Fetch(ctx context.Context, resource string, kind domain.ResourceKind, destPathNoExt string) (string, error) {
	for attempt := 0; attempt < constants.DefaultRetryCount; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		finalPath, err := f.fetchOnce(ctx, resource, kind, destPathNoExt)
		if err == nil {
			return finalPath, nil
		}

		time.Sleep(time.Duration(attempt+1) * constants.DefaultRetryBase)
	}
	return "", fmt.Errorf("fetching %s failed after %d attempts", kind, constants.DefaultRetryCount)
}

func (f *fetcher) fetchOnce(ctx context.Context, resource string, kind domain.ResourceKind, destPathNoExt string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resource, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch failed: %s", resp.Status)
	}

	finalPath := destPathNoExt + extension(resp, resource, kind)
	file, err := storage.CreateFile(finalPath)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(file, resp.Body)
	file.Close()
	if err != nil {
		storage.RemoveFile(finalPath)
		return "", err
	}
	return finalPath, nil
}

// extension derives the file extension from the response content type,
// falling back to the URL path.
func extension(resp *http.Response, resource string, kind domain.ResourceKind) string {
	if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		switch mediaType {
		case "audio/mpeg":
			return ".mp3"
		case "audio/ogg", "application/ogg":
			return ".ogg"
		case "audio/mp4":
			return ".m4a"
		case "video/mp4":
			return ".mp4"
		case "video/webm":
			return ".webm"
		case "image/jpeg":
			return ".jpg"
		case "image/png":
			return ".png"
		}
	}
	if ext := path.Ext(strings.SplitN(resource, "?", 2)[0]); ext != "" {
		return ext
	}
	switch kind {
	case domain.ResourceAudio:
		return ".mp3"
	case domain.ResourceVideo:
		return ".mp4"
	default:
		return "." + constants.ImageExt
	}
}
