package fetcher

import (
	"context"

	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
	"github.com/DeinAlptraum/usdb-syncer/internal/storage"
)

// MockFetcher writes canned bytes instead of performing downloads.
// Resources listed in Errs fail with the given error.
type MockFetcher struct {
	Content map[string][]byte
	Errs    map[string]error
	Ext     map[domain.ResourceKind]string
	Fetched []string
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Content: map[string][]byte{},
		Errs:    map[string]error{},
		Ext: map[domain.ResourceKind]string{
			domain.ResourceAudio:      ".mp3",
			domain.ResourceVideo:      ".mp4",
			domain.ResourceCover:      ".jpg",
			domain.ResourceBackground: ".jpg",
		},
	}
}

func (f *MockFetcher) Fetch(ctx context.Context, resource string, kind domain.ResourceKind, destPathNoExt string) (string, error) {
	if err, ok := f.Errs[resource]; ok {
		return "", err
	}
	data, ok := f.Content[resource]
	if !ok {
		data = []byte(resource)
	}
	finalPath := destPathNoExt + f.Ext[kind]
	if err := storage.WriteFile(finalPath, data); err != nil {
		return "", err
	}
	f.Fetched = append(f.Fetched, resource)
	return finalPath, nil
}
