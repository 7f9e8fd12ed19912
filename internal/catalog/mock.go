package catalog

import (
	"context"

	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
)

// MockClient serves catalog data from memory, for tests and offline runs.
type MockClient struct {
	Songs map[domain.SongId]*SongDetails
	Txts  map[domain.SongId]string
}

func NewMockClient() *MockClient {
	return &MockClient{
		Songs: map[domain.SongId]*SongDetails{},
		Txts:  map[domain.SongId]string{},
	}
}

// AddSong registers a song with its txt content.
func (c *MockClient) AddSong(details *SongDetails, txt string) {
	c.Songs[details.Song.SongID] = details
	c.Txts[details.Song.SongID] = txt
}

func (c *MockClient) ListSongs(ctx context.Context) ([]domain.UsdbSong, error) {
	songs := make([]domain.UsdbSong, 0, len(c.Songs))
	for _, details := range c.Songs {
		songs = append(songs, details.Song)
	}
	return songs, nil
}

func (c *MockClient) GetSongDetails(ctx context.Context, id domain.SongId) (*SongDetails, error) {
	details, ok := c.Songs[id]
	if !ok {
		return nil, ErrSongNotFound
	}
	return details, nil
}

func (c *MockClient) GetSongTxt(ctx context.Context, id domain.SongId) (string, error) {
	txt, ok := c.Txts[id]
	if !ok {
		return "", ErrSongNotFound
	}
	return txt, nil
}
