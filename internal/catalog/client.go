// Package catalog talks to the remote song catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
	"github.com/DeinAlptraum/usdb-syncer/internal/httpclient"
)

// ErrSongNotFound is returned when the catalog no longer lists the song.
var ErrSongNotFound = errors.New("song not found on catalog")

// SongDetails is the per-song page data, a superset of the cached listing
// row.
type SongDetails struct {
	Song     domain.UsdbSong `json:"song"`
	Year     string          `json:"year"`
	Genre    string          `json:"genre"`
	Creator  string          `json:"creator"`
	CoverURL string          `json:"cover_url"`
}

// Client fetches catalog data.
type Client interface {
	// ListSongs returns the full catalog listing.
	ListSongs(ctx context.Context) ([]domain.UsdbSong, error)
	// GetSongDetails returns the song page data, or ErrSongNotFound.
	GetSongDetails(ctx context.Context, id domain.SongId) (*SongDetails, error)
	// GetSongTxt returns the raw song txt, or ErrSongNotFound.
	GetSongTxt(ctx context.Context, id domain.SongId) (string, error)
}

// HTTPClient is the Client backed by the remote catalog's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *httpclient.Client
}

// NewHTTPClient creates a catalog client for the given base URL.
func NewHTTPClient(baseURL string, client *httpclient.Client) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, client: client}
}

func (c *HTTPClient) ListSongs(ctx context.Context) ([]domain.UsdbSong, error) {
	var resp struct {
		Songs []domain.UsdbSong `json:"songs"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/?link=list", &resp); err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	return resp.Songs, nil
}

func (c *HTTPClient) GetSongDetails(ctx context.Context, id domain.SongId) (*SongDetails, error) {
	var details SongDetails
	url := fmt.Sprintf("%s/?link=detail&id=%d", c.baseURL, int(id))
	if err := c.getJSON(ctx, url, &details); err != nil {
		return nil, fmt.Errorf("fetching details for song %s: %w", id, err)
	}
	return &details, nil
}

func (c *HTTPClient) GetSongTxt(ctx context.Context, id domain.SongId) (string, error) {
	url := fmt.Sprintf("%s/?link=gettxt&id=%d", c.baseURL, int(id))
	resp, err := c.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetching txt for song %s: %w", id, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading txt for song %s: %w", id, err)
	}
	return string(body), nil
}

func (c *HTTPClient) getJSON(ctx context.Context, url string, target any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

func (c *HTTPClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		_ = resp.Body.Close()
		return nil, ErrSongNotFound
	}
	if resp.StatusCode != http.StatusOK {
		status := resp.Status
		_ = resp.Body.Close()
		return nil, fmt.Errorf("catalog request failed: %s", status)
	}
	return resp, nil
}
