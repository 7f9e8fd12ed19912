package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
	"github.com/DeinAlptraum/usdb-syncer/internal/httpclient"
)

func TestHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("link") {
		case "list":
			json.NewEncoder(w).Encode(map[string]any{
				"songs": []domain.UsdbSong{{SongID: 1, Artist: "Foo", Title: "Bar"}},
			})
		case "detail":
			if r.URL.Query().Get("id") != "1" {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(SongDetails{
				Song:  domain.UsdbSong{SongID: 1, Artist: "Foo", Title: "Bar"},
				Genre: "Pop",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, httpclient.NewClient(srv.Client(), 0))

	songs, err := c.ListSongs(context.Background())
	if err != nil {
		t.Fatalf("ListSongs failed: %v", err)
	}
	if len(songs) != 1 || songs[0].Artist != "Foo" {
		t.Errorf("Unexpected songs: %+v", songs)
	}

	details, err := c.GetSongDetails(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetSongDetails failed: %v", err)
	}
	if details.Genre != "Pop" {
		t.Errorf("Unexpected details: %+v", details)
	}

	_, err = c.GetSongDetails(context.Background(), 2)
	if !errors.Is(err, ErrSongNotFound) {
		t.Errorf("Expected ErrSongNotFound, got %v", err)
	}
}
