package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
	"github.com/DeinAlptraum/usdb-syncer/internal/store"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.DB.SongCount()
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"songs":   count,
		"pending": h.Pool.Pending(),
	})
}

// SearchSongs translates query parameters into a song search. Repeated
// values of a parameter are alternatives; different parameters must all
// match.
func (h *Handler) SearchSongs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := &store.SearchBuilder{
		Text:      q.Get("q"),
		Artists:   q["artist"],
		Titles:    q["title"],
		Editions:  q["edition"],
		Languages: q["language"],
	}
	if v := q.Get("golden_notes"); v != "" {
		golden, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid golden_notes")
			return
		}
		search.GoldenNotes = &golden
	}
	for _, v := range q["rating"] {
		rating, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid rating")
			return
		}
		search.Ratings = append(search.Ratings, rating)
	}
	if v := q.Get("downloaded"); v != "" {
		downloaded, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid downloaded")
			return
		}
		search.Downloaded = &downloaded
	}
	if order, ok := songOrders[q.Get("order")]; ok {
		search.Order = order
	}
	search.Descending = strings.EqualFold(q.Get("direction"), "desc")

	ids, err := h.DB.SearchSongs(search)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ids == nil {
		ids = []domain.SongId{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"song_ids": ids})
}

var songOrders = map[string]store.SongOrder{
	"song_id":      store.OrderSongID,
	"artist":       store.OrderArtist,
	"title":        store.OrderTitle,
	"edition":      store.OrderEdition,
	"language":     store.OrderLanguage,
	"golden_notes": store.OrderGoldenNotes,
	"rating":       store.OrderRating,
	"views":        store.OrderViews,
	"pinned":       store.OrderPinned,
	"sync_time":    store.OrderSyncTime,
	"txt":          store.OrderTxt,
	"audio":        store.OrderAudio,
	"video":        store.OrderVideo,
	"cover":        store.OrderCover,
	"background":   store.OrderBackground,
}

// Filters returns the distinct values of the filterable song attributes
// together with their occurrence counts.
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	facets := map[string]func() ([]store.NameCount, error){
		"artists":   h.DB.ArtistCounts,
		"titles":    h.DB.TitleCounts,
		"editions":  h.DB.EditionCounts,
		"languages": h.DB.LanguageCounts,
	}
	resp := make(map[string][]store.NameCount, len(facets))
	for name, counts := range facets {
		values, err := counts()
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if values == nil {
			values = []store.NameCount{}
		}
		resp[name] = values
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetSong(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseSongId(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	song, err := h.DB.GetSong(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if song == nil {
		h.writeError(w, http.StatusNotFound, "song not found")
		return
	}
	h.writeJSON(w, http.StatusOK, song)
}

func (h *Handler) SyncSong(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseSongId(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	queued := h.Pool.Enqueue(id)
	h.writeJSON(w, http.StatusAccepted, map[string]any{"queued": queued})
}

// SyncSongs enqueues all songs matching the request body's id list.
func (h *Handler) SyncSongs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SongIDs []domain.SongId `json:"song_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	queued := 0
	for _, id := range req.SongIDs {
		if h.Pool.Enqueue(id) {
			queued++
		}
	}
	h.writeJSON(w, http.StatusAccepted, map[string]any{"queued": queued})
}

func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	count, err := h.Syncer.RefreshCatalog(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"songs": count})
}
