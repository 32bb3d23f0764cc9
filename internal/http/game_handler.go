package http

import (
	"context"
	"net/http"
	"strings"

	"playlater/internal/entity"
	"playlater/internal/httpx"
	"playlater/internal/igdb"
)

type GameSearcher interface {
	Search(ctx context.Context, term string, limit int) ([]igdb.Game, error)
}

type GameFinder interface {
	GetBySlug(ctx context.Context, slug string) (entity.Game, error)
}

type GameHandler struct {
	searcher GameSearcher
	finder   GameFinder
}

func NewGameHandler(searcher GameSearcher, finder GameFinder) *GameHandler {
	return &GameHandler{searcher: searcher, finder: finder}
}

const searchResultsLimit = 20

type gameSearchResult struct {
	IGDBID       int64  `json:"igdb_id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	CoverImageID string `json:"cover_image_id,omitempty"`
	ReleaseDate  int64  `json:"release_date,omitempty"`
}

// @Summary Search the game catalog
// @Description Full-text search against IGDB
// @Tags games
// @Produce json
// @Param q query string true "Search term"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /games/search [get]
func (h *GameHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		httpx.JSONError(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Search term is required", nil)
		return
	}

	games, err := h.searcher.Search(r.Context(), term, searchResultsLimit)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	results := make([]gameSearchResult, 0, len(games))
	for _, g := range games {
		results = append(results, gameSearchResult{
			IGDBID:       g.ID,
			Name:         g.Name,
			Slug:         g.Slug,
			CoverImageID: g.Cover.ImageID,
			ReleaseDate:  g.FirstReleaseDate,
		})
	}

	httpx.JSONSuccess(r, w, results, map[string]interface{}{"count": len(results)})
}

// @Summary Get a cached game by slug
// @Description Slug-keyed lookup against the local catalog; never touches IGDB
// @Tags games
// @Produce json
// @Param slug path string true "Game slug"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /games/{slug} [get]
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug, ok := parseGameSlug(r.URL.Path)
	if !ok {
		httpx.JSONError(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid game slug", nil)
		return
	}

	game, err := h.finder.GetBySlug(r.Context(), slug)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	httpx.JSONSuccess(r, w, game, nil)
}

func parseGameSlug(path string) (string, bool) {
	slug := strings.TrimPrefix(strings.Trim(path, "/"), "games/")
	if slug == "" || slug == "games" || strings.Contains(slug, "/") {
		return "", false
	}
	return slug, true
}
