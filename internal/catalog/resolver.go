// Package catalog maps external IGDB identifiers to local game rows, fetching
// and persisting metadata the first time any user references a game.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"playlater/internal/apperr"
	"playlater/internal/entity"
	"playlater/internal/igdb"
)

type GameRepository interface {
	GetByIGDBID(ctx context.Context, igdbID int64) (entity.Game, error)
	Create(ctx context.Context, g *entity.Game) error
}

type GameFetcher interface {
	GetGameByID(ctx context.Context, igdbID int64) (*igdb.Game, error)
	SearchGames(ctx context.Context, term string, limit int) ([]igdb.Game, error)
}

type Resolver struct {
	games  GameRepository
	client GameFetcher
}

func NewResolver(games GameRepository, client GameFetcher) *Resolver {
	return &Resolver{games: games, client: client}
}

// Resolve returns the local game for igdbID, creating it from IGDB on first
// reference. Hits never touch the network. On a miss, resolver errors keep
// their category: not-found must not be retried, rate-limited may be.
func (r *Resolver) Resolve(ctx context.Context, igdbID int64) (entity.Game, error) {
	game, err := r.games.GetByIGDBID(ctx, igdbID)
	if err == nil {
		return game, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return entity.Game{}, fmt.Errorf("lookup game by igdb id %d: %w", igdbID, err)
	}

	fetched, err := r.client.GetGameByID(ctx, igdbID)
	if err != nil {
		return entity.Game{}, err
	}

	game = fromIGDB(fetched)
	if err := r.games.Create(ctx, &game); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			// Lost an insert race for a never-seen game. The unique index on
			// igdb_id is the backstop; read the winner's row instead of
			// surfacing a false conflict.
			log.Printf("catalog: lost insert race for igdb_id=%d, re-reading", igdbID)
			return r.games.GetByIGDBID(ctx, igdbID)
		}
		return entity.Game{}, fmt.Errorf("create game igdb_id=%d: %w", igdbID, err)
	}
	return game, nil
}

// Search passes a catalog search straight through to IGDB.
func (r *Resolver) Search(ctx context.Context, term string, limit int) ([]igdb.Game, error) {
	return r.client.SearchGames(ctx, term, limit)
}

func fromIGDB(g *igdb.Game) entity.Game {
	game := entity.Game{
		IGDBID:       g.ID,
		Title:        g.Name,
		Slug:         g.Slug,
		CoverImageID: g.Cover.ImageID,
		Summary:      g.Summary,
	}
	if g.FirstReleaseDate > 0 {
		released := time.Unix(g.FirstReleaseDate, 0).UTC()
		game.ReleaseDate = &released
	}
	return game
}
