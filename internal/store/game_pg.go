package store

import (
	"context"
	"errors"

	"playlater/internal/apperr"
	"playlater/internal/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GamePG struct {
	db *pgxpool.Pool
}

func NewGamePG(db *pgxpool.Pool) *GamePG {
	return &GamePG{db: db}
}

func (r *GamePG) GetByIGDBID(ctx context.Context, igdbID int64) (entity.Game, error) {
	const query = `
	SELECT id, igdb_id, title, slug, cover_image_id, release_date, summary, created_at, updated_at
	FROM games WHERE igdb_id = $1 LIMIT 1
	`
	var g entity.Game
	err := r.db.QueryRow(ctx, query, igdbID).
		Scan(&g.ID, &g.IGDBID, &g.Title, &g.Slug, &g.CoverImageID, &g.ReleaseDate, &g.Summary, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Game{}, apperr.ErrNotFound
		}
		return entity.Game{}, err
	}
	return g, nil
}

func (r *GamePG) GetBySlug(ctx context.Context, slug string) (entity.Game, error) {
	const query = `
	SELECT id, igdb_id, title, slug, cover_image_id, release_date, summary, created_at, updated_at
	FROM games WHERE slug = $1 LIMIT 1
	`
	var g entity.Game
	err := r.db.QueryRow(ctx, query, slug).
		Scan(&g.ID, &g.IGDBID, &g.Title, &g.Slug, &g.CoverImageID, &g.ReleaseDate, &g.Summary, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Game{}, apperr.ErrNotFound
		}
		return entity.Game{}, err
	}
	return g, nil
}

func (r *GamePG) Create(ctx context.Context, g *entity.Game) error {
	const query = `
	INSERT INTO games (id, igdb_id, title, slug, cover_image_id, release_date, summary)
	VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
	RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, g.IGDBID, g.Title, g.Slug, g.CoverImageID, g.ReleaseDate, g.Summary).
		Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrConflict
		}
		return err
	}
	return nil
}
