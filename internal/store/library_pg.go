package store

import (
	"context"
	"errors"

	"playlater/internal/apperr"
	"playlater/internal/entity"
	"playlater/internal/library"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const libraryItemColumns = `id, user_id, game_id, status, platform, acquisition_type, started_at, completed_at, created_at, updated_at`

type LibraryPG struct {
	db *pgxpool.Pool
}

func NewLibraryPG(db *pgxpool.Pool) *LibraryPG {
	return &LibraryPG{db: db}
}

func scanLibraryItem(row pgx.Row) (entity.LibraryItem, error) {
	var item entity.LibraryItem
	err := row.Scan(
		&item.ID, &item.UserID, &item.GameID, &item.Status, &item.Platform,
		&item.AcquisitionType, &item.StartedAt, &item.CompletedAt,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.LibraryItem{}, apperr.ErrNotFound
		}
		return entity.LibraryItem{}, err
	}
	return item, nil
}

func (r *LibraryPG) Create(ctx context.Context, item *entity.LibraryItem) error {
	const query = `
	INSERT INTO library_items (user_id, game_id, status, platform, acquisition_type, started_at, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		item.UserID, item.GameID, item.Status, item.Platform,
		item.AcquisitionType, item.StartedAt, item.CompletedAt,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *LibraryPG) GetByID(ctx context.Context, id int64) (entity.LibraryItem, error) {
	const query = `SELECT ` + libraryItemColumns + ` FROM library_items WHERE id = $1 LIMIT 1`
	return scanLibraryItem(r.db.QueryRow(ctx, query, id))
}

func (r *LibraryPG) ListByGame(ctx context.Context, userID, gameID string) ([]entity.LibraryItem, error) {
	const query = `
	SELECT ` + libraryItemColumns + `
	FROM library_items
	WHERE user_id = $1 AND game_id = $2
	ORDER BY updated_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, userID, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.LibraryItem
	for rows.Next() {
		item, err := scanLibraryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetMostRecentByGame implements the mostRecentlyModified selection policy;
// the id sort breaks timestamp ties toward the newest row.
func (r *LibraryPG) GetMostRecentByGame(ctx context.Context, userID, gameID string) (entity.LibraryItem, error) {
	const query = `
	SELECT ` + libraryItemColumns + `
	FROM library_items
	WHERE user_id = $1 AND game_id = $2
	ORDER BY updated_at DESC, id DESC
	LIMIT 1
	`
	return scanLibraryItem(r.db.QueryRow(ctx, query, userID, gameID))
}

func (r *LibraryPG) Update(ctx context.Context, item *entity.LibraryItem) error {
	const query = `
	UPDATE library_items
	SET status = $2, platform = $3, started_at = $4, completed_at = $5, updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		item.ID, item.Status, item.Platform, item.StartedAt, item.CompletedAt,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *LibraryPG) Delete(ctx context.Context, id int64, userID string) error {
	const query = `DELETE FROM library_items WHERE id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *LibraryPG) List(ctx context.Context, p library.ListParams) ([]entity.LibraryItem, int, error) {
	const countQuery = `
	SELECT COUNT(*)
	FROM library_items
	WHERE user_id = $1
	AND ($2::text IS NULL OR status = $2)
	AND ($3::text IS NULL OR platform = $3)
	`
	var total int
	if err := r.db.QueryRow(ctx, countQuery, p.UserID, p.Status, p.Platform).Scan(&total); err != nil {
		return nil, 0, err
	}

	const dataQuery = `
	SELECT ` + libraryItemColumns + `
	FROM library_items
	WHERE user_id = $1
	AND ($2::text IS NULL OR status = $2)
	AND ($3::text IS NULL OR platform = $3)
	ORDER BY updated_at DESC, id DESC
	LIMIT $4 OFFSET $5
	`
	rows, err := r.db.Query(ctx, dataQuery, p.UserID, p.Status, p.Platform, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []entity.LibraryItem
	for rows.Next() {
		item, err := scanLibraryItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *LibraryPG) Count(ctx context.Context, userID string, status *entity.LibraryStatus) (int, error) {
	const query = `
	SELECT COUNT(*)
	FROM library_items
	WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)
	`
	var total int
	if err := r.db.QueryRow(ctx, query, userID, status).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
