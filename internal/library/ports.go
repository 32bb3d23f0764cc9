package library

import (
	"context"

	"playlater/internal/entity"
)

type ListParams struct {
	UserID   string
	Status   *entity.LibraryStatus
	Platform *string
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, item *entity.LibraryItem) error
	GetByID(ctx context.Context, id int64) (entity.LibraryItem, error)

	// ListByGame returns every item the user holds for one game, across
	// platforms.
	ListByGame(ctx context.Context, userID, gameID string) ([]entity.LibraryItem, error)

	// GetMostRecentByGame selects the user's single most-recently-modified
	// item for a game (mostRecentlyModified policy). Ties within one
	// timestamp resolution break toward the highest id.
	GetMostRecentByGame(ctx context.Context, userID, gameID string) (entity.LibraryItem, error)

	Update(ctx context.Context, item *entity.LibraryItem) error
	Delete(ctx context.Context, id int64, userID string) error
	List(ctx context.Context, p ListParams) ([]entity.LibraryItem, int, error)
	Count(ctx context.Context, userID string, status *entity.LibraryStatus) (int, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (entity.User, error)
}

type GameResolver interface {
	Resolve(ctx context.Context, igdbID int64) (entity.Game, error)
}
