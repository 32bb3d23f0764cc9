// Package library holds the entry lifecycle use case: adding a game to a
// user's library and moving entries through engagement statuses.
package library

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"playlater/internal/apperr"
	"playlater/internal/entity"
)

type Service struct {
	users    UserRepository
	entries  Repository
	resolver GameResolver
}

func NewService(users UserRepository, entries Repository, resolver GameResolver) *Service {
	return &Service{users: users, entries: entries, resolver: resolver}
}

type AddEntryInput struct {
	UserID          string
	IGDBID          int64
	Status          entity.LibraryStatus
	Platform        *string
	AcquisitionType string
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

type AddEntryResult struct {
	Item entity.LibraryItem
	// GameSlug lets callers invalidate caches at per-game granularity.
	GameSlug string
}

// AddEntry adds a game to the user's library, resolving the catalog record on
// first reference. Re-submitting an identical (status, platform) pair for the
// same game is rejected as a duplicate, never silently accepted.
func (s *Service) AddEntry(ctx context.Context, in AddEntryInput) (AddEntryResult, error) {
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Printf("library: add rejected, account not found user_id=%s", in.UserID)
			return AddEntryResult{}, fmt.Errorf("account: %w", apperr.ErrNotFound)
		}
		return AddEntryResult{}, fmt.Errorf("verify user %s: %w", in.UserID, err)
	}

	game, err := s.resolver.Resolve(ctx, in.IGDBID)
	if err != nil {
		log.Printf("library: resolve failed user_id=%s igdb_id=%d err=%v", in.UserID, in.IGDBID, err)
		return AddEntryResult{}, err
	}

	platform := normalizePlatform(in.Platform)

	existing, err := s.entries.ListByGame(ctx, in.UserID, game.ID)
	if err != nil {
		return AddEntryResult{}, fmt.Errorf("list entries user_id=%s game_id=%s: %w", in.UserID, game.ID, err)
	}
	for _, item := range existing {
		if item.Status == in.Status && samePlatform(item.Platform, platform) {
			log.Printf("library: duplicate add user_id=%s game_id=%s status=%s", in.UserID, game.ID, in.Status)
			return AddEntryResult{}, apperr.Validationf("This game is already in your library")
		}
	}

	if !entity.CanTransition(nil, in.Status) {
		return AddEntryResult{}, apperr.Validationf("Cannot move a game back to Wishlist")
	}

	acquisition := in.AcquisitionType
	if acquisition == "" {
		acquisition = entity.AcquisitionDigital
	}

	item := entity.LibraryItem{
		UserID:          in.UserID,
		GameID:          game.ID,
		Status:          in.Status,
		Platform:        platform,
		AcquisitionType: acquisition,
		StartedAt:       in.StartedAt,
		CompletedAt:     in.CompletedAt,
	}
	if err := s.entries.Create(ctx, &item); err != nil {
		return AddEntryResult{}, fmt.Errorf("create entry user_id=%s game_id=%s: %w", in.UserID, game.ID, err)
	}

	log.Printf("library: entry created user_id=%s game_id=%s item_id=%d status=%s", in.UserID, game.ID, item.ID, item.Status)
	return AddEntryResult{Item: item, GameSlug: game.Slug}, nil
}

type UpdateStatusInput struct {
	Status      entity.LibraryStatus
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// UpdateStatus moves an existing entry to a new status. A cross-user attempt
// fails as not found, not forbidden, so the response never confirms the row's
// existence to a non-owner.
func (s *Service) UpdateStatus(ctx context.Context, userID string, itemID int64, in UpdateStatusInput) (entity.LibraryItem, error) {
	item, err := s.entries.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return entity.LibraryItem{}, err
		}
		return entity.LibraryItem{}, fmt.Errorf("load entry %d: %w", itemID, err)
	}
	if item.UserID != userID {
		log.Printf("library: cross-user update attempt user_id=%s item_id=%d", userID, itemID)
		return entity.LibraryItem{}, fmt.Errorf("entry %d: %w", itemID, apperr.ErrNotFound)
	}

	if !entity.CanTransition(&item.Status, in.Status) {
		log.Printf("library: transition denied user_id=%s item_id=%d from=%s to=%s", userID, itemID, item.Status, in.Status)
		return entity.LibraryItem{}, apperr.Validationf("Cannot move a game back to Wishlist")
	}

	item.Status = in.Status
	if in.StartedAt != nil {
		item.StartedAt = in.StartedAt
	}
	if in.CompletedAt != nil {
		item.CompletedAt = in.CompletedAt
	}

	// Single-row write; status and dates land together or not at all.
	if err := s.entries.Update(ctx, &item); err != nil {
		return entity.LibraryItem{}, fmt.Errorf("update entry %d: %w", itemID, err)
	}
	return item, nil
}

// UpdateStatusByIGDB is the status-only convenience path keyed by catalog id.
// When the user holds no entry for the game the request becomes an add; when
// several platform entries exist only the most recently modified one moves.
func (s *Service) UpdateStatusByIGDB(ctx context.Context, userID string, igdbID int64, status entity.LibraryStatus) (entity.LibraryItem, error) {
	game, err := s.resolver.Resolve(ctx, igdbID)
	if err != nil {
		return entity.LibraryItem{}, err
	}

	current, err := s.entries.GetMostRecentByGame(ctx, userID, game.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Printf("library: no entry for igdb_id=%d user_id=%s, adding", igdbID, userID)
			result, addErr := s.AddEntry(ctx, AddEntryInput{
				UserID: userID,
				IGDBID: igdbID,
				Status: status,
			})
			if addErr != nil {
				return entity.LibraryItem{}, addErr
			}
			return result.Item, nil
		}
		return entity.LibraryItem{}, fmt.Errorf("find most recent entry user_id=%s game_id=%s: %w", userID, game.ID, err)
	}

	return s.UpdateStatus(ctx, userID, current.ID, UpdateStatusInput{Status: status})
}

// ListEntries returns a page of the user's library with optional status and
// platform filters, plus the unfiltered-match total.
func (s *Service) ListEntries(ctx context.Context, p ListParams) ([]entity.LibraryItem, int, error) {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	p.Platform = normalizePlatform(p.Platform)
	return s.entries.List(ctx, p)
}

func (s *Service) CountEntries(ctx context.Context, userID string, status *entity.LibraryStatus) (int, error) {
	return s.entries.Count(ctx, userID, status)
}

// DeleteEntry removes an entry the user owns; a non-owned id reads as not
// found, the same as a missing one.
func (s *Service) DeleteEntry(ctx context.Context, userID string, itemID int64) error {
	if err := s.entries.Delete(ctx, itemID, userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete entry %d: %w", itemID, err)
	}
	log.Printf("library: entry deleted user_id=%s item_id=%d", userID, itemID)
	return nil
}

// normalizePlatform collapses the absent representations (nil, empty,
// whitespace) to nil before storage and comparison.
func normalizePlatform(p *string) *string {
	if p == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*p)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func samePlatform(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
