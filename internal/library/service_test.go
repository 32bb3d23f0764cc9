package library_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"playlater/internal/apperr"
	"playlater/internal/entity"
	"playlater/internal/library"
	"playlater/internal/store/mocks"
)

func strPtr(s string) *string { return &s }

func newServiceWithMocks(t *testing.T) (*library.Service, *mocks.MockUserRepository, *mocks.MockRepository, *mocks.MockGameResolver) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	users := mocks.NewMockUserRepository(ctrl)
	entries := mocks.NewMockRepository(ctrl)
	resolver := mocks.NewMockGameResolver(ctrl)
	return library.NewService(users, entries, resolver), users, entries, resolver
}

var testGame = entity.Game{ID: "game-id-1", IGDBID: 1942, Title: "The Witness", Slug: "the-witness"}

func TestService_AddEntry(t *testing.T) {
	ctx := context.Background()
	userID := "user-123"

	t.Run("success - creates entry with defaults", func(t *testing.T) {
		svc, users, entries, resolver := newServiceWithMocks(t)

		users.EXPECT().GetByID(ctx, userID).Return(entity.User{ID: userID}, nil)
		resolver.EXPECT().Resolve(ctx, int64(1942)).Return(testGame, nil)
		entries.EXPECT().ListByGame(ctx, userID, testGame.ID).Return(nil, nil)
		entries.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, item *entity.LibraryItem) error {
			item.ID = 7
			return nil
		})

		result, err := svc.AddEntry(ctx, library.AddEntryInput{
			UserID: userID,
			IGDBID: 1942,
			Status: entity.StatusCuriousAbout,
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(7), result.Item.ID)
		assert.Equal(t, entity.AcquisitionDigital, result.Item.AcquisitionType)
		assert.Nil(t, result.Item.Platform)
		assert.Equal(t, "the-witness", result.GameSlug)
	})

	t.Run("error - duplicate status and platform", func(t *testing.T) {
		svc, users, entries, resolver := newServiceWithMocks(t)

		users.EXPECT().GetByID(ctx, userID).Return(entity.User{ID: userID}, nil)
		resolver.EXPECT().Resolve(ctx, int64(1942)).Return(testGame, nil)
		entries.EXPECT().ListByGame(ctx, userID, testGame.ID).Return([]entity.LibraryItem{
			{ID: 1, Status: entity.StatusCuriousAbout, Platform: strPtr("PC")},
		}, nil)

		_, err := svc.AddEntry(ctx, library.AddEntryInput{
			UserID:   userID,
			IGDBID:   1942,
			Status:   entity.StatusCuriousAbout,
			Platform: strPtr("PC"),
		})

		assert.Error(t, err)
		assert.True(t, apperr.IsValidation(err))
		assert.Contains(t, err.Error(), "already in your library")
	})

	t.Run("success - same status on another platform", func(t *testing.T) {
		svc, users, entries, resolver := newServiceWithMocks(t)

		users.EXPECT().GetByID(ctx, userID).Return(entity.User{ID: userID}, nil)
		resolver.EXPECT().Resolve(ctx, int64(1942)).Return(testGame, nil)
		entries.EXPECT().ListByGame(ctx, userID, testGame.ID).Return([]entity.LibraryItem{
			{ID: 1, Status: entity.StatusCuriousAbout, Platform: strPtr("PC")},
		}, nil)
		entries.EXPECT().Create(ctx, gomock.Any()).Return(nil)

		_, err := svc.AddEntry(ctx, library.AddEntryInput{
			UserID:   userID,
			IGDBID:   1942,
			Status:   entity.StatusCuriousAbout,
			Platform: strPtr("Switch"),
		})

		assert.NoError(t, err)
	})

	t.Run("error - whitespace platform collides with nil platform", func(t *testing.T) {
		svc, users, entries, resolver := newServiceWithMocks(t)

		users.EXPECT().GetByID(ctx, userID).Return(entity.User{ID: userID}, nil)
		resolver.EXPECT().Resolve(ctx, int64(1942)).Return(testGame, nil)
		entries.EXPECT().ListByGame(ctx, userID, testGame.ID).Return([]entity.LibraryItem{
			{ID: 1, Status: entity.StatusCuriousAbout, Platform: nil},
		}, nil)

		_, err := svc.AddEntry(ctx, library.AddEntryInput{
			UserID:   userID,
			IGDBID:   1942,
			Status:   entity.StatusCuriousAbout,
			Platform: strPtr("   "),
		})

		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("success - wishlist allowed on fresh add", func(t *testing.T) {
		svc, users, entries, resolver := newServiceWithMocks(t)

		users.EXPECT().GetByID(ctx, userID).Return(entity.User{ID: userID}, nil)
		resolver.EXPECT().Resolve(ctx, int64(1942)).Return(testGame, nil)
		entries.EXPECT().ListByGame(ctx, userID, testGame.ID).Return(nil, nil)
		entries.EXPECT().Create(ctx, gomock.Any()).Return(nil)

		result, err := svc.AddEntry(ctx, library.AddEntryInput{
			UserID: userID,
			IGDBID: 1942,
			Status: entity.StatusWishlist,
		})

		assert.NoError(t, err)
		assert.Equal(t, entity.StatusWishlist, result.Item.Status)
	})

	t.Run("error - account not found", func(t *testing.T) {
		svc, users, _, _ := newServiceWithMocks(t)

		users.EXPECT().GetByID(ctx, userID).Return(entity.User{}, apperr.ErrNotFound)

		_, err := svc.AddEntry(ctx, library.AddEntryInput{UserID: userID, IGDBID: 1942, Status: entity.StatusCuriousAbout})

		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("error - resolve failure passes through", func(t *testing.T) {
		svc, users, _, resolver := newServiceWithMocks(t)

		users.EXPECT().GetByID(ctx, userID).Return(entity.User{ID: userID}, nil)
		resolver.EXPECT().Resolve(ctx, int64(1942)).Return(entity.Game{}, apperr.ErrRateLimited)

		_, err := svc.AddEntry(ctx, library.AddEntryInput{UserID: userID, IGDBID: 1942, Status: entity.StatusCuriousAbout})

		assert.True(t, errors.Is(err, apperr.ErrRateLimited))
	})
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	userID := "user-123"

	t.Run("success - status and dates move together", func(t *testing.T) {
		svc, _, entries, _ := newServiceWithMocks(t)

		started := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
		entries.EXPECT().GetByID(ctx, int64(7)).Return(entity.LibraryItem{
			ID: 7, UserID: userID, Status: entity.StatusCuriousAbout,
		}, nil)
		entries.EXPECT().Update(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, item *entity.LibraryItem) error {
			assert.Equal(t, entity.StatusCurrentlyExploring, item.Status)
			assert.Equal(t, &started, item.StartedAt)
			return nil
		})

		item, err := svc.UpdateStatus(ctx, userID, 7, library.UpdateStatusInput{
			Status:    entity.StatusCurrentlyExploring,
			StartedAt: &started,
		})

		assert.NoError(t, err)
		assert.Equal(t, entity.StatusCurrentlyExploring, item.Status)
	})

	t.Run("error - cross-user reads as not found", func(t *testing.T) {
		svc, _, entries, _ := newServiceWithMocks(t)

		entries.EXPECT().GetByID(ctx, int64(7)).Return(entity.LibraryItem{
			ID: 7, UserID: "someone-else", Status: entity.StatusCuriousAbout,
		}, nil)

		_, err := svc.UpdateStatus(ctx, userID, 7, library.UpdateStatusInput{Status: entity.StatusExperienced})

		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("error - back to wishlist denied", func(t *testing.T) {
		svc, _, entries, _ := newServiceWithMocks(t)

		entries.EXPECT().GetByID(ctx, int64(7)).Return(entity.LibraryItem{
			ID: 7, UserID: userID, Status: entity.StatusCurrentlyExploring,
		}, nil)

		_, err := svc.UpdateStatus(ctx, userID, 7, library.UpdateStatusInput{Status: entity.StatusWishlist})

		assert.True(t, apperr.IsValidation(err))
		assert.Contains(t, err.Error(), "Cannot move a game back to Wishlist")
	})

	t.Run("success - wishlist to wishlist is a no-op transition", func(t *testing.T) {
		svc, _, entries, _ := newServiceWithMocks(t)

		entries.EXPECT().GetByID(ctx, int64(7)).Return(entity.LibraryItem{
			ID: 7, UserID: userID, Status: entity.StatusWishlist,
		}, nil)
		entries.EXPECT().Update(ctx, gomock.Any()).Return(nil)

		_, err := svc.UpdateStatus(ctx, userID, 7, library.UpdateStatusInput{Status: entity.StatusWishlist})

		assert.NoError(t, err)
	})
}

func TestService_UpdateStatusByIGDB(t *testing.T) {
	ctx := context.Background()
	userID := "user-123"

	t.Run("success - updates the most recent entry", func(t *testing.T) {
		svc, _, entries, resolver := newServiceWithMocks(t)

		resolver.EXPECT().Resolve(ctx, int64(1942)).Return(testGame, nil)
		entries.EXPECT().GetMostRecentByGame(ctx, userID, testGame.ID).Return(entity.LibraryItem{
			ID: 9, UserID: userID, Status: entity.StatusCuriousAbout,
		}, nil)
		entries.EXPECT().GetByID(ctx, int64(9)).Return(entity.LibraryItem{
			ID: 9, UserID: userID, Status: entity.StatusCuriousAbout,
		}, nil)
		entries.EXPECT().Update(ctx, gomock.Any()).Return(nil)

		item, err := svc.UpdateStatusByIGDB(ctx, userID, 1942, entity.StatusExperienced)

		assert.NoError(t, err)
		assert.Equal(t, int64(9), item.ID)
		assert.Equal(t, entity.StatusExperienced, item.Status)
	})

	t.Run("success - no entry becomes an add", func(t *testing.T) {
		svc, users, entries, resolver := newServiceWithMocks(t)

		resolver.EXPECT().Resolve(ctx, int64(1942)).Return(testGame, nil).Times(2)
		entries.EXPECT().GetMostRecentByGame(ctx, userID, testGame.ID).Return(entity.LibraryItem{}, apperr.ErrNotFound)
		users.EXPECT().GetByID(ctx, userID).Return(entity.User{ID: userID}, nil)
		entries.EXPECT().ListByGame(ctx, userID, testGame.ID).Return(nil, nil)
		entries.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, item *entity.LibraryItem) error {
			item.ID = 11
			return nil
		})

		item, err := svc.UpdateStatusByIGDB(ctx, userID, 1942, entity.StatusCurrentlyExploring)

		assert.NoError(t, err)
		assert.Equal(t, int64(11), item.ID)
		assert.Equal(t, entity.StatusCurrentlyExploring, item.Status)
	})

	t.Run("error - wishlist denied on existing non-wishlist entry", func(t *testing.T) {
		svc, _, entries, resolver := newServiceWithMocks(t)

		resolver.EXPECT().Resolve(ctx, int64(1942)).Return(testGame, nil)
		entries.EXPECT().GetMostRecentByGame(ctx, userID, testGame.ID).Return(entity.LibraryItem{
			ID: 9, UserID: userID, Status: entity.StatusExperienced,
		}, nil)
		entries.EXPECT().GetByID(ctx, int64(9)).Return(entity.LibraryItem{
			ID: 9, UserID: userID, Status: entity.StatusExperienced,
		}, nil)

		_, err := svc.UpdateStatusByIGDB(ctx, userID, 1942, entity.StatusWishlist)

		assert.True(t, apperr.IsValidation(err))
	})
}

func TestService_ListEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("clamps page size to defaults", func(t *testing.T) {
		svc, _, entries, _ := newServiceWithMocks(t)

		entries.EXPECT().List(ctx, library.ListParams{UserID: "u", Limit: 20, Offset: 0}).Return(nil, 0, nil)

		_, _, err := svc.ListEntries(ctx, library.ListParams{UserID: "u", Limit: 500, Offset: -3})
		assert.NoError(t, err)
	})
}

func TestService_CountEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the status filter through", func(t *testing.T) {
		svc, _, entries, _ := newServiceWithMocks(t)

		status := entity.StatusWishlist
		entries.EXPECT().Count(ctx, "u", &status).Return(4, nil)

		total, err := svc.CountEntries(ctx, "u", &status)
		assert.NoError(t, err)
		assert.Equal(t, 4, total)
	})

	t.Run("unfiltered", func(t *testing.T) {
		svc, _, entries, _ := newServiceWithMocks(t)

		entries.EXPECT().Count(ctx, "u", gomock.Nil()).Return(9, nil)

		total, err := svc.CountEntries(ctx, "u", nil)
		assert.NoError(t, err)
		assert.Equal(t, 9, total)
	})
}

func TestService_DeleteEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("error - missing entry", func(t *testing.T) {
		svc, _, entries, _ := newServiceWithMocks(t)

		entries.EXPECT().Delete(ctx, int64(5), "u").Return(apperr.ErrNotFound)

		err := svc.DeleteEntry(ctx, "u", 5)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("success", func(t *testing.T) {
		svc, _, entries, _ := newServiceWithMocks(t)

		entries.EXPECT().Delete(ctx, int64(5), "u").Return(nil)

		assert.NoError(t, svc.DeleteEntry(ctx, "u", 5))
	})
}
