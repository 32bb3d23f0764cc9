package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"playlater/internal/apperr"
	"playlater/internal/entity"
	"playlater/internal/igdb"
)

type mockGameRepo struct {
	mock.Mock
}

func (m *mockGameRepo) GetByIGDBID(ctx context.Context, igdbID int64) (entity.Game, error) {
	args := m.Called(ctx, igdbID)
	return args.Get(0).(entity.Game), args.Error(1)
}

func (m *mockGameRepo) Create(ctx context.Context, g *entity.Game) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) GetGameByID(ctx context.Context, igdbID int64) (*igdb.Game, error) {
	args := m.Called(ctx, igdbID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*igdb.Game), args.Error(1)
}

func (m *mockFetcher) SearchGames(ctx context.Context, term string, limit int) ([]igdb.Game, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]igdb.Game), args.Error(1)
}

func TestResolver_Resolve_LocalHit(t *testing.T) {
	repo := new(mockGameRepo)
	fetcher := new(mockFetcher)
	r := NewResolver(repo, fetcher)

	local := entity.Game{ID: "game-1", IGDBID: 1942, Title: "The Witness"}
	repo.On("GetByIGDBID", mock.Anything, int64(1942)).Return(local, nil)

	got, err := r.Resolve(context.Background(), 1942)

	assert.NoError(t, err)
	assert.Equal(t, local, got)
	fetcher.AssertNotCalled(t, "GetGameByID")
	repo.AssertExpectations(t)
}

func TestResolver_Resolve_MissFetchesOnceAndCreates(t *testing.T) {
	repo := new(mockGameRepo)
	fetcher := new(mockFetcher)
	r := NewResolver(repo, fetcher)

	repo.On("GetByIGDBID", mock.Anything, int64(1942)).Return(entity.Game{}, apperr.ErrNotFound).Once()
	fetched := &igdb.Game{ID: 1942, Name: "The Witness", Slug: "the-witness", FirstReleaseDate: 1453766400}
	fetcher.On("GetGameByID", mock.Anything, int64(1942)).Return(fetched, nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	got, err := r.Resolve(context.Background(), 1942)

	assert.NoError(t, err)
	assert.Equal(t, int64(1942), got.IGDBID)
	assert.Equal(t, "The Witness", got.Title)
	assert.NotNil(t, got.ReleaseDate)
	repo.AssertExpectations(t)
	fetcher.AssertExpectations(t)
}

func TestResolver_Resolve_SecondResolutionIsLocal(t *testing.T) {
	repo := new(mockGameRepo)
	fetcher := new(mockFetcher)
	r := NewResolver(repo, fetcher)

	created := entity.Game{ID: "game-1", IGDBID: 1942, Title: "The Witness"}
	repo.On("GetByIGDBID", mock.Anything, int64(1942)).Return(entity.Game{}, apperr.ErrNotFound).Once()
	fetcher.On("GetGameByID", mock.Anything, int64(1942)).Return(&igdb.Game{ID: 1942, Name: "The Witness"}, nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("GetByIGDBID", mock.Anything, int64(1942)).Return(created, nil).Once()

	_, err := r.Resolve(context.Background(), 1942)
	require.NoError(t, err)

	got, err := r.Resolve(context.Background(), 1942)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	fetcher.AssertNumberOfCalls(t, "GetGameByID", 1)
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestResolver_Resolve_InsertRaceReadsWinner(t *testing.T) {
	repo := new(mockGameRepo)
	fetcher := new(mockFetcher)
	r := NewResolver(repo, fetcher)

	winner := entity.Game{ID: "winner-id", IGDBID: 1942, Title: "The Witness"}
	repo.On("GetByIGDBID", mock.Anything, int64(1942)).Return(entity.Game{}, apperr.ErrNotFound).Once()
	fetcher.On("GetGameByID", mock.Anything, int64(1942)).Return(&igdb.Game{ID: 1942, Name: "The Witness"}, nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(apperr.ErrConflict).Once()
	repo.On("GetByIGDBID", mock.Anything, int64(1942)).Return(winner, nil).Once()

	got, err := r.Resolve(context.Background(), 1942)

	assert.NoError(t, err)
	assert.Equal(t, winner, got)
	repo.AssertExpectations(t)
}

func TestResolver_Resolve_FetchErrorsKeepCategory(t *testing.T) {
	for _, sentinel := range []error{apperr.ErrNotFound, apperr.ErrRateLimited} {
		repo := new(mockGameRepo)
		fetcher := new(mockFetcher)
		r := NewResolver(repo, fetcher)

		repo.On("GetByIGDBID", mock.Anything, int64(99)).Return(entity.Game{}, apperr.ErrNotFound)
		fetcher.On("GetGameByID", mock.Anything, int64(99)).Return(nil, sentinel)

		_, err := r.Resolve(context.Background(), 99)

		assert.True(t, errors.Is(err, sentinel), "expected %v, got %v", sentinel, err)
		repo.AssertNotCalled(t, "Create")
	}
}

func TestResolver_Search_PassesThrough(t *testing.T) {
	repo := new(mockGameRepo)
	fetcher := new(mockFetcher)
	r := NewResolver(repo, fetcher)

	results := []igdb.Game{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	fetcher.On("SearchGames", mock.Anything, "witness", 20).Return(results, nil)

	got, err := r.Search(context.Background(), "witness", 20)

	assert.NoError(t, err)
	assert.Equal(t, results, got)
}
