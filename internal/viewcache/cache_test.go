package viewcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlater/internal/apperr"
	"playlater/internal/entity"
)

type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *recordingNotifier) Error(msg string)   { n.errors = append(n.errors, msg) }

func seededCache(n Notifier) *Cache {
	c := New(n)
	c.SetList("all", []entity.LibraryItem{
		{ID: 1, Status: entity.StatusCuriousAbout},
		{ID: 2, Status: entity.StatusWishlist},
	})
	c.SetList("wishlist", []entity.LibraryItem{
		{ID: 2, Status: entity.StatusWishlist},
	})
	return c
}

func TestRunStatusMutation_OptimisticApplyAndSettle(t *testing.T) {
	notifier := &recordingNotifier{}
	c := seededCache(notifier)

	var seenDuringCall entity.LibraryStatus
	item, err := c.RunStatusMutation(context.Background(), []Key{"all"}, 1, entity.StatusExperienced,
		func(ctx context.Context) (entity.LibraryItem, error) {
			// The optimistic value must already be visible while the server
			// call is in flight.
			items, ok := c.List("all")
			require.True(t, ok)
			seenDuringCall = items[0].Status
			return entity.LibraryItem{ID: 1, Status: entity.StatusExperienced}, nil
		})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusExperienced, seenDuringCall)
	assert.Equal(t, entity.StatusExperienced, item.Status)

	items, ok := c.List("all")
	require.True(t, ok)
	assert.Equal(t, entity.StatusExperienced, items[0].Status)
	assert.True(t, c.Stale("all"), "settled views must be marked stale")
	assert.Equal(t, []string{"Status updated"}, notifier.successes)
}

func TestRunStatusMutation_RollbackOnFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	c := seededCache(notifier)

	callErr := apperr.Validationf("Cannot move a game back to Wishlist")
	_, err := c.RunStatusMutation(context.Background(), []Key{"all", "wishlist"}, 1, entity.StatusWishlist,
		func(ctx context.Context) (entity.LibraryItem, error) {
			return entity.LibraryItem{}, callErr
		})

	require.Error(t, err)

	items, ok := c.List("all")
	require.True(t, ok)
	assert.Equal(t, entity.StatusCuriousAbout, items[0].Status, "rollback must restore the snapshot")
	assert.True(t, c.Stale("all"))
	assert.Equal(t, []string{"Cannot move a game back to Wishlist"}, notifier.errors)
	assert.Empty(t, notifier.successes)
}

func TestRunStatusMutation_GenericErrorUsesFallbackMessage(t *testing.T) {
	notifier := &recordingNotifier{}
	c := seededCache(notifier)

	_, err := c.RunStatusMutation(context.Background(), []Key{"all"}, 1, entity.StatusExperienced,
		func(ctx context.Context) (entity.LibraryItem, error) {
			return entity.LibraryItem{}, errors.New("connection reset")
		})

	require.Error(t, err)
	assert.Equal(t, []string{fallbackErrorMessage}, notifier.errors)
}

func TestRunStatusMutation_UntouchedViewsStayIntact(t *testing.T) {
	c := seededCache(nil)

	_, err := c.RunStatusMutation(context.Background(), []Key{"all"}, 2, entity.StatusExperienced,
		func(ctx context.Context) (entity.LibraryItem, error) {
			return entity.LibraryItem{}, errors.New("boom")
		})
	require.Error(t, err)

	// "wishlist" was not in the mutation's key set; it is neither rolled
	// back nor marked stale.
	items, ok := c.List("wishlist")
	require.True(t, ok)
	assert.Equal(t, entity.StatusWishlist, items[0].Status)
	assert.False(t, c.Stale("wishlist"))
}

func TestRunStatusMutation_CancelsInFlightRefetch(t *testing.T) {
	c := seededCache(nil)

	refetchCtx := c.BeginRefetch(context.Background(), "all")
	require.NoError(t, refetchCtx.Err())

	_, err := c.RunStatusMutation(context.Background(), []Key{"all"}, 1, entity.StatusExperienced,
		func(ctx context.Context) (entity.LibraryItem, error) {
			return entity.LibraryItem{ID: 1, Status: entity.StatusExperienced}, nil
		})
	require.NoError(t, err)

	assert.ErrorIs(t, refetchCtx.Err(), context.Canceled, "a mutation must cancel pending read refetches")
}

func TestRunStatusMutation_SecondMutationLayersOverFirst(t *testing.T) {
	c := seededCache(nil)

	// First mutation fails only after a second one has already applied its
	// optimistic value. The first rollback restores its own snapshot; the
	// stale mark forces a refetch that settles the disagreement.
	release := make(chan error)
	firstDone := make(chan struct{})

	go func() {
		defer close(firstDone)
		_, _ = c.RunStatusMutation(context.Background(), []Key{"all"}, 1, entity.StatusCurrentlyExploring,
			func(ctx context.Context) (entity.LibraryItem, error) {
				return entity.LibraryItem{}, <-release
			})
	}()

	// Wait until the first optimistic write is visible.
	assert.Eventually(t, func() bool {
		items, ok := c.List("all")
		return ok && items[0].Status == entity.StatusCurrentlyExploring
	}, time.Second, time.Millisecond)

	_, err := c.RunStatusMutation(context.Background(), []Key{"all"}, 1, entity.StatusExperienced,
		func(ctx context.Context) (entity.LibraryItem, error) {
			return entity.LibraryItem{ID: 1, Status: entity.StatusExperienced}, nil
		})
	require.NoError(t, err)

	release <- errors.New("server rejected")
	<-firstDone

	assert.True(t, c.Stale("all"), "conflicting outcomes resolve through a refetch")
}

func TestBeginRefetch_SupersedesPrevious(t *testing.T) {
	c := New(nil)

	first := c.BeginRefetch(context.Background(), "all")
	second := c.BeginRefetch(context.Background(), "all")

	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())
}

func TestInvalidate_IgnoresUnknownKeys(t *testing.T) {
	c := New(nil)
	c.Invalidate("never-set")
	assert.False(t, c.Stale("never-set"))
}

func TestSetList_ClearsStale(t *testing.T) {
	c := seededCache(nil)
	c.Invalidate("all")
	require.True(t, c.Stale("all"))

	c.SetList("all", []entity.LibraryItem{{ID: 3, Status: entity.StatusRevisiting}})
	assert.False(t, c.Stale("all"))
}
