package viewcache

import (
	"context"
	"errors"

	"playlater/internal/apperr"
	"playlater/internal/entity"
)

const fallbackErrorMessage = "Something went wrong. Please try again."

// statusMutation is the snapshot/restore transaction behind one optimistic
// status change. It captures exactly the query keys it touched, so rollback
// never disturbs unrelated views.
type statusMutation struct {
	keys      []Key
	snapshots map[Key][]entity.LibraryItem
}

// RunStatusMutation applies newStatus to itemID in every cached view listed in
// keys, then runs the server call. On failure every snapshotted view is
// restored exactly; on success the optimistic value stands. Either way the
// touched views are marked stale afterward, which is the correctness backstop
// for the optimistic write.
func (c *Cache) RunStatusMutation(
	ctx context.Context,
	keys []Key,
	itemID int64,
	newStatus entity.LibraryStatus,
	call func(ctx context.Context) (entity.LibraryItem, error),
) (entity.LibraryItem, error) {
	tx := c.beginStatusMutation(keys, itemID, newStatus)

	// The mutation call itself is never cancelled; only read refetches are.
	item, err := call(ctx)

	if err != nil {
		c.rollback(tx)
		c.Invalidate(keys...)
		if c.notifier != nil {
			c.notifier.Error(userMessage(err))
		}
		return entity.LibraryItem{}, err
	}

	c.Invalidate(keys...)
	if c.notifier != nil {
		c.notifier.Success("Status updated")
	}
	return item, nil
}

// beginStatusMutation cancels in-flight refetches for the touched keys (a
// stale read must not overwrite the optimistic value), snapshots each cached
// view, and writes the new status into every matching entry.
func (c *Cache) beginStatusMutation(keys []Key, itemID int64, newStatus entity.LibraryStatus) *statusMutation {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelRefetchesLocked(keys)

	tx := &statusMutation{
		keys:      keys,
		snapshots: make(map[Key][]entity.LibraryItem, len(keys)),
	}
	for _, key := range keys {
		items, ok := c.lists[key]
		if !ok {
			continue
		}
		tx.snapshots[key] = append([]entity.LibraryItem(nil), items...)
		for i := range items {
			if items[i].ID == itemID {
				items[i].Status = newStatus
			}
		}
	}
	return tx
}

// rollback restores every snapshotted view to its pre-mutation value, a full
// replacement rather than a merge.
func (c *Cache) rollback(tx *statusMutation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, snapshot := range tx.snapshots {
		c.lists[key] = snapshot
	}
}

func userMessage(err error) string {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return fallbackErrorMessage
}
