package entity

import "fmt"

// LibraryStatus is the engagement state of a library item. The set is closed;
// anything else must be rejected at the input boundary.
type LibraryStatus string

const (
	StatusCuriousAbout       LibraryStatus = "CURIOUS_ABOUT"
	StatusCurrentlyExploring LibraryStatus = "CURRENTLY_EXPLORING"
	StatusTookABreak         LibraryStatus = "TOOK_A_BREAK"
	StatusExperienced        LibraryStatus = "EXPERIENCED"
	StatusWishlist           LibraryStatus = "WISHLIST"
	StatusRevisiting         LibraryStatus = "REVISITING"
)

// LibraryStatuses lists every valid status, in display order.
var LibraryStatuses = []LibraryStatus{
	StatusCuriousAbout,
	StatusCurrentlyExploring,
	StatusTookABreak,
	StatusExperienced,
	StatusWishlist,
	StatusRevisiting,
}

func ParseLibraryStatus(s string) (LibraryStatus, error) {
	status := LibraryStatus(s)
	for _, known := range LibraryStatuses {
		if status == known {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid library status: %q", s)
}

// CanTransition decides whether an item may move from current to requested.
// current is nil when no item exists yet (a fresh add).
//
// The machine is intentionally shallow: every edge is allowed except moving
// into WISHLIST, which is only valid on a fresh add or as a no-op when the
// item is already wishlisted. Once a game has been anything else, it cannot
// go back to being merely wished for.
func CanTransition(current *LibraryStatus, requested LibraryStatus) bool {
	if requested != StatusWishlist {
		return true
	}
	return current == nil || *current == StatusWishlist
}
