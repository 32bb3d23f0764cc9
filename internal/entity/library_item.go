package entity

import "time"

const (
	AcquisitionDigital      = "DIGITAL"
	AcquisitionPhysical     = "PHYSICAL"
	AcquisitionSubscription = "SUBSCRIPTION"
)

// ValidAcquisitionType reports whether s is one of the known acquisition types.
func ValidAcquisitionType(s string) bool {
	switch s {
	case AcquisitionDigital, AcquisitionPhysical, AcquisitionSubscription:
		return true
	}
	return false
}

// LibraryItem is one user's record of engagement with one game. A user may hold
// several items for the same game (one per platform), so uniqueness is per row,
// not per (user, game).
type LibraryItem struct {
	ID              int64         `json:"id"`
	UserID          string        `json:"user_id"`
	GameID          string        `json:"game_id"`
	Status          LibraryStatus `json:"status"`
	Platform        *string       `json:"platform,omitempty"`
	AcquisitionType string        `json:"acquisition_type"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
