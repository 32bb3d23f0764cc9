package entity

import "time"

// Game is the locally cached representation of a title sourced from IGDB.
// Rows are created once by the catalog resolver and never mutated afterwards.
type Game struct {
	ID           string     `json:"id"`
	IGDBID       int64      `json:"igdb_id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	CoverImageID string     `json:"cover_image_id,omitempty"`
	ReleaseDate  *time.Time `json:"release_date,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
