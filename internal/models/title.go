package models

import "errors"

// ErrTitleNotFound is returned by catalog lookups for unknown titles.
var ErrTitleNotFound = errors.New("title not found")

// TitleType distinguishes movies from TV shows. The same numeric catalog id
// can exist for both, so a title is only identified by (id, type).
type TitleType string

const (
	TitleTypeMovie TitleType = "movie"
	TitleTypeTV    TitleType = "tv"
)

// Valid reports whether t is a known title type.
func (t TitleType) Valid() bool {
	return t == TitleTypeMovie || t == TitleTypeTV
}

// ParseTitleType converts a raw string into a TitleType.
func ParseTitleType(s string) (TitleType, bool) {
	t := TitleType(s)
	return t, t.Valid()
}

// Title is a catalog entry as shown on a swipe card.
type Title struct {
	ID               int       `json:"id"`
	Type             TitleType `json:"type"`
	Name             string    `json:"name"`
	Overview         string    `json:"overview,omitempty"`
	ReleaseDate      string    `json:"release_date,omitempty"`
	Popularity       float64   `json:"popularity"`
	PosterURL        string    `json:"poster_url,omitempty"`
	GenreIDs         []int     `json:"genre_ids"`
	OriginalLanguage string    `json:"original_language,omitempty"`

	// Set only on detail lookups.
	Genres  []Genre `json:"genres,omitempty"`
	Runtime int     `json:"runtime,omitempty"`
	Tagline string  `json:"tagline,omitempty"`
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CatalogQuery selects one page of catalog discovery results.
type CatalogQuery struct {
	Type    TitleType `json:"type" validate:"required,oneof=movie tv"`
	Page    int       `json:"page" validate:"min=1,max=500"`
	GenreID int       `json:"genre_id,omitempty" validate:"min=0"`
}

// Normalize fills in defaults for unset fields.
func (q *CatalogQuery) Normalize() {
	if q.Type == "" {
		q.Type = TitleTypeMovie
	}
	if q.Page < 1 {
		q.Page = 1
	}
}

// CatalogPage is one page of catalog results in catalog ranking order.
type CatalogPage struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Title `json:"results"`
}

// Deck is the set of unseen titles handed to the swipe UI.
type Deck struct {
	UserID     string    `json:"user_id"`
	Type       TitleType `json:"type"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	Titles     []Title   `json:"titles"`
	Exhausted  bool      `json:"exhausted"`
}

const (
	TMDBImageBaseW500 = "https://image.tmdb.org/t/p/w500"
)
