package models

import (
	"strconv"
	"strings"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"

	DefaultPerPage  = 20
	MaxPerPage      = 100
	MaxRatingFilter = 5
)

func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// ParseRatingFilter returns the requested threshold, or 0 when the value
// is empty, non-numeric or outside 1..MaxRatingFilter.
func ParseRatingFilter(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > MaxRatingFilter {
		return 0
	}
	return n
}

type ListingRequest struct {
	ObjectType   string
	SortKey      string
	Direction    Direction
	RatingFilter int
	Page         int
	PerPage      int
}

type ListingItem struct {
	Object
	Metric float64
}

type Listing struct {
	Items   []ListingItem
	Total   int
	Page    int
	PerPage int
	Pages   int
}
