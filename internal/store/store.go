package store

import (
	"context"
	"errors"

	"github.com/saint-community/querybuilder/internal/models"
)

// ErrInvalidFilter wraps validation failures of a request's filter tree so
// callers can tell them apart from backend failures.
var ErrInvalidFilter = errors.New("invalid filter")

// Request is a member search
type Request struct {
	Filter models.FilterGroup `json:"filter"`
	Limit  int                `json:"limit,omitempty"`
	Offset int                `json:"offset,omitempty"`
}

// Result is one page of members plus the total number of matches
type Result struct {
	Members []models.Member `json:"members"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// Searcher runs member searches
type Searcher interface {
	Search(ctx context.Context, req Request) (Result, error)
}

// Limits bounds the page size of a search
type Limits struct {
	Default int
	Max     int
}

// Clamp returns a usable limit: non-positive becomes the default and
// anything above the maximum becomes the maximum.
func (l Limits) Clamp(limit int) int {
	if limit <= 0 {
		limit = l.Default
	}
	if l.Max > 0 && limit > l.Max {
		limit = l.Max
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
