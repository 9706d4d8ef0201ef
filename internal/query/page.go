package query

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Pagination bounds. Limits outside the range are a validation error, never
// silently clamped, so page behavior stays predictable.
const (
	MinPageLimit     = 1
	MaxPageLimit     = 100
	DefaultPageLimit = 50
)

var ErrLimitOutOfRange = errors.New("query: page limit out of range")

// PageRequest is the caller's pagination input. Cursor, when set, is the id
// of the last item of the previous page.
type PageRequest struct {
	Limit  int
	Cursor *uuid.UUID
}

// PageOptions is what the storage layer executes: fetch Take rows strictly
// after the cursor row, ordered by the stable (created_at, id) key. Take is
// one more than the requested limit so the trailing row signals a next page.
type PageOptions struct {
	Take  int
	After *uuid.UUID
}

// BuildPageOptions validates the request and derives storage options.
// A zero limit means the default.
func BuildPageOptions(req PageRequest) (PageOptions, error) {
	limit := req.Limit
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < MinPageLimit || limit > MaxPageLimit {
		return PageOptions{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrLimitOutOfRange, limit, MinPageLimit, MaxPageLimit)
	}
	return PageOptions{Take: limit + 1, After: req.Cursor}, nil
}

// Page is one bounded page of results. NextCursor is set iff HasMore and
// equals the id of the last item. Pagination is weakly consistent under
// concurrent writes: a borderline row may move between pages, but a fixed
// snapshot is exhausted exactly once.
type Page[T any] struct {
	Items      []T
	NextCursor *uuid.UUID
	HasMore    bool
}

// ProcessPage trims the lookahead row fetched by PageOptions.Take and derives
// the continuation cursor via id. The returned slice is a fresh view; the
// caller's slice is not mutated.
func ProcessPage[T any](items []T, limit int, id func(T) uuid.UUID) Page[T] {
	if len(items) <= limit {
		return Page[T]{Items: items[:len(items):len(items)]}
	}

	trimmed := items[:limit:limit]
	last := id(trimmed[len(trimmed)-1])
	return Page[T]{Items: trimmed, NextCursor: &last, HasMore: true}
}
