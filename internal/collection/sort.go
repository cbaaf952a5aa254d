package collection

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bunchhieng/sticky/internal/model"
)

// SortOrder is the key the list is ordered by.
type SortOrder int

const (
	SortNone SortOrder = iota
	SortByName
	SortByDateCreated
)

func (o SortOrder) String() string {
	switch o {
	case SortByName:
		return "name"
	case SortByDateCreated:
		return "date created"
	default:
		return "none"
	}
}

// ParseSortOrder maps a user-facing key to a SortOrder.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "name", "title":
		return SortByName, nil
	case "date", "created", "date-created":
		return SortByDateCreated, nil
	default:
		return SortNone, fmt.Errorf("unknown sort order %q (want name or date)", s)
	}
}

// SortState is the active order plus its direction.
type SortState struct {
	Order      SortOrder
	Descending bool
}

// ApplySort computes the result of choosing requested while state is active.
// Choosing the active order again reverses the current sequence instead of re-sorting.
// Any other order sorts ascending. items is never modified.
func ApplySort(state SortState, requested SortOrder, items []*model.Link) (SortState, []*model.Link) {
	out := slices.Clone(items)
	if requested == state.Order {
		slices.Reverse(out)
		return SortState{Order: requested, Descending: !state.Descending}, out
	}
	sortAscending(requested, out, time.Now())
	return SortState{Order: requested}, out
}

// Sorted orders items according to state. Descending is the reverse of the stable ascending sort.
func Sorted(state SortState, items []*model.Link) []*model.Link {
	out := slices.Clone(items)
	if state.Order == SortNone {
		return out
	}
	sortAscending(state.Order, out, time.Now())
	if state.Descending {
		slices.Reverse(out)
	}
	return out
}

func sortAscending(order SortOrder, items []*model.Link, now time.Time) {
	switch order {
	case SortByName:
		slices.SortStableFunc(items, func(a, b *model.Link) int {
			return strings.Compare(a.Title, b.Title)
		})
	case SortByDateCreated:
		slices.SortStableFunc(items, func(a, b *model.Link) int {
			return createdOr(a, now).Compare(createdOr(b, now))
		})
	}
}

func createdOr(l *model.Link, now time.Time) time.Time {
	if l.CreatedAt.IsZero() {
		return now
	}
	return l.CreatedAt
}
