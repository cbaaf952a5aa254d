package collection

import (
	"slices"
	"strings"

	"github.com/bunchhieng/sticky/internal/model"
)

// Filter returns the links whose title contains text, ignoring case.
// An empty text returns all of items in order.
func Filter(items []*model.Link, text string) []*model.Link {
	if text == "" {
		return slices.Clone(items)
	}
	needle := strings.ToLower(text)
	out := make([]*model.Link, 0, len(items))
	for _, l := range items {
		if strings.Contains(strings.ToLower(l.Title), needle) {
			out = append(out, l)
		}
	}
	return out
}
