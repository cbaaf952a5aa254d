package model

import (
	"strings"
	"time"
)

// Category groups links. Its name is the key links are loaded by.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Link represents a saved web page inside a category.
type Link struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	CategoryID   string    `json:"-"`
	CategoryName string    `json:"category"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewLink builds a link owned by c with a fresh ID.
func NewLink(title, rawURL string, c *Category, now time.Time) *Link {
	return &Link{
		ID:           GenerateShortID(),
		Title:        title,
		URL:          rawURL,
		CategoryID:   c.ID,
		CategoryName: c.Name,
		CreatedAt:    now,
	}
}

// NewCategory builds a category with a fresh ID.
func NewCategory(name string, now time.Time) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidCategory
	}
	return &Category{ID: GenerateShortID(), Name: name, CreatedAt: now}, nil
}

// DisplayTitle returns the title, or the URL when the title is empty.
func (l *Link) DisplayTitle() string {
	if l.Title == "" {
		return l.URL
	}
	return l.Title
}
