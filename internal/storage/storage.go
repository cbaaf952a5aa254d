package storage

import (
	"context"

	"github.com/bunchhieng/sticky/internal/model"
)

// Predicate selects the links of one category by name.
// An empty CategoryName matches links whose category name is empty, not all links.
type Predicate struct {
	CategoryName string
}

// LinkStore is the unit-of-work contract the collection manager works against.
// Insert and Delete only stage changes; Save commits everything staged.
type LinkStore interface {
	// Fetch returns the links matching p in insertion order.
	Fetch(ctx context.Context, p Predicate) ([]*model.Link, error)

	// Insert stages a new link.
	Insert(link *model.Link)

	// Delete stages the removal of a link.
	Delete(link *model.Link)

	// Save commits all staged changes atomically. Staged changes survive a failed Save.
	Save(ctx context.Context) error

	// Discard drops all staged changes.
	Discard()
}

// Store is the full persistent store used by the application.
type Store interface {
	LinkStore

	// Get retrieves a link by ID.
	Get(ctx context.Context, id string) (*model.Link, error)

	// CreateCategory adds a category with a unique name.
	CreateCategory(ctx context.Context, name string) (*model.Category, error)

	// Categories lists all categories ordered by name.
	Categories(ctx context.Context) ([]*model.Category, error)

	// CategoryByName retrieves a category by its name.
	CategoryByName(ctx context.Context, name string) (*model.Category, error)

	// DeleteCategory removes a category and every link it owns.
	DeleteCategory(ctx context.Context, name string) error

	// Export returns all links of all categories.
	Export(ctx context.Context) ([]*model.Link, error)

	// Import stores links, creating missing categories and skipping known IDs.
	// It returns the number of links written.
	Import(ctx context.Context, links []*model.Link) (int, error)

	// Close closes the storage connection.
	Close() error
}
