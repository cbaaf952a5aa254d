// Package collection holds the working list of links for the selected category
// and keeps it in step with the persistent store.
package collection

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bunchhieng/sticky/internal/logger"
	"github.com/bunchhieng/sticky/internal/model"
	"github.com/bunchhieng/sticky/internal/storage"
)

// ErrUnknownDeleteToken is returned when confirming a delete that was never requested,
// was cancelled, or was already confirmed.
var ErrUnknownDeleteToken = errors.New("unknown delete request")

// Checker decides whether a parsed URL can be opened by the host.
type Checker interface {
	CanOpen(u *url.URL) bool
}

// DeleteToken identifies a pending delete request.
type DeleteToken string

// DeleteRequest is the first step of deleting a link; it must be confirmed.
type DeleteRequest struct {
	Token DeleteToken
	Link  *model.Link
}

// Prompt is the confirmation text shown before deleting.
func (r *DeleteRequest) Prompt() string {
	return fmt.Sprintf("%s will be deleted and can't be retrieved afterwards", r.Link.DisplayTitle())
}

// Manager owns the links of the selected category, its filtered view and sort state.
// All methods are safe for concurrent use.
type Manager struct {
	store   storage.LinkStore
	checker Checker
	log     logger.Logger
	now     func() time.Time

	mu         sync.Mutex
	category   *model.Category
	predicate  storage.Predicate
	items      []*model.Link
	view       []*model.Link
	filterText string
	filtering  bool
	sort       SortState
	deletes    map[DeleteToken]*model.Link
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a manager with no category selected and an empty list.
func New(store storage.LinkStore, checker Checker, log logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		checker: checker,
		log:     log,
		now:     time.Now,
		deletes: make(map[DeleteToken]*model.Link),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SelectCategory switches the working set to c and reloads it.
// A nil category matches links whose category name is empty, which is normally none.
// If the fetch fails the previous selection and items are kept.
func (m *Manager) SelectCategory(ctx context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var p storage.Predicate
	if c != nil {
		p.CategoryName = c.Name
	}
	links, err := m.store.Fetch(ctx, p)
	if err != nil {
		return m.storeFailure("fetch", p.CategoryName, err)
	}

	m.category = c
	m.predicate = p
	clear(m.deletes)
	m.replace(links)
	return nil
}

// Reload replaces the working set with the store's links for the active predicate.
// On failure the previous items are kept.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	links, err := m.store.Fetch(ctx, m.predicate)
	if err != nil {
		return m.storeFailure("fetch", m.predicate.CategoryName, err)
	}
	m.replace(links)
	return nil
}

func (m *Manager) replace(links []*model.Link) {
	m.items = Sorted(m.sort, links)
	m.refreshView()
	m.log.Debug("links loaded",
		logger.String("category", m.predicate.CategoryName),
		logger.Int("count", len(m.items)))
}

// Add validates and stores a new link in the selected category.
// The link reaches the working set only after the store has committed it.
func (m *Manager) Add(ctx context.Context, title, rawURL string) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validate(title, rawURL); err != nil {
		return nil, err
	}

	link := model.NewLink(title, strings.TrimSpace(rawURL), m.category, m.now())
	m.store.Insert(link)
	if err := m.store.Save(ctx); err != nil {
		m.store.Discard()
		return nil, m.storeFailure("save", m.predicate.CategoryName, err)
	}

	m.items = Sorted(m.sort, append(m.items, link))
	m.refreshView()
	m.log.Info("link added", logger.String("id", link.ID), logger.String("category", link.CategoryName))
	return link, nil
}

func (m *Manager) validate(title, rawURL string) error {
	if title == "" {
		return &model.ValidationError{Field: "title", Err: model.ErrMissingTitle}
	}
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return &model.ValidationError{Field: "url", Err: model.ErrInvalidLink}
	}
	u, err := url.Parse(rawURL)
	if err != nil || !m.checker.CanOpen(u) {
		return &model.ValidationError{Field: "url", Err: model.ErrInvalidLink}
	}
	if m.category == nil {
		return &model.ValidationError{Field: "category", Err: model.ErrNoCategory}
	}
	return nil
}

// RequestDelete starts deleting the link with id. Nothing changes until ConfirmDelete.
func (m *Manager) RequestDelete(id string) (*DeleteRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("link %s: %w", id, model.ErrNotFound)
	}
	token := DeleteToken(model.GenerateShortID())
	m.deletes[token] = m.items[i]
	return &DeleteRequest{Token: token, Link: m.items[i]}, nil
}

// CancelDelete forgets a pending delete request.
func (m *Manager) CancelDelete(token DeleteToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.deletes, token)
}

// ConfirmDelete removes the requested link from the store and then from the working set.
// The token is consumed whether or not the store succeeds.
func (m *Manager) ConfirmDelete(ctx context.Context, token DeleteToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.deletes[token]
	if !ok {
		return ErrUnknownDeleteToken
	}
	delete(m.deletes, token)

	m.store.Delete(link)
	if err := m.store.Save(ctx); err != nil {
		m.store.Discard()
		return m.storeFailure("save", m.predicate.CategoryName, err)
	}

	m.items = slices.DeleteFunc(m.items, func(l *model.Link) bool { return l.ID == link.ID })
	m.refreshView()
	m.log.Info("link deleted", logger.String("id", link.ID))
	return nil
}

// SetFilter activates search with text and recomputes the view.
func (m *Manager) SetFilter(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filterText = text
	m.filtering = true
	m.refreshView()
}

// ClearFilter ends search; the view shows every item again.
func (m *Manager) ClearFilter() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filterText = ""
	m.filtering = false
	m.refreshView()
}

// SetSort applies order. Requesting the active order again reverses the list.
func (m *Manager) SetSort(order SortOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sort, m.items = ApplySort(m.sort, order, m.items)
	m.refreshView()
}

func (m *Manager) refreshView() {
	m.view = Filter(m.items, m.filterText)
}

func (m *Manager) indexOf(id string) int {
	return slices.IndexFunc(m.items, func(l *model.Link) bool { return l.ID == id })
}

func (m *Manager) storeFailure(op, category string, err error) error {
	m.log.Error("store operation failed",
		logger.String("op", op),
		logger.String("category", category),
		logger.Error(err))
	return &model.StoreError{Op: op, Err: err}
}

// Items returns the full working set in its current order.
func (m *Manager) Items() []*model.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items)
}

// View returns what should be displayed: the filtered view while searching, otherwise all items.
func (m *Manager) View() []*model.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.filtering {
		return slices.Clone(m.view)
	}
	return slices.Clone(m.items)
}

// Len is the number of rows in View.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.filtering {
		return len(m.view)
	}
	return len(m.items)
}

// At returns row i of View, or nil when out of range.
func (m *Manager) At(i int) *model.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.items
	if m.filtering {
		rows = m.view
	}
	if i < 0 || i >= len(rows) {
		return nil
	}
	return rows[i]
}

// Filtering reports whether search is active.
func (m *Manager) Filtering() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filtering
}

// FilterText returns the active search text.
func (m *Manager) FilterText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterText
}

// Sort returns the active sort state.
func (m *Manager) Sort() SortState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sort
}

// Category returns the selected category, or nil.
func (m *Manager) Category() *model.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.category
}
