package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bunchhieng/sticky/internal/model"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Store using SQLite.
type SQLiteStorage struct {
	db *sqlx.DB

	mu      sync.Mutex
	pending []change
}

type changeKind int

const (
	changeInsert changeKind = iota
	changeDelete
)

type change struct {
	kind changeKind
	link *model.Link
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	memory := dbPath == ":memory:"
	if !memory {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	var dsn string
	if memory {
		dsn = dbPath + "?_pragma=journal_mode(DELETE)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	} else {
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every new connection to :memory: is a separate empty database.
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

const selectLinks = `
	SELECT l.id, l.title, l.url, l.category_id, c.name AS category_name, l.created_at
	FROM links l
	INNER JOIN categories c ON c.id = l.category_id`

type linkRow struct {
	ID           string `db:"id"`
	Title        string `db:"title"`
	URL          string `db:"url"`
	CategoryID   string `db:"category_id"`
	CategoryName string `db:"category_name"`
	CreatedAt    string `db:"created_at"`
}

func (r *linkRow) toLink() *model.Link {
	return &model.Link{
		ID:           r.ID,
		Title:        r.Title,
		URL:          r.URL,
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		CreatedAt:    parseSQLiteTime(r.CreatedAt),
	}
}

type categoryRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

func (r *categoryRow) toCategory() *model.Category {
	return &model.Category{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: parseSQLiteTime(r.CreatedAt),
	}
}

func toLinks(rows []linkRow) []*model.Link {
	links := make([]*model.Link, len(rows))
	for i := range rows {
		links[i] = rows[i].toLink()
	}
	return links
}

// Fetch returns the links whose category name equals p.CategoryName.
func (s *SQLiteStorage) Fetch(ctx context.Context, p Predicate) ([]*model.Link, error) {
	var rows []linkRow
	err := s.db.SelectContext(ctx, &rows, selectLinks+" WHERE c.name = ? ORDER BY l.rowid", p.CategoryName)
	if err != nil {
		return nil, fmt.Errorf("fetch links: %w", err)
	}
	return toLinks(rows), nil
}

// Insert stages a new link.
func (s *SQLiteStorage) Insert(link *model.Link) {
	s.stage(change{kind: changeInsert, link: link})
}

// Delete stages the removal of a link.
func (s *SQLiteStorage) Delete(link *model.Link) {
	s.stage(change{kind: changeDelete, link: link})
}

func (s *SQLiteStorage) stage(c change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, c)
}

// Discard drops all staged changes.
func (s *SQLiteStorage) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Save commits all staged changes in a single transaction.
func (s *SQLiteStorage) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range s.pending {
		switch c.kind {
		case changeInsert:
			if err := insertLink(ctx, tx, c.link); err != nil {
				return err
			}
		case changeDelete:
			result, err := tx.ExecContext(ctx, "DELETE FROM links WHERE id = ?", c.link.ID)
			if err != nil {
				return fmt.Errorf("delete link %s: %w", c.link.ID, err)
			}
			if err := checkRowsAffected(result); err != nil {
				return fmt.Errorf("delete link %s: %w", c.link.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.pending = nil
	return nil
}

func insertLink(ctx context.Context, ex sqlx.ExecerContext, link *model.Link) error {
	if link.ID == "" || link.CategoryID == "" {
		return fmt.Errorf("insert link %q: missing id or category", link.Title)
	}
	createdAt := link.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := ex.ExecContext(ctx,
		"INSERT INTO links (id, category_id, title, url, created_at) VALUES (?, ?, ?, ?, ?)",
		link.ID, link.CategoryID, link.Title, link.URL, formatSQLiteTime(createdAt))
	if err != nil {
		return fmt.Errorf("insert link %s: %w", link.ID, err)
	}
	return nil
}

// Get retrieves a link by ID.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*model.Link, error) {
	if !model.ValidateShortID(id) {
		return nil, fmt.Errorf("invalid ID format: %s", id)
	}
	var row linkRow
	err := s.db.GetContext(ctx, &row, selectLinks+" WHERE l.id = ?", strings.ToLower(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return row.toLink(), nil
}

// CreateCategory adds a category with a unique name.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	c, err := model.NewCategory(name, time.Now())
	if err != nil {
		return nil, err
	}
	if err := createCategory(ctx, s.db, c); err != nil {
		return nil, err
	}
	return c, nil
}

type queryExecer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

func createCategory(ctx context.Context, q queryExecer, c *model.Category) error {
	var count int
	if err := sqlx.GetContext(ctx, q, &count, "SELECT COUNT(*) FROM categories WHERE name = ?", c.Name); err != nil {
		return fmt.Errorf("check existing category: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", model.ErrDuplicateCategory, c.Name)
	}
	_, err := q.ExecContext(ctx,
		"INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)",
		c.ID, c.Name, formatSQLiteTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// Categories lists all categories ordered by name.
func (s *SQLiteStorage) Categories(ctx context.Context) ([]*model.Category, error) {
	var rows []categoryRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, name, created_at FROM categories ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]*model.Category, len(rows))
	for i := range rows {
		out[i] = rows[i].toCategory()
	}
	return out, nil
}

// CategoryByName retrieves a category by its name.
func (s *SQLiteStorage) CategoryByName(ctx context.Context, name string) (*model.Category, error) {
	return categoryByName(ctx, s.db, name)
}

func categoryByName(ctx context.Context, q sqlx.QueryerContext, name string) (*model.Category, error) {
	var row categoryRow
	err := sqlx.GetContext(ctx, q, &row, "SELECT id, name, created_at FROM categories WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return row.toCategory(), nil
}

// DeleteCategory removes a category; its links go with it through the foreign key.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return checkRowsAffected(result)
}

func checkRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Export returns all links grouped by category name.
func (s *SQLiteStorage) Export(ctx context.Context) ([]*model.Link, error) {
	var rows []linkRow
	if err := s.db.SelectContext(ctx, &rows, selectLinks+" ORDER BY c.name, l.rowid"); err != nil {
		return nil, fmt.Errorf("export links: %w", err)
	}
	return toLinks(rows), nil
}

// Import stores links in one transaction, creating categories by name as needed.
// Links whose ID already exists are skipped.
func (s *SQLiteStorage) Import(ctx context.Context, links []*model.Link) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	categories := make(map[string]*model.Category)
	imported := 0
	for _, link := range links {
		link.CategoryName = strings.TrimSpace(link.CategoryName)
		if link.CategoryName == "" {
			return 0, fmt.Errorf("import link %s: %w", link.URL, model.ErrInvalidCategory)
		}

		if model.ValidateShortID(link.ID) {
			link.ID = strings.ToLower(link.ID)
			var count int
			if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM links WHERE id = ?", link.ID); err != nil {
				return 0, fmt.Errorf("check existing link %s: %w", link.ID, err)
			}
			if count > 0 {
				continue
			}
		} else {
			link.ID = model.GenerateShortID()
		}

		c, ok := categories[link.CategoryName]
		if !ok {
			c, err = categoryByName(ctx, tx, link.CategoryName)
			if errors.Is(err, model.ErrNotFound) {
				c, err = model.NewCategory(link.CategoryName, time.Now())
				if err == nil {
					err = createCategory(ctx, tx, c)
				}
			}
			if err != nil {
				return 0, fmt.Errorf("import category %s: %w", link.CategoryName, err)
			}
			categories[link.CategoryName] = c
		}
		link.CategoryID = c.ID

		if err := insertLink(ctx, tx, link); err != nil {
			return 0, err
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return imported, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseSQLiteTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
