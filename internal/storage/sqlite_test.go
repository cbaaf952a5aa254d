package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bunchhieng/sticky/internal/model"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	t.Helper()
	storage, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func mustCategory(t *testing.T, s *SQLiteStorage, name string) *model.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateCategory(%q) failed: %v", name, err)
	}
	return c
}

func TestInsertAndFetch(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	work := mustCategory(t, s, "Work")
	home := mustCategory(t, s, "Home")

	now := time.Now()
	s.Insert(model.NewLink("Docs", "https://go.dev/doc", work, now))
	s.Insert(model.NewLink("Mail", "https://mail.example.com", work, now.Add(time.Second)))
	s.Insert(model.NewLink("Recipes", "https://food.example.com", home, now))

	// Nothing is visible before Save.
	links, err := s.Fetch(ctx, Predicate{CategoryName: "Work"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("Expected staged links to be invisible, got %d", len(links))
	}

	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	links, err = s.Fetch(ctx, Predicate{CategoryName: "Work"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(links))
	}
	if links[0].Title != "Docs" || links[1].Title != "Mail" {
		t.Errorf("Expected insertion order [Docs Mail], got [%s %s]", links[0].Title, links[1].Title)
	}
	if links[0].CategoryName != "Work" {
		t.Errorf("Expected category name Work, got %s", links[0].CategoryName)
	}
	if d := links[0].CreatedAt.Sub(now); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("Expected CreatedAt to round-trip, off by %v", d)
	}
}

func TestFetchEmptyCategoryName(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	work := mustCategory(t, s, "Work")
	s.Insert(model.NewLink("Docs", "https://go.dev/doc", work, time.Now()))
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	links, err := s.Fetch(ctx, Predicate{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("Expected empty predicate to match nothing, got %d links", len(links))
	}
}

func TestDelete(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	work := mustCategory(t, s, "Work")
	link := model.NewLink("Docs", "https://go.dev/doc", work, time.Now())
	s.Insert(link)
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	s.Delete(link)
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save (delete) failed: %v", err)
	}

	_, err := s.Get(ctx, link.ID)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestSaveFailureKeepsPending(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	work := mustCategory(t, s, "Work")

	good := model.NewLink("Docs", "https://go.dev/doc", work, time.Now())
	missing := &model.Link{ID: model.GenerateShortID(), Title: "Ghost", URL: "https://ghost.example.com", CategoryID: work.ID}

	s.Insert(good)
	s.Delete(missing)
	if err := s.Save(ctx); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound from Save, got %v", err)
	}

	// The transaction rolled back, so the good insert is not visible either.
	links, _ := s.Fetch(ctx, Predicate{CategoryName: "Work"})
	if len(links) != 0 {
		t.Errorf("Expected rollback, got %d links", len(links))
	}

	s.Discard()
	if err := s.Save(ctx); err != nil {
		t.Errorf("Save after Discard should be a no-op, got %v", err)
	}
}

func TestInsertUnknownCategory(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	orphan := &model.Link{
		ID:         model.GenerateShortID(),
		Title:      "Orphan",
		URL:        "https://example.com",
		CategoryID: model.GenerateShortID(),
		CreatedAt:  time.Now(),
	}
	s.Insert(orphan)
	if err := s.Save(ctx); err == nil {
		t.Error("Expected foreign key violation for unknown category")
	}
	s.Discard()
}

func TestGetNotFound(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "aaaaaaaaaaaaaaaaaaaaaaaaaa")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if _, err := s.Get(ctx, "nope"); err == nil {
		t.Error("Expected error for malformed ID")
	}
}

func TestCategories(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	mustCategory(t, s, "Work")
	mustCategory(t, s, "Home")

	if _, err := s.CreateCategory(ctx, "Work"); !errors.Is(err, model.ErrDuplicateCategory) {
		t.Errorf("Expected ErrDuplicateCategory, got %v", err)
	}
	if _, err := s.CreateCategory(ctx, " "); !errors.Is(err, model.ErrInvalidCategory) {
		t.Errorf("Expected ErrInvalidCategory, got %v", err)
	}

	categories, err := s.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if len(categories) != 2 || categories[0].Name != "Home" || categories[1].Name != "Work" {
		t.Errorf("Expected [Home Work], got %v", categories)
	}

	c, err := s.CategoryByName(ctx, "Work")
	if err != nil {
		t.Fatalf("CategoryByName failed: %v", err)
	}
	if c.Name != "Work" {
		t.Errorf("Expected Work, got %s", c.Name)
	}

	if _, err := s.CategoryByName(ctx, "Nope"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCategoryCascades(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	work := mustCategory(t, s, "Work")
	link := model.NewLink("Docs", "https://go.dev/doc", work, time.Now())
	s.Insert(link)
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := s.DeleteCategory(ctx, "Work"); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	if _, err := s.Get(ctx, link.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected link to be deleted with its category, got %v", err)
	}
	if err := s.DeleteCategory(ctx, "Work"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for second delete, got %v", err)
	}
}

func TestExportImport(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	work := mustCategory(t, s, "Work")
	home := mustCategory(t, s, "Home")

	s.Insert(model.NewLink("Docs", "https://go.dev/doc", work, time.Now()))
	s.Insert(model.NewLink("Recipes", "https://food.example.com", home, time.Now()))
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	exported, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(exported) != 2 {
		t.Fatalf("Expected 2 exported links, got %d", len(exported))
	}
	if exported[0].CategoryName != "Home" {
		t.Errorf("Expected export ordered by category, got %s first", exported[0].CategoryName)
	}

	s2 := setupTestDB(t)
	n, err := s2.Import(ctx, exported)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 imported links, got %d", n)
	}

	// Re-importing the same IDs is a no-op.
	n, err = s2.Import(ctx, exported)
	if err != nil {
		t.Fatalf("Second import failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 links on re-import, got %d", n)
	}

	links, err := s2.Fetch(ctx, Predicate{CategoryName: "Work"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(links) != 1 || links[0].Title != "Docs" {
		t.Errorf("Expected [Docs] in Work after import, got %v", links)
	}
}

func TestImportRequiresCategory(t *testing.T) {
	s := setupTestDB(t)
	_, err := s.Import(context.Background(), []*model.Link{{Title: "x", URL: "https://example.com"}})
	if !errors.Is(err, model.ErrInvalidCategory) {
		t.Errorf("Expected ErrInvalidCategory, got %v", err)
	}
}

func TestImportTrimsCategoryName(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	work := mustCategory(t, s, "Work")

	n, err := s.Import(ctx, []*model.Link{
		{Title: "Docs", URL: "https://go.dev/doc", CategoryName: " Work "},
		{Title: "Blog", URL: "https://go.dev/blog", CategoryName: "Work\t"},
		{Title: "Blank", URL: "https://example.com", CategoryName: "   "},
	})
	if !errors.Is(err, model.ErrInvalidCategory) {
		t.Fatalf("Expected ErrInvalidCategory for blank category, got n=%d err=%v", n, err)
	}

	n, err = s.Import(ctx, []*model.Link{
		{Title: "Docs", URL: "https://go.dev/doc", CategoryName: " Work "},
		{Title: "Blog", URL: "https://go.dev/blog", CategoryName: "Work\t"},
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 imported links, got %d", n)
	}

	links, err := s.Fetch(ctx, Predicate{CategoryName: "Work"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("Expected 2 links in Work, got %d", len(links))
	}
	for _, l := range links {
		if l.CategoryID != work.ID || l.CategoryName != "Work" {
			t.Errorf("Expected link %s in existing Work category, got %s/%q", l.Title, l.CategoryID, l.CategoryName)
		}
	}

	categories, err := s.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if len(categories) != 1 {
		t.Errorf("Expected no new category, got %d categories", len(categories))
	}
}

func TestFileDatabaseReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "links.db")
	ctx := context.Background()

	s, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("Failed to create file storage: %v", err)
	}
	work, err := s.CreateCategory(ctx, "Work")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	s.Insert(model.NewLink("Docs", "https://go.dev/doc", work, time.Now()))
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected database file to exist: %v", err)
	}

	// Migrations must be idempotent across reopen.
	s, err = NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer s.Close()

	links, err := s.Fetch(ctx, Predicate{CategoryName: "Work"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(links) != 1 {
		t.Errorf("Expected 1 link after reopen, got %d", len(links))
	}
}
