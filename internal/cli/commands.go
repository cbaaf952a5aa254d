package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bunchhieng/sticky/internal/app"
	"github.com/bunchhieng/sticky/internal/collection"
	"github.com/bunchhieng/sticky/internal/model"
	"github.com/charmbracelet/x/ansi"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// ErrNoCategorySelected is returned by commands that work on the selected category.
var ErrNoCategorySelected = errors.New("no category selected (use --category or default_category)")

// ErrDescWithoutSort is returned by List when a direction is given without a sort key.
var ErrDescWithoutSort = errors.New("--desc needs --sort name or --sort date")

// Commands handles all CLI command execution.
type Commands struct {
	app *app.App
	out io.Writer
	in  *bufio.Reader
}

// NewCommands creates a new Commands instance writing to out and reading confirmations from in.
func NewCommands(a *app.App, out io.Writer, in io.Reader) *Commands {
	return &Commands{app: a, out: out, in: bufio.NewReader(in)}
}

func (c *Commands) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Commands) requireCategory() error {
	if c.app.Manager.Category() == nil {
		return ErrNoCategorySelected
	}
	return nil
}

// suggestID suggests a similar ID from the working set.
func (c *Commands) suggestID(id string) string {
	bestMatch := ""
	minDistance := len(id) + 1
	for _, link := range c.app.Manager.Items() {
		distance := levenshteinDistance(id, link.ID)
		if distance < minDistance && distance <= 3 {
			minDistance = distance
			bestMatch = link.ID
		}
	}
	return bestMatch
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	cur := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		cur[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(s2)]
}

func (c *Commands) notFound(id string) error {
	msg := fmt.Sprintf("link %s%s%s not found", colorBold, id, colorReset)
	if suggestion := c.suggestID(id); suggestion != "" {
		msg += fmt.Sprintf(" - %sDid you mean:%s %s%s%s?", colorYellow, colorReset, colorBold, suggestion, colorReset)
	}
	return errors.New(msg)
}

// Add adds a new link to the selected category.
func (c *Commands) Add(ctx context.Context, rawURL, title string) error {
	link, err := c.app.Manager.Add(ctx, title, rawURL)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			return verr.Err
		}
		return fmt.Errorf("add link: %w", err)
	}
	c.printf("%sAdded%s link %s%s%s to %s: %s%s%s\n",
		colorGreen, colorReset, colorBold, link.ID, colorReset, link.CategoryName, colorCyan, link.URL, colorReset)
	return nil
}

// ListOptions controls ordering and search for List.
type ListOptions struct {
	Sort       collection.SortOrder
	Descending bool
	Search     string
}

// List prints the selected category's links.
func (c *Commands) List(ctx context.Context, opts ListOptions) error {
	if opts.Descending && opts.Sort == collection.SortNone {
		return ErrDescWithoutSort
	}
	if err := c.requireCategory(); err != nil {
		return err
	}
	m := c.app.Manager
	if opts.Sort != collection.SortNone {
		m.SetSort(opts.Sort)
		// Choosing the same key again flips the direction.
		if opts.Descending {
			m.SetSort(opts.Sort)
		}
	}
	if opts.Search != "" {
		m.SetFilter(opts.Search)
	}

	links := m.View()
	if len(links) == 0 {
		fmt.Fprintln(c.out, "No links found.")
		return nil
	}
	c.printLinksTable(links)
	return nil
}

// Open hands a link to the browser.
func (c *Commands) Open(ctx context.Context, id string) error {
	link, err := c.app.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return c.notFound(id)
		}
		return fmt.Errorf("get link: %w", err)
	}
	if err := c.app.Opener.Open(link.URL); err != nil {
		return err
	}
	c.printf("%sOpened:%s %s%s%s\n", colorGreen, colorReset, colorCyan, link.URL, colorReset)
	return nil
}

// Remove deletes links from the selected category, asking for confirmation unless yes is set.
func (c *Commands) Remove(ctx context.Context, yes bool, ids ...string) error {
	if len(ids) == 0 {
		return fmt.Errorf("at least one ID required")
	}
	if err := c.requireCategory(); err != nil {
		return err
	}

	var deleted, failed []string
	for _, id := range ids {
		req, err := c.app.Manager.RequestDelete(strings.ToLower(id))
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				failed = append(failed, c.notFound(id).Error())
			} else {
				failed = append(failed, fmt.Sprintf("%s (%v)", id, err))
			}
			continue
		}

		if !yes && !c.confirm(req) {
			c.app.Manager.CancelDelete(req.Token)
			c.printf("%sKept%s %s\n", colorDim, colorReset, req.Link.DisplayTitle())
			continue
		}

		if err := c.app.Manager.ConfirmDelete(ctx, req.Token); err != nil {
			failed = append(failed, fmt.Sprintf("%s (%v)", id, err))
			continue
		}
		deleted = append(deleted, req.Link.ID)
	}

	switch len(deleted) {
	case 0:
	case 1:
		c.printf("%sDeleted%s link %s%s%s.\n", colorRed, colorReset, colorBold, deleted[0], colorReset)
	default:
		c.printf("%sDeleted%s %d link(s): %s%s%s\n", colorRed, colorReset, len(deleted), colorBold, strings.Join(deleted, ", "), colorReset)
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to delete: %s", strings.Join(failed, ", "))
	}
	return nil
}

func (c *Commands) confirm(req *collection.DeleteRequest) bool {
	c.printf("%sAre you sure you want to delete this item?%s %s [y/N]: ", colorBold, colorReset, req.Prompt())
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// CategoryAdd creates a category.
func (c *Commands) CategoryAdd(ctx context.Context, name string) error {
	cat, err := c.app.Store.CreateCategory(ctx, name)
	if err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	c.printf("%sAdded%s category %s%s%s\n", colorGreen, colorReset, colorBold, cat.Name, colorReset)
	return nil
}

// CategoryList prints all categories.
func (c *Commands) CategoryList(ctx context.Context) error {
	categories, err := c.app.Store.Categories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 {
		fmt.Fprintln(c.out, "No categories found.")
		return nil
	}
	selected := c.app.Manager.Category()
	for _, cat := range categories {
		marker := " "
		if selected != nil && selected.ID == cat.ID {
			marker = "*"
		}
		c.printf("%s %s\n", marker, cat.Name)
	}
	return nil
}

// CategoryRemove deletes a category and its links.
func (c *Commands) CategoryRemove(ctx context.Context, name string) error {
	if err := c.app.Store.DeleteCategory(ctx, name); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("category %s%s%s not found", colorBold, name, colorReset)
		}
		return fmt.Errorf("delete category: %w", err)
	}
	c.printf("%sDeleted%s category %s%s%s and its links.\n", colorRed, colorReset, colorBold, name, colorReset)
	return nil
}

// Export writes all links as JSON.
func (c *Commands) Export(ctx context.Context, w io.Writer) error {
	links, err := c.app.Store.Export(ctx)
	if err != nil {
		return fmt.Errorf("export links: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(links); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// Import reads links from a JSON file and reloads the working set.
func (c *Commands) Import(ctx context.Context, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	var links []*model.Link
	if err := json.NewDecoder(file).Decode(&links); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}

	n, err := c.app.Store.Import(ctx, links)
	if err != nil {
		return fmt.Errorf("import links: %w", err)
	}
	if err := c.app.Manager.Reload(ctx); err != nil {
		return err
	}

	c.printf("%sImported%s %s%d%s link(s), skipped %d.\n", colorGreen, colorReset, colorBold, n, colorReset, len(links)-n)
	return nil
}

// Version prints the version string.
func (c *Commands) Version(version string) {
	c.printf("sticky version %s\n", version)
}

const (
	maxURLLen   = 60
	maxTitleLen = 40
)

func (c *Commands) printLinksTable(links []*model.Link) {
	colIDLen := len("ID")
	colTitleLen := len("TITLE")
	colURLLen := len("URL")
	colCreatedLen := len("CREATED")

	for _, link := range links {
		colIDLen = max(colIDLen, len(link.ID))
		colTitleLen = max(colTitleLen, min(ansi.StringWidth(link.Title), maxTitleLen))
		colURLLen = max(colURLLen, min(ansi.StringWidth(link.URL), maxURLLen))
		colCreatedLen = max(colCreatedLen, len(formatTime(link.CreatedAt)))
	}

	// One space of padding either side.
	colIDLen += 2
	colTitleLen += 2
	colURLLen += 2
	colCreatedLen += 2

	totalWidth := colIDLen + colTitleLen + colURLLen + colCreatedLen + 3

	fmt.Fprintf(c.out, "%s┌%s┐%s\n", colorDim, strings.Repeat("─", totalWidth), colorReset)
	fmt.Fprintf(c.out, "%s│%s %s%-*s%s │ %s%-*s%s │ %s%-*s%s │ %s%-*s%s %s│%s\n",
		colorDim, colorReset,
		colorBold, colIDLen-2, "ID", colorReset,
		colorBold, colTitleLen-2, "TITLE", colorReset,
		colorBold, colURLLen-2, "URL", colorReset,
		colorBold, colCreatedLen-2, "CREATED", colorReset,
		colorDim, colorReset)
	fmt.Fprintf(c.out, "%s├%s┼%s┼%s┼%s┤%s\n",
		colorDim,
		strings.Repeat("─", colIDLen),
		strings.Repeat("─", colTitleLen),
		strings.Repeat("─", colURLLen),
		strings.Repeat("─", colCreatedLen),
		colorReset)

	for _, link := range links {
		fmt.Fprintf(c.out, "%s│%s %s%-*s%s │ %s │ %s%s%s │ %s%-*s%s %s│%s\n",
			colorDim, colorReset,
			colorBold+colorCyan, colIDLen-2, link.ID, colorReset,
			padCell(link.Title, colTitleLen-2),
			colorCyan, padCell(link.URL, colURLLen-2), colorReset,
			colorDim, colCreatedLen-2, formatTime(link.CreatedAt), colorReset,
			colorDim, colorReset)
	}

	fmt.Fprintf(c.out, "%s└%s┘%s\n", colorDim, strings.Repeat("─", totalWidth), colorReset)
}

// padCell truncates s to width terminal cells and pads it with spaces to exactly width.
func padCell(s string, width int) string {
	s = ansi.Truncate(s, width, "...")
	return s + strings.Repeat(" ", max(width-ansi.StringWidth(s), 0))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
