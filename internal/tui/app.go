package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bunchhieng/sticky/internal/app"
	"github.com/bunchhieng/sticky/internal/collection"
	"github.com/bunchhieng/sticky/internal/model"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const statusTimeout = 3 * time.Second

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeAdd
	modeConfirmDelete
)

type appModel struct {
	app *app.App
	ctx context.Context

	categories []*model.Category
	selected   int
	mode       mode

	search     textinput.Model
	titleInput textinput.Model
	urlInput   textinput.Model
	addMessage string

	pendingDelete *collection.DeleteRequest

	width     int
	height    int
	statusMsg string
	statusSeq int
}

type categoriesMsg struct {
	categories []*model.Category
	err        error
}

type statusMsg struct {
	message string
}

type clearStatusMsg struct {
	seq int
}

func initialModel(ctx context.Context, a *app.App) appModel {
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search titles"

	title := textinput.New()
	title.Placeholder = "Add title for webpage"
	title.CharLimit = 200
	title.Width = 50

	link := textinput.New()
	link.Placeholder = "Add link for webpage"
	link.CharLimit = 2000
	link.Width = 50

	return appModel{
		app:        a,
		ctx:        ctx,
		search:     search,
		titleInput: title,
		urlInput:   link,
		width:      80,
		height:     24,
	}
}

func (m appModel) Init() tea.Cmd {
	return loadCategories(m.ctx, m.app)
}

func loadCategories(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		categories, err := a.Store.Categories(ctx)
		return categoriesMsg{categories: categories, err: err}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case categoriesMsg:
		if msg.err != nil {
			return m, m.setStatus(fmt.Sprintf("Error: %v", msg.err))
		}
		m.categories = msg.categories
		return m, nil

	case statusMsg:
		return m, m.setStatus(msg.message)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.handleSearchInput(msg)
		case modeAdd:
			return m.handleAddInput(msg)
		case modeConfirmDelete:
			return m.handleDeleteConfirmation(msg)
		}
		return m.handleNormalKey(msg)
	}

	return m, nil
}

func (m *appModel) setStatus(message string) tea.Cmd {
	m.statusSeq++
	m.statusMsg = message
	seq := m.statusSeq
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m appModel) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	manager := m.app.Manager

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		m.moveDown()

	case "k", "up":
		m.moveUp()

	case "g", "home":
		m.selected = 0

	case "G", "end":
		m.selected = max(manager.Len()-1, 0)

	case "o", "enter":
		return m, m.openLink()

	case "a":
		return m, m.startAdd()

	case "x", "r":
		return m, m.promptDelete()

	case "/":
		m.mode = modeSearch
		m.search.SetValue(manager.FilterText())
		return m, m.search.Focus()

	case "esc":
		manager.ClearFilter()
		m.search.SetValue("")
		m.clampSelection()

	case "n":
		manager.SetSort(collection.SortByName)
		return m, m.setStatus("Sorted by " + sortLabel(manager.Sort()))

	case "c":
		manager.SetSort(collection.SortByDateCreated)
		return m, m.setStatus("Sorted by " + sortLabel(manager.Sort()))

	case "tab":
		return m, m.cycleCategory()

	case "ctrl+l":
		if err := manager.Reload(m.ctx); err != nil {
			return m, m.setStatus(fmt.Sprintf("Error: %v", err))
		}
		m.clampSelection()
		return m, loadCategories(m.ctx, m.app)

	case "?":
		return m, m.setStatus("q quit  j/k move  o open  a add  x delete  / search  n name  c date  tab category")
	}

	return m, nil
}

func (m *appModel) moveDown() {
	if m.selected < m.app.Manager.Len()-1 {
		m.selected++
	}
}

func (m *appModel) moveUp() {
	if m.selected > 0 {
		m.selected--
	}
}

func (m *appModel) clampSelection() {
	if n := m.app.Manager.Len(); m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *appModel) cycleCategory() tea.Cmd {
	if len(m.categories) == 0 {
		return m.setStatus("No categories. Create one with 'sticky category add <name>'")
	}

	next := 0
	if current := m.app.Manager.Category(); current != nil {
		for i, c := range m.categories {
			if c.ID == current.ID {
				next = (i + 1) % len(m.categories)
				break
			}
		}
	}

	m.selected = 0
	if err := m.app.Manager.SelectCategory(m.ctx, m.categories[next]); err != nil {
		return m.setStatus(fmt.Sprintf("Error: %v", err))
	}
	m.clampSelection()
	return nil
}

func (m appModel) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	manager := m.app.Manager

	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.search.Blur()
		m.search.SetValue("")
		manager.ClearFilter()
		m.clampSelection()
		return m, nil

	case "enter":
		m.mode = modeNormal
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		manager.SetFilter(m.search.Value())
		m.selected = 0
	}
	return m, cmd
}

func (m *appModel) startAdd() tea.Cmd {
	if m.app.Manager.Category() == nil {
		return m.setStatus("Select a category first (tab)")
	}
	m.mode = modeAdd
	m.addMessage = ""
	m.titleInput.SetValue("")
	m.urlInput.SetValue("")
	m.urlInput.Blur()
	return m.titleInput.Focus()
}

func (m appModel) handleAddInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.titleInput.Blur()
		m.urlInput.Blur()
		return m, nil

	case "tab", "shift+tab", "up", "down":
		if m.titleInput.Focused() {
			m.titleInput.Blur()
			return m, m.urlInput.Focus()
		}
		m.urlInput.Blur()
		return m, m.titleInput.Focus()

	case "enter":
		return m.submitAdd()
	}

	var cmd tea.Cmd
	if m.titleInput.Focused() {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.urlInput, cmd = m.urlInput.Update(msg)
	}
	return m, cmd
}

func (m appModel) submitAdd() (tea.Model, tea.Cmd) {
	link, err := m.app.Manager.Add(m.ctx, m.titleInput.Value(), m.urlInput.Value())

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		// Keep the form open with what was typed and point at the bad field.
		m.addMessage = verr.Err.Error()
		if verr.Field == "title" {
			m.urlInput.Blur()
			return m, m.titleInput.Focus()
		}
		m.titleInput.Blur()
		return m, m.urlInput.Focus()
	}

	m.mode = modeNormal
	m.titleInput.Blur()
	m.urlInput.Blur()
	if err != nil {
		return m, m.setStatus(fmt.Sprintf("Error: %v", err))
	}
	m.clampSelection()
	return m, m.setStatus("Added " + link.Title)
}

func (m *appModel) promptDelete() tea.Cmd {
	link := m.app.Manager.At(m.selected)
	if link == nil {
		return nil
	}
	req, err := m.app.Manager.RequestDelete(link.ID)
	if err != nil {
		return m.setStatus(fmt.Sprintf("Error: %v", err))
	}
	m.pendingDelete = req
	m.mode = modeConfirmDelete
	return nil
}

func (m appModel) handleDeleteConfirmation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	req := m.pendingDelete
	switch msg.String() {
	case "y", "Y":
		m.mode = modeNormal
		m.pendingDelete = nil
		if err := m.app.Manager.ConfirmDelete(m.ctx, req.Token); err != nil {
			return m, m.setStatus(fmt.Sprintf("Error: %v", err))
		}
		m.clampSelection()
		return m, m.setStatus("Deleted " + req.Link.DisplayTitle())

	case "n", "N", "esc":
		m.mode = modeNormal
		m.pendingDelete = nil
		m.app.Manager.CancelDelete(req.Token)
		return m, nil
	}
	return m, nil
}

func (m *appModel) openLink() tea.Cmd {
	link := m.app.Manager.At(m.selected)
	if link == nil {
		return nil
	}
	opener := m.app.Opener
	return func() tea.Msg {
		if err := opener.Open(link.URL); err != nil {
			return statusMsg{fmt.Sprintf("Error: %v", err)}
		}
		return statusMsg{fmt.Sprintf("Opened: %s", link.URL)}
	}
}

// Run starts the TUI on the manager's selected category.
func Run(ctx context.Context, a *app.App) error {
	p := tea.NewProgram(initialModel(ctx, a), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
