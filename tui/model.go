package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"prism-todos/domain"
	"prism-todos/view"
)

type uiMode int

const (
	modeList uiMode = iota
	modeSearch
	modeEdit
	modeConfirm
)

// Options configures the terminal UI.
type Options struct {
	PageSize int
	Dark     bool
	// Timeout bounds every store call issued by the UI. Zero means no bound.
	Timeout time.Duration
	Logger  *log.Logger
}

type mountedMsg struct{ err error }

type actionDoneMsg struct {
	op  string
	err error
}

type toastExpiredMsg struct{ id int }

// storeChangedMsg reports that the store's collection or flags changed,
// including optimistic changes made while a remote call is still pending.
type storeChangedMsg struct{}

// Model is the bubbletea model for the task list and its edit dialog.
type Model struct {
	view      *view.ListView
	theme     *view.ThemeState
	toasts    *toaster
	logger    *log.Logger
	timeout   time.Duration
	changes   chan struct{}
	done      chan struct{}
	unsub     func()

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	search  textinput.Model
	title   textinput.Model
	styles  styles

	mode      uiMode
	cursor    int
	grabbed   int
	confirmID int
	loaded    bool
	visible   []toast
	width     int

	edit        *view.EditView
	pendingSave *domain.Task
}

// New builds a model over store. The store is closed when the UI quits.
func New(store view.TaskStore, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	toasts := &toaster{}
	changes := make(chan struct{}, 1)
	unsub := store.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	s := spinner.New()
	s.Spinner = spinner.Dot

	search := textinput.New()
	search.Placeholder = "Search todos..."
	search.CharLimit = 100
	search.Width = 40

	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200
	title.Width = 50

	theme := view.NewThemeState(opts.Dark)
	return &Model{
		// Deletion is confirmed by the modal prompt and goes through
		// DeleteConfirmed, so the view's own confirmation always declines.
		view:      view.NewListView(store, toasts, view.ConfirmFunc(func(string) bool { return false }), opts.PageSize),
		theme:     theme,
		toasts:    toasts,
		logger:    logger,
		timeout:   opts.Timeout,
		changes:   changes,
		done:      make(chan struct{}),
		unsub:     unsub,
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   s,
		search:    search,
		title:     title,
		styles:    newStyles(theme.Dark()),
		grabbed:   -1,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForChange, m.call("mount", func(ctx context.Context) error {
		return m.view.Mount(ctx)
	}, true))
}

// waitForChange blocks until the store signals a change or the UI quits.
func (m *Model) waitForChange() tea.Msg {
	select {
	case <-m.changes:
		return storeChangedMsg{}
	case <-m.done:
		return nil
	}
}

func (m *Model) quit() tea.Cmd {
	m.unsub()
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	m.view.Unmount()
	return tea.Quit
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case storeChangedMsg:
		m.view.Refresh()
		m.clampCursor()
		m.rebindEdit()
		return m, m.waitForChange
	case spinner.TickMsg:
		if m.loaded && !m.view.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case mountedMsg:
		m.loaded = true
		if msg.err != nil {
			m.logger.WithError(msg.err).Warn("todos.tui.load_failed")
		}
		m.clampCursor()
		return m, m.flushToasts()
	case actionDoneMsg:
		if msg.err != nil {
			m.logger.WithFields(log.Fields{"op": msg.op, "error": msg.err.Error()}).Debug("todos.tui.action_failed")
		}
		m.clampCursor()
		m.rebindEdit()
		return m, m.flushToasts()
	case toastExpiredMsg:
		kept := m.visible[:0]
		for _, t := range m.visible {
			if t.id != msg.id {
				kept = append(kept, t)
			}
		}
		m.visible = kept
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m, m.updateSearch(msg)
		case modeEdit:
			return m, m.updateEdit(msg)
		case modeConfirm:
			return m, m.updateConfirm(msg)
		default:
			return m, m.updateList(msg)
		}
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case msg.Type == tea.KeyEsc:
		if m.grabbed >= 0 {
			m.view.Drag(m.grabbed, nil)
			m.grabbed = -1
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.view.PageItems())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.PrevPage):
		if m.view.PrevPage() {
			m.dropGrab()
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.NextPage):
		if m.view.NextPage() {
			m.dropGrab()
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.view.Search())
		m.search.CursorEnd()
		return m.search.Focus()
	case key.Matches(msg, m.keys.Filter):
		m.view.SetFilter(nextFilter(m.view.Filter()))
		m.clampCursor()
	case key.Matches(msg, m.keys.Theme):
		m.styles = newStyles(m.theme.Toggle())
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Retry):
		if m.view.Loading() {
			return nil
		}
		// Keep the spinner alive until the reload reports back.
		m.loaded = false
		return tea.Batch(m.spinner.Tick, m.call("reload", m.view.Reload, true))
	case key.Matches(msg, m.keys.Grab):
		if _, ok := m.selected(); !ok {
			return nil
		}
		if m.grabbed < 0 {
			m.grabbed = m.cursor
			return nil
		}
		dest := m.cursor
		m.view.Drag(m.grabbed, &dest)
		m.grabbed = -1
		return m.flushToasts()
	case key.Matches(msg, m.keys.Toggle):
		task, ok := m.selected()
		if !ok {
			return nil
		}
		return m.call("toggle", func(ctx context.Context) error {
			return m.view.ToggleComplete(ctx, task)
		}, false)
	case key.Matches(msg, m.keys.Edit):
		task, ok := m.selected()
		if !ok {
			return nil
		}
		m.openEdit(task)
		return m.title.Focus()
	case key.Matches(msg, m.keys.Delete):
		task, ok := m.selected()
		if !ok {
			return nil
		}
		m.confirmID = task.ID
		m.mode = modeConfirm
	}
	return nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeList
		m.search.Blur()
		return nil
	case tea.KeyEsc:
		m.mode = modeList
		m.search.Blur()
		m.search.SetValue("")
		m.view.SetSearch("")
		m.clampCursor()
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.view.SetSearch(m.search.Value())
	m.clampCursor()
	return cmd
}

func (m *Model) updateEdit(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.edit.Cancel()
		return nil
	case tea.KeyTab:
		m.edit.ToggleCompleted()
		return nil
	case tea.KeyEnter:
		m.edit.SetTitle(m.title.Value())
		m.edit.Save()
		if m.pendingSave == nil {
			return nil
		}
		task := *m.pendingSave
		m.pendingSave = nil
		return m.call("save", func(ctx context.Context) error {
			return m.view.SaveEdit(ctx, task)
		}, false)
	}
	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	m.edit.SetTitle(m.title.Value())
	return cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	id := m.confirmID
	switch msg.String() {
	case "y", "Y", "enter":
		m.mode = modeList
		return m.call("delete", func(ctx context.Context) error {
			return m.view.DeleteConfirmed(ctx, id)
		}, false)
	case "n", "N", "esc":
		m.mode = modeList
	}
	return nil
}

func (m *Model) openEdit(task domain.Task) {
	m.edit = view.NewEditView(task, m.closeEdit, m.queueSave)
	m.title.SetValue(task.Title)
	m.title.CursorEnd()
	m.mode = modeEdit
}

func (m *Model) closeEdit() {
	m.title.Blur()
	m.edit = nil
	m.mode = modeList
}

func (m *Model) queueSave(task domain.Task) {
	m.pendingSave = &task
}

// rebindEdit keeps an open edit dialog in sync with the task it was opened
// for after the collection changes underneath it.
func (m *Model) rebindEdit() {
	if m.edit == nil {
		return
	}
	id := m.edit.Task().ID
	for _, t := range m.view.DisplayOrder() {
		if t.ID == id {
			if t != m.edit.Task() {
				m.edit.Bind(t)
				m.title.SetValue(t.Title)
			}
			return
		}
	}
}

func (m *Model) call(op string, fn func(ctx context.Context) error, mount bool) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		err := fn(ctx)
		if mount {
			return mountedMsg{err: err}
		}
		return actionDoneMsg{op: op, err: err}
	}
}

func (m *Model) flushToasts() tea.Cmd {
	fresh := m.toasts.drain()
	if len(fresh) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(fresh))
	for _, t := range fresh {
		m.visible = append(m.visible, t)
		id := t.id
		cmds = append(cmds, tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} }))
	}
	return tea.Batch(cmds...)
}

func (m *Model) selected() (domain.Task, bool) {
	items := m.view.PageItems()
	if m.cursor < 0 || m.cursor >= len(items) {
		return domain.Task{}, false
	}
	return items[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.view.PageItems())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.grabbed >= n {
		m.grabbed = -1
	}
}

func (m *Model) dropGrab() {
	m.grabbed = -1
}

func nextFilter(mode domain.FilterMode) domain.FilterMode {
	switch mode {
	case domain.FilterAll:
		return domain.FilterCompleted
	case domain.FilterCompleted:
		return domain.FilterIncomplete
	default:
		return domain.FilterAll
	}
}
