package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"prism-todos/domain"
	"prism-todos/view"
)

func (m *Model) View() string {
	var b strings.Builder
	st := m.styles

	theme := "light"
	if m.theme.Dark() {
		theme = "dark"
	}
	b.WriteString(st.title.Render("Todo List"))
	b.WriteString(st.muted.Render("  [" + theme + "]"))
	b.WriteString("\n\n")

	c := m.view.Counts()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		st.stat.Render(fmt.Sprintf("Total %d", c.Total)),
		st.stat.Render(fmt.Sprintf("Completed %d", c.Completed)),
		st.stat.Render(fmt.Sprintf("Incomplete %d", c.Incomplete)),
	))
	b.WriteString("\n")

	if m.mode == modeSearch {
		b.WriteString(m.search.View())
	} else if s := m.view.Search(); s != "" {
		b.WriteString(st.muted.Render("Search: " + s))
	} else {
		b.WriteString(st.muted.Render("Press / to search"))
	}
	b.WriteString("\n")
	b.WriteString(m.renderFilterTabs())
	b.WriteString("\n\n")

	b.WriteString(m.renderBody())
	b.WriteString("\n")

	switch m.mode {
	case modeConfirm:
		b.WriteString("\n" + st.prompt.Render(view.DeletePrompt) + st.muted.Render(" (y/n)") + "\n")
	case modeEdit:
		b.WriteString("\n" + m.renderEdit() + "\n")
	}

	for _, t := range m.visible {
		b.WriteString(m.renderToast(t) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderFilterTabs() string {
	modes := []struct {
		mode  domain.FilterMode
		label string
	}{
		{domain.FilterAll, "All"},
		{domain.FilterCompleted, "Completed"},
		{domain.FilterIncomplete, "Incomplete"},
	}
	current := m.view.Filter()
	parts := make([]string, len(modes))
	for i, fm := range modes {
		if fm.mode == current {
			parts[i] = m.styles.tabActive.Render(fm.label)
		} else {
			parts[i] = m.styles.tab.Render(fm.label)
		}
	}
	return strings.Join(parts, m.styles.muted.Render(" | "))
}

func (m *Model) renderBody() string {
	st := m.styles
	if !m.loaded || m.view.Loading() {
		return m.spinner.View() + " Loading todos..."
	}
	if m.view.Err() != "" {
		return st.toastError.Render(view.LoadFailed) + st.muted.Render("  (r to retry)")
	}
	items := m.view.PageItems()
	if len(items) == 0 {
		return st.muted.Render(m.view.EmptyMessage())
	}

	lines := make([]string, 0, len(items)+2)
	for i, t := range items {
		lines = append(lines, m.renderItem(i, t))
	}

	prev, next := "‹ prev", "next ›"
	if !m.view.CanPrev() {
		prev = st.muted.Render(prev)
	}
	if !m.view.CanNext() {
		next = st.muted.Render(next)
	}
	lines = append(lines, "", fmt.Sprintf("%s  Page %d of %d  %s", prev, m.view.Page(), m.view.PageCount(), next))
	return strings.Join(lines, "\n")
}

func (m *Model) renderItem(i int, t domain.Task) string {
	st := m.styles
	cursor := "  "
	if i == m.cursor {
		cursor = st.selected.Render("> ")
	}
	check := "[ ]"
	title := t.Title
	if t.Completed {
		check = "[x]"
		title = st.done.Render(title)
	}
	line := fmt.Sprintf("%s%s %s", cursor, check, title)
	if i == m.grabbed {
		line = st.grabbed.Render(line) + st.muted.Render("  (moving)")
	}
	return line
}

func (m *Model) renderEdit() string {
	st := m.styles
	check := "[ ]"
	if m.edit != nil && m.edit.Completed() {
		check = "[x]"
	}
	body := strings.Join([]string{
		st.title.Render("Edit Todo"),
		m.title.View(),
		check + " Completed",
		st.muted.Render("enter save · esc cancel · tab toggle completed"),
	}, "\n")
	return st.panel.Render(body)
}

func (m *Model) renderToast(t toast) string {
	switch t.kind {
	case toastSuccess:
		return m.styles.toastSuccess.Render("✓ " + t.text)
	case toastError:
		return m.styles.toastError.Render("✗ " + t.text)
	default:
		return m.styles.toastInfo.Render("• " + t.text)
	}
}
