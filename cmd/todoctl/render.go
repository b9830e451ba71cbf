package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/todo"
	"todo-manager/backend/internal/view"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Bold(true).Width(12)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	statusStyles = map[models.Status]lipgloss.Style{
		models.StatusTodo:       lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		models.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
	}
)

func styledStatus(s models.Status) string {
	if st, ok := statusStyles[s]; ok {
		return st.Render(string(s))
	}
	return string(s)
}

func styledPriority(p models.Priority) string {
	if st, ok := priorityStyles[p]; ok {
		return st.Render(string(p))
	}
	return string(p)
}

func dueText(t *models.Todo, now time.Time) string {
	if t.DueDate == nil {
		return mutedStyle.Render("-")
	}
	s := t.DueDate.UTC().Format(todo.DateLayout)
	if todo.IsOverdue(t, now) {
		return overdueStyle.Render(s + " (overdue)")
	}
	return s
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderTodos(w io.Writer, todos []*models.Todo, now time.Time) {
	if len(todos) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("No todos found."))
		return
	}

	t := newTable().Headers("ID", "TITLE", "STATUS", "PRIORITY", "CATEGORY", "DUE")
	for _, td := range todos {
		t.Row(td.ID, td.Title, styledStatus(td.Status), styledPriority(td.Priority), td.Category, dueText(td, now))
	}
	_, _ = fmt.Fprintln(w, t.Render())
}

func renderDetail(w io.Writer, t *models.Todo, now time.Time) {
	line := func(label, value string) {
		_, _ = fmt.Fprintln(w, labelStyle.Render(label)+value)
	}
	line("ID", t.ID)
	line("Title", t.Title)
	if t.Description != nil {
		line("Description", *t.Description)
	}
	line("Status", styledStatus(t.Status))
	line("Completed", strconv.FormatBool(t.Completed))
	line("Priority", styledPriority(t.Priority))
	line("Category", t.Category)
	line("Due", dueText(t, now))
	line("Created", t.CreatedAt.Local().Format(time.DateTime))
	line("Updated", t.UpdatedAt.Local().Format(time.DateTime))
}

func renderStats(w io.Writer, st view.Stats, categories []view.CategoryCount) {
	summary := newTable().Headers("TOTAL", "TODO", "IN PROGRESS", "COMPLETED", "OVERDUE").Row(
		strconv.Itoa(st.Total),
		strconv.Itoa(st.Todo),
		strconv.Itoa(st.InProgress),
		strconv.Itoa(st.Completed),
		strconv.Itoa(st.Overdue),
	)
	_, _ = fmt.Fprintln(w, summary.Render())

	cats := newTable().Headers("CATEGORY", "COUNT")
	for _, c := range categories {
		cats.Row(c.Category, strconv.Itoa(c.Count))
	}
	_, _ = fmt.Fprintln(w, cats.Render())
}
