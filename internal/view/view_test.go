package view_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/view"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func day(d int) *time.Time {
	t := time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sample() []*models.Todo {
	desc := "Quarterly numbers"
	return []*models.Todo{
		{ID: "1", Title: "Write report", Description: &desc, Status: models.StatusInProgress, Priority: models.PriorityHigh, Category: "Work", DueDate: day(9), CreatedAt: now.Add(-4 * time.Hour)},
		{ID: "2", Title: "buy milk", Status: models.StatusTodo, Priority: models.PriorityLow, Category: "Shopping", DueDate: day(10), CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "3", Title: "Gym", Status: models.StatusCompleted, Completed: true, Priority: models.PriorityMedium, Category: "Health", DueDate: day(1), CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "4", Title: "Read book", Status: models.StatusTodo, Priority: models.PriorityMedium, Category: "Hobby", CreatedAt: now.Add(-1 * time.Hour)},
	}
}

func ids(todos []*models.Todo) []string {
	out := make([]string, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	todos := sample()

	tests := []struct {
		name   string
		filter view.Filter
		want   []string
	}{
		{"empty matches all", view.Filter{}, []string{"1", "2", "3", "4"}},
		{"search is case-insensitive", view.Filter{Search: "MILK"}, []string{"2"}},
		{"search covers description", view.Filter{Search: "quarterly"}, []string{"1"}},
		{"search covers category", view.Filter{Search: "hobby"}, []string{"4"}},
		{"status", view.Filter{Status: "todo"}, []string{"2", "4"}},
		{"overdue excludes completed and due today", view.Filter{Status: view.StatusOverdue}, []string{"1"}},
		{"priority", view.Filter{Priority: "medium"}, []string{"3", "4"}},
		{"category", view.Filter{Category: "work", Status: view.All}, []string{"1"}},
		{"combined", view.Filter{Status: "todo", Priority: "low"}, []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.filter.Validate())
			assert.Equal(t, tt.want, ids(tt.filter.Apply(todos, now)))
		})
	}

	assert.Error(t, view.Filter{Status: "done"}.Validate())
	assert.Error(t, view.Filter{Priority: "urgent"}.Validate())
}

func TestSort(t *testing.T) {
	todos := sample()

	t.Run("due date ascending, missing last", func(t *testing.T) {
		got := view.Sort{Field: view.SortDueDate}.Apply(todos)
		assert.Equal(t, []string{"3", "1", "2", "4"}, ids(got))
	})

	t.Run("due date descending, missing still last", func(t *testing.T) {
		got := view.Sort{Field: view.SortDueDate, Desc: true}.Apply(todos)
		assert.Equal(t, []string{"2", "1", "3", "4"}, ids(got))
	})

	t.Run("priority is stable", func(t *testing.T) {
		got := view.Sort{Field: view.SortPriority}.Apply(todos)
		assert.Equal(t, []string{"1", "3", "4", "2"}, ids(got))
	})

	t.Run("title ignores case", func(t *testing.T) {
		got := view.Sort{Field: view.SortTitle}.Apply(todos)
		assert.Equal(t, []string{"2", "3", "4", "1"}, ids(got))
	})

	t.Run("created at descending", func(t *testing.T) {
		got := view.Sort{Field: view.SortCreatedAt, Desc: true}.Apply(todos)
		assert.Equal(t, []string{"4", "3", "2", "1"}, ids(got))
	})

	t.Run("input untouched", func(t *testing.T) {
		view.Sort{Field: view.SortTitle}.Apply(todos)
		assert.Equal(t, []string{"1", "2", "3", "4"}, ids(todos))
	})

	f, err := view.ParseSortField("")
	require.NoError(t, err)
	assert.Equal(t, view.SortCreatedAt, f)
	_, err = view.ParseSortField("color")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	st := view.ComputeStats(sample(), now)
	assert.Equal(t, view.Stats{Total: 4, Completed: 1, InProgress: 1, Todo: 2, Overdue: 1}, st)

	assert.Equal(t, view.Stats{}, view.ComputeStats(nil, now))
}

func TestCategoryCounts(t *testing.T) {
	todos := append(sample(), &models.Todo{ID: "5", Category: "Errands"}, &models.Todo{ID: "6", Category: "Work"})

	got := view.CategoryCounts(todos)
	assert.Equal(t, []view.CategoryCount{
		{Category: "Work", Count: 2},
		{Category: "Personal", Count: 0},
		{Category: "Shopping", Count: 1},
		{Category: "Health", Count: 1},
		{Category: "Learning", Count: 0},
		{Category: "Errands", Count: 1},
		{Category: "Hobby", Count: 1},
	}, got)
}
