package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-manager/backend/internal/database"
	"todo-manager/backend/internal/logging"
	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/repositories"
	"todo-manager/backend/testutil"
)

func newTodo(title string, status models.Status, category string, created time.Time) *models.Todo {
	return &models.Todo{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    status,
		Completed: status == models.StatusCompleted,
		Priority:  models.PriorityMedium,
		Category:  category,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func setupRepo(t *testing.T) *repositories.TodoRepository {
	db := testutil.OpenTestDB(t)
	return repositories.NewTodoRepository(db, database.SQLite, logging.Discard())
}

func TestTodoRepository_CreateAndFind(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	created := time.Date(2025, 1, 1, 9, 0, 0, 123456000, time.UTC)
	due := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	desc := "two litres"
	in := newTodo("Buy milk", models.StatusTodo, "Shopping", created)
	in.Description = &desc
	in.DueDate = &due

	out, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in, out, "round trip must preserve every field")

	found, err := repo.FindByID(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, out, found)

	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repositories.ErrTodoNotFound)
}

func TestTodoRepository_NullColumns(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	in := newTodo("No extras", models.StatusInProgress, "Work", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	out, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.Nil(t, out.Description)
	assert.Nil(t, out.DueDate)
}

func TestTodoRepository_ListPaginationAndFilters(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 7; i++ {
		status := models.StatusTodo
		category := "Work"
		if i%2 == 0 {
			status = models.StatusCompleted
			category = "Home"
		}
		out, err := repo.Create(ctx, newTodo(fmt.Sprintf("todo %d", i), status, category, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		ids = append(ids, out.ID)
	}

	t.Run("newest first", func(t *testing.T) {
		todos, total, err := repo.List(ctx, repositories.ListFilter{Limit: 3, Offset: 0})
		require.NoError(t, err)
		assert.Equal(t, 7, total)
		require.Len(t, todos, 3)
		assert.Equal(t, ids[6], todos[0].ID)
		assert.Equal(t, ids[5], todos[1].ID)
		assert.Equal(t, ids[4], todos[2].ID)
	})

	t.Run("last page is partial", func(t *testing.T) {
		todos, total, err := repo.List(ctx, repositories.ListFilter{Limit: 3, Offset: 6})
		require.NoError(t, err)
		assert.Equal(t, 7, total)
		require.Len(t, todos, 1)
		assert.Equal(t, ids[0], todos[0].ID)
	})

	t.Run("past the end is empty, not nil", func(t *testing.T) {
		todos, _, err := repo.List(ctx, repositories.ListFilter{Limit: 3, Offset: 30})
		require.NoError(t, err)
		assert.NotNil(t, todos)
		assert.Empty(t, todos)
	})

	t.Run("status filter", func(t *testing.T) {
		todos, total, err := repo.List(ctx, repositories.ListFilter{Status: models.StatusCompleted, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		for _, td := range todos {
			assert.Equal(t, models.StatusCompleted, td.Status)
			assert.True(t, td.Completed)
		}
	})

	t.Run("category and status filter", func(t *testing.T) {
		_, total, err := repo.List(ctx, repositories.ListFilter{Status: models.StatusTodo, Category: "Work", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestTodoRepository_UpdateAndDelete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	in, err := repo.Create(ctx, newTodo("Write report", models.StatusTodo, "Work", created))
	require.NoError(t, err)

	in.Title = "Write final report"
	in.Status, in.Completed = models.StatusCompleted, true
	in.UpdatedAt = created.Add(time.Hour)
	out, err := repo.Update(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Write final report", out.Title)
	assert.True(t, out.Completed)
	assert.Equal(t, created, out.CreatedAt)
	assert.Equal(t, created.Add(time.Hour), out.UpdatedAt)

	missing := newTodo("ghost", models.StatusTodo, "Work", created)
	_, err = repo.Update(ctx, missing)
	assert.ErrorIs(t, err, repositories.ErrTodoNotFound)

	existed, err := repo.Delete(ctx, in.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = repo.Delete(ctx, in.ID)
	require.NoError(t, err)
	assert.False(t, existed)
}
