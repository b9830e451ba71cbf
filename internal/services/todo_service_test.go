package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-manager/backend/internal/database"
	"todo-manager/backend/internal/logging"
	"todo-manager/backend/internal/metrics"
	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/repositories"
	"todo-manager/backend/internal/services"
	"todo-manager/backend/internal/todo"
	tu "todo-manager/backend/testutil"
)

func setupService(t *testing.T) (*services.TodoService, *metrics.Metrics) {
	t.Helper()
	db := tu.OpenTestDB(t)
	repo := repositories.NewTodoRepository(db, database.SQLite, logging.Discard())
	m := metrics.New()
	clock := tu.NewClock(time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC))
	return services.NewTodoService(repo, logging.Discard(), services.WithClock(clock.Now), services.WithMetrics(m)), m
}

func createReq(title string, status models.Status) models.CreateTodoRequest {
	return models.CreateTodoRequest{Title: title, Status: &status, Priority: models.PriorityLow, Category: "Shopping"}
}

func TestTodoService_CreateDerivesCompleted(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for _, s := range models.Statuses {
		created, err := svc.Create(ctx, createReq("task "+string(s), s))
		require.NoError(t, err)
		assert.Equal(t, created.Status == models.StatusCompleted, created.Completed)
		assert.Equal(t, s, created.Status)
	}
}

func TestTodoService_CreateThenGetRoundTrip(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	due := "2025-02-14"
	desc := "  for the weekend "
	req := createReq("Buy milk", models.StatusTodo)
	req.DueDate = &due
	req.Description = &desc

	created, err := svc.Create(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, created.Description)
	assert.Equal(t, "for the weekend", *created.Description)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestTodoService_UpdateOnlyCompleted(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("Laundry", models.StatusInProgress))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, models.UpdateTodoRequest{Completed: models.Some(true)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.True(t, updated.Completed)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	updated, err = svc.Update(ctx, created.ID, models.UpdateTodoRequest{Completed: models.Some(false)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, updated.Status)
	assert.False(t, updated.Completed)
}

func TestTodoService_UpdateOnlyStatus(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("Dishes", models.StatusCompleted))
	require.NoError(t, err)
	require.True(t, created.Completed)

	for _, s := range []models.Status{models.StatusInProgress, models.StatusTodo, models.StatusCompleted} {
		updated, err := svc.Update(ctx, created.ID, models.UpdateTodoRequest{Status: models.Some(s)})
		require.NoError(t, err)
		assert.Equal(t, s == models.StatusCompleted, updated.Completed, "status %s", s)
	}
}

func TestTodoService_Errors(t *testing.T) {
	svc, m := setupService(t)
	ctx := context.Background()
	missing := "0b7e3c1e-3a43-4a5b-8d8e-3f0d6b1b2c3d"

	_, err := svc.GetByID(ctx, missing)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = svc.Update(ctx, missing, models.UpdateTodoRequest{Title: models.Some("x")})
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = svc.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.Update(ctx, missing, models.UpdateTodoRequest{})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.ListByStatus(ctx, "archived", 1, 10)
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.ListByCategory(ctx, "   ", 1, 10)
	assert.ErrorIs(t, err, services.ErrValidation)

	assert.NoError(t, svc.Delete(ctx, missing), "deleting a missing todo succeeds")
	assert.ErrorIs(t, svc.Delete(ctx, "nope"), services.ErrValidation)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TodoOperationsTotal.WithLabelValues("get", metrics.OutcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TodoOperationsTotal.WithLabelValues("get", metrics.OutcomeInvalid)))
}

func TestTodoService_Pagination(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	const total = 23
	for i := 0; i < total; i++ {
		_, err := svc.Create(ctx, createReq("item", models.StatusTodo))
		require.NoError(t, err)
	}

	for _, limit := range []int{1, 5, 10, 23, 50, 100} {
		wantPages := (total + limit - 1) / limit
		seen := 0
		for page := 1; page <= wantPages+1; page++ {
			resp, err := svc.List(ctx, page, limit)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(resp.Todos), limit)
			assert.Equal(t, total, resp.Pagination.Total)
			assert.Equal(t, wantPages, resp.Pagination.TotalPages, "limit %d", limit)
			seen += len(resp.Todos)
		}
		assert.Equal(t, total, seen, "limit %d", limit)
	}

	_, err := svc.List(ctx, 0, 10)
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = svc.List(ctx, 1, 101)
	var ve *todo.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, todo.MsgLimit, ve.Message)
}

func TestTodoService_EmptyList(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.List(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.NotNil(t, resp.Todos)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 50, Total: 0, TotalPages: 0}, resp.Pagination)
}

func TestTodoService_ListByStatusAndCategory(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("a", models.StatusTodo))
	require.NoError(t, err)
	_, err = svc.Create(ctx, createReq("b", models.StatusCompleted))
	require.NoError(t, err)
	work := createReq("c", models.StatusCompleted)
	work.Category = "Work"
	_, err = svc.Create(ctx, work)
	require.NoError(t, err)

	resp, err := svc.ListByStatus(ctx, "completed", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, resp.Status)
	assert.Equal(t, 2, resp.Pagination.Total)

	resp, err = svc.ListByCategory(ctx, " Work ", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, "Work", resp.Category)
	require.Len(t, resp.Todos, 1)
	assert.Equal(t, "c", resp.Todos[0].Title)
}

func TestTodoService_Seed(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	n, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(services.SampleTodos(time.Now())), n)

	n, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding a non-empty table does nothing")
}
