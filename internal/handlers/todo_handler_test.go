package handlers_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/todo"
	"todo-manager/backend/testutil"
)

func decodeTodo(t *testing.T, body []byte) models.Todo {
	t.Helper()
	var got models.Todo
	require.NoError(t, json.Unmarshal(body, &got))
	return got
}

func decodeError(t *testing.T, body []byte) map[string]string {
	t.Helper()
	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	return got
}

// 作成 → 完了 → 取得 → 削除 → 404 の一連の流れ
func TestTodoLifecycle_BuyMilk(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)

	w := testutil.DoJSON(t, r, http.MethodPost, "/api/todos", map[string]any{
		"title": "Buy milk", "status": "todo", "priority": "low", "category": "Shopping",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeTodo(t, w.Body.Bytes())
	assert.False(t, created.Completed)
	assert.Equal(t, models.StatusTodo, created.Status)
	assert.NotEmpty(t, created.ID)
	assert.NotContains(t, w.Body.String(), "description", "absent fields are omitted")
	assert.NotContains(t, w.Body.String(), "dueDate")

	w = testutil.DoJSON(t, r, http.MethodPut, "/api/todos/"+created.ID, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeTodo(t, w.Body.Bytes())
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.True(t, updated.Completed)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	w = testutil.DoJSON(t, r, http.MethodGet, "/api/todos/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, updated, decodeTodo(t, w.Body.Bytes()))

	w = testutil.DoJSON(t, r, http.MethodDelete, "/api/todos/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = testutil.DoJSON(t, r, http.MethodGet, "/api/todos/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Todo not found", decodeError(t, w.Body.Bytes())["error"])

	w = testutil.DoJSON(t, r, http.MethodDelete, "/api/todos/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code, "delete is idempotent")
}

func TestCreateTodo_Validation(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)

	tests := []struct {
		name string
		body any
		msg  string
	}{
		{"missing title", map[string]any{"priority": "low", "category": "Work"}, todo.MsgTitleRequired},
		{"blank title", map[string]any{"title": "   ", "priority": "low", "category": "Work"}, todo.MsgTitleRequired},
		{"bad priority", map[string]any{"title": "x", "priority": "urgent", "category": "Work"}, todo.MsgPriority},
		{"missing category", map[string]any{"title": "x", "priority": "low"}, todo.MsgCategoryRequired},
		{"bad status", map[string]any{"title": "x", "priority": "low", "category": "Work", "status": "done"}, todo.MsgStatus},
		{"bad due date", map[string]any{"title": "x", "priority": "low", "category": "Work", "dueDate": "next week"}, todo.MsgDueDate},
		{"completed not boolean", map[string]any{"title": "x", "priority": "low", "category": "Work", "completed": "yes"}, todo.MsgCompleted},
		{"long title", map[string]any{"title": strings.Repeat("a", 256), "priority": "low", "category": "Work"}, todo.MsgTitleTooLong},
		{"malformed json", `{"title":`, todo.MsgInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.DoJSON(t, r, http.MethodPost, "/api/todos", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tt.msg, decodeError(t, w.Body.Bytes())["error"])
		})
	}
}

func TestCreateTodo_WithOptionalFields(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)

	w := testutil.DoJSON(t, r, http.MethodPost, "/api/todos", map[string]any{
		"title": "Quarterly report", "description": "numbers for Q1", "priority": "high",
		"category": "Work", "status": "completed", "dueDate": "2025-04-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeTodo(t, w.Body.Bytes())
	assert.True(t, created.Completed)
	require.NotNil(t, created.Description)
	assert.Equal(t, "numbers for Q1", *created.Description)
	require.NotNil(t, created.DueDate)
	assert.Contains(t, w.Body.String(), `"dueDate":"2025-04-01T00:00:00Z"`)
}

func TestUpdateTodo(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)
	created := testutil.CreateTestTodo(t, r, "Plan trip", models.StatusCompleted, models.PriorityMedium, "Personal")

	t.Run("status in-progress clears completed", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPut, "/api/todos/"+created.ID, map[string]any{"status": "in-progress"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decodeTodo(t, w.Body.Bytes())
		assert.Equal(t, models.StatusInProgress, got.Status)
		assert.False(t, got.Completed)
		assert.Equal(t, "Plan trip", got.Title)
	})

	t.Run("null clears description", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPut, "/api/todos/"+created.ID, map[string]any{"description": "book hotel"})
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, decodeTodo(t, w.Body.Bytes()).Description)

		w = testutil.DoJSON(t, r, http.MethodPut, "/api/todos/"+created.ID, `{"description":null}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, decodeTodo(t, w.Body.Bytes()).Description)
	})

	t.Run("validation", func(t *testing.T) {
		cases := map[string]string{
			`{"completed":"yes"}`: todo.MsgCompleted,
			`{"title":""}`:        todo.MsgTitleEmpty,
			`{"priority":"none"}`: todo.MsgPriority,
			`{}`:                  todo.MsgNoFields,
			`{"dueDate":123}`:     todo.MsgDueDate,
		}
		for body, msg := range cases {
			w := testutil.DoJSON(t, r, http.MethodPut, "/api/todos/"+created.ID, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.Equal(t, msg, decodeError(t, w.Body.Bytes())["error"], body)
		}
	})

	t.Run("missing todo", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPut, "/api/todos/6f1c2a9e-4f7b-4b43-9a0e-2c8d1e0f5a11", map[string]any{"title": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInvalidID(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := testutil.DoJSON(t, r, method, "/api/todos/123", map[string]any{"title": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code, method)
		assert.Equal(t, todo.MsgInvalidID, decodeError(t, w.Body.Bytes())["error"], method)
	}
}

func TestListTodos(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)

	first := testutil.CreateTestTodo(t, r, "first", models.StatusTodo, models.PriorityLow, "Work")
	testutil.CreateTestTodo(t, r, "second", models.StatusCompleted, models.PriorityHigh, "Health")
	last := testutil.CreateTestTodo(t, r, "third", models.StatusCompleted, models.PriorityHigh, "Work")

	t.Run("default page", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/todos", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp models.TodoListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Todos, 3)
		assert.Equal(t, last.ID, resp.Todos[0].ID, "newest first")
		assert.Equal(t, first.ID, resp.Todos[2].ID)
		assert.Equal(t, models.Pagination{Page: 1, Limit: 50, Total: 3, TotalPages: 1}, resp.Pagination)
	})

	t.Run("explicit page", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/todos?page=2&limit=2", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp models.TodoListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Todos, 1)
		assert.Equal(t, first.ID, resp.Todos[0].ID)
		assert.Equal(t, 2, resp.Pagination.TotalPages)
	})

	t.Run("by status", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/todos/status/completed", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp models.TodoListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.StatusCompleted, resp.Status)
		assert.Len(t, resp.Todos, 2)
	})

	t.Run("by category", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/todos/category/Work?limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp models.TodoListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Work", resp.Category)
		assert.Len(t, resp.Todos, 1)
		assert.Equal(t, 2, resp.Pagination.Total)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		cases := map[string]string{
			"/api/todos?page=0":               todo.MsgPage,
			"/api/todos?page=abc":             todo.MsgPage,
			"/api/todos?limit=101":            todo.MsgLimit,
			"/api/todos?limit=0":              todo.MsgLimit,
			"/api/todos/status/archived":      todo.MsgStatus,
			"/api/todos/status/todo?limit=-1": todo.MsgLimit,
		}
		for path, msg := range cases {
			w := testutil.DoJSON(t, r, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, path)
			assert.Equal(t, msg, decodeError(t, w.Body.Bytes())["error"], path)
		}
	})

	t.Run("page far past the end", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/todos?page=9223372036854775807&limit=2", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp models.TodoListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Todos)
		assert.Equal(t, 3, resp.Pagination.Total)
	})

	t.Run("empty page returns an empty array", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/todos/category/Nothing", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"todos":[]`)
	})
}

func TestHealthAndDBCheck(t *testing.T) {
	db, r, _ := testutil.SetupTestDB(t)

	for _, path := range []string{"/health", "/api/health"} {
		w := testutil.DoJSON(t, r, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"OK","message":"Server is running"}`, w.Body.String())
	}

	w := testutil.DoJSON(t, r, http.MethodGet, "/api/dbcheck", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.Close())
	w = testutil.DoJSON(t, r, http.MethodGet, "/api/dbcheck", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "closed", "internal error detail is not leaked")
}
