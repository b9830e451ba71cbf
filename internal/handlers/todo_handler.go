// Package handlers はHTTPハンドラーを提供します。
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/services"
	"todo-manager/backend/internal/todo"
)

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	todoService *services.TodoService
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// pageQuery は ?page=&limit= を読み取ります。省略時は 1 と 50 です。
// 範囲のチェックはサービス層で行います。
func pageQuery(c *gin.Context) (page, limit int, ok bool) {
	page, limit = models.DefaultPage, models.DefaultLimit
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": todo.MsgPage, "field": "page"})
			return 0, 0, false
		}
		page = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": todo.MsgLimit, "field": "limit"})
			return 0, 0, false
		}
		limit = n
	}
	return page, limit, true
}

// GetTodosHandler はTodoリストを取得します。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	page, limit, ok := pageQuery(c)
	if !ok {
		return
	}
	resp, err := h.todoService.List(c.Request.Context(), page, limit)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch todos")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTodosByStatusHandler はstatusで絞り込んだTodoリストを取得します。
func (h *TodoHandler) GetTodosByStatusHandler(c *gin.Context) {
	page, limit, ok := pageQuery(c)
	if !ok {
		return
	}
	resp, err := h.todoService.ListByStatus(c.Request.Context(), c.Param("status"), page, limit)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch todos")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTodosByCategoryHandler はカテゴリで絞り込んだTodoリストを取得します。
func (h *TodoHandler) GetTodosByCategoryHandler(c *gin.Context) {
	page, limit, ok := pageQuery(c)
	if !ok {
		return
	}
	resp, err := h.todoService.ListByCategory(c.Request.Context(), c.Param("category"), page, limit)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch todos")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTodoByIDHandler は指定IDのTodoを取得します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	t, err := h.todoService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch todo")
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateTodoHandler は新しいTodoを作成します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	var req models.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	created, err := h.todoService.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to save todo to database")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateTodoHandler はTodoを部分更新します。
func (h *TodoHandler) UpdateTodoHandler(c *gin.Context) {
	id, err := services.ParseID(c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to update todo")
		return
	}

	var req models.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.todoService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Failed to update todo")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteTodoHandler はTodoを削除します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	if err := h.todoService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err, "Failed to delete todo")
		return
	}
	c.Status(http.StatusNoContent)
}
