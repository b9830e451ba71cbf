// Package modelsはTodoとAPIの入出力を定義します。
package models

import (
	"time"
)

// Status はTodoの進捗状態です。
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses は有効なStatusの一覧です。
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

// Valid はStatusが既知の値かどうかを返します。
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority はTodoの優先度です。
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank は並び替え用の重みを返します (high が最大)。
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Todo は ToDoタスクを表します。
// DBでは snake_case + NULL、JSONでは camelCase + フィールド省略で表現します。
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone はポインタフィールドも含めたコピーを返します。
func (t *Todo) Clone() *Todo {
	if t == nil {
		return nil
	}
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}

// CreateTodoRequest はTodo作成リクエストのボディです。
// status を省略した場合は todo になります。
type CreateTodoRequest struct {
	Title       string   `json:"title" binding:"required,max=255"`
	Description *string  `json:"description,omitempty"`
	Status      *Status  `json:"status,omitempty" binding:"omitempty,oneof=todo in-progress completed"`
	Completed   *bool    `json:"completed,omitempty"`
	Priority    Priority `json:"priority" binding:"required,oneof=low medium high"`
	Category    string   `json:"category" binding:"required,max=100"`
	DueDate     *string  `json:"dueDate,omitempty"`
}

// HealthResponse は /health のレスポンスです。
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
