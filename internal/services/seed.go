package services

import (
	"context"
	"fmt"
	"time"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/todo"
)

// SampleTodos は空のデータベースに投入するサンプルです。期限日は now からの相対日付です。
func SampleTodos(now time.Time) []models.CreateTodoRequest {
	day := func(offset int) *string {
		d := now.AddDate(0, 0, offset).Format(todo.DateLayout)
		return &d
	}
	desc := func(s string) *string { return &s }
	status := func(s models.Status) *models.Status { return &s }

	return []models.CreateTodoRequest{
		{
			Title:       "Complete project proposal",
			Description: desc("Draft and submit the Q4 project proposal to the team"),
			Status:      status(models.StatusInProgress),
			Priority:    models.PriorityHigh,
			Category:    "Work",
			DueDate:     day(2),
		},
		{
			Title:    "Buy groceries",
			Status:   status(models.StatusTodo),
			Priority: models.PriorityMedium,
			Category: "Shopping",
			DueDate:  day(0),
		},
		{
			Title:       "Morning workout",
			Description: desc("30 minutes of cardio"),
			Status:      status(models.StatusCompleted),
			Priority:    models.PriorityLow,
			Category:    "Health",
		},
		{
			Title:    "Read a chapter of a Go book",
			Status:   status(models.StatusTodo),
			Priority: models.PriorityLow,
			Category: "Learning",
			DueDate:  day(7),
		},
	}
}

// Seed はtodosテーブルが空の場合だけサンプルを投入し、作成した件数を返します。
func (s *TodoService) Seed(ctx context.Context) (int, error) {
	total, err := s.todoRepo.Count(ctx)
	if err != nil {
		return 0, s.fail("seed", err)
	}
	if total > 0 {
		s.logger.Info("Skipping seed, todos table is not empty", "total", total)
		return 0, nil
	}

	created := 0
	for _, req := range SampleTodos(s.now()) {
		if _, err := s.Create(ctx, req); err != nil {
			return created, fmt.Errorf("could not seed todo %q: %w", req.Title, err)
		}
		created++
	}
	return created, nil
}
