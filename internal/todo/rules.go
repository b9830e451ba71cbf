package todo

import (
	"time"

	"todo-manager/backend/internal/models"
)

// Reconcile は completed と status の整合性を取ります。
// completed == true は status == completed と常に同値です。
//
// 両方指定された場合は、status が completed ならそれを、そうでなければ completed を優先します。
// completed=false と status=in-progress のように矛盾しない組み合わせは status がそのまま使われます。
func Reconcile(curStatus models.Status, curCompleted bool, status *models.Status, completed *bool) (models.Status, bool) {
	switch {
	case status != nil && completed != nil:
		if *status == models.StatusCompleted || *completed {
			return models.StatusCompleted, true
		}
		return *status, false
	case status != nil:
		return *status, *status == models.StatusCompleted
	case completed != nil:
		if *completed {
			return models.StatusCompleted, true
		}
		return models.StatusTodo, false
	}
	return curStatus, curCompleted
}

// Timestamp はDBに保存できる精度 (マイクロ秒, UTC) に時刻を揃えます。
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// NewTodo は作成リクエストを検証し、新しいTodoを組み立てます。
func NewTodo(req models.CreateTodoRequest, id string, now time.Time) (*models.Todo, error) {
	title, err := NormalizeTitle(req.Title, MsgTitleRequired)
	if err != nil {
		return nil, err
	}
	if err := ValidatePriority(req.Priority); err != nil {
		return nil, err
	}
	category, err := NormalizeCategory(req.Category, MsgCategoryRequired)
	if err != nil {
		return nil, err
	}

	status := models.StatusTodo
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, invalid("status", MsgStatus)
		}
		status = *req.Status
	}

	var due *time.Time
	if req.DueDate != nil {
		d, err := ParseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		due = d
	}

	now = Timestamp(now)
	t := &models.Todo{
		ID:          id,
		Title:       title,
		Description: NormalizeDescription(req.Description),
		Priority:    req.Priority,
		Category:    category,
		DueDate:     due,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.Status, t.Completed = Reconcile(models.StatusTodo, false, &status, req.Completed)
	return t, nil
}

// ApplyUpdate は cur のコピーに部分更新を反映して返します。cur 自体は変更しません。
// null を受け付けるのは description と dueDate だけです。
func ApplyUpdate(cur *models.Todo, req models.UpdateTodoRequest, now time.Time) (*models.Todo, error) {
	if req.Empty() {
		return nil, invalid("", MsgNoFields)
	}
	next := cur.Clone()

	if req.Title.Set {
		if req.Title.Null {
			return nil, invalid("title", MsgTitleEmpty)
		}
		title, err := NormalizeTitle(req.Title.Value, MsgTitleEmpty)
		if err != nil {
			return nil, err
		}
		next.Title = title
	}

	if req.Description.Set {
		next.Description = NormalizeDescription(req.Description.Ptr())
	}

	if req.Priority.Set {
		if req.Priority.Null {
			return nil, invalid("priority", MsgPriority)
		}
		if err := ValidatePriority(req.Priority.Value); err != nil {
			return nil, err
		}
		next.Priority = req.Priority.Value
	}

	if req.Category.Set {
		if req.Category.Null {
			return nil, invalid("category", MsgCategoryEmpty)
		}
		category, err := NormalizeCategory(req.Category.Value, MsgCategoryEmpty)
		if err != nil {
			return nil, err
		}
		next.Category = category
	}

	if req.DueDate.Set {
		if req.DueDate.Null {
			next.DueDate = nil
		} else {
			due, err := ParseDueDate(req.DueDate.Value)
			if err != nil {
				return nil, err
			}
			next.DueDate = due
		}
	}

	if req.Status.Set {
		if req.Status.Null || !req.Status.Value.Valid() {
			return nil, invalid("status", MsgStatus)
		}
	}
	if req.Completed.Set && req.Completed.Null {
		return nil, invalid("completed", MsgCompleted)
	}
	next.Status, next.Completed = Reconcile(cur.Status, cur.Completed, req.Status.Ptr(), req.Completed.Ptr())

	next.UpdatedAt = Timestamp(now)
	return next, nil
}
