package models

import (
	"encoding/json"
	"fmt"
)

// UpdateTodoRequest は部分更新リクエストです。
// 送られたフィールドだけが Set になり、null は Null で区別されます。
type UpdateTodoRequest struct {
	Title       Optional[string]   `json:"title,omitzero"`
	Description Optional[string]   `json:"description,omitzero"`
	Completed   Optional[bool]     `json:"completed,omitzero"`
	Status      Optional[Status]   `json:"status,omitzero"`
	Priority    Optional[Priority] `json:"priority,omitzero"`
	Category    Optional[string]   `json:"category,omitzero"`
	DueDate     Optional[string]   `json:"dueDate,omitzero"`
}

// Empty は更新対象のフィールドが1つもない場合に true を返します。
func (r UpdateTodoRequest) Empty() bool {
	return !r.Title.Set && !r.Description.Set && !r.Completed.Set && !r.Status.Set &&
		!r.Priority.Set && !r.Category.Set && !r.DueDate.Set
}

// FieldError はJSONのデコードに失敗したフィールドを表します。
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid value for %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// UnmarshalJSON はフィールド単位でデコードし、失敗したフィールド名を FieldError で返します。
// 複数のフィールドが不正な場合は title から dueDate までの宣言順で最初のものを返します。
// 未知のフィールドは無視します。
func (r *UpdateTodoRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := []struct {
		name   string
		target json.Unmarshaler
	}{
		{"title", &r.Title},
		{"description", &r.Description},
		{"completed", &r.Completed},
		{"status", &r.Status},
		{"priority", &r.Priority},
		{"category", &r.Category},
		{"dueDate", &r.DueDate},
	}
	for _, f := range fields {
		value, ok := raw[f.name]
		if !ok {
			continue
		}
		if err := f.target.UnmarshalJSON(value); err != nil {
			return &FieldError{Field: f.name, Err: err}
		}
	}
	return nil
}
