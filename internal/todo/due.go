package todo

import (
	"strings"
	"time"

	"todo-manager/backend/internal/models"
)

// DateLayout は期限日の日付のみの書式です。
const DateLayout = "2006-01-02"

// DefaultCategories はクライアントが最初から表示するカテゴリです。
var DefaultCategories = []string{"Work", "Personal", "Shopping", "Health", "Learning"}

// ParseDueDate は "2006-01-02" または RFC3339 の文字列を期限日として解釈します。
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, invalid("dueDate", MsgDueDate)
	}
	for _, layout := range []string{DateLayout, time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			ts := Timestamp(t)
			return &ts, nil
		}
	}
	return nil, invalid("dueDate", MsgDueDate)
}

// Deadline は期限日の終わり (その日の 23:59:59.999999999) を loc で返します。
// 日付はUTCの暦日として扱います。
func Deadline(due time.Time, loc *time.Location) time.Time {
	y, m, d := due.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}

// IsOverdue は未完了かつ期限日を過ぎている場合に true を返します。
func IsOverdue(t *models.Todo, now time.Time) bool {
	if t == nil || t.Completed || t.DueDate == nil {
		return false
	}
	return now.After(Deadline(*t.DueDate, now.Location()))
}
