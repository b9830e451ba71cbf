// Package view はクライアント側での絞り込み・並び替え・集計を行います。
// サーバーから取得したページの内容だけを対象にします。
package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/todo"
)

// StatusOverdue は期限切れを表す絞り込み用の疑似ステータスです。
const StatusOverdue = "overdue"

// All はすべてに一致する絞り込み値です。
const All = "all"

// Filter は一覧の絞り込み条件です。空文字列は All と同じ扱いです。
type Filter struct {
	Search   string
	Status   string
	Priority string
	Category string
}

// Validate は Status と Priority が既知の値かどうかを確認します。
func (f Filter) Validate() error {
	switch f.Status {
	case "", All, StatusOverdue:
	default:
		if !models.Status(f.Status).Valid() {
			return fmt.Errorf("unknown status filter %q", f.Status)
		}
	}
	if f.Priority != "" && f.Priority != All && !models.Priority(f.Priority).Valid() {
		return fmt.Errorf("unknown priority filter %q", f.Priority)
	}
	return nil
}

// Match は t が条件に一致するかを返します。now は期限切れの判定に使います。
func (f Filter) Match(t *models.Todo, now time.Time) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hay := strings.ToLower(t.Title) + "\n" + strings.ToLower(t.Category)
		if t.Description != nil {
			hay += "\n" + strings.ToLower(*t.Description)
		}
		if !strings.Contains(hay, q) {
			return false
		}
	}

	switch f.Status {
	case "", All:
	case StatusOverdue:
		if !todo.IsOverdue(t, now) {
			return false
		}
	default:
		if string(t.Status) != f.Status {
			return false
		}
	}

	if f.Priority != "" && f.Priority != All && string(t.Priority) != f.Priority {
		return false
	}
	if f.Category != "" && f.Category != All && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	return true
}

// Apply は条件に一致するTodoを元の順序のまま返します。
func (f Filter) Apply(todos []*models.Todo, now time.Time) []*models.Todo {
	out := make([]*models.Todo, 0, len(todos))
	for _, t := range todos {
		if f.Match(t, now) {
			out = append(out, t)
		}
	}
	return out
}

// SortField は並び替えのキーです。
type SortField string

const (
	SortDueDate   SortField = "dueDate"
	SortPriority  SortField = "priority"
	SortCreatedAt SortField = "createdAt"
	SortTitle     SortField = "title"
)

// ParseSortField は文字列を SortField に変換します。
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case SortDueDate, SortPriority, SortCreatedAt, SortTitle:
		return f, nil
	case "":
		return SortCreatedAt, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// Sort は並び替えの指定です。
type Sort struct {
	Field SortField
	Desc  bool
}

// Apply は todos を並び替えたコピーを返します。安定ソートです。
// 期限日のないTodoは昇順・降順どちらでも末尾に置きます。
func (s Sort) Apply(todos []*models.Todo) []*models.Todo {
	out := slices.Clone(todos)
	if out == nil {
		out = []*models.Todo{}
	}

	slices.SortStableFunc(out, func(a, b *models.Todo) int {
		if s.Field == SortDueDate {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
		}
		c := s.compare(a, b)
		if s.Desc {
			return -c
		}
		return c
	})
	return out
}

func (s Sort) compare(a, b *models.Todo) int {
	switch s.Field {
	case SortDueDate:
		return a.DueDate.Compare(*b.DueDate)
	case SortPriority:
		// 昇順で high が先頭
		return cmp.Compare(b.Priority.Rank(), a.Priority.Rank())
	case SortTitle:
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

// Stats は一覧の集計です。
type Stats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Todo       int `json:"todo"`
	Overdue    int `json:"overdue"`
}

// ComputeStats は todos を集計します。
func ComputeStats(todos []*models.Todo, now time.Time) Stats {
	var st Stats
	for _, t := range todos {
		st.Total++
		switch t.Status {
		case models.StatusCompleted:
			st.Completed++
		case models.StatusInProgress:
			st.InProgress++
		case models.StatusTodo:
			st.Todo++
		}
		if todo.IsOverdue(t, now) {
			st.Overdue++
		}
	}
	return st
}

// CategoryCount はカテゴリごとの件数です。
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CategoryCounts はカテゴリごとの件数を返します。
// 既定のカテゴリは件数が0でも先頭に並び、それ以外はアルファベット順で続きます。
func CategoryCounts(todos []*models.Todo) []CategoryCount {
	counts := make(map[string]int)
	for _, t := range todos {
		counts[t.Category]++
	}

	out := make([]CategoryCount, 0, len(todo.DefaultCategories)+len(counts))
	for _, c := range todo.DefaultCategories {
		out = append(out, CategoryCount{Category: c, Count: counts[c]})
		delete(counts, c)
	}

	rest := make([]string, 0, len(counts))
	for c := range counts {
		rest = append(rest, c)
	}
	slices.Sort(rest)
	for _, c := range rest {
		out = append(out, CategoryCount{Category: c, Count: counts[c]})
	}
	return out
}
