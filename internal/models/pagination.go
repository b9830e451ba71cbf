package models

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100
)

// Pagination は一覧レスポンスのページ情報です。
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination は total 件を limit 件ずつに分けたときのページ情報を作ります。
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// Offset はSQLのOFFSETを返します。int に収まらない場合は math.MaxInt に丸めるので、
// 極端に大きいページ番号でも末尾より後ろの空ページになります。
func (p Pagination) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// TodoListResponse は一覧系エンドポイントのレスポンスです。
// Status / Category は絞り込み一覧のときだけ入ります。
type TodoListResponse struct {
	Todos      []*Todo    `json:"todos"`
	Status     Status     `json:"status,omitempty"`
	Category   string     `json:"category,omitempty"`
	Pagination Pagination `json:"pagination"`
}
