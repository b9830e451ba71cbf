// Package todo はサーバーとクライアントで共有するTodoのドメインルールを提供します。
package todo

import (
	"errors"
	"strings"
	"unicode/utf8"

	"todo-manager/backend/internal/models"
)

const (
	MaxTitleLength    = 255
	MaxCategoryLength = 100
)

// ErrValidation は入力値が不正な場合のエラーです。
var ErrValidation = errors.New("validation failed")

// ValidationError はフィールド単位の検証エラーです。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// 検証メッセージ
const (
	MsgTitleRequired    = "Title is required"
	MsgTitleEmpty       = "Title cannot be empty"
	MsgTitleTooLong     = "Title must be at most 255 characters"
	MsgCategoryRequired = "Category is required"
	MsgCategoryEmpty    = "Category cannot be empty"
	MsgCategoryTooLong  = "Category must be at most 100 characters"
	MsgPriority         = "Priority must be low, medium, or high"
	MsgStatus           = "Status must be todo, in-progress, or completed"
	MsgCompleted        = "Completed must be a boolean"
	MsgDueDate          = "Due date must be a valid ISO 8601 date"
	MsgDescription      = "Description must be a string"
	MsgInvalidID        = "Invalid todo ID"
	MsgNoFields         = "No fields to update"
	MsgPage             = "Page must be a positive integer"
	MsgLimit            = "Limit must be between 1 and 100"
	MsgInvalidPayload   = "Invalid request payload"
	MsgRequestTooLarge  = "Request body too large"
)

// NormalizeTitle はタイトルをトリムして検証します。emptyMsg は空だった場合のメッセージです。
func NormalizeTitle(title, emptyMsg string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("title", emptyMsg)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", invalid("title", MsgTitleTooLong)
	}
	return title, nil
}

// NormalizeCategory はカテゴリをトリムして検証します。
func NormalizeCategory(category, emptyMsg string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return "", invalid("category", emptyMsg)
	}
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return "", invalid("category", MsgCategoryTooLong)
	}
	return category, nil
}

// NormalizeDescription は説明をトリムし、空なら nil を返します。
func NormalizeDescription(description *string) *string {
	if description == nil {
		return nil
	}
	d := strings.TrimSpace(*description)
	if d == "" {
		return nil
	}
	return &d
}

// ValidatePriority は優先度を検証します。
func ValidatePriority(p models.Priority) error {
	if !p.Valid() {
		return invalid("priority", MsgPriority)
	}
	return nil
}

// ParseStatus は文字列をStatusに変換します。
func ParseStatus(s string) (models.Status, error) {
	status := models.Status(strings.TrimSpace(s))
	if !status.Valid() {
		return "", invalid("status", MsgStatus)
	}
	return status, nil
}

// ValidatePage はページ番号と件数の範囲を検証します。
func ValidatePage(page, limit int) error {
	if page < 1 {
		return invalid("page", MsgPage)
	}
	if limit < 1 || limit > models.MaxLimit {
		return invalid("limit", MsgLimit)
	}
	return nil
}
