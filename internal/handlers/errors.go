package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/services"
	"todo-manager/backend/internal/todo"
)

// bindingMessages は binding タグの検証エラーを利用者向けのメッセージに変換します。
// キーは "構造体フィールド名.タグ" です。
var bindingMessages = map[string]string{
	"Title.required":    todo.MsgTitleRequired,
	"Title.max":         todo.MsgTitleTooLong,
	"Priority.required": todo.MsgPriority,
	"Priority.oneof":    todo.MsgPriority,
	"Category.required": todo.MsgCategoryRequired,
	"Category.max":      todo.MsgCategoryTooLong,
	"Status.oneof":      todo.MsgStatus,
}

// jsonFieldMessages は型が合わないJSONフィールドのメッセージです。
var jsonFieldMessages = map[string]string{
	"title":       todo.MsgTitleEmpty,
	"description": todo.MsgDescription,
	"completed":   todo.MsgCompleted,
	"status":      todo.MsgStatus,
	"priority":    todo.MsgPriority,
	"category":    todo.MsgCategoryEmpty,
	"dueDate":     todo.MsgDueDate,
}

// respondBindError は ShouldBindJSON のエラーを 400 / 413 に変換して返します。
func respondBindError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": todo.MsgRequestTooLarge})
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if msg, ok := bindingMessages[fe.StructField()+"."+fe.Tag()]; ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg, "field": jsonName(fe.StructField())})
			return
		}
	}

	var fieldErr *models.FieldError
	if errors.As(err, &fieldErr) {
		if msg, ok := jsonFieldMessages[fieldErr.Field]; ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg, "field": fieldErr.Field})
			return
		}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if msg, ok := jsonFieldMessages[typeErr.Field]; ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg, "field": typeErr.Field})
			return
		}
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": todo.MsgInvalidPayload})
}

func jsonName(structField string) string {
	switch structField {
	case "DueDate":
		return "dueDate"
	case "":
		return ""
	}
	b := []byte(structField)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

// respondServiceError はサービス層のエラーをステータスコードに変換します。
// 500 の場合、内部の詳細はレスポンスに含めません (ログはサービス層で出力済み)。
func respondServiceError(c *gin.Context, err error, failure string) {
	var ve *todo.ValidationError
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failure})
	}
}
