// Package testutil はテスト用のDBとルーターを用意します。
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/database"
	"todo-manager/backend/internal/logging"
	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/repositories"
	"todo-manager/backend/internal/routes"
	"todo-manager/backend/internal/services"
)

// Clock は呼ばれるたびに1秒ずつ進むテスト用の時計です。
// 作成日時の順序が確定するので一覧の並びをテストできます。
type Clock struct {
	mu  sync.Mutex
	cur time.Time
}

// NewClock は start から始まる時計を作成します。
func NewClock(start time.Time) *Clock {
	return &Clock{cur: start}
}

// Now は現在時刻を返し、時計を1秒進めます。
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.cur
	c.cur = c.cur.Add(time.Second)
	return now
}

// OpenTestDB はマイグレーション済みのインメモリSQLiteを開きます。
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := config.Default().Database
	cfg.Driver = string(database.SQLite)
	cfg.URL = ":memory:"

	db, _, err := database.Open(context.Background(), cfg)
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite), "Failed to create todos table")
	return db
}

// TestServerConfig はテスト用のサーバー設定です。レート制限は実質無効にしてあります。
func TestServerConfig() config.Server {
	s := config.Default().Server
	s.Mode = gin.TestMode
	s.RateLimitMax = 1_000_000
	return s
}

// SetupTestDB はテスト用のデータベースとルーター、リポジトリを用意します。
func SetupTestDB(t *testing.T) (*sql.DB, *gin.Engine, *repositories.TodoRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := OpenTestDB(t)
	clock := NewClock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	router := routes.SetupRouter(routes.Options{
		DB:             db,
		Dialect:        database.SQLite,
		Server:         TestServerConfig(),
		Logger:         logging.Discard(),
		ServiceOptions: []services.Option{services.WithClock(clock.Now)},
	})
	todoRepo := repositories.NewTodoRepository(db, database.SQLite, logging.Discard())
	return db, router, todoRepo
}

// DoJSON は body をJSONにしてリクエストを送り、レスポンスを返します。
func DoJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// CreateTestTodo はAPI経由でTodoを作成し、作成されたTodoを返します。
func CreateTestTodo(t *testing.T, router http.Handler, title string, status models.Status, priority models.Priority, category string) *models.Todo {
	t.Helper()

	w := DoJSON(t, router, http.MethodPost, "/api/todos", map[string]any{
		"title":    title,
		"status":   status,
		"priority": priority,
		"category": category,
	})
	require.Equal(t, http.StatusCreated, w.Code, "TODO作成に失敗しました: %s", w.Body.String())

	var created models.Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return &created
}
