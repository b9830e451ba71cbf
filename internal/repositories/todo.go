// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"todo-manager/backend/internal/database"
	"todo-manager/backend/internal/models"
)

// ErrTodoNotFound はTODOが見つからない場合のエラーです。
var ErrTodoNotFound = errors.New("todo not found")

const todoColumns = "id, title, description, completed, status, priority, category, due_date, created_at, updated_at"

// TodoRepository はtodosテーブルへのアクセスを行います。
type TodoRepository struct {
	DB      *sql.DB
	dialect database.Dialect
	logger  *log.Logger
}

// NewTodoRepository は新しいTodoRepositoryインスタンスを作成します。
func NewTodoRepository(db *sql.DB, dialect database.Dialect, logger *log.Logger) *TodoRepository {
	return &TodoRepository{DB: db, dialect: dialect, logger: logger}
}

// ListFilter は一覧取得の絞り込み条件です。空の項目は無視されます。
type ListFilter struct {
	Status   models.Status
	Category string
	Limit    int
	Offset   int
}

func (f ListFilter) where() (string, []any) {
	var clause string
	var args []any
	if f.Status != "" {
		clause = " WHERE status = ?"
		args = append(args, string(f.Status))
	}
	if f.Category != "" {
		if clause == "" {
			clause = " WHERE category = ?"
		} else {
			clause += " AND category = ?"
		}
		args = append(args, f.Category)
	}
	return clause, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(s rowScanner) (*models.Todo, error) {
	var (
		t           models.Todo
		description sql.NullString
		dueDate     sql.NullTime
		status      string
		priority    string
	)
	if err := s.Scan(&t.ID, &t.Title, &description, &t.Completed, &status, &priority, &t.Category, &dueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = models.Status(status)
	t.Priority = models.Priority(priority)
	// NULL はJSONでフィールド省略になる
	if description.Valid {
		d := description.String
		t.Description = &d
	}
	if dueDate.Valid {
		d := dueDate.Time.UTC()
		t.DueDate = &d
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Create は新しいTodoタスクをデータベースに挿入し、保存された内容を返します。
func (r *TodoRepository) Create(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	query := r.dialect.Rebind("INSERT INTO todos (" + todoColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")

	_, err := r.DB.ExecContext(ctx, query,
		t.ID, t.Title, nullString(t.Description), t.Completed, string(t.Status), string(t.Priority),
		t.Category, nullTime(t.DueDate), t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to insert todo", "id", t.ID, "err", err)
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}
	return r.FindByID(ctx, t.ID)
}

// FindByID は指定されたIDのTodoタスクをデータベースから取得します。
func (r *TodoRepository) FindByID(ctx context.Context, id string) (*models.Todo, error) {
	query := r.dialect.Rebind("SELECT " + todoColumns + " FROM todos WHERE id = ?")

	t, err := scanTodo(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		r.logger.Error("Failed to query todo by ID", "id", id, "err", err)
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	return t, nil
}

// List は作成日時の新しい順にTodoを取得し、条件に一致する総件数も返します。
func (r *TodoRepository) List(ctx context.Context, f ListFilter) ([]*models.Todo, int, error) {
	where, args := f.where()

	total, err := r.count(ctx, where, args)
	if err != nil {
		return nil, 0, err
	}

	query := r.dialect.Rebind("SELECT " + todoColumns + " FROM todos" + where +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	rows, err := r.DB.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		r.logger.Error("Failed to query todos", "err", err)
		return nil, 0, fmt.Errorf("could not query todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*models.Todo, 0, f.Limit)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			r.logger.Error("Failed to scan todo", "err", err)
			return nil, 0, fmt.Errorf("could not scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating todos: %w", err)
	}
	return todos, total, nil
}

// Update はTodoの可変フィールドをすべて書き戻し、更新後の内容を返します。
// created_at は変更しません。
func (r *TodoRepository) Update(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	query := r.dialect.Rebind(`UPDATE todos SET title = ?, description = ?, completed = ?, status = ?,
		priority = ?, category = ?, due_date = ?, updated_at = ? WHERE id = ?`)

	result, err := r.DB.ExecContext(ctx, query,
		t.Title, nullString(t.Description), t.Completed, string(t.Status), string(t.Priority),
		t.Category, nullTime(t.DueDate), t.UpdatedAt.UTC(), t.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update todo", "id", t.ID, "err", err)
		return nil, fmt.Errorf("could not update todo: %w", err)
	}

	// 更新された行数を確認
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrTodoNotFound
	}

	return r.FindByID(ctx, t.ID)
}

// Delete は指定されたIDのTodoタスクを削除します。
// 行が存在したかどうかを返しますが、存在しなくてもエラーにはしません。
func (r *TodoRepository) Delete(ctx context.Context, id string) (bool, error) {
	query := r.dialect.Rebind("DELETE FROM todos WHERE id = ?")

	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete todo", "id", id, "err", err)
		return false, fmt.Errorf("could not delete todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Count はテーブル全体の件数を返します。
func (r *TodoRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "", nil)
}

func (r *TodoRepository) count(ctx context.Context, where string, args []any) (int, error) {
	var total int
	query := r.dialect.Rebind("SELECT COUNT(*) FROM todos" + where)
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count todos", "err", err)
		return 0, fmt.Errorf("could not count todos: %w", err)
	}
	return total, nil
}
