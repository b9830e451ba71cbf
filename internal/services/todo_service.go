package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todo-manager/backend/internal/metrics"
	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/repositories"
	"todo-manager/backend/internal/todo"
)

// エラーの種類。ハンドラーはこれらを errors.Is で判定してステータスコードを決めます。
var (
	ErrValidation = todo.ErrValidation
	ErrNotFound   = errors.New("todo not found")
	ErrStorage    = errors.New("storage failure")
)

// TodoService はTodo関連のビジネスロジックを扱います。
type TodoService struct {
	todoRepo *repositories.TodoRepository
	logger   *log.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func() string
}

// Option は TodoService の設定を変更します。
type Option func(*TodoService)

// WithClock は現在時刻の取得方法を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(s *TodoService) { s.now = now }
}

// WithIDGenerator はID生成方法を差し替えます。
func WithIDGenerator(newID func() string) Option {
	return func(s *TodoService) { s.newID = newID }
}

// WithMetrics は操作結果を記録するメトリクスを設定します。
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *TodoService) { s.metrics = m }
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(todoRepo *repositories.TodoRepository, logger *log.Logger, opts ...Option) *TodoService {
	s := &TodoService{
		todoRepo: todoRepo,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseID はパスパラメータのIDを検証し、正規化した文字列を返します。
func ParseID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", &todo.ValidationError{Field: "id", Message: todo.MsgInvalidID}
	}
	return parsed.String(), nil
}

// List は作成日時の新しい順にTodoを1ページ分取得します。
func (s *TodoService) List(ctx context.Context, page, limit int) (*models.TodoListResponse, error) {
	return s.list(ctx, "list", repositories.ListFilter{}, page, limit)
}

// ListByStatus はstatusで絞り込んだ一覧を取得します。
func (s *TodoService) ListByStatus(ctx context.Context, status string, page, limit int) (*models.TodoListResponse, error) {
	st, err := todo.ParseStatus(status)
	if err != nil {
		s.metrics.ObserveOperation("list_by_status", metrics.OutcomeInvalid)
		return nil, err
	}
	resp, err := s.list(ctx, "list_by_status", repositories.ListFilter{Status: st}, page, limit)
	if err != nil {
		return nil, err
	}
	resp.Status = st
	return resp, nil
}

// ListByCategory はカテゴリで絞り込んだ一覧を取得します。
func (s *TodoService) ListByCategory(ctx context.Context, category string, page, limit int) (*models.TodoListResponse, error) {
	cat, err := todo.NormalizeCategory(category, todo.MsgCategoryRequired)
	if err != nil {
		s.metrics.ObserveOperation("list_by_category", metrics.OutcomeInvalid)
		return nil, err
	}
	resp, err := s.list(ctx, "list_by_category", repositories.ListFilter{Category: cat}, page, limit)
	if err != nil {
		return nil, err
	}
	resp.Category = cat
	return resp, nil
}

func (s *TodoService) list(ctx context.Context, op string, f repositories.ListFilter, page, limit int) (*models.TodoListResponse, error) {
	if err := todo.ValidatePage(page, limit); err != nil {
		s.metrics.ObserveOperation(op, metrics.OutcomeInvalid)
		return nil, err
	}
	p := models.NewPagination(page, limit, 0)
	f.Limit, f.Offset = limit, p.Offset()

	todos, total, err := s.todoRepo.List(ctx, f)
	if err != nil {
		return nil, s.fail(op, err)
	}
	s.metrics.ObserveOperation(op, metrics.OutcomeOK)
	return &models.TodoListResponse{
		Todos:      todos,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// GetByID は指定IDのTodoを取得します。
func (s *TodoService) GetByID(ctx context.Context, id string) (*models.Todo, error) {
	id, err := ParseID(id)
	if err != nil {
		s.metrics.ObserveOperation("get", metrics.OutcomeInvalid)
		return nil, err
	}
	t, err := s.todoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail("get", err)
	}
	s.metrics.ObserveOperation("get", metrics.OutcomeOK)
	return t, nil
}

// Create は新しいTodoを作成します。IDとタイムスタンプはサーバー側で付与します。
func (s *TodoService) Create(ctx context.Context, req models.CreateTodoRequest) (*models.Todo, error) {
	t, err := todo.NewTodo(req, s.newID(), s.now())
	if err != nil {
		s.metrics.ObserveOperation("create", metrics.OutcomeInvalid)
		return nil, err
	}
	created, err := s.todoRepo.Create(ctx, t)
	if err != nil {
		return nil, s.fail("create", err)
	}
	s.metrics.ObserveOperation("create", metrics.OutcomeOK)
	s.logger.Debug("Created todo", "id", created.ID, "status", created.Status)
	return created, nil
}

// Update は送られたフィールドだけを反映してTodoを更新します。
func (s *TodoService) Update(ctx context.Context, id string, req models.UpdateTodoRequest) (*models.Todo, error) {
	id, err := ParseID(id)
	if err != nil {
		s.metrics.ObserveOperation("update", metrics.OutcomeInvalid)
		return nil, err
	}
	if req.Empty() {
		s.metrics.ObserveOperation("update", metrics.OutcomeInvalid)
		return nil, &todo.ValidationError{Message: todo.MsgNoFields}
	}

	existing, err := s.todoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail("update", err)
	}
	next, err := todo.ApplyUpdate(existing, req, s.now())
	if err != nil {
		s.metrics.ObserveOperation("update", metrics.OutcomeInvalid)
		return nil, err
	}
	updated, err := s.todoRepo.Update(ctx, next)
	if err != nil {
		return nil, s.fail("update", err)
	}
	s.metrics.ObserveOperation("update", metrics.OutcomeOK)
	return updated, nil
}

// Delete はTodoを削除します。存在しないIDでも成功として扱います。
func (s *TodoService) Delete(ctx context.Context, id string) error {
	id, err := ParseID(id)
	if err != nil {
		s.metrics.ObserveOperation("delete", metrics.OutcomeInvalid)
		return err
	}
	existed, err := s.todoRepo.Delete(ctx, id)
	if err != nil {
		return s.fail("delete", err)
	}
	if !existed {
		s.logger.Debug("Delete of missing todo", "id", id)
	}
	s.metrics.ObserveOperation("delete", metrics.OutcomeOK)
	return nil
}

// fail はリポジトリのエラーを ErrNotFound / ErrStorage に変換します。
// 詳細はここでログに残し、呼び出し側には種類だけを返します。
func (s *TodoService) fail(op string, err error) error {
	if errors.Is(err, repositories.ErrTodoNotFound) {
		s.metrics.ObserveOperation(op, metrics.OutcomeNotFound)
		return ErrNotFound
	}
	s.metrics.ObserveOperation(op, metrics.OutcomeError)
	s.logger.Error("Todo operation failed", "op", op, "err", err)
	return fmt.Errorf("%s: %w", op, ErrStorage)
}
