// Package store はクライアント側のTodoの状態を保持します。
// 更新と削除はサーバーの応答を待たずにローカルへ反映し、失敗した場合はサーバーから読み直します。
package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/todo"
)

// reloadTimeout は失敗した変更を取り消すための読み直しの上限時間です。
const reloadTimeout = 10 * time.Second

// API はストアが使うサーバーの操作です。*client.Client が満たします。
type API interface {
	List(ctx context.Context, page, limit int) (*models.TodoListResponse, error)
	Create(ctx context.Context, req models.CreateTodoRequest) (*models.Todo, error)
	Update(ctx context.Context, id string, req models.UpdateTodoRequest) (*models.Todo, error)
	Delete(ctx context.Context, id string) error
}

// State は画面に表示する状態です。
type State struct {
	Todos   []*models.Todo
	Loading bool
	Error   string
	// Pagination は最初の読み込みに成功するまで nil です。
	Pagination *models.Pagination
}

func (s State) clone() State {
	out := s
	out.Todos = make([]*models.Todo, len(s.Todos))
	for i, t := range s.Todos {
		out.Todos[i] = t.Clone()
	}
	if s.Pagination != nil {
		p := *s.Pagination
		out.Pagination = &p
	}
	return out
}

// Store はTodoの一覧と楽観的更新の記録を保持します。並行して呼び出しても安全です。
type Store struct {
	api    API
	logger *log.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     State
	mutations []*Mutation
	subs      map[int]func(State)
	nextSub   int
	page      int
	limit     int
}

// Option は Store の設定を変更します。
type Option func(*Store)

// WithClock はローカルの updatedAt に使う時計を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New は新しいStoreを作成します。
func New(api API, logger *log.Logger, opts ...Option) *Store {
	s := &Store{
		api:    api,
		logger: logger,
		now:    time.Now,
		state:  State{Todos: []*models.Todo{}},
		subs:   make(map[int]func(State)),
		page:   models.DefaultPage,
		limit:  models.DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot は現在の状態のコピーを返します。
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Mutations は楽観的更新の記録のコピーを古い順に返します。
func (s *Store) Mutations() []Mutation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Mutation, len(s.mutations))
	for i, m := range s.mutations {
		out[i] = *m
	}
	return out
}

// Subscribe は状態が変わるたびに呼ばれる fn を登録します。戻り値で登録を解除します。
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// modify はロックを取って状態を変更し、購読者に通知します。
func (s *Store) modify(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, f := range s.subs {
		subs = append(subs, f)
	}
	s.mu.Unlock()

	for _, f := range subs {
		f(snap)
	}
}

// Load は表示中のページ (最初は1ページ目) を読み込み、一覧を置き換えます。
// 失敗した場合は一覧をそのままにしてエラーを設定します。
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	page, limit := s.page, s.limit
	s.mu.Unlock()
	return s.load(ctx, page, limit)
}

// LoadPage は表示するページを切り替えて読み込みます。以降の Load と Refresh はこのページを読み直します。
func (s *Store) LoadPage(ctx context.Context, page, limit int) error {
	s.mu.Lock()
	s.page, s.limit = page, limit
	s.mu.Unlock()
	return s.load(ctx, page, limit)
}

func (s *Store) load(ctx context.Context, page, limit int) error {
	s.modify(func(st *State) { st.Loading = true })

	resp, err := s.api.List(ctx, page, limit)
	if err != nil {
		s.logger.Warn("Failed to fetch todos", "err", err)
		s.modify(func(st *State) {
			st.Loading = false
			st.Error = err.Error()
		})
		return err
	}

	todos := resp.Todos
	if todos == nil {
		todos = []*models.Todo{}
	}
	pagination := resp.Pagination
	s.modify(func(st *State) {
		st.Todos = todos
		st.Pagination = &pagination
		st.Loading = false
		st.Error = ""
	})
	return nil
}

// Refresh は Load をもう一度実行します。
func (s *Store) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// Create はサーバーでTodoを作成し、成功したら先頭に追加します。
// 作成はIDが決まるまで待つので楽観的には反映しません。
func (s *Store) Create(ctx context.Context, req models.CreateTodoRequest) (*models.Todo, error) {
	created, err := s.api.Create(ctx, req)
	if err != nil {
		s.modify(func(st *State) { st.Error = err.Error() })
		return nil, err
	}

	s.modify(func(st *State) {
		st.Todos = append([]*models.Todo{created.Clone()}, st.Todos...)
		if st.Pagination != nil {
			st.Pagination.Total++
		}
	})
	return created.Clone(), nil
}

func indexOf(todos []*models.Todo, id string) int {
	return slices.IndexFunc(todos, func(t *models.Todo) bool { return t.ID == id })
}

// begin は楽観的更新を pending として記録します。
func (s *Store) begin(kind Kind, id string) *Mutation {
	m := &Mutation{ID: uuid.NewString(), Kind: kind, TodoID: id, Phase: PhasePending, StartedAt: s.now()}
	s.mu.Lock()
	s.mutations = append(s.mutations, m)
	s.mu.Unlock()
	return m
}

func (s *Store) settle(m *Mutation, cause error) {
	s.mu.Lock()
	var err error
	if cause == nil {
		err = m.Commit()
	} else {
		err = m.Revert(cause)
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("Mutation already settled", "mutation", m.ID, "err", err)
	}
}

// rollback はサーバーから読み直してローカルの変更を捨て、その後 cause のメッセージを設定します。
// 呼び出し元の ctx が取り消されていても読み直すように、キャンセルを切り離した ctx を使います。
func (s *Store) rollback(ctx context.Context, m *Mutation, cause error) {
	s.settle(m, cause)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reloadTimeout)
	defer cancel()
	if err := s.Load(ctx); err != nil {
		s.logger.Warn("Failed to reload after rejected mutation", "mutation", m.ID, "err", err)
	}
	s.modify(func(st *State) { st.Error = cause.Error() })
}

// Update は部分更新をすぐにローカルへ反映してからサーバーへ送ります。
// ローカルで検証に失敗した場合はサーバーへ送らずにエラーを返します。
func (s *Store) Update(ctx context.Context, id string, req models.UpdateTodoRequest) (*models.Todo, error) {
	s.mu.Lock()
	var optimistic *models.Todo
	if i := indexOf(s.state.Todos, id); i >= 0 {
		next, err := todo.ApplyUpdate(s.state.Todos[i], req, s.now())
		if err != nil {
			s.mu.Unlock()
			s.modify(func(st *State) { st.Error = err.Error() })
			return nil, err
		}
		optimistic = next
	}
	s.mu.Unlock()

	m := s.begin(KindUpdate, id)
	if optimistic != nil {
		s.modify(func(st *State) {
			if i := indexOf(st.Todos, id); i >= 0 {
				st.Todos[i] = optimistic
			}
		})
	}

	updated, err := s.api.Update(ctx, id, req)
	if err != nil {
		s.rollback(ctx, m, err)
		return nil, err
	}

	s.settle(m, nil)
	s.modify(func(st *State) {
		if i := indexOf(st.Todos, id); i >= 0 {
			st.Todos[i] = updated.Clone()
		}
	})
	return updated.Clone(), nil
}

// Delete はすぐにローカルから取り除いてからサーバーへ削除を送ります。
func (s *Store) Delete(ctx context.Context, id string) error {
	m := s.begin(KindDelete, id)
	s.modify(func(st *State) {
		i := indexOf(st.Todos, id)
		if i < 0 {
			return
		}
		st.Todos = slices.Delete(slices.Clone(st.Todos), i, i+1)
		if st.Pagination != nil && st.Pagination.Total > 0 {
			st.Pagination.Total--
		}
	})

	if err := s.api.Delete(ctx, id); err != nil {
		s.rollback(ctx, m, err)
		return err
	}
	s.settle(m, nil)
	return nil
}
