package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition は許可されていない状態遷移を表します。
var ErrInvalidTransition = errors.New("invalid mutation transition")

// Phase は楽観的更新の状態です。
// pending から committed または reverted へ一度だけ遷移します。
type Phase int

const (
	PhasePending Phase = iota
	PhaseCommitted
	PhaseReverted
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseCommitted:
		return "committed"
	case PhaseReverted:
		return "reverted"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Kind は楽観的更新の種類です。
type Kind string

const (
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Mutation はサーバーの応答を待っている、または待ち終えたローカルの変更です。
type Mutation struct {
	ID        string
	Kind      Kind
	TodoID    string
	Phase     Phase
	StartedAt time.Time
	// Err は reverted になった原因です。
	Err string
}

// Commit はサーバーが変更を受け入れたことを記録します。
func (m *Mutation) Commit() error {
	return m.transition(PhaseCommitted, "")
}

// Revert はサーバーが変更を拒否し、ローカルの変更を破棄したことを記録します。
func (m *Mutation) Revert(cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return m.transition(PhaseReverted, msg)
}

func (m *Mutation) transition(to Phase, errMsg string) error {
	if m.Phase != PhasePending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Phase, to)
	}
	m.Phase = to
	m.Err = errMsg
	return nil
}
