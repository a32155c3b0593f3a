package mutation

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type State string

const (
	Pending    State = "pending"
	Confirmed  State = "confirmed"
	RolledBack State = "rolled-back"
)

// Mutation is one optimistic change in flight or settled.
type Mutation struct {
	ID     string
	Kind   string
	Target string
	State  State
}

// Recorder is told about every settled mutation.
type Recorder interface {
	Settled(kind string, state State)
}

type noopRecorder struct{}

func (noopRecorder) Settled(string, State) {}

/*
Tracker runs optimistic mutations as a small state machine:

	Pending → Confirmed   (backend call succeeded, onConfirm runs)
	Pending → RolledBack  (backend call failed, onRollback runs)

apply runs before the network call, so the caller sees its change at once.
Pending mutations are visible through Pending() until they settle.
*/
type Tracker struct {
	mu      sync.Mutex
	pending map[string]Mutation

	recorder Recorder
	logger   *zap.Logger
}

func NewTracker(recorder Recorder, logger *zap.Logger) *Tracker {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		pending:  make(map[string]Mutation),
		recorder: recorder,
		logger:   logger,
	}
}

// Steps are the callbacks of one mutation. Apply, OnConfirm and OnRollback may be nil.
type Steps struct {
	Apply      func()
	Call       func(ctx context.Context) error
	OnConfirm  func(ctx context.Context)
	OnRollback func(ctx context.Context, err error)
}

// Run applies, calls and settles one mutation. The call error is returned unchanged.
func (t *Tracker) Run(ctx context.Context, kind, target string, s Steps) error {
	m := Mutation{ID: uuid.NewString(), Kind: kind, Target: target, State: Pending}

	t.mu.Lock()
	t.pending[m.ID] = m
	t.mu.Unlock()

	if s.Apply != nil {
		s.Apply()
	}

	err := s.Call(ctx)

	t.mu.Lock()
	delete(t.pending, m.ID)
	t.mu.Unlock()

	if err != nil {
		m.State = RolledBack
		t.logger.Debug("mutation rolled back",
			zap.String("id", m.ID),
			zap.String("kind", kind),
			zap.String("target", target),
			zap.Error(err),
		)
		if s.OnRollback != nil {
			s.OnRollback(ctx, err)
		}
		t.recorder.Settled(kind, m.State)
		return err
	}

	m.State = Confirmed
	if s.OnConfirm != nil {
		s.OnConfirm(ctx)
	}
	t.recorder.Settled(kind, m.State)
	return nil
}

// Pending returns the mutations not yet settled.
func (t *Tracker) Pending() []Mutation {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Mutation, 0, len(t.pending))
	for _, m := range t.pending {
		out = append(out, m)
	}
	return out
}

// InFlight reports whether a mutation of kind on target is still pending.
func (t *Tracker) InFlight(kind, target string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, m := range t.pending {
		if m.Kind == kind && m.Target == target {
			return true
		}
	}
	return false
}
