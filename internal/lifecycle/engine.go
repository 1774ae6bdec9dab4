package lifecycle

import (
	"context"
	"fmt"

	"github.com/spec-kit/verification-service/internal/domain"
	apperrors "github.com/spec-kit/verification-service/pkg/util"
)

// EffectExecutor runs a single tagged side effect for a transition. The
// application layer supplies the implementation; the engine guarantees
// ordering and error propagation only.
type EffectExecutor interface {
	Execute(ctx context.Context, effect EffectKind, rc Context) error
}

// Engine executes lifecycle actions against a request context using the
// transition table. It holds no mutable state of its own.
type Engine struct {
	table   *Table
	effects EffectExecutor
}

// NewEngine builds an engine around an immutable table and an effect
// executor. The executor may be nil, in which case effects are skipped;
// that is intended for table-only uses such as rendering legal actions.
func NewEngine(table *Table, effects EffectExecutor) *Engine {
	return &Engine{table: table, effects: effects}
}

// Transition executes the requested action against the supplied context.
// It fails with an illegal-transition error when no table entry matches,
// with a validation error when a precondition rejects the attempt, and
// propagates the first side-effect error verbatim. Side effects run
// strictly in declared order, each awaited before the next. On any failure
// no status is returned and the caller must treat the transition as not
// having occurred. On success the caller is expected to persist the
// returned status.
func (e *Engine) Transition(ctx context.Context, rc Context, action Action) (domain.RequestStatus, error) {
	tr, ok := e.table.Lookup(rc.Status, action)
	if !ok {
		return "", apperrors.NewIllegalTransition(
			fmt.Sprintf("action %s is not allowed from status %s", action, rc.Status),
			map[string]any{"action": action, "status": rc.Status})
	}

	for _, v := range tr.Validations {
		if result := v.Check(rc); !result.OK {
			return "", apperrors.NewValidationError(
				fmt.Sprintf("validation failed for action %s: %s", action, result.Reason),
				map[string]any{"action": action, "validation": v.Name, "reason": result.Reason})
		}
	}

	if e.effects != nil {
		for _, effect := range tr.Effects {
			if err := e.effects.Execute(ctx, effect, rc); err != nil {
				return "", fmt.Errorf("side effect %s for action %s: %w", effect, action, err)
			}
		}
	}

	return tr.To, nil
}

// CanTransition reports whether the table registers (status, action). It
// is a pure lookup and runs no validations.
func (e *Engine) CanTransition(status domain.RequestStatus, action Action) bool {
	_, ok := e.table.Lookup(status, action)
	return ok
}

// PossibleActions lists every action registered for the status, for
// clients rendering legal next moves without attempting them.
func (e *Engine) PossibleActions(status domain.RequestStatus) []Action {
	return e.table.ActionsFrom(status)
}
