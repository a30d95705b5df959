package progression

import (
	"fmt"

	"github.com/abhisek/pathforge/internal/curriculum"
)

// State is a module's position in its lifecycle.
type State string

const (
	Locked    State = "locked"
	Active    State = "active"
	Completed State = "completed"
)

// StateOf derives the lifecycle state of m.
func StateOf(m curriculum.Module) State {
	switch {
	case m.Completed:
		return Completed
	case m.Unlocked:
		return Active
	default:
		return Locked
	}
}

// Complete marks the module completed and unlocks its successor by the
// module's Next reference. It returns the id of the module it unlocked,
// empty for the last module. Completing an already completed module is
// a no-op.
func Complete(plan *curriculum.Plan, moduleID string) (string, error) {
	m, ok := plan.Module(moduleID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrModuleNotFound, moduleID)
	}
	switch StateOf(*m) {
	case Locked:
		return "", fmt.Errorf("%w: %s", ErrModuleLocked, moduleID)
	case Completed:
		return "", nil
	}

	if m.Next == "" {
		m.Completed = true
		return "", nil
	}
	next, ok := plan.Module(m.Next)
	if !ok {
		return "", fmt.Errorf("%w: successor %s of %s", ErrModuleNotFound, m.Next, moduleID)
	}
	m.Completed = true
	next.Unlocked = true
	return next.ID, nil
}
