// Package machine implements the tour step state machine: current index,
// transition rules, and terminal-state latching. It is pure state; on
// every transition into a new running step the session manager drives
// resolution, placement, and highlighting. The machine never touches the
// view layer.
package machine

import (
	"fmt"

	"github.com/docentlabs/docent/pkg/domain"
)

// Transition describes the outcome of one state machine operation.
type Transition struct {
	// From and To are the step indexes before and after the transition.
	From, To int

	// Status is the machine status after the transition.
	Status domain.SessionStatus

	// Entered is true when To is a step the session must drive: resolve
	// the target, solve placement, apply the highlight.
	Entered bool

	// SkipAppearDelay is set when the step's appear delay must not be
	// applied: backward navigation never re-triggers it, and a step
	// already shown in this session never re-applies it either.
	SkipAppearDelay bool

	// Terminal is true when the machine latched into completed or
	// skipped. No further transitions are possible.
	Terminal bool

	// StepsCompleted carries the exit arithmetic on terminal transitions:
	// the full step count on completion, index+1 on a skip.
	StepsCompleted int

	// Action names the OnAdvance action of the step being left via Next,
	// empty otherwise.
	Action string

	// NoOp marks a rejected transition that is not an error: previous at
	// the first step, or a jump to a step with unmet prerequisites.
	NoOp bool
}

// Machine owns the step index and transition rules for one tour run.
// It is not safe for concurrent use; the session manager serializes all
// access under its own lock.
type Machine struct {
	tour    domain.Tour
	started bool
	status  domain.SessionStatus
	index   int
	visited map[int]bool
}

// New creates an idle machine for a validated tour. Starting is a
// separate, explicit transition.
func New(tour domain.Tour) *Machine {
	return &Machine{
		tour:    tour,
		visited: make(map[int]bool),
	}
}

// Started reports whether the machine left the idle state.
func (m *Machine) Started() bool { return m.started }

// Status returns the machine status. Only meaningful once started.
func (m *Machine) Status() domain.SessionStatus { return m.status }

// Index returns the current step index. Invariant: the index stays
// within [0, len(steps)) from start to terminal state.
func (m *Machine) Index() int { return m.index }

// Step returns the current step descriptor.
func (m *Machine) Step() domain.Step { return m.tour.Steps[m.index] }

// Tour returns the tour this machine runs.
func (m *Machine) Tour() domain.Tour { return m.tour }

// Visited reports whether the step at index was shown this session.
func (m *Machine) Visited(index int) bool { return m.visited[index] }

// Start moves the idle machine to the first step.
func (m *Machine) Start() (Transition, error) {
	if m.started {
		return Transition{}, fmt.Errorf("tour %q already started", m.tour.Name)
	}
	m.started = true
	m.status = domain.StatusRunning
	m.index = 0
	m.visited[0] = true
	return Transition{From: 0, To: 0, Status: m.status, Entered: true}, nil
}

// Next advances one step. On the last step it completes the tour with
// the full step count as the exit arithmetic.
func (m *Machine) Next() (Transition, error) {
	if err := m.requireRunning(); err != nil {
		return Transition{}, err
	}

	leaving := m.tour.Steps[m.index]
	from := m.index

	if m.index == len(m.tour.Steps)-1 {
		m.status = domain.StatusCompleted
		return Transition{
			From:           from,
			To:             from,
			Status:         m.status,
			Terminal:       true,
			StepsCompleted: len(m.tour.Steps),
			Action:         leaving.OnAdvance,
		}, nil
	}

	m.index++
	revisit := m.visited[m.index]
	m.visited[m.index] = true
	return Transition{
		From:            from,
		To:              m.index,
		Status:          m.status,
		Entered:         true,
		SkipAppearDelay: revisit,
		Action:          leaving.OnAdvance,
	}, nil
}

// Previous steps back. At the first step it is a no-op, and backward
// navigation never re-triggers appear delays.
func (m *Machine) Previous() (Transition, error) {
	if err := m.requireRunning(); err != nil {
		return Transition{}, err
	}
	if m.index == 0 {
		return Transition{From: 0, To: 0, Status: m.status, NoOp: true}, nil
	}

	from := m.index
	m.index--
	m.visited[m.index] = true
	return Transition{
		From:            from,
		To:              m.index,
		Status:          m.status,
		Entered:         true,
		SkipAppearDelay: true,
	}, nil
}

// Skip ends the tour from any running step, recording index+1 as the
// number of steps the user got through.
func (m *Machine) Skip() (Transition, error) {
	if err := m.requireRunning(); err != nil {
		return Transition{}, err
	}
	m.status = domain.StatusSkipped
	return Transition{
		From:           m.index,
		To:             m.index,
		Status:         m.status,
		Terminal:       true,
		StepsCompleted: m.index + 1,
	}, nil
}

// JumpTo navigates directly to a step index, as from a step list in a
// side panel. Jumps to steps with unmet prerequisites are no-ops, not
// errors; jumping to the current step is a no-op too.
func (m *Machine) JumpTo(index int) (Transition, error) {
	if err := m.requireRunning(); err != nil {
		return Transition{}, err
	}
	if index < 0 || index >= len(m.tour.Steps) {
		return Transition{}, fmt.Errorf("index %d: %w", index, domain.ErrUnknownStep)
	}
	if index == m.index {
		return Transition{From: m.index, To: m.index, Status: m.status, NoOp: true}, nil
	}
	if !m.prerequisitesMet(index) {
		return Transition{From: m.index, To: m.index, Status: m.status, NoOp: true}, nil
	}

	from := m.index
	m.index = index
	revisit := m.visited[index]
	m.visited[index] = true
	return Transition{
		From:            from,
		To:              index,
		Status:          m.status,
		Entered:         true,
		SkipAppearDelay: revisit || index < from,
	}, nil
}

// prerequisitesMet checks that every step the target requires was shown
// in this session.
func (m *Machine) prerequisitesMet(index int) bool {
	for _, req := range m.tour.Steps[index].Requires {
		at := m.tour.StepIndex(req)
		if at < 0 || !m.visited[at] {
			return false
		}
	}
	return true
}

func (m *Machine) requireRunning() error {
	if !m.started || m.status != domain.StatusRunning {
		return domain.ErrNotRunning
	}
	return nil
}
