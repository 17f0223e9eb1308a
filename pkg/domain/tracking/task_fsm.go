package tracking

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit integration. They stay untyped so they can be
// used as both statekit.StateID and statekit.EventType; events are named after
// the status they move to.
const (
	stateBacklog    = "Backlog"
	stateReady      = "Ready"
	stateInProgress = "In Progress"
	stateBlocked    = "Blocked"
	stateReview     = "Review"
	stateDone       = "Done"
	stateArchived   = "Archived"

	eventReopen = "reopen"
)

func init() {
	stateMap := map[string]TaskStatus{
		stateBacklog:    StatusBacklog,
		stateReady:      StatusReady,
		stateInProgress: StatusInProgress,
		stateBlocked:    StatusBlocked,
		stateReview:     StatusReview,
		stateDone:       StatusDone,
		stateArchived:   StatusArchived,
	}
	for fsmState, status := range stateMap {
		if fsmState != string(status) {
			panic(fmt.Sprintf("FSM state %q does not match TaskStatus %q - constants are out of sync", fsmState, status))
		}
	}
}

// statusContext carries the task the machine describes.
type statusContext struct {
	TaskID string
}

// StatusMachine walks the advisory lifecycle
// Backlog → Ready → In Progress → {Blocked, Review} → {Done, Archived}.
// Nothing enforces it; the executor uses it to flag out-of-order updates.
type StatusMachine struct {
	interpreter *statekit.Interpreter[statusContext]
}

// NewStatusMachine builds a machine positioned at initial.
func NewStatusMachine(taskID string, initial TaskStatus) (*StatusMachine, error) {
	if !initial.IsValid() {
		initial = ParseTaskStatus(string(initial))
	}

	builder := statekit.NewMachine[statusContext]("task-status").
		WithInitial(statekit.StateID(initial)).
		WithContext(statusContext{TaskID: taskID})

	builder.State(stateBacklog).
		On(stateReady).Target(stateReady).
		Done()

	builder.State(stateReady).
		On(stateInProgress).Target(stateInProgress).
		On(stateBacklog).Target(stateBacklog).
		Done()

	builder.State(stateInProgress).
		On(stateBlocked).Target(stateBlocked).
		On(stateReview).Target(stateReview).
		Done()

	builder.State(stateBlocked).
		On(stateInProgress).Target(stateInProgress).
		On(stateDone).Target(stateDone).
		On(stateArchived).Target(stateArchived).
		Done()

	builder.State(stateReview).
		On(stateInProgress).Target(stateInProgress).
		On(stateDone).Target(stateDone).
		On(stateArchived).Target(stateArchived).
		Done()

	// Terminal states only leave through an explicit reopen.
	builder.State(stateDone).
		On(eventReopen).Target(stateBacklog).
		Done()

	builder.State(stateArchived).
		On(eventReopen).Target(stateBacklog).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build status machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &StatusMachine{interpreter: interpreter}, nil
}

// Advance moves to target. It returns an error, and stays put, when the
// lifecycle does not expect that step. Staying in place is always allowed.
func (m *StatusMachine) Advance(target TaskStatus) error {
	before := m.Current()
	if before == target {
		return nil
	}
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(target)})
	if m.Current() != before {
		return nil
	}
	return fmt.Errorf("status '%s' does not usually follow '%s'", target, before)
}

// Reopen moves a terminal task back to Backlog.
func (m *StatusMachine) Reopen() error {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: eventReopen})
	if m.Current() == before {
		return fmt.Errorf("status '%s' cannot be reopened", before)
	}
	return nil
}

// Current returns the machine's status.
func (m *StatusMachine) Current() TaskStatus {
	return TaskStatus(m.interpreter.State().Value)
}

// IsAdvisedTransition reports whether from → to follows the lifecycle.
func IsAdvisedTransition(from, to TaskStatus) bool {
	m, err := NewStatusMachine("", from)
	if err != nil {
		return false
	}
	return m.Advance(to) == nil
}
