package fsm

import "fmt"

// NewMachine creates an empty machine
func NewMachine[T any]() *Machine[T] {
	return &Machine[T]{
		nodes:     make(map[StateID]*Node[T]),
		byName:    make(map[string]StateID),
		guardReg:  make(map[string]GuardFunc[T]),
		actionReg: make(map[string]ActionFunc[T]),
		eventReg:  make(map[string]EventType),
	}
}

// RegisterGuard adds a predicate function to the registry
func (m *Machine[T]) RegisterGuard(name string, fn GuardFunc[T]) {
	m.guardReg[name] = fn
}

// RegisterAction adds a side-effect function to the registry
func (m *Machine[T]) RegisterAction(name string, fn ActionFunc[T]) {
	m.actionReg[name] = fn
}

// RegisterEvent names an event so configs can reference it as a trigger
func (m *Machine[T]) RegisterEvent(name string, ev EventType) {
	m.eventReg[name] = ev
}

// Init enters the initial state, running its OnEnter actions
func (m *Machine[T]) Init(ctx T) error {
	node, ok := m.nodes[m.InitialStateID]
	if !ok {
		return fmt.Errorf("initial state ID %d not found", m.InitialStateID)
	}
	m.activeStateID = node.ID
	for _, fn := range node.OnEnter {
		fn(ctx, StateNone, node.ID)
	}
	return nil
}

// Fire routes an event to the active state
// Returns true if a transition occurred
func (m *Machine[T]) Fire(ctx T, ev EventType) bool {
	node, ok := m.nodes[m.activeStateID]
	if !ok {
		return false
	}
	for _, t := range node.Transitions {
		if t.Event != ev {
			continue
		}
		if t.Guard != nil && !t.Guard(ctx) {
			continue
		}
		m.transition(ctx, node, t.TargetID)
		return true
	}
	return false
}

func (m *Machine[T]) transition(ctx T, from *Node[T], targetID StateID) {
	to, ok := m.nodes[targetID]
	if !ok {
		panic(fmt.Sprintf("fsm: transition to unknown state ID %d", targetID))
	}
	for _, fn := range from.OnExit {
		fn(ctx, from.ID, to.ID)
	}
	m.activeStateID = to.ID
	for _, fn := range to.OnEnter {
		fn(ctx, from.ID, to.ID)
	}
}

// Current returns the active state, StateNone before Init
func (m *Machine[T]) Current() StateID {
	return m.activeStateID
}

// Is reports whether id is the active state
func (m *Machine[T]) Is(id StateID) bool {
	return m.activeStateID == id
}

// Name returns the name of a state, "" if unknown
func (m *Machine[T]) Name(id StateID) string {
	if node, ok := m.nodes[id]; ok {
		return node.Name
	}
	return ""
}

// StateID resolves a state by name
func (m *Machine[T]) StateID(name string) (StateID, bool) {
	id, ok := m.byName[name]
	return id, ok
}
