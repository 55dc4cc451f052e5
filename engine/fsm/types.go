package fsm

// StateID is a unique identifier for a node
type StateID int

// StateNone marks an uninitialized machine
const StateNone StateID = 0

// EventType identifies an external trigger
type EventType int

// Machine is a flat finite state machine
// T is the context passed to actions and guards (e.g. *engine.Scheduler)
// Not safe for concurrent use; owners serialize Fire calls
type Machine[T any] struct {
	// Graph, immutable after load
	nodes  map[StateID]*Node[T]
	byName map[string]StateID

	InitialStateID StateID

	// Runtime
	activeStateID StateID

	// Named callables referenced by loaded configs
	guardReg  map[string]GuardFunc[T]
	actionReg map[string]ActionFunc[T]
	eventReg  map[string]EventType
}

// Node represents a state
type Node[T any] struct {
	ID   StateID
	Name string

	OnEnter []ActionFunc[T]
	OnExit  []ActionFunc[T]

	// Evaluated in order; the first matching transition wins
	Transitions []Transition[T]
}

// Transition links a state to a target on an event
type Transition[T any] struct {
	TargetID StateID
	Event    EventType
	Guard    GuardFunc[T] // nil = always
}

// GuardFunc returns true if the transition should occur
type GuardFunc[T any] func(ctx T) bool

// ActionFunc executes a side effect; from and to are the states of the transition
type ActionFunc[T any] func(ctx T, from, to StateID)
