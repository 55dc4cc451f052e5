package fsm

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// LoadConfig parses a TOML graph and replaces the machine's states
// Guards, actions and events must be registered beforehand
// State IDs are assigned from 1 in sorted name order
func (m *Machine[T]) LoadConfig(data string) error {
	var config RootConfig
	md, err := toml.Decode(data, &config)
	if err != nil {
		return fmt.Errorf("failed to decode FSM config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown FSM config keys: %v", undecoded)
	}
	if len(config.States) == 0 {
		return fmt.Errorf("FSM config defines no states")
	}

	m.nodes = make(map[StateID]*Node[T])
	m.byName = make(map[string]StateID)
	m.activeStateID = StateNone

	names := make([]string, 0, len(config.States))
	for name := range config.States {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		m.AddState(StateID(i+1), name)
	}

	for _, name := range names {
		sc := config.States[name]
		id := m.byName[name]
		for _, action := range sc.OnEnter {
			fn, ok := m.actionReg[action]
			if !ok {
				return fmt.Errorf("state %q: unknown action %q", name, action)
			}
			m.OnEnter(id, fn)
		}
		for _, action := range sc.OnExit {
			fn, ok := m.actionReg[action]
			if !ok {
				return fmt.Errorf("state %q: unknown action %q", name, action)
			}
			m.OnExit(id, fn)
		}
		for _, tc := range sc.Transitions {
			t, err := m.compileTransition(tc)
			if err != nil {
				return fmt.Errorf("state %q: %w", name, err)
			}
			if err := m.AddTransition(id, t); err != nil {
				return err
			}
		}
	}

	initial, ok := m.byName[config.InitialState]
	if !ok {
		return fmt.Errorf("initial state %q not defined", config.InitialState)
	}
	m.InitialStateID = initial
	return nil
}

func (m *Machine[T]) compileTransition(tc TransitionConfig) (Transition[T], error) {
	ev, ok := m.eventReg[tc.Trigger]
	if !ok {
		return Transition[T]{}, fmt.Errorf("unknown trigger %q", tc.Trigger)
	}
	target, ok := m.byName[tc.Target]
	if !ok {
		return Transition[T]{}, fmt.Errorf("unknown target %q", tc.Target)
	}
	t := Transition[T]{TargetID: target, Event: ev}
	if tc.Guard != "" {
		guard, ok := m.guardReg[tc.Guard]
		if !ok {
			return Transition[T]{}, fmt.Errorf("unknown guard %q", tc.Guard)
		}
		t.Guard = guard
	}
	return t, nil
}
