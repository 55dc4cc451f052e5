package fsm

// RootConfig is the top-level TOML structure
type RootConfig struct {
	InitialState string                  `toml:"initial"`
	States       map[string]*StateConfig `toml:"states"`
}

// StateConfig is a single state definition
type StateConfig struct {
	OnEnter     []string           `toml:"on_enter,omitempty"`
	OnExit      []string           `toml:"on_exit,omitempty"`
	Transitions []TransitionConfig `toml:"transitions,omitempty"`
}

// TransitionConfig is a transition definition
type TransitionConfig struct {
	Trigger string `toml:"trigger"`         // registered event name
	Target  string `toml:"target"`          // target state name
	Guard   string `toml:"guard,omitempty"` // registered guard name
}
