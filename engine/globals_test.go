package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/parameter"
)

func TestNewGlobalsDefaults(t *testing.T) {
	g, err := NewGlobals(parameter.DefaultRange, parameter.DefaultDomainSize, parameter.DefaultStepsPerSecond,
		0, parameter.DefaultGravityCellsY)
	if err != nil {
		t.Fatalf("NewGlobals: %v", err)
	}
	if g.PhysicsScale != 15_625_000 {
		t.Errorf("PhysicsScale = %d, want 15625000", g.PhysicsScale)
	}
	if g.Min != -2_000_000_000 || g.Max != 2_000_000_000 {
		t.Errorf("bounds = [%d, %d]", g.Min, g.Max)
	}
	if g.Gravity.Y != -156_250_000 {
		t.Errorf("Gravity.Y = %d, want -156250000", g.Gravity.Y)
	}
	if step := g.GravityStep(); step.Y != -2384 {
		t.Errorf("GravityStep.Y = %d, want -2384", step.Y)
	}
	b := g.Bounds()
	if b.Lo != g.Min+g.PhysicsScale/2 || b.Hi != g.Max-g.PhysicsScale/2 {
		t.Errorf("Bounds = %+v", b)
	}
	if !strings.Contains(g.String(), "sps=256") {
		t.Errorf("String() = %q", g.String())
	}
}

func TestGlobalsValidate(t *testing.T) {
	base := NewFixtureGlobals(0)

	tests := []struct {
		name   string
		mutate func(g *Globals)
	}{
		{"zero steps per second", func(g *Globals) { g.StepsPerSecond = 0 }},
		{"zero domain", func(g *Globals) { g.DomainSize = 0 }},
		{"domain too large", func(g *Globals) { g.DomainSize = parameter.MaxDomainSize + 2 }},
		{"scale too large", func(g *Globals) { g.PhysicsScale = parameter.MaxPhysicsScale + 1 }},
		{"zero render scale", func(g *Globals) { g.RenderScale = 0 }},
		{"bounds narrower than a diameter", func(g *Globals) { g.Min, g.Max = -10, 10 }},
		{"grid smaller than bounds", func(g *Globals) { g.DomainSize = 16 }},
		{"gravity step over one cell", func(g *Globals) {
			g.StepsPerSecond = 32
			g.Gravity = core.Vec2{Y: -(FixtureScale + 1) * 32 * 32}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := base
			tt.mutate(&g)
			if err := g.Validate(); !errors.Is(err, ErrInvalidGlobals) {
				t.Errorf("Validate() = %v, want ErrInvalidGlobals", err)
			}
		})
	}

	if err := base.Validate(); err != nil {
		t.Errorf("fixture globals invalid: %v", err)
	}
}

func TestNewGlobalsRejectsOverflow(t *testing.T) {
	if _, err := NewGlobals(1<<33, 64, 256, 0, 0); !errors.Is(err, ErrInvalidGlobals) {
		t.Errorf("range past int32: err = %v", err)
	}
	if _, err := NewGlobals(1<<30, 64, 256, 0, -1e6); !errors.Is(err, ErrInvalidGlobals) {
		t.Errorf("huge gravity: err = %v", err)
	}
}

func TestNudgeDisabled(t *testing.T) {
	g := NewFixtureGlobals(0)
	if g.Nudge() != FixtureScale/parameter.BorderNudgeDivisor {
		t.Errorf("Nudge = %d", g.Nudge())
	}
	g.NoBorderNudge = true
	if g.Nudge() != 0 {
		t.Errorf("Nudge with NoBorderNudge = %d, want 0", g.Nudge())
	}
}
