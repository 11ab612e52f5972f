// Copyright ©2025 diagramlab. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exterior

import (
	"errors"

	"github.com/BurntSushi/toml"
)

const (
	defConstraintScale = 1e4
	defInitWeight      = 1e3
	defWeightGrowth    = 10.0
	defEPStop          = 1e-3
	defUOStop          = 1e-2
	defDivisionEps     = 1e-11
	defMemSize         = 17
	defLineSearchSteps = 10
	defArmijo          = 1e-3
	defWolfe           = 0.9
	defMinInterval     = 1e-10
)

// Tuning collects every tunable constant of the optimizer.
// A zero field falls back to its default, so a TOML file may
// override any subset.
type Tuning struct {
	// ConstraintScale is the fixed multiplier c₀ on the penalty sum.
	ConstraintScale float64 `toml:"constraint_scale"`
	// WeightGrowth multiplies the penalty weight after each EP round.
	WeightGrowth float64 `toml:"weight_growth"`
	// EPStop is the round-over-round convergence threshold
	// on ‖x₁ − x₀‖₂ and |ϕ₁ − ϕ₀|.
	EPStop float64 `toml:"ep_stop"`
	// UOStop is the inner convergence threshold on ⟨g, gᵖʳᵉ⟩.
	UOStop float64 `toml:"uo_stop"`
	// DivisionEps guards the curvature divisions in the two-loop recursion.
	DivisionEps float64 `toml:"division_eps"`
	// MemSize is the L-BFGS correction history depth.
	MemSize int `toml:"mem_size"`
	// LineSearchSteps caps the bracketing iterations per search.
	LineSearchSteps int `toml:"line_search_steps"`
	// Armijo is the sufficient-decrease constant c₁.
	Armijo float64 `toml:"armijo"`
	// Wolfe is the weak curvature constant c₂.
	Wolfe float64 `toml:"wolfe"`
	// MinInterval is the smallest bracket the line search keeps splitting.
	MinInterval float64 `toml:"min_interval"`
}

// DefaultTuning returns the stock constants.
func DefaultTuning() Tuning {
	return Tuning{
		ConstraintScale: defConstraintScale,
		WeightGrowth:    defWeightGrowth,
		EPStop:          defEPStop,
		UOStop:          defUOStop,
		DivisionEps:     defDivisionEps,
		MemSize:         defMemSize,
		LineSearchSteps: defLineSearchSteps,
		Armijo:          defArmijo,
		Wolfe:           defWolfe,
		MinInterval:     defMinInterval,
	}
}

// LoadTuning decodes a TOML tuning file on top of the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := Tuning{}
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return t, err
	}
	t.fill()
	return t, t.validate()
}

// fill replaces zero fields with their defaults.
func (t *Tuning) fill() {
	def := DefaultTuning()
	if t.ConstraintScale == zero {
		t.ConstraintScale = def.ConstraintScale
	}
	if t.WeightGrowth == zero {
		t.WeightGrowth = def.WeightGrowth
	}
	if t.EPStop == zero {
		t.EPStop = def.EPStop
	}
	if t.UOStop == zero {
		t.UOStop = def.UOStop
	}
	if t.DivisionEps == zero {
		t.DivisionEps = def.DivisionEps
	}
	if t.MemSize == 0 {
		t.MemSize = def.MemSize
	}
	if t.LineSearchSteps == 0 {
		t.LineSearchSteps = def.LineSearchSteps
	}
	if t.Armijo == zero {
		t.Armijo = def.Armijo
	}
	if t.Wolfe == zero {
		t.Wolfe = def.Wolfe
	}
	if t.MinInterval == zero {
		t.MinInterval = def.MinInterval
	}
}

func (t *Tuning) validate() (err error) {
	switch {
	case t.ConstraintScale <= zero:
		err = errors.New("constraint scale must be greater than 0")
	case t.WeightGrowth <= one:
		err = errors.New("weight growth must be greater than 1")
	case t.EPStop <= zero:
		err = errors.New("ep stop threshold must be greater than 0")
	case t.UOStop <= zero:
		err = errors.New("uo stop threshold must be greater than 0")
	case t.DivisionEps <= zero:
		err = errors.New("division epsilon must be greater than 0")
	case t.MemSize < 1:
		err = errors.New("correction number must be at least 1")
	case t.LineSearchSteps < 1:
		err = errors.New("line search steps must be at least 1")
	case t.Armijo <= zero || t.Armijo >= one:
		err = errors.New("armijo constant must be in (0, 1)")
	case t.Wolfe <= t.Armijo || t.Wolfe >= one:
		err = errors.New("wolfe constant must be in (armijo, 1)")
	case t.MinInterval <= zero:
		err = errors.New("line search interval must be greater than 0")
	}
	return
}
