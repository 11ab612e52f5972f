// Copyright ©2025 diagramlab. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exterior

import "errors"

const (
	zero = 0.0
	one  = 1.0
	two  = 2.0
)

// breakEarly stops the inner loop as soon as ⟨g, gᵖʳᵉ⟩ drops under UOStop,
// instead of spending the remaining step budget.
const breakEarly = true

// OptStatus is the phase of the exterior-point state machine.
type OptStatus int

const (
	// NewIter the state is fresh and the first oracle has not been bound yet.
	NewIter OptStatus = iota
	// UnconstrainedRunning an inner minimization round is in progress at the current weight.
	UnconstrainedRunning
	// UnconstrainedConverged the inner round at the current weight has converged.
	UnconstrainedConverged
	// EPConverged two successive rounds agree within EPStop; terminal.
	EPConverged
	// OptError the inner minimizer reported a NaN energy (the recoverable failure path); terminal.
	OptError
)

// Terminal reports whether no further Step call can change the state.
func (s OptStatus) Terminal() bool {
	return s == EPConverged || s == OptError
}

func (s OptStatus) String() string {
	switch s {
	case NewIter:
		return "NewIter"
	case UnconstrainedRunning:
		return "UnconstrainedRunning"
	case UnconstrainedConverged:
		return "UnconstrainedConverged"
	case EPConverged:
		return "EPConverged"
	case OptError:
		return "Error"
	}
	return "Unknown"
}

var (
	// ErrNaNInState a NaN appeared in the parameter vector before evaluation.
	ErrNaNInState = errors.New("NaN in parameter vector")
	// ErrNaNInGradient the oracle returned a gradient containing NaN.
	ErrNaNInGradient = errors.New("NaN in gradient")
	// ErrInvalidLbfgsState the correction history and the step counter disagree.
	ErrInvalidLbfgsState = errors.New("invalid L-BFGS state")
	// ErrInsufficientSteps the step budget must be at least 1.
	ErrInsufficientSteps = errors.New("step budget must be at least 1")
)

// InputKind tags a parameter as varying or held constant.
type InputKind int

const (
	// Optimized the parameter takes part in optimization.
	Optimized InputKind = iota
	// Pending the parameter is a constant for the lifetime of the problem.
	Pending
)

// InputMeta describes one entry of the parameter vector.
type InputMeta struct {
	Name string
	Kind InputKind
}

// FrozenSet holds parameter indices whose gradient entries are forced
// to zero, pinning them for the remainder of the optimization.
type FrozenSet map[int]struct{}

// Freeze adds index i to the set.
func (f FrozenSet) Freeze(i int) { f[i] = struct{}{} }

// Has reports whether index i is frozen.
func (f FrozenSet) Has(i int) bool {
	_, ok := f[i]
	return ok
}

func (f FrozenSet) clone() FrozenSet {
	c := make(FrozenSet, len(f))
	for i := range f {
		c[i] = struct{}{}
	}
	return c
}

// Evaluation evaluates one differentiable term.
//   - 𝒇(𝐱) : ℝⁿ → ℝ
//   - 𝒇′(𝐱) : ℝⁿ → ℝⁿ (written into g, which arrives zeroed)
type Evaluation func(x []float64, g []float64) (f float64)

// Eval is one oracle answer: the scalarized energy, its gradient and
// the per-term energies it was assembled from.
type Eval struct {
	F        float64
	G        []float64
	ObjEngs  []float64
	ConsEngs []float64
}

// Oracle evaluates the scalarized energy at a point. It is pure:
// deterministic, side-effect free, bound to a fixed penalty weight.
type Oracle func(x []float64) Eval

// OracleFactory binds an oracle to a penalty weight and a frozen set.
type OracleFactory func(weight float64, frozen FrozenSet) Oracle
