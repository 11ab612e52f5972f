// Copyright ©2025 diagramlab. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exterior

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/diagramlab/layoutopt/numgrad"
)

// Problem specifies a constraint-and-objective layout problem.
//
// The scalarized energy the optimizer descends is
//
//	ϕ(x; w) = Σⱼ oⱼ(x) + c₀·w·Σᵢ penalty(cᵢ(x))
//
// with penalty(v) = max(v, 0)², so a constraint term cᵢ encodes the
// inequality cᵢ(x) ≤ 0 and contributes nothing while satisfied.
type Problem struct {
	// Inputs tags each parameter; its length fixes the dimension n.
	Inputs []InputMeta
	// Objectives are the energy terms oⱼ.
	Objectives []Evaluation
	// Constraints are the inequality terms cᵢ, penalized when positive.
	Constraints []Evaluation
	// Factory supplies prebuilt weight-bound oracles instead of the term
	// lists, for collaborators that compile the scalarized energy
	// themselves. Mutually exclusive with Objectives and Constraints.
	Factory OracleFactory
	// InitWeight is the starting EP penalty weight w.
	// Zero selects the engine default of 10³.
	InitWeight float64
	// Frozen pins parameter indices from the start. Optional.
	Frozen FrozenSet
	// Tuning overrides the stock constants. Optional.
	Tuning *Tuning
	// Logger receives iteration and round diagnostics. Optional.
	Logger *zap.Logger
}

// Build validates the problem, wires the oracle factory and returns the
// initial state, ready for the first Step call.
func (p *Problem) Build() (*State, error) {

	n := len(p.Inputs)

	tune := DefaultTuning()
	if p.Tuning != nil {
		tune = *p.Tuning
		tune.fill()
	}

	initWeight := p.InitWeight
	if initWeight == zero {
		initWeight = defInitWeight
	}

	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var err error
	switch {
	case n <= 0:
		err = errors.New("problem dimension must be greater than 0")
	case initWeight <= zero || math.IsNaN(initWeight):
		err = errors.New("initial constraint weight must be greater than 0")
	case p.Factory != nil && (len(p.Objectives) > 0 || len(p.Constraints) > 0):
		err = errors.New("factory and term lists are mutually exclusive")
	default:
		err = tune.validate()
	}
	for k, o := range p.Objectives {
		if err != nil {
			break
		}
		if o == nil {
			err = fmt.Errorf("objective term missing at %d", k)
		}
	}
	for k, c := range p.Constraints {
		if err != nil {
			break
		}
		if c == nil {
			err = fmt.Errorf("constraint term missing at %d", k)
		}
	}
	for i := range p.Frozen {
		if err != nil {
			break
		}
		if i < 0 || i >= n {
			err = fmt.Errorf("frozen index %d out of range", i)
		}
	}
	if err != nil {
		return nil, err
	}

	frozen := p.Frozen.clone()
	if frozen == nil {
		frozen = make(FrozenSet)
	}

	factory := p.Factory
	if factory == nil {
		factory = p.oracleFactory(tune.ConstraintScale)
	}

	s := &State{
		varying: make([]float64, n),
		frozen:  frozen,
		params: optParams{
			initWeight: initWeight,
			weight:     initWeight,
			status:     UnconstrainedRunning,
			lbfgs:      defaultLbfgs(tune.MemSize),
			factory:    factory,
			oracle:     factory(initWeight, frozen),
			tune:       tune,
			log:        log,
		},
	}
	return s, nil
}

// Start returns the initial state positioned at x0.
func (p *Problem) Start(x0 []float64) (*State, error) {
	s, err := p.Build()
	if err != nil {
		return nil, err
	}
	if len(x0) != len(p.Inputs) {
		return nil, errors.New("initial point dimension must match inputs")
	}
	s.varying = dclone(x0)
	return s, nil
}

// oracleFactory closes over the term lists and produces weight-bound
// oracles. The returned gradient is already masked: entries for Pending or
// frozen parameters are zero, so the inner minimizer never moves them.
func (p *Problem) oracleFactory(c0 float64) OracleFactory {

	n := len(p.Inputs)
	inputs := make([]InputMeta, n)
	copy(inputs, p.Inputs)
	objs := make([]Evaluation, len(p.Objectives))
	copy(objs, p.Objectives)
	cons := make([]Evaluation, len(p.Constraints))
	copy(cons, p.Constraints)

	return func(w float64, frozen FrozenSet) Oracle {

		mask := make([]bool, n)
		for i, in := range inputs {
			mask[i] = in.Kind == Optimized && !frozen.Has(i)
		}

		// Term scratch, owned by this oracle.
		buf := make([]float64, n)

		return func(x []float64) Eval {
			if len(x) != n {
				panic("point dimension not match problem")
			}

			grad := make([]float64, n)
			objEngs := make([]float64, len(objs))
			consEngs := make([]float64, len(cons))

			f := zero
			for j, o := range objs {
				clear(buf)
				v := o(x, buf)
				objEngs[j] = v
				f += v
				daxpy(one, buf, grad)
			}
			for i, c := range cons {
				clear(buf)
				v := c(x, buf)
				pen := zero
				if v > zero {
					pen = v * v
					// ∇ penalty(cᵢ) = 2·max(cᵢ, 0)·∇cᵢ
					daxpy(c0*w*two*v, buf, grad)
				}
				consEngs[i] = pen
				f += c0 * w * pen
			}
			for i, ok := range mask {
				if !ok {
					grad[i] = zero
				}
			}
			return Eval{F: f, G: grad, ObjEngs: objEngs, ConsEngs: consEngs}
		}
	}
}

// TermOf lifts a plain scalar function into an Evaluation by central
// finite differences, for terms supplied without a symbolic gradient.
func TermOf(f func(x []float64) float64) Evaluation {
	return func(x, g []float64) float64 {
		spec := numgrad.Spec{N: len(x), Object: f, Method: numgrad.Central}
		if err := spec.Grad(x, g); err != nil {
			panic(err)
		}
		return f(x)
	}
}
