// Copyright ©2025 diagramlab. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exterior

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Step advances the exterior-point state machine by exactly one transition,
// spending at most steps inner iterations when the transition is an
// unconstrained round. The caller picks the budget per invocation, which is
// what keeps long optimizations interruptible from an outer event loop.
//
// Terminal states (EPConverged, Error) are sticky and come back unchanged.
// Fatal numeric failures abort the call with a non-nil error.
func Step(s *State, steps int) (*State, error) {

	if steps < 1 {
		return nil, ErrInsufficientSteps
	}

	p := &s.params
	switch p.status {

	case EPConverged, OptError:
		return s.clone(), nil

	case NewIter:
		return stepNewIter(s), nil

	case UnconstrainedRunning:
		return stepRunning(s, steps)

	case UnconstrainedConverged:
		return stepConverged(s), nil
	}

	return nil, fmt.Errorf("unknown optimizer status %d", p.status)
}

// stepNewIter binds the first oracle and arms the schedule.
// No inner iterations are performed.
func stepNewIter(s *State) *State {
	ns := s.clone()
	p := &ns.params
	p.weight = p.initWeight
	p.uoRound = 0
	p.epRound = 0
	p.lbfgs = defaultLbfgs(p.tune.MemSize)
	p.oracle = p.factory(p.weight, ns.frozen)
	p.status = UnconstrainedRunning
	p.log.Info("exterior point schedule armed",
		zap.Float64("weight", p.weight))
	return ns
}

// stepRunning runs one inner round at the current weight.
func stepRunning(s *State, steps int) (*State, error) {

	p := &s.params
	res, err := minimize(s.varying, p.oracle, p.lbfgs, steps, &p.tune, p.log)
	if err != nil {
		return nil, fmt.Errorf("EP round %d, UO round %d: %w", p.epRound, p.uoRound, err)
	}

	ns := s.clone()
	np := &ns.params

	ns.varying = dclone(res.x)
	np.lastUOState = dclone(res.x)
	np.lastUOEnergy = res.f
	np.lbfgs = res.lbfgs
	np.lastGradient = res.g
	np.lastGradPre = res.gPre
	np.lastObjEngs = res.objEngs
	np.lastConsEngs = res.consEngs
	np.uoRound++

	switch {
	case res.failed:
		np.status = OptError
		np.log.Warn("energy diverged, aborting optimization",
			zap.Int("epRound", np.epRound),
			zap.Int("uoRound", np.uoRound))
	case res.normGrad < np.tune.UOStop:
		np.status = UnconstrainedConverged
		np.lbfgs = defaultLbfgs(np.tune.MemSize)
		np.log.Info("unconstrained round converged",
			zap.Int("epRound", np.epRound),
			zap.Int("uoRound", np.uoRound),
			zap.Float64("energy", res.f),
			zap.Float64("normGrad", res.normGrad))
	}
	return ns, nil
}

// stepConverged runs the cross-round EP test and, failing it, grows the
// penalty weight for the next round. No inner iterations are performed.
func stepConverged(s *State) *State {

	ns := s.clone()
	p := &ns.params

	if p.epRound > 1 && epConverged(p.lastEPState, p.lastUOState, p.lastEPEnergy, p.lastUOEnergy, p.tune.EPStop) {
		p.status = EPConverged
		p.log.Info("exterior point converged",
			zap.Int("epRound", p.epRound),
			zap.Float64("weight", p.weight),
			zap.Float64("energy", p.lastUOEnergy))
	} else {
		p.weight *= p.tune.WeightGrowth
		p.oracle = p.factory(p.weight, ns.frozen)
		p.uoRound = 0
		p.epRound++
		p.status = UnconstrainedRunning
		p.log.Info("growing penalty weight",
			zap.Int("epRound", p.epRound),
			zap.Float64("weight", p.weight))
	}

	p.lastEPState = p.lastUOState
	p.lastEPEnergy = p.lastUOEnergy
	return ns
}

// epConverged holds when two successive round minimizers agree in either
// position or energy. stepConverged consults it only once epRound > 1, so
// the weight has grown at least twice before EP convergence is declared.
func epConverged(x0, x1 []float64, f0, f1, tol float64) bool {
	return dnrm2(dsub(x1, x0)) < tol || math.Abs(f1-f0) < tol
}
