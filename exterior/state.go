// Copyright ©2025 diagramlab. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exterior

import "go.uber.org/zap"

// optParams is the optimizer bookkeeping carried between Step invocations.
type optParams struct {
	initWeight float64
	weight     float64

	uoRound int
	epRound int
	status  OptStatus

	// Snapshot after the most recent inner convergence.
	lastUOState  []float64
	lastUOEnergy float64

	// Snapshot from the prior EP round, for the cross-round test.
	lastEPState  []float64
	lastEPEnergy float64

	// Diagnostics from the most recent inner evaluation.
	lastGradient []float64
	lastGradPre  []float64
	lastObjEngs  []float64
	lastConsEngs []float64

	lbfgs lbfgsState

	oracle  Oracle
	factory OracleFactory

	tune Tuning
	log  *zap.Logger
}

// State is one resumable snapshot of the optimization. Step never mutates
// its argument; callers keep the latest returned State and discard
// predecessors.
type State struct {
	varying []float64
	frozen  FrozenSet
	params  optParams
}

// clone copies the state one level deep. Vectors inside params are never
// written after installation, so sharing them across generations is safe;
// only the varying vector needs a private copy.
func (s *State) clone() *State {
	c := &State{
		varying: dclone(s.varying),
		frozen:  s.frozen,
		params:  s.params,
	}
	return c
}

// Restart returns a NewIter state at the current point: the next Step
// rebinds the oracle at the initial weight and starts the EP schedule over.
func (s *State) Restart() *State {
	c := s.clone()
	c.params.status = NewIter
	return c
}

// Values returns a copy of the parameter vector.
func (s *State) Values() []float64 { return dclone(s.varying) }

// Status returns the state-machine phase.
func (s *State) Status() OptStatus { return s.params.status }

// Weight returns the current EP penalty weight.
func (s *State) Weight() float64 { return s.params.weight }

// EPRound returns the number of completed EP rounds.
func (s *State) EPRound() int { return s.params.epRound }

// UORound returns the number of inner rounds at the current weight.
func (s *State) UORound() int { return s.params.uoRound }

// Energy returns the scalarized energy after the most recent inner round.
func (s *State) Energy() float64 { return s.params.lastUOEnergy }

// Gradient returns the most recent raw gradient, or an empty slice before any round.
func (s *State) Gradient() []float64 { return dclone(s.params.lastGradient) }

// Preconditioned returns the most recent preconditioned gradient.
func (s *State) Preconditioned() []float64 { return dclone(s.params.lastGradPre) }

// ObjEnergies returns the most recent per-objective energies.
func (s *State) ObjEnergies() []float64 { return dclone(s.params.lastObjEngs) }

// ConsEnergies returns the most recent per-constraint penalties.
func (s *State) ConsEnergies() []float64 { return dclone(s.params.lastConsEngs) }

// Frozen reports whether parameter i is pinned.
func (s *State) Frozen(i int) bool { return s.frozen.Has(i) }
