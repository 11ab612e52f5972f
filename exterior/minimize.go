// Copyright ©2025 diagramlab. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exterior

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// uoResult is the outcome of one inner (unconstrained) round.
type uoResult struct {
	x        []float64
	f        float64
	normGrad float64
	lbfgs    lbfgsState
	g        []float64
	gPre     []float64
	objEngs  []float64
	consEngs []float64
	// failed marks a recoverable numeric failure (NaN energy after a
	// step); the driver surfaces it as the Error status.
	failed bool
}

// minimize drives up to steps L-BFGS iterations at a fixed penalty weight.
//
// Each iteration polices the point and the gradient for NaN (both fatal),
// preconditions the gradient, tests ⟨g, gᵖʳᵉ⟩ against UOStop, line-searches
// along −gᵖʳᵉ and applies x ← x − t·gᵖʳᵉ. The returned normGrad always
// belongs to the most recent pre-update evaluation.
func minimize(x0 []float64, f Oracle, st lbfgsState, steps int, tune *Tuning, log *zap.Logger) (res uoResult, err error) {

	if steps < 1 {
		err = ErrInsufficientSteps
		return
	}

	x := dclone(x0)
	res.x = x
	res.lbfgs = st

	for k := 0; k < steps; k++ {

		if hasNaN(x) {
			err = fmt.Errorf("inner iteration %d: %w", k, ErrNaNInState)
			return
		}

		ev := f(x)
		if hasNaN(ev.G) {
			err = fmt.Errorf("inner iteration %d: %w", k, ErrNaNInGradient)
			return
		}

		var gPre []float64
		gPre, st, err = lbfgsStep(x, ev.G, st, tune.DivisionEps, log)
		if err != nil {
			return
		}

		normGrad := ddot(ev.G, gPre)

		res.f = ev.F
		res.normGrad = normGrad
		res.lbfgs = st
		res.g = ev.G
		res.gPre = gPre
		res.objEngs = ev.ObjEngs
		res.consEngs = ev.ConsEngs

		log.Debug("uo iterate",
			zap.Int("iter", k),
			zap.Float64("energy", ev.F),
			zap.Float64("normGrad", normGrad))

		if breakEarly && normGrad < tune.UOStop {
			break
		}

		t := awLineSearch(x, f, dneg(gPre), ev.F, ev.G, tune)

		if math.IsNaN(ev.F) || math.IsNaN(dnrm2(ev.G)) {
			res.failed = true
			break
		}

		next := dclone(x)
		daxpy(-t, gPre, next)
		x = next
		res.x = x
	}
	return
}
