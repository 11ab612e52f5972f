// Copyright ©2025 diagramlab. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exterior

import (
	"go.uber.org/zap"
)

// lbfgsState is the bounded correction history behind the preconditioner.
// The vectors it holds are never written after installation, so copying
// the struct is enough to hand it off between states.
type lbfgsState struct {
	// Previous accepted point xₖ₋₁ and its gradient ∇ϕ(xₖ₋₁).
	// Both are nil while numUnconstrSteps == 0.
	lastX, lastGrad []float64
	// Correction pairs sᵢ = xᵢ₊₁ − xᵢ and yᵢ = ∇ϕᵢ₊₁ − ∇ϕᵢ, newest first.
	// Invariant: len(sList) == len(yList) ≤ memSize.
	sList, yList [][]float64
	// Number of calls since the last reset.
	numUnconstrSteps int
	memSize          int
}

func defaultLbfgs(memSize int) lbfgsState {
	return lbfgsState{memSize: memSize}
}

// lbfgsStep returns the preconditioned gradient gᵖʳᵉ ≈ H⁻¹g and the
// successor history.
//
// The first call after a reset returns g unchanged (steepest descent) and
// records the baseline. Subsequent calls prepend the newest correction pair
// and run the two-loop recursion:
//
//	ρᵢ = 1 / (⟨yᵢ, sᵢ⟩ + ε)
//	γ  = ⟨s₀, y₀⟩ / (⟨y₀, y₀⟩ + ε)        (H₀ = γI, newest pair)
//	backward, newest → oldest:  αᵢ = ρᵢ⟨sᵢ, q⟩ ; q ← q − αᵢyᵢ
//	r ← γq
//	forward, oldest → newest:   βᵢ = ρᵢ⟨yᵢ, r⟩ ; r ← r + (αᵢ − βᵢ)sᵢ
//
// If −r fails to be a descent direction the history is discarded and the
// call degrades to steepest descent from a clean baseline.
func lbfgsStep(x, g []float64, st lbfgsState, eps float64, log *zap.Logger) (gPre []float64, out lbfgsState, err error) {

	if len(x) != len(g) {
		panic("point and gradient dimension mismatch")
	}

	if st.numUnconstrSteps > 0 && (st.lastX == nil || st.lastGrad == nil) {
		err = ErrInvalidLbfgsState
		return
	}

	reset := func() (gPre []float64, out lbfgsState) {
		out = defaultLbfgs(st.memSize)
		out.lastX = dclone(x)
		out.lastGrad = dclone(g)
		out.numUnconstrSteps = 1
		return dclone(g), out
	}

	if st.numUnconstrSteps == 0 {
		gPre, out = reset()
		return
	}

	s := dsub(x, st.lastX)
	y := dsub(g, st.lastGrad)

	k := len(st.sList) + 1
	if k > st.memSize {
		k = st.memSize
	}
	sList := make([][]float64, 0, k)
	yList := make([][]float64, 0, k)
	sList = append(sList, s)
	yList = append(yList, y)
	sList = append(sList, st.sList[:k-1]...)
	yList = append(yList, st.yList[:k-1]...)

	rho := make([]float64, k)
	for i := 0; i < k; i++ {
		rho[i] = one / (ddot(yList[i], sList[i]) + eps)
	}
	gamma := ddot(s, y) / (ddot(y, y) + eps)

	// Backward sweep, newest to oldest.
	alpha := make([]float64, k)
	q := dclone(g)
	for i := 0; i < k; i++ {
		alpha[i] = rho[i] * ddot(sList[i], q)
		daxpy(-alpha[i], yList[i], q)
	}

	// H₀q, then the forward sweep from oldest to newest.
	r := q
	dscal(gamma, r)
	for i := k - 1; i >= 0; i-- {
		beta := rho[i] * ddot(yList[i], r)
		daxpy(alpha[i]-beta, sList[i], r)
	}

	if ddot(dneg(r), g) > zero {
		// The implicit H lost positive-definiteness; restart from
		// steepest descent rather than patching the history.
		log.Warn("non-descent direction, resetting L-BFGS history",
			zap.Int("history", k))
		gPre, out = reset()
		return
	}

	out = lbfgsState{
		lastX:            dclone(x),
		lastGrad:         dclone(g),
		sList:            sList,
		yList:            yList,
		numUnconstrSteps: st.numUnconstrSteps + 1,
		memSize:          st.memSize,
	}
	gPre = r
	return
}
