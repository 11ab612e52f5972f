// Copyright ©2025 diagramlab. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exterior

import (
	"math"
)

// awLineSearch brackets a step length t along the descent direction d
// satisfying both conditions at x₀ + t·d:
//   - sufficient decrease: ϕₜ ≤ ϕ₀ + c₁·t·⟨d, g₀⟩ (c₁ = 10⁻³)
//   - weak curvature: ⟨d, gₜ⟩ ≥ c₂·⟨d, g₀⟩ (c₂ = 0.9)
//
// The weak Wolfe condition is deliberate: the directions arrive
// preconditioned and the strong variant contracts the bracket too
// aggressively for them.
//
// The bracket starts at [0, ∞). A failed Armijo check pulls the upper end
// down to t, a failed curvature check pushes the lower end up to t; t then
// bisects a finite bracket or doubles past an infinite one. The search gives
// up once the bracket is narrower than MinInterval or the iteration cap is
// hit, returning the most recent t.
func awLineSearch(x0 []float64, f Oracle, d []float64, f0 float64, g0 []float64, tune *Tuning) float64 {

	n := len(x0)
	if n != len(d) || n != len(g0) {
		panic("bound check error")
	}

	dg0 := ddot(d, g0)

	a, b := zero, math.Inf(1)
	t := one

	xt := make([]float64, n)
	for i := 0; i < tune.LineSearchSteps; i++ {
		for j, x := range x0 {
			xt[j] = x + t*d[j]
		}
		ev := f(xt)

		armijo := ev.F <= f0+tune.Armijo*t*dg0
		wolfe := ddot(d, ev.G) >= tune.Wolfe*dg0

		switch {
		case !armijo:
			b = t
		case !wolfe:
			a = t
		default:
			return t
		}

		if math.IsInf(b, 1) {
			t = two * a
		} else {
			t = (a + b) / two
		}
		if b-a < tune.MinInterval {
			break
		}
	}
	return t
}
