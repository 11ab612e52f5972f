// Copyright ©2025 diagramlab. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exterior

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildValidation(t *testing.T) {
	okObj := func(x, g []float64) float64 { return 0 }

	badFrozen := make(FrozenSet)
	badFrozen.Freeze(5)

	badTune := DefaultTuning()
	badTune.Wolfe = 1e-6 // below armijo

	tests := []struct {
		name string
		p    Problem
	}{
		{"empty inputs", Problem{}},
		{"negative weight", Problem{
			Inputs:     []InputMeta{{Name: "x"}},
			InitWeight: -1,
		}},
		{"nan weight", Problem{
			Inputs:     []InputMeta{{Name: "x"}},
			InitWeight: math.NaN(),
		}},
		{"nil objective", Problem{
			Inputs:     []InputMeta{{Name: "x"}},
			Objectives: []Evaluation{nil},
		}},
		{"nil constraint", Problem{
			Inputs:      []InputMeta{{Name: "x"}},
			Objectives:  []Evaluation{okObj},
			Constraints: []Evaluation{nil},
		}},
		{"frozen out of range", Problem{
			Inputs:     []InputMeta{{Name: "x"}},
			Objectives: []Evaluation{okObj},
			Frozen:     badFrozen,
		}},
		{"bad tuning", Problem{
			Inputs:     []InputMeta{{Name: "x"}},
			Objectives: []Evaluation{okObj},
			Tuning:     &badTune,
		}},
		{"factory with terms", Problem{
			Inputs:     []InputMeta{{Name: "x"}},
			Objectives: []Evaluation{okObj},
			Factory: func(w float64, frozen FrozenSet) Oracle {
				return func(x []float64) Eval { return Eval{G: make([]float64, 1)} }
			},
		}},
	}

	for _, tt := range tests {
		if _, err := tt.p.Build(); err == nil {
			t.Fatalf("TestBuildValidation: %s must fail", tt.name)
		}
	}
}

func TestBuildInitialState(t *testing.T) {
	p := Problem{
		Inputs:     []InputMeta{{Name: "x"}, {Name: "y"}},
		Objectives: []Evaluation{func(x, g []float64) float64 { return 0 }},
	}
	s, err := p.Build()
	switch {
	case err != nil:
		t.Fatal("TestBuildInitialState: unexpected error")
	case s.Status() != UnconstrainedRunning:
		t.Fatal("TestBuildInitialState: must start in UnconstrainedRunning")
	case s.Weight() != defInitWeight:
		t.Fatal("TestBuildInitialState: must start at the default weight")
	case s.EPRound() != 0 || s.UORound() != 0:
		t.Fatal("TestBuildInitialState: round counters must start at 0")
	case len(s.Values()) != 2:
		t.Fatal("TestBuildInitialState: dimension mismatch")
	}
}

func TestStartDimension(t *testing.T) {
	p := Problem{
		Inputs:     []InputMeta{{Name: "x"}},
		Objectives: []Evaluation{func(x, g []float64) float64 { return 0 }},
	}
	if _, err := p.Start([]float64{1, 2}); err == nil {
		t.Fatal("TestStartDimension: dimension mismatch must fail")
	}
}

// The oracle must compose ϕ = Σoⱼ + c₀·w·Σ penalty(cᵢ) with the quadratic
// one-sided penalty, and report the per-term energies.
func TestOracleScalarization(t *testing.T) {

	obj := func(x, g []float64) float64 {
		g[0] = 2 * x[0]
		return x[0] * x[0]
	}
	// c(x) = x − 1 ≤ 0: violated by 2 at x = 3.
	con := func(x, g []float64) float64 {
		g[0] = 1
		return x[0] - 1
	}

	p := Problem{
		Inputs:      []InputMeta{{Name: "x"}},
		Objectives:  []Evaluation{obj},
		Constraints: []Evaluation{con},
	}

	const w = 2.0
	oracle := p.oracleFactory(defConstraintScale)(w, make(FrozenSet))

	ev := oracle([]float64{3})
	wantPen := 4.0 // max(3-1, 0)²
	wantF := 9 + defConstraintScale*w*wantPen
	wantG := 6 + defConstraintScale*w*2*2*1 // 2x + c₀·w·2·max(v,0)·∇c

	require.InDelta(t, wantF, ev.F, 1e-9)
	require.InDelta(t, wantG, ev.G[0], 1e-9)
	require.Equal(t, []float64{9}, ev.ObjEngs)
	require.Equal(t, []float64{wantPen}, ev.ConsEngs)

	// Satisfied constraint contributes nothing, to value or gradient.
	ev = oracle([]float64{0.5})
	require.InDelta(t, 0.25, ev.F, 1e-9)
	require.InDelta(t, 1.0, ev.G[0], 1e-9)
	require.Equal(t, []float64{0.0}, ev.ConsEngs)
}

// Gradient masking: Pending and frozen entries come back exactly zero.
func TestOracleGradientMasking(t *testing.T) {

	obj := func(x, g []float64) float64 {
		for i := range x {
			g[i] = 1
		}
		return 0
	}
	p := Problem{
		Inputs: []InputMeta{
			{Name: "a", Kind: Optimized},
			{Name: "b", Kind: Pending},
			{Name: "c", Kind: Optimized},
			{Name: "d", Kind: Optimized},
		},
		Objectives: []Evaluation{obj},
	}

	frozen := make(FrozenSet)
	frozen.Freeze(3)
	oracle := p.oracleFactory(defConstraintScale)(1, frozen)

	ev := oracle([]float64{0, 0, 0, 0})
	require.Equal(t, []float64{1, 0, 1, 0}, ev.G)
}

// TermOf lifts a plain function into a term whose numeric gradient tracks
// the analytic one.
func TestTermOf(t *testing.T) {
	f := func(x []float64) float64 {
		return x[0]*x[0] + 3*x[0]*x[1]
	}
	term := TermOf(f)

	x := []float64{2, -1}
	g := make([]float64, 2)
	v := term(x, g)

	require.InDelta(t, -2.0, v, 1e-12)
	require.InDelta(t, 2*2+3*(-1), g[0], 1e-6)
	require.InDelta(t, 3*2, g[1], 1e-6)
	require.Equal(t, []float64{2, -1}, x, "term must restore the point")
}

// A collaborator-supplied factory bypasses term composition entirely.
func TestPrebuiltFactory(t *testing.T) {
	factory := func(w float64, frozen FrozenSet) Oracle {
		return func(x []float64) Eval {
			d := x[0] - 4
			return Eval{F: d * d, G: []float64{2 * d}}
		}
	}
	p := Problem{
		Inputs:  []InputMeta{{Name: "x"}},
		Factory: factory,
	}
	s, err := p.Start([]float64{0})
	require.NoError(t, err)

	s, err = Step(s, 50)
	require.NoError(t, err)
	require.Equal(t, UnconstrainedConverged, s.Status())
	require.InDelta(t, 4.0, s.Values()[0], 1e-3)
}

// A problem assembled from numeric-gradient terms still optimizes.
func TestTermOfEndToEnd(t *testing.T) {
	p := Problem{
		Inputs: []InputMeta{{Name: "x"}},
		Objectives: []Evaluation{TermOf(func(x []float64) float64 {
			return (x[0] - 2) * (x[0] - 2)
		})},
	}
	s, err := p.Start([]float64{-3})
	require.NoError(t, err)

	s, err = Step(s, 50)
	require.NoError(t, err)
	require.Equal(t, UnconstrainedConverged, s.Status())
	require.InDelta(t, 2.0, s.Values()[0], 1e-2)
}
