// Copyright ©2025 diagramlab. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exterior

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultTuning(t *testing.T) {
	tune := DefaultTuning()
	switch {
	case tune.ConstraintScale != 1e4:
		t.Fatal("TestDefaultTuning: constraint scale")
	case tune.WeightGrowth != 10:
		t.Fatal("TestDefaultTuning: weight growth")
	case tune.EPStop != 1e-3:
		t.Fatal("TestDefaultTuning: ep stop")
	case tune.UOStop != 1e-2:
		t.Fatal("TestDefaultTuning: uo stop")
	case tune.DivisionEps != 1e-11:
		t.Fatal("TestDefaultTuning: division eps")
	case tune.MemSize != 17:
		t.Fatal("TestDefaultTuning: mem size")
	case tune.LineSearchSteps != 10:
		t.Fatal("TestDefaultTuning: line search steps")
	case tune.Armijo != 1e-3 || tune.Wolfe != 0.9:
		t.Fatal("TestDefaultTuning: search constants")
	case tune.MinInterval != 1e-10:
		t.Fatal("TestDefaultTuning: min interval")
	}
	if err := tune.validate(); err != nil {
		t.Fatal("TestDefaultTuning: defaults must validate")
	}
}

// A TOML file overrides only the keys it names; the rest keep defaults.
func TestLoadTuning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.toml")
	err := os.WriteFile(path, []byte("mem_size = 5\nep_stop = 1e-4\n"), 0o644)
	require.NoError(t, err)

	tune, err := LoadTuning(path)
	require.NoError(t, err)
	require.Equal(t, 5, tune.MemSize)
	require.Equal(t, 1e-4, tune.EPStop)
	require.Equal(t, defUOStop, tune.UOStop)
	require.Equal(t, defWeightGrowth, tune.WeightGrowth)
}

func TestLoadTuningRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.toml")
	err := os.WriteFile(path, []byte("mem_size = -3\n"), 0o644)
	require.NoError(t, err)

	_, err = LoadTuning(path)
	require.Error(t, err)
}

func TestLoadTuningMissingFile(t *testing.T) {
	_, err := LoadTuning(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestTuningValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tuning)
	}{
		{"constraint scale", func(t *Tuning) { t.ConstraintScale = -1 }},
		{"weight growth", func(t *Tuning) { t.WeightGrowth = 1 }},
		{"ep stop", func(t *Tuning) { t.EPStop = -1 }},
		{"uo stop", func(t *Tuning) { t.UOStop = -1 }},
		{"division eps", func(t *Tuning) { t.DivisionEps = -1 }},
		{"mem size", func(t *Tuning) { t.MemSize = -1 }},
		{"line search steps", func(t *Tuning) { t.LineSearchSteps = -1 }},
		{"armijo", func(t *Tuning) { t.Armijo = 2 }},
		{"wolfe", func(t *Tuning) { t.Wolfe = 1e-6 }},
		{"min interval", func(t *Tuning) { t.MinInterval = -1 }},
	}
	for _, tt := range tests {
		tune := DefaultTuning()
		tt.mutate(&tune)
		if err := tune.validate(); err == nil {
			t.Fatalf("TestTuningValidate: %s must fail", tt.name)
		}
	}
}
