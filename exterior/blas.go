// Copyright ©2025 diagramlab. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exterior

import "math"

// Unit-stride vector kernels. Every vector the optimizer touches is a
// contiguous n-slice, so the kernels take plain slices and require
// len(x) == len(y).

// ddot computes ⟨x, y⟩.
func ddot(x, y []float64) (dot float64) {
	n := len(x)
	if n != len(y) {
		panic("bound check error")
	}
	m := n % 5
	for i := 0; i < m; i++ {
		dot += x[i] * y[i]
	}
	for i := m; i < n; i += 5 {
		a := x[i : i+5 : i+5]
		b := y[i : i+5 : i+5]
		dot += a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3] + a[4]*b[4]
	}
	return dot
}

// daxpy performs y += a·x.
func daxpy(a float64, x, y []float64) {
	n := len(x)
	if n != len(y) {
		panic("bound check error")
	}
	if a == zero {
		return
	}
	m := n % 4
	for i := 0; i < m; i++ {
		y[i] += a * x[i]
	}
	for i := m; i < n; i += 4 {
		s := x[i : i+4 : i+4]
		d := y[i : i+4 : i+4]
		d[0] += a * s[0]
		d[1] += a * s[1]
		d[2] += a * s[2]
		d[3] += a * s[3]
	}
}

// dscal performs x *= a.
func dscal(a float64, x []float64) {
	for i := range x {
		x[i] *= a
	}
}

// dnrm2 computes ‖x‖₂.
func dnrm2(x []float64) float64 {
	return math.Sqrt(ddot(x, x))
}

// dclone returns a fresh copy of x.
func dclone(x []float64) []float64 {
	c := make([]float64, len(x))
	copy(c, x)
	return c
}

// dsub returns x − y as a fresh vector.
func dsub(x, y []float64) []float64 {
	n := len(x)
	if n != len(y) {
		panic("bound check error")
	}
	d := make([]float64, n)
	for i := range d {
		d[i] = x[i] - y[i]
	}
	return d
}

// dneg returns −x as a fresh vector.
func dneg(x []float64) []float64 {
	d := make([]float64, len(x))
	for i := range d {
		d[i] = -x[i]
	}
	return d
}

// hasNaN scans values, not indices.
func hasNaN(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
