package numgrad

import (
	"errors"
	"math"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use the second order accuracy central difference.
	Central
)

// Spec estimates the gradient of a scalar function by finite differences.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
type Spec struct {
	N int
	// Function of which to estimate the gradient.
	// The argument x passed to this function is an n-vector.
	Object func(x []float64) float64
	// Finite difference method to use.
	Method Method
	// Relative step size used to compute absolute step size.
	// The default absolute step size is computed as h = RelStep * sign(x0) * max(1, abs(x0))
	// with RelStep being selected automatically.
	// Otherwise, absolute step size is computed as h = RelStep * sign(x0) * abs(x0) when RelStep is provided.
	RelStep float64
	// Absolute step size to use. The RelStep is used when AbsStep is not provided.
	// For Central method the sign of AbsStep is ignored.
	AbsStep float64

	absStep []float64
}

// Check the parameters and initialize the step buffer.
func (s *Spec) check(x0, grad []float64) (err error) {
	switch {
	case s.N <= 0:
		err = errors.New("non-positive dimensions")
	case s.Method != Forward && s.Method != Central:
		err = errors.New("unknown method")
	case s.Object == nil:
		err = errors.New("object function is required")
	case s.N != len(x0):
		err = errors.New("invalid x0 dimensions")
	case s.N != len(grad):
		err = errors.New("invalid grad dimensions")
	}
	if len(s.absStep) != s.N {
		s.absStep = make([]float64, s.N)
	}
	return
}

// Grad calculates the gradient approximation by finite differences.
// The point x0 is perturbed one coordinate at a time and restored before
// returning.
func (s *Spec) Grad(x0, grad []float64) error {

	if err := s.check(x0, grad); err != nil {
		return err
	}

	s.absoluteStep(x0)

	if s.Method == Central {
		s.approxCentral(x0, grad)
	} else {
		s.approxForward(x0, grad)
	}
	return nil
}

func (s *Spec) absoluteStep(x0 []float64) {
	h := s.absStep
	if len(h) != len(x0) {
		panic("bound check error")
	}

	var eps float64
	switch s.Method {
	case Forward:
		eps = sqrtEps
	case Central:
		eps = cubeEps
	default:
		panic("unknown method")
	}

	abs := s.AbsStep
	rel := s.RelStep
	if abs == 0 && rel == 0 {
		for i, v := range x0 {
			h[i] = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
		}
	} else {
		for i, v := range x0 {
			step := abs
			if step == 0 {
				step = math.Copysign(rel, v) * math.Abs(v)
			}
			d := (v + step) - v
			if d == 0 {
				step = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
			}
			h[i] = step
		}
	}
	if s.Method == Central {
		for i, v := range h {
			h[i] = math.Abs(v)
		}
	}
}

func (s *Spec) approxForward(x0, grad []float64) {
	h := s.absStep
	if len(h) != len(x0) || len(h) != len(grad) {
		panic("bound check error")
	}

	fun := s.Object
	f0 := fun(x0)
	for i, step := range h {
		t := x0[i]
		x0[i] = t + step
		f1 := fun(x0)
		grad[i] = (f1 - f0) / step
		x0[i] = t
	}
}

func (s *Spec) approxCentral(x0, grad []float64) {
	h := s.absStep
	if len(h) != len(x0) || len(h) != len(grad) {
		panic("bound check error")
	}

	fun := s.Object
	for i, step := range h {
		t := x0[i]
		x0[i] = t - step
		f1 := fun(x0)
		x0[i] = t + step
		f2 := fun(x0)
		grad[i] = (f2 - f1) / (2 * step)
		x0[i] = t
	}
}
