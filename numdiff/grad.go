// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use central difference in interior points and the second order accuracy
	// forward or backward difference near the boundary.
	Central
)

// Bound is the [lower, upper] range of one variable. NaN means unbounded.
type Bound [2]float64

// GradSpec estimates the gradient of a scalar function by finite differences.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
type GradSpec struct {
	N int
	// Function of which to estimate the gradient.
	// The argument x passed to this function is an n-vector which is
	// perturbed in place and restored after every probe.
	Object func(x []float64) float64
	// Finite difference method to use.
	Method Method
	// Lower and upper bounds on independent variables.
	// Use it to limit the range of function evaluation.
	Bounds []Bound
	// Relative step size used to compute absolute step size.
	// The default absolute step size is h = RelStep * sign(x0) * max(1, abs(x0)) with RelStep being selected automatically.
	// Otherwise, absolute step size is h = RelStep * sign(x0) * abs(x0) when RelStep is provided.
	RelStep float64
	// Absolute step size to use, possibly adjusted to fit into the bounds.
	// For Central method the sign of AbsStep is ignored.
	AbsStep float64
	// Don't check if x0 is out of bounds.
	NotChkBnd bool
	gradCtx
}

type gradCtx struct {
	h       []float64 // absolute step per variable
	oneSide []bool    // central only: use the one-sided stencil
}

// Check the parameters and prepare the step workspace.
func (gs *GradSpec) Check(x0, grad []float64) error {

	switch {
	case gs.N <= 0:
		return errors.New("non-positive dimension")
	case gs.Method != Forward && gs.Method != Central:
		return errors.Errorf("unknown method %d", gs.Method)
	case gs.Object == nil:
		return errors.New("object function is required")
	case gs.N != len(x0):
		return errors.Errorf("invalid x0 dimension %d, want %d", len(x0), gs.N)
	case gs.N != len(grad):
		return errors.Errorf("invalid grad dimension %d, want %d", len(grad), gs.N)
	case floats.HasNaN(x0):
		return errors.New("x0 contains NaN")
	}

	if gs.Bounds != nil {
		if len(gs.Bounds) != gs.N {
			return errors.New("invalid bound dimension")
		}
		for i := range gs.Bounds {
			b := &gs.Bounds[i]
			if math.IsNaN(b[0]) {
				b[0] = math.Inf(-1)
			}
			if math.IsNaN(b[1]) {
				b[1] = math.Inf(1)
			}
			if b[0] > b[1] {
				return errors.Errorf("bound range at %d has no feasible solution", i)
			}
			if !gs.NotChkBnd && (x0[i] < b[0] || x0[i] > b[1]) {
				return errors.Errorf("x0[%d] violates bound constraints", i)
			}
		}
	}

	if len(gs.h) != gs.N {
		gs.h = make([]float64, gs.N)
	}
	if len(gs.oneSide) != gs.N*int(gs.Method) {
		gs.oneSide = make([]bool, gs.N*int(gs.Method))
	}
	return nil
}

// Grad calculate the approximation of the gradient at x0 and store it in grad.
func (gs *GradSpec) Grad(x0, grad []float64) error {

	if err := gs.Check(x0, grad); err != nil {
		return err
	}

	gs.absoluteStep(x0)
	gs.adjustToBounds(x0, gs.bounded())

	if gs.Method == Central {
		gs.central(x0, grad)
	} else {
		gs.forward(x0, grad)
	}
	return nil
}

func (gs *GradSpec) bounded() bool {
	for _, b := range gs.Bounds {
		if !math.IsInf(b[0], 0) || !math.IsInf(b[1], 0) {
			return true
		}
	}
	return false
}

func (gs *GradSpec) absoluteStep(x0 []float64) {
	h := gs.h
	if len(h) != len(x0) {
		panic("bound check error")
	}

	var eps float64
	switch gs.Method {
	case Forward:
		eps = sqrtEps
	case Central:
		eps = cubeEps
	default:
		panic("unknown method")
	}

	if gs.AbsStep == 0 && gs.RelStep == 0 {
		for i, v := range x0 {
			h[i] = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
		}
		return
	}

	for i, v := range x0 {
		s := gs.AbsStep
		if s == 0 {
			s = math.Copysign(gs.RelStep, v) * math.Abs(v)
		}
		// the step vanished in floating point
		if (v+s)-v == 0 {
			s = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
		}
		h[i] = s
	}
}

func (gs *GradSpec) adjustToBounds(x0 []float64, bnd bool) {
	h, o := gs.h, gs.oneSide
	if gs.Method == Central {
		for i, v := range h {
			h[i] = math.Abs(v)
		}
		for i := range o {
			o[i] = false
		}
	}

	if !bnd {
		return
	}

	b := gs.Bounds
	if len(x0) != len(b) || len(x0) != len(h) {
		panic("bound check error")
	}

	if gs.Method == Forward {
		for i, x := range x0 {
			ld, ud := x-b[i][0], b[i][1]-x
			s := h[i]
			violated := x+s < b[i][0] || x+s > b[i][1]
			fitting := math.Abs(s) < math.Max(ld, ud)
			switch {
			case violated && fitting:
				h[i] = -s
			case !fitting && ud >= ld:
				h[i] = ud
			case !fitting:
				h[i] = -ld
			}
		}
		return
	}

	if len(x0) != len(o) {
		panic("bound check error")
	}
	for i, x := range x0 {
		ld, ud := x-b[i][0], b[i][1]-x
		central := ld >= h[i] && ud >= h[i]
		if !central {
			if ud >= ld {
				h[i] = math.Min(h[i], 0.5*ud)
			} else {
				h[i] = -math.Min(h[i], 0.5*ld)
			}
			o[i] = true
		}
		minDist := math.Min(ud, ld)
		if !central && math.Abs(h[i]) <= minDist {
			h[i] = minDist
			o[i] = false
		}
	}
}

func (gs *GradSpec) forward(x0, grad []float64) {
	fun, h := gs.Object, gs.h
	if len(h) != len(x0) || len(grad) != len(x0) {
		panic("bound check error")
	}

	f0 := fun(x0)
	for i, s := range h {
		t := x0[i]
		x0[i] = t + s
		grad[i] = (fun(x0) - f0) / s
		x0[i] = t
	}
}

func (gs *GradSpec) central(x0, grad []float64) {
	fun, h, o := gs.Object, gs.h, gs.oneSide
	if len(h) != len(x0) || len(h) != len(o) || len(grad) != len(x0) {
		panic("bound check error")
	}

	f0 := fun(x0)
	for i, s := range h {
		t := x0[i]
		d := 1.0 / (2 * s)
		if o[i] {
			x0[i] = t + s
			f1 := fun(x0)
			x0[i] = t + 2*s
			f2 := fun(x0)
			grad[i] = (4*f1 - 3*f0 - f2) * d
		} else {
			x0[i] = t - s
			f1 := fun(x0)
			x0[i] = t + s
			f2 := fun(x0)
			grad[i] = (f2 - f1) * d
		}
		x0[i] = t
	}
}
