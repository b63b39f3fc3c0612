// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adam

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/adaptive/numdiff"
)

// FiniteDiff turns an Evaluator into an Objective by approximating each
// term's gradient with finite differences.
//
// Bounds, when set, holds one range per iterate entry in row-major order.
// Probes never leave the ranges, so terms only need to be defined inside them.
// At an iterate that is not finite or lies outside Bounds the gradient is all NaN,
// which the optimizer then reports as divergence.
//
// It keeps a private copy of the iterate, so one FiniteDiff must not be shared between goroutines.
type FiniteDiff struct {
	Terms   Evaluator
	Method  numdiff.Method
	Bounds  []numdiff.Bound
	RelStep float64 // see numdiff.GradSpec
	AbsStep float64 // see numdiff.GradSpec

	spec numdiff.GradSpec
	x    *mat.Dense // contiguous probe copy of the iterate
	g    []float64
}

var _ Objective = (*FiniteDiff)(nil)

func (fd *FiniteDiff) NumFunctions() int {
	return fd.Terms.NumFunctions()
}

func (fd *FiniteDiff) Evaluate(x *mat.Dense, i int) float64 {
	return fd.Terms.Evaluate(x, i)
}

func (fd *FiniteDiff) Gradient(x *mat.Dense, i int, grad *mat.Dense) {
	r, c := x.Dims()
	if fd.x == nil || !sameDims(fd.x, x) {
		fd.x = mat.NewDense(r, c, nil)
		fd.g = make([]float64, r*c)
	}
	fd.x.Copy(x)
	x0 := fd.x.RawMatrix().Data

	if !fd.feasible(x0) {
		grad.Apply(func(_, _ int, _ float64) float64 { return math.NaN() }, grad)
		return
	}

	// numdiff perturbs the backing slice of fd.x in place.
	spec := &fd.spec
	spec.N = r * c
	spec.Method = fd.Method
	spec.Bounds = fd.Bounds
	spec.RelStep, spec.AbsStep = fd.RelStep, fd.AbsStep
	spec.Object = func([]float64) float64 {
		return fd.Terms.Evaluate(fd.x, i)
	}
	if err := spec.Grad(x0, fd.g); err != nil {
		panic(err)
	}
	grad.Copy(mat.NewDense(r, c, fd.g))
}

// feasible reports whether x0 is finite and inside Bounds.
// A Bounds of the wrong length is left for numdiff to reject.
func (fd *FiniteDiff) feasible(x0 []float64) bool {
	bnd := fd.Bounds
	if len(bnd) != len(x0) {
		bnd = nil
	}
	for k, v := range x0 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		// NaN limits compare false and stay unbounded
		if bnd != nil && (v < bnd[k][0] || v > bnd[k][1]) {
			return false
		}
	}
	return true
}

func sameDims(a, b mat.Matrix) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	return ar == br && ac == bc
}
