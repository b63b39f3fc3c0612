// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package functions provides decomposable test objectives for the adam optimizer.
// Every type implements adam.Objective.
package functions

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Quadratic is the separable sum Σₖ (xₖ - tₖ)² with one term per entry
// of the target matrix. Entry k is at row k/c and column k%c.
type Quadratic struct {
	Target *mat.Dense
}

func (q Quadratic) NumFunctions() int {
	r, c := q.Target.Dims()
	return r * c
}

func (q Quadratic) Evaluate(x *mat.Dense, k int) float64 {
	i, j := entry(q.Target, k)
	d := x.At(i, j) - q.Target.At(i, j)
	return d * d
}

func (q Quadratic) Gradient(x *mat.Dense, k int, grad *mat.Dense) {
	i, j := entry(q.Target, k)
	grad.Zero()
	grad.Set(i, j, 2*(x.At(i, j)-q.Target.At(i, j)))
}

// LeastSquares is Σᵢ (aᵢᵀx - bᵢ)² with one term per row of A.
// The iterate is a column vector with one entry per column of A.
type LeastSquares struct {
	A *mat.Dense
	B *mat.VecDense
}

func (ls LeastSquares) NumFunctions() int {
	return ls.B.Len()
}

func (ls LeastSquares) residual(x *mat.Dense, i int) float64 {
	return mat.Dot(ls.A.RowView(i), x.ColView(0)) - ls.B.AtVec(i)
}

func (ls LeastSquares) Evaluate(x *mat.Dense, i int) float64 {
	r := ls.residual(x, i)
	return r * r
}

func (ls LeastSquares) Gradient(x *mat.Dense, i int, grad *mat.Dense) {
	r := ls.residual(x, i)
	_, d := ls.A.Dims()
	for j := 0; j < d; j++ {
		grad.Set(j, 0, 2*r*ls.A.At(i, j))
	}
}

// ExpSquare is Σₖ exp(xₖ²) over the N leading entries of the iterate.
// Its gradient grows so fast that large steps overflow to +Inf.
type ExpSquare struct {
	N int
}

func (e ExpSquare) NumFunctions() int {
	return e.N
}

func (e ExpSquare) Evaluate(x *mat.Dense, k int) float64 {
	i, j := entry(x, k)
	v := x.At(i, j)
	return math.Exp(v * v)
}

func (e ExpSquare) Gradient(x *mat.Dense, k int, grad *mat.Dense) {
	i, j := entry(x, k)
	v := x.At(i, j)
	grad.Zero()
	grad.Set(i, j, 2*v*math.Exp(v*v))
}

func entry(m mat.Matrix, k int) (i, j int) {
	_, c := m.Dims()
	return k / c, k % c
}
