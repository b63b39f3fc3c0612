// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/adaptive/adam"
	"github.com/curioloop/adaptive/functions"
	"github.com/curioloop/adaptive/numdiff"
)

// testProblem is a generated objective with its starting point and known minimizer.
type testProblem struct {
	fun   adam.Objective
	start *mat.Dense
	want  *mat.Dense // nil when the minimizer is not known in closed form
}

// buildProblem generates a reproducible instance of the named objective.
func buildProblem(name string, dim int, rnd *rand.Rand) (*testProblem, error) {
	if dim < 1 {
		return nil, errors.Errorf("dimension must be at least 1, got %d", dim)
	}

	switch name {
	case "quadratic":
		want := mat.NewDense(dim, 1, nil)
		for i := 0; i < dim; i++ {
			want.Set(i, 0, rnd.NormFloat64()*2)
		}
		return &testProblem{
			fun:   functions.Quadratic{Target: want},
			start: mat.NewDense(dim, 1, nil),
			want:  want,
		}, nil

	case "leastsq":
		rows := 4 * dim
		a := mat.NewDense(rows, dim, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < dim; j++ {
				a.Set(i, j, rnd.NormFloat64())
			}
		}
		want := mat.NewDense(dim, 1, nil)
		for i := 0; i < dim; i++ {
			want.Set(i, 0, rnd.NormFloat64())
		}
		var b mat.VecDense
		b.MulVec(a, want.ColView(0))
		return &testProblem{
			fun:   functions.LeastSquares{A: a, B: &b},
			start: mat.NewDense(dim, 1, nil),
			want:  want,
		}, nil

	case "expsquare":
		start := mat.NewDense(dim, 1, nil)
		for i := 0; i < dim; i++ {
			start.Set(i, 0, 0.5)
		}
		return &testProblem{
			fun:   functions.ExpSquare{N: dim},
			start: start,
			want:  mat.NewDense(dim, 1, nil),
		}, nil
	}

	return nil, errors.Errorf("unknown problem: %s", name)
}

func parseMethod(name string) (numdiff.Method, error) {
	switch name {
	case "forward":
		return numdiff.Forward, nil
	case "central":
		return numdiff.Central, nil
	}
	return 0, errors.Errorf("unknown difference method: %s", name)
}
