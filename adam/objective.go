// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adam

import "gonum.org/v1/gonum/mat"

// Evaluator is a decomposable function f(X) = Σᵢ fᵢ(X) whose terms can be
// evaluated independently.
type Evaluator interface {
	// NumFunctions returns the number of additive terms, at least 1.
	NumFunctions() int
	// Evaluate returns fᵢ(x) for i in [0, NumFunctions()).
	Evaluate(x *mat.Dense, i int) float64
}

// Objective is a decomposable function whose terms are also differentiable.
// Implementations must treat x as read-only and must be pure in (x, i).
type Objective interface {
	Evaluator
	// Gradient stores ∇fᵢ(x) into grad, which has the shape of x
	// and is zeroed before every call.
	Gradient(x *mat.Dense, i int, grad *mat.Dense)
}
