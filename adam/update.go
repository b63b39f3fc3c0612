// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adam

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// moments holds the exponential moving averages of one run.
//
// Adam:
//
//	mₜ = β₁mₜ₋₁ + (1-β₁)gₜ
//	vₜ = β₂vₜ₋₁ + (1-β₂)gₜ∘gₜ
//	xₜ = xₜ₋₁ - α√(1-β₂ᵗ)/(1-β₁ᵗ) ⋅ mₜ/(√vₜ + ε)
//
// AdaMax:
//
//	mₜ = β₁mₜ₋₁ + (1-β₁)gₜ
//	uₜ = 𝚖𝚊𝚡(β₂uₜ₋₁, |gₜ|)
//	xₜ = xₜ₋₁ - α/(1-β₁ᵗ) ⋅ mₜ/(uₜ + ε)
//
// The Adam denominator approximates √vₜ + √(1-β₂ᵗ)ε.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type moments struct {
	Params
	m    *mat.Dense // first moment
	v    *mat.Dense // second moment, Adam only
	u    *mat.Dense // weighted infinity norm, AdaMax only
	work *mat.Dense
}

func newMoments(p Params, r, c int) *moments {
	s := &moments{
		Params: p,
		m:      mat.NewDense(r, c, nil),
		work:   mat.NewDense(r, c, nil),
	}
	if p.AdaMax {
		s.u = mat.NewDense(r, c, nil)
	} else {
		s.v = mat.NewDense(r, c, nil)
	}
	return s
}

// accumulate folds the gradient g into the moment estimates.
func (s *moments) accumulate(g *mat.Dense) {
	b1, b2 := s.Beta1, s.Beta2

	s.m.Scale(b1, s.m)
	s.work.Scale(1-b1, g)
	s.m.Add(s.m, s.work)

	if s.AdaMax {
		s.u.Apply(func(i, j int, u float64) float64 {
			return math.Max(b2*u, math.Abs(g.At(i, j)))
		}, s.u)
		return
	}

	s.v.Scale(b2, s.v)
	s.work.MulElem(g, g)
	s.work.Scale(1-b2, s.work)
	s.v.Add(s.v, s.work)
}

// apply moves x along the bias-corrected direction of step t.
func (s *moments) apply(x *mat.Dense, t int) {
	bias1 := 1 - math.Pow(s.Beta1, float64(t))
	bias2 := 1 - math.Pow(s.Beta2, float64(t))
	eps := s.Eps

	var rate float64
	if s.AdaMax {
		if bias1 == 0 {
			return
		}
		rate = s.StepSize / bias1
		s.work.Apply(func(_, _ int, u float64) float64 { return u + eps }, s.u)
	} else {
		// No guard on bias1 here: a zero bias1 yields a non-finite step.
		rate = s.StepSize * math.Sqrt(bias2) / bias1
		s.work.Apply(func(_, _ int, v float64) float64 { return math.Sqrt(v) + eps }, s.v)
	}

	s.work.DivElem(s.m, s.work)
	s.work.Scale(-rate, s.work)
	x.Add(x, s.work)
}
