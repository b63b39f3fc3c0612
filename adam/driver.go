// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adam

import (
	"log/slog"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// iterDriver owns every buffer of a single run.
type iterDriver struct {
	optimizer *Optimizer
	x         *mat.Dense // caller's iterate, updated in place
	g         *mat.Dense // gradient of the current term
	mom       *moments
	order     *visitOrder
	n         int     // number of terms
	f         float64 // aggregate objective of the current epoch

	iter, epoch      int
	numEval, numGrad int
}

func newDriver(o *Optimizer, x *mat.Dense) *iterDriver {
	n := o.fun.NumFunctions()
	var rnd *rand.Rand
	if o.params.Shuffle {
		rnd = o.rnd
	}
	return &iterDriver{
		optimizer: o,
		x:         x,
		n:         n,
		order:     newVisitOrder(n, rnd),
	}
}

// mainLoop performs the epoch-structured update loop.
//
// Every epoch boundary checks the objective accumulated over the previous epoch.
// That objective is the sum of fᵢ evaluated right after the step that used term i,
// so it mixes iterates from across the epoch.
func (d *iterDriver) mainLoop() (task Status) {

	p := d.optimizer.params

	d.f = d.evaluateAll()

	r, c := d.x.Dims()
	d.g = mat.NewDense(r, c, nil)
	d.mom = newMoments(p, r, c)

	last := math.MaxFloat64
	current := 0

	for d.iter = 1; d.iter != p.MaxIterations; d.iter, current = d.iter+1, current+1 {

		if current%d.n == 0 {
			d.printEpoch()

			if !isFinite(d.f) {
				task = Diverged
				d.printExit(task)
				return
			}
			if math.Abs(last-d.f) < p.Tolerance {
				task = Converged
				d.printExit(task)
				return
			}

			last, d.f, current = d.f, 0, 0
			d.epoch++
			d.order.shuffle()
		}

		k := d.order.at(current)
		d.gradient(k)
		d.mom.accumulate(d.g)
		d.mom.apply(d.x, d.iter)
		d.f += d.evaluate(k)
	}

	task = IterationLimit
	d.printExit(task)
	d.f = d.evaluateAll()
	return
}

func (d *iterDriver) evaluate(i int) float64 {
	d.numEval++
	return d.optimizer.fun.Evaluate(d.x, i)
}

func (d *iterDriver) evaluateAll() (f float64) {
	for i := 0; i < d.n; i++ {
		f += d.evaluate(i)
	}
	return
}

func (d *iterDriver) gradient(i int) {
	d.numGrad++
	d.g.Zero()
	d.optimizer.fun.Gradient(d.x, i, d.g)
}

func (d *iterDriver) printEpoch() {
	log := d.optimizer.logger
	log.Info("epoch boundary",
		slog.Int("iteration", d.iter),
		slog.Float64("objective", d.f))
}

// printExit reports why the loop stopped.
func (d *iterDriver) printExit(task Status) {
	log := d.optimizer.logger
	p := d.optimizer.params

	switch task {
	case Diverged:
		log.Warn("objective is not finite; terminating with failure, try a smaller step size",
			slog.Float64("objective", d.f),
			slog.Int("iteration", d.iter))
	case Converged:
		log.Info("minimized within tolerance; terminating optimization",
			slog.Float64("tolerance", p.Tolerance),
			slog.Float64("objective", d.f),
			slog.Int("iteration", d.iter))
	case IterationLimit:
		log.Info("maximum iterations reached; terminating optimization",
			slog.Int("maxIterations", p.MaxIterations))
	}
}
