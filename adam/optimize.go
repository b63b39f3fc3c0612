// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adam

import (
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Params holds the hyperparameters of the optimizer.
type Params struct {
	// Base learning rate α.
	StepSize float64
	// Exponential decay rate β₁ of the first moment estimate, in [0, 1).
	Beta1 float64
	// Exponential decay rate β₂ of the second moment (or infinity norm) estimate, in [0, 1).
	Beta2 float64
	// Denominator stabilizer ε.
	Eps float64
	// Hard cap on the step counter. The loop performs at most MaxIterations-1 updates.
	MaxIterations int
	// The iteration stop when the epoch objective changes by less than Tolerance:
	//   |fₖ₋₁ - fₖ| < 𝚝𝚘𝚕
	Tolerance float64
	// Visit the terms in a random order which is redrawn every epoch.
	Shuffle bool
	// Use the AdaMax update rule (infinity norm) instead of Adam.
	AdaMax bool
}

// DefaultParams returns the hyperparameters recommended by Kingma & Ba.
func DefaultParams() Params {
	return Params{
		StepSize:      0.001,
		Beta1:         0.9,
		Beta2:         0.999,
		Eps:           1e-8,
		MaxIterations: 100000,
		Tolerance:     1e-5,
		Shuffle:       true,
	}
}

func (p Params) rule() string {
	if p.AdaMax {
		return "AdaMax"
	}
	return "Adam"
}

func (p Params) check() (err error) {
	switch {
	case !(p.StepSize > 0):
		err = errors.Errorf("step size must be greater than 0, got %g", p.StepSize)
	case !(p.Beta1 >= 0 && p.Beta1 < 1):
		err = errors.Errorf("beta1 must be in [0, 1), got %g", p.Beta1)
	case !(p.Beta2 >= 0 && p.Beta2 < 1):
		err = errors.Errorf("beta2 must be in [0, 1), got %g", p.Beta2)
	case !(p.Eps > 0):
		err = errors.Errorf("eps must be greater than 0, got %g", p.Eps)
	case p.MaxIterations < 1:
		err = errors.Errorf("max iterations must not less than 1, got %d", p.MaxIterations)
	case !(p.Tolerance >= 0):
		err = errors.Errorf("tolerance must not less than 0, got %g", p.Tolerance)
	}
	return
}

// Problem specifies the problem for Adam optimizer.
type Problem struct {
	Func   Objective  // Decomposable objective and its per-term gradient
	Params Params     // Hyperparameters
	Rand   *rand.Rand // Optional source of the visitation order when shuffling
}

// New creates a new Adam optimizer for given problem.
// A nil logger discards all reports.
func (p *Problem) New(logger *slog.Logger) (optimizer *Optimizer, err error) {

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if p.Func == nil {
		return nil, errors.New("adam: objective function is required")
	}
	if err = p.Params.check(); err != nil {
		return nil, errors.Wrap(err, "adam")
	}

	rnd := p.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	optimizer = &Optimizer{
		iterSpec{
			params: p.Params,
			fun:    p.Func,
			rnd:    rnd,
			logger: logger.With(slog.String("optimizer", p.Params.rule())),
		},
	}
	return
}

type iterSpec struct {
	params Params
	fun    Objective
	rnd    *rand.Rand
	logger *slog.Logger
}

// Optimizer implemented using the Adam and AdaMax algorithms.
// It keeps no state between runs except the random generator,
// so separate goroutines need separate optimizers.
type Optimizer struct {
	iterSpec
}

// Params returns the hyperparameters the optimizer was created with.
func (o *Optimizer) Params() Params {
	return o.params
}

// Result contains the final result of the optimization process.
type Result struct {
	OK      bool    // Whether the optimization was converged.
	F       float64 // Final aggregate objective value.
	Summary         // Optimization summary.
}

// Summary contains a summary of the optimization process.
type Summary struct {
	Status   Status // Final status after optimization.
	NumIter  int    // Value of the step counter when the loop stopped.
	NumEpoch int    // Number of epochs started.
	NumEval  int    // Number of term evaluations performed.
	NumGrad  int    // Number of term gradients performed.
}

// Status describes why the optimization stopped.
type Status int

const (
	// Converged the epoch objective changed by less than the tolerance.
	Converged Status = iota + 1
	// Diverged the epoch objective became NaN or infinite.
	Diverged
	// IterationLimit the iteration budget was exhausted.
	IterationLimit
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "CONVERGENCE: OBJECTIVE_CHANGE_<_TOL"
	case Diverged:
		return "ABNORMAL_TERMINATION: OBJECTIVE_NOT_FINITE"
	case IterationLimit:
		return "STOP: TOTAL NO. of ITERATIONS REACHED LIMIT"
	default:
		return "UNKNOWN STATUS"
	}
}

// Optimize minimizes the objective starting from iterate, which is updated in place,
// and returns the final aggregate objective.
// A NaN or infinite return value means the optimizer diverged.
func (o *Optimizer) Optimize(iterate *mat.Dense) float64 {
	return o.Fit(iterate).F
}

// Fit runs the optimization process starting from iterate, which is updated in place.
// It panics if iterate is empty.
func (o *Optimizer) Fit(iterate *mat.Dense) *Result {

	if iterate == nil || iterate.IsEmpty() {
		panic("adam: iterate must not be empty")
	}

	driver := newDriver(o, iterate)
	status := driver.mainLoop()

	return &Result{
		OK: status == Converged,
		F:  driver.f,
		Summary: Summary{
			Status:   status,
			NumIter:  driver.iter,
			NumEpoch: driver.epoch,
			NumEval:  driver.numEval,
			NumGrad:  driver.numGrad,
		},
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
