// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/adaptive/adam"
)

var (
	problemName string
	dim         int
	seed        uint64
	params      = adam.DefaultParams()
	numeric     bool
	methodName  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single optimization",
	Long:  `Generates a test objective, minimizes it and prints the termination status and solution.`,
	RunE:  runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&problemName, "problem", "quadratic", "Objective: quadratic, leastsq, expsquare")
	runCmd.Flags().IntVar(&dim, "dim", 5, "Number of parameters")
	runCmd.Flags().Uint64Var(&seed, "seed", 42, "Random seed for the problem and the visitation order")

	runCmd.Flags().Float64Var(&params.StepSize, "step-size", params.StepSize, "Base learning rate")
	runCmd.Flags().Float64Var(&params.Beta1, "beta1", params.Beta1, "First moment decay rate")
	runCmd.Flags().Float64Var(&params.Beta2, "beta2", params.Beta2, "Second moment decay rate")
	runCmd.Flags().Float64Var(&params.Eps, "eps", params.Eps, "Denominator stabilizer")
	runCmd.Flags().IntVar(&params.MaxIterations, "max-iter", params.MaxIterations, "Max iterations")
	runCmd.Flags().Float64Var(&params.Tolerance, "tol", params.Tolerance, "Minimum epoch-to-epoch objective change")
	runCmd.Flags().BoolVar(&params.Shuffle, "shuffle", params.Shuffle, "Visit terms in a random order every epoch")
	runCmd.Flags().BoolVar(&params.AdaMax, "adamax", params.AdaMax, "Use the AdaMax update rule")

	runCmd.Flags().BoolVar(&numeric, "numeric", false, "Approximate gradients by finite differences")
	runCmd.Flags().StringVar(&methodName, "method", "central", "Finite difference method: forward, central")

	rootCmd.AddCommand(runCmd)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	logger.Info("Starting optimization", "problem", problemName, "dim", dim, "adamax", params.AdaMax)

	rnd := rand.New(rand.NewPCG(seed, seed))
	prob, err := buildProblem(problemName, dim, rnd)
	if err != nil {
		return err
	}

	fun := prob.fun
	if numeric {
		method, err := parseMethod(methodName)
		if err != nil {
			return err
		}
		fun = &adam.FiniteDiff{Terms: fun, Method: method}
	}

	spec := adam.Problem{Func: fun, Params: params, Rand: rnd}
	optimizer, err := spec.New(logger)
	if err != nil {
		return errors.Wrap(err, "failed to create optimizer")
	}

	x := prob.start
	start := time.Now()
	res := optimizer.Fit(x)
	elapsed := time.Since(start)

	logger.Info("Optimization complete", "status", res.Status.String(), "objective", res.F, "elapsed", elapsed)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status:     %s\n", res.Status)
	fmt.Fprintf(out, "converged:  %v\n", res.OK)
	fmt.Fprintf(out, "objective:  %.9e\n", res.F)
	fmt.Fprintf(out, "iterations: %d\n", res.NumIter)
	fmt.Fprintf(out, "epochs:     %d\n", res.NumEpoch)
	fmt.Fprintf(out, "x =\n%v\n", mat.Formatted(x.T(), mat.Squeeze()))
	if prob.want != nil {
		var diff mat.Dense
		diff.Sub(x, prob.want)
		fmt.Fprintf(out, "max |x - x*|: %.3e\n", mat.Norm(&diff, math.Inf(1)))
	}
	return nil
}
