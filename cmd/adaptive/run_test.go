// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), errOut.String())
	return out.String()
}

func TestRunQuadratic(t *testing.T) {
	out := execute(t, "run",
		"--problem", "quadratic", "--dim", "3",
		"--step-size", "0.1", "--max-iter", "20000", "--tol", "1e-11",
		"--shuffle=false", "--adamax=false", "--numeric=false")

	assert.Contains(t, out, "status:")
	assert.Contains(t, out, "objective:")
	assert.Contains(t, out, "max |x - x*|")
}

func TestRunDiverges(t *testing.T) {
	out := execute(t, "run",
		"--problem", "expsquare", "--dim", "2",
		"--step-size", "100", "--max-iter", "1000", "--tol", "1e-9",
		"--shuffle=false", "--adamax=false", "--numeric=false")

	assert.Contains(t, out, "ABNORMAL_TERMINATION")
	assert.Contains(t, out, "converged:  false")
}

func TestRunNumeric(t *testing.T) {
	out := execute(t, "run",
		"--problem", "leastsq", "--dim", "2",
		"--step-size", "0.01", "--max-iter", "200", "--tol", "0",
		"--shuffle=true", "--numeric", "--method", "forward")

	assert.Contains(t, out, "STOP: TOTAL NO. of ITERATIONS REACHED LIMIT")
	assert.Contains(t, out, "iterations: 200")
}

func TestRunNumericDiverges(t *testing.T) {
	out := execute(t, "run",
		"--problem", "leastsq", "--dim", "2",
		"--step-size", "1e200", "--max-iter", "1000", "--tol", "1e-9",
		"--shuffle=false", "--numeric", "--method", "central")

	assert.Contains(t, out, "ABNORMAL_TERMINATION: OBJECTIVE_NOT_FINITE")
	assert.Contains(t, out, "converged:  false")
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "adaptive version "+version+"\n", execute(t, "version"))
}

func TestBuildProblem(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 1))

	for _, name := range []string{"quadratic", "leastsq", "expsquare"} {
		prob, err := buildProblem(name, 3, rnd)
		require.NoError(t, err, name)

		r, c := prob.start.Dims()
		assert.Equal(t, 3, r, name)
		assert.Equal(t, 1, c, name)

		// the known minimizer attains the optimum of the non-negative terms
		if name != "expsquare" {
			for i := 0; i < prob.fun.NumFunctions(); i++ {
				assert.InDelta(t, 0, prob.fun.Evaluate(prob.want, i), 1e-20, "%s term %d", name, i)
			}
		}
	}

	_, err := buildProblem("rosenbrock", 3, rnd)
	assert.Error(t, err)
	_, err = buildProblem("quadratic", 0, rnd)
	assert.Error(t, err)

	_, err = parseMethod("backward")
	assert.Error(t, err)
}
