package toolbox

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// GradientCheckReport holds the largest relative error between the analytic
// and the numeric gradient, per parameter tensor.
type GradientCheckReport struct {
	W1, W2, B1, B2 float64
}

func (r GradientCheckReport) Max() float64 {
	return math.Max(math.Max(r.W1, r.W2), math.Max(r.B1, r.B2))
}

// GradientCheck compares Backprop against central finite differences of
// Cost, perturbing one parameter at a time by step.  The network is restored
// before returning.
//
// The cost is piecewise quadratic in every parameter, so central differences
// are exact up to rounding unless a perturbation moves a pre-activation
// across 0.
func (net *Network) GradientCheck(s Sample, step float64) (GradientCheckReport, error) {
	if err := s.Validate(net.Hidden.InputSize, net.Output.OutputSize); err != nil {
		return GradientCheckReport{}, err
	}

	g := net.Backprop(s)
	settings := &fd.Settings{Formula: fd.Central, Step: step}

	numeric := func(get func() float64, set func(float64)) float64 {
		orig := get()
		defer set(orig)
		return fd.Derivative(func(v float64) float64 {
			set(v)
			return net.Cost(s)
		}, orig, settings)
	}

	checkDense := func(param, grad *mat.Dense) float64 {
		worst := 0.0
		r, c := param.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				n := numeric(
					func() float64 { return param.At(i, j) },
					func(v float64) { param.Set(i, j, v) },
				)
				worst = math.Max(worst, relativeError(grad.At(i, j), n))
			}
		}
		return worst
	}

	checkVec := func(param, grad *mat.VecDense) float64 {
		worst := 0.0
		for i := 0; i < param.Len(); i++ {
			n := numeric(
				func() float64 { return param.AtVec(i) },
				func(v float64) { param.SetVec(i, v) },
			)
			worst = math.Max(worst, relativeError(grad.AtVec(i), n))
		}
		return worst
	}

	return GradientCheckReport{
		W1: checkDense(net.Hidden.W, g.W1),
		W2: checkDense(net.Output.W, g.W2),
		B1: checkVec(net.Hidden.B, g.B1),
		B2: checkVec(net.Output.B, g.B2),
	}, nil
}

func relativeError(a, b float64) float64 {
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale < 1e-6 {
		scale = 1e-6
	}
	return math.Abs(a-b) / scale
}
