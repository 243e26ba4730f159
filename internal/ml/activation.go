package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type IActivationFn interface {
	Sigma(x float64) float64
	SigmaPrime(x float64) float64
	Name() string
}

type IdentityActivation struct{}

func (*IdentityActivation) Sigma(x float64) float64      { return x }
func (*IdentityActivation) SigmaPrime(x float64) float64 { return 1 }
func (*IdentityActivation) Name() string                 { return "linear" }

type ReLuActivation struct{}

func (*ReLuActivation) Sigma(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func (*ReLuActivation) SigmaPrime(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

func (*ReLuActivation) Name() string { return "relu" }

// Softmax replaces logits with probabilities in place.
func Softmax(x []float64) {
	var top = floats.Max(x)
	var sum float64
	for i := range x {
		x[i] = math.Exp(x[i] - top)
		sum += x[i]
	}
	floats.Scale(1/sum, x)
}
