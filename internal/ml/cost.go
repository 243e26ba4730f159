package ml

import "math"

// IModelCost works on the probability vector of the output layer.
type IModelCost interface {
	Cost(predicted []float64, target []float32) float64
	// CostPrime writes the derivative with respect to the output logits.
	CostPrime(predicted []float64, target []float32, res []float64)
}

// CrossEntropyCost is categorical cross-entropy after a softmax.
type CrossEntropyCost struct{}

const probFloor = 1e-7

func (*CrossEntropyCost) Cost(predicted []float64, target []float32) float64 {
	var cost float64
	for i, t := range target {
		if t != 0 {
			cost -= float64(t) * math.Log(math.Max(predicted[i], probFloor))
		}
	}
	return cost
}

func (*CrossEntropyCost) CostPrime(predicted []float64, target []float32, res []float64) {
	for i := range res {
		res[i] = predicted[i] - float64(target[i])
	}
}
