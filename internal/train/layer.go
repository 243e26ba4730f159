package train

import (
	"math/rand"

	"github.com/ChizhovVadim/phonetrain/internal/ml"
)

type Neuron struct {
	Activation float64
	Error      float64
	Prime      float64
}

type Layer struct {
	activationFn ml.IActivationFn
	outputs      []Neuron
	weights      ml.Matrix
	biases       ml.Matrix
	wGradients   ml.Gradients
	bGradients   ml.Gradients
}

func (l *Layer) ThreadCopy() *Layer {
	return &Layer{
		activationFn: l.activationFn,
		outputs:      make([]Neuron, len(l.outputs)),
		weights:      l.weights,
		biases:       l.biases,
		wGradients:   ml.NewGradients(l.wGradients.Rows, l.wGradients.Cols),
		bGradients:   ml.NewGradients(l.bGradients.Rows, l.bGradients.Cols),
	}
}

func NewLayer(
	inputSize int,
	outputSize int,
	activationFn ml.IActivationFn,
) *Layer {
	return &Layer{
		outputs:      make([]Neuron, outputSize),
		activationFn: activationFn,
		weights:      ml.NewMatrix(outputSize, inputSize),
		biases:       ml.NewMatrix(outputSize, 1),
		wGradients:   ml.NewGradients(outputSize, inputSize),
		bGradients:   ml.NewGradients(outputSize, 1),
	}
}

func (layer *Layer) InputSize() int  { return layer.weights.Cols }
func (layer *Layer) OutputSize() int { return layer.weights.Rows }
func (layer *Layer) ParamCount() int { return len(layer.weights.Data) + len(layer.biases.Data) }

// Glorot uniform, used for the softmax layer.
func (layer *Layer) InitWeightsGlorot(rnd *rand.Rand) *Layer {
	var outputSize = layer.weights.Rows
	var inputSize = layer.weights.Cols
	var variance = 2.0 / float64(inputSize+outputSize)
	ml.InitUniform(rnd, layer.weights.Data, variance)
	return layer
}

func (layer *Layer) InitWeightsReLU(rnd *rand.Rand) *Layer {
	var inputSize = layer.weights.Cols
	var variance = 2.0 / float64(inputSize)
	ml.InitUniform(rnd, layer.weights.Data, variance)
	return layer
}

func (layer *Layer) Forward(input []Neuron) {
	for outputIndex := range layer.outputs {
		var x = layer.biases.Data[outputIndex]
		for inputIndex := range input {
			x += layer.weights.Get(outputIndex, inputIndex) * input[inputIndex].Activation
		}
		var n = &layer.outputs[outputIndex]
		n.Activation = layer.activationFn.Sigma(x)
		n.Prime = layer.activationFn.SigmaPrime(x)
	}
}

// Backward accumulates gradients. Input errors are computed only when
// propagate is set, the first layer has nobody to pass them to.
func (layer *Layer) Backward(input []Neuron, propagate bool) {
	if propagate {
		for inputIndex := range input {
			input[inputIndex].Error = 0
		}
	}
	for outputIndex := range layer.outputs {
		var n = &layer.outputs[outputIndex]
		var x = n.Error * n.Prime
		if x == 0 {
			continue
		}
		layer.bGradients.Add(outputIndex, 0, x)
		for inputIndex := range input {
			var in = &input[inputIndex]
			layer.wGradients.Add(outputIndex, inputIndex, x*in.Activation)
			if propagate {
				in.Error += layer.weights.Get(outputIndex, inputIndex) * x
			}
		}
	}
}

func (layer *Layer) AddGradients(main *Layer) {
	layer.wGradients.AddTo(&main.wGradients)
	layer.bGradients.AddTo(&main.bGradients)
}

func (layer *Layer) ApplyGradients(opt *ml.Adam, batchSize int) {
	layer.wGradients.Apply(&layer.weights, opt, batchSize)
	layer.bGradients.Apply(&layer.biases, opt, batchSize)
}
