package train

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/ChizhovVadim/phonetrain/internal/ml"
	"github.com/pkg/errors"
)

// Model is a multi-layer perceptron with ReLU hidden layers and a softmax output.
type Model struct {
	topology Topology
	layers   []*Layer
	cost     ml.IModelCost
	input    []Neuron
	probs    []float64
	delta    []float64
}

func NewModel(rnd *rand.Rand, topology Topology) *Model {
	var layers = make([]*Layer, 0, topology.LayerSize())
	var inputSize = int(topology.Inputs)
	for _, hidden := range topology.HiddenNeurons {
		layers = append(layers, NewLayer(inputSize, int(hidden), &ml.ReLuActivation{}).
			InitWeightsReLU(rnd))
		inputSize = int(hidden)
	}
	layers = append(layers, NewLayer(inputSize, int(topology.Outputs), &ml.IdentityActivation{}).
		InitWeightsGlorot(rnd))
	return newModel(topology, layers)
}

func newModel(topology Topology, layers []*Layer) *Model {
	return &Model{
		topology: topology,
		layers:   layers,
		cost:     &ml.CrossEntropyCost{},
		input:    make([]Neuron, topology.Inputs),
		probs:    make([]float64, topology.Outputs),
		delta:    make([]float64, topology.Outputs),
	}
}

func (m *Model) Topology() Topology { return m.topology }

func (m *Model) ThreadCopy() *Model {
	var layers = make([]*Layer, len(m.layers))
	for i, l := range m.layers {
		layers[i] = l.ThreadCopy()
	}
	return newModel(m.topology, layers)
}

func (m *Model) forward(x []float32) []float64 {
	for i, v := range x {
		m.input[i].Activation = float64(v)
	}
	var input = m.input
	for _, layer := range m.layers {
		layer.Forward(input)
		input = layer.outputs
	}
	for i := range m.probs {
		m.probs[i] = input[i].Activation
	}
	ml.Softmax(m.probs)
	return m.probs
}

func (m *Model) CalcCost(x, y []float32) (cost float64, correct bool) {
	var probs = m.forward(x)
	return m.cost.Cost(probs, y), argMax(probs) == argMax32(y)
}

// Train runs one sample forward and backward, accumulating gradients.
func (m *Model) Train(x, y []float32) (cost float64, correct bool) {
	var probs = m.forward(x)
	cost, correct = m.cost.Cost(probs, y), argMax(probs) == argMax32(y)
	m.cost.CostPrime(probs, y, m.delta)
	var last = m.layers[len(m.layers)-1]
	for i := range last.outputs {
		last.outputs[i].Error = m.delta[i]
	}
	// back propagation
	for i := len(m.layers) - 1; i >= 0; i-- {
		if i == 0 {
			m.layers[i].Backward(m.input, false)
		} else {
			m.layers[i].Backward(m.layers[i-1].outputs, true)
		}
	}
	return cost, correct
}

func (m *Model) AddGradients(mainModel *Model) {
	if m == mainModel {
		return
	}
	for i := range m.layers {
		m.layers[i].AddGradients(mainModel.layers[i])
	}
}

func (m *Model) ApplyGradients(opt *ml.Adam, batchSize int) {
	for _, layer := range m.layers {
		layer.ApplyGradients(opt, batchSize)
	}
}

func (m *Model) checkInput(x domain.Tensor) error {
	if x.Width() != int(m.topology.Inputs) {
		return errors.Wrapf(domain.ErrConfiguration,
			"model expects %v inputs, got %v", m.topology.Inputs, x.Width())
	}
	return nil
}

func (m *Model) Summary() string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "%-8s %-12s %-14s %10s\n", "Layer", "Activation", "Output Shape", "Param #")
	fmt.Fprintln(sb, strings.Repeat("=", 47))
	var total int
	for i, layer := range m.layers {
		var activation = layer.activationFn.Name()
		if i == len(m.layers)-1 {
			activation = "softmax"
		}
		fmt.Fprintf(sb, "%-8s %-12s %-14s %10d\n",
			fmt.Sprintf("dense_%d", i+1), activation,
			fmt.Sprintf("(None, %d)", layer.OutputSize()), layer.ParamCount())
		total += layer.ParamCount()
	}
	fmt.Fprintln(sb, strings.Repeat("=", 47))
	fmt.Fprintf(sb, "Input size: %d\n", m.topology.Inputs)
	fmt.Fprintf(sb, "Total params: %d\n", total)
	return sb.String()
}

func argMax(x []float64) int {
	var best = 0
	for i := range x {
		if x[i] > x[best] {
			best = i
		}
	}
	return best
}

func argMax32(x []float32) int {
	var best = 0
	for i := range x {
		if x[i] > x[best] {
			best = i
		}
	}
	return best
}
