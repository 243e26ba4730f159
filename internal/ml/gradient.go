package ml

import "math"

// Adam holds optimizer settings. LearningRate may be lowered between epochs.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
}

func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

type Gradient struct {
	Value float64
	M1    float64
	M2    float64
}

type Gradients struct {
	Data []Gradient
	Rows int
	Cols int
}

// Calculate updates the moment estimates and returns the weight delta.
// Moments decay on zero gradients too.
func (g *Gradient) Calculate(opt *Adam) float64 {
	g.M1 = g.M1*opt.Beta1 + g.Value*(1-opt.Beta1)
	g.M2 = g.M2*opt.Beta2 + (g.Value*g.Value)*(1-opt.Beta2)

	return opt.LearningRate * g.M1 / (math.Sqrt(g.M2) + opt.Epsilon)
}

func NewGradients(rows, cols int) Gradients {
	return Gradients{
		Data: make([]Gradient, cols*rows),
		Rows: rows,
		Cols: cols,
	}
}

func (g *Gradients) Add(row, col int, delta float64) {
	g.Data[col*g.Rows+row].Value += delta
}

func (g *Gradients) AddTo(parent *Gradients) {
	for i := range g.Data {
		parent.Data[i].Value += g.Data[i].Value
		g.Data[i].Value = 0
	}
}

// Apply scales the accumulated batch gradient by 1/batchSize and updates m.
func (g *Gradients) Apply(m *Matrix, opt *Adam, batchSize int) {
	var scale = 1 / float64(batchSize)
	for i := range g.Data {
		g.Data[i].Value *= scale
		m.Data[i] -= g.Data[i].Calculate(opt)
		g.Data[i].Value = 0
	}
}
