package train

import "github.com/ChizhovVadim/phonetrain/internal/domain"

// IClassifier is the trainable classifier used by an experiment.
type IClassifier interface {
	Fit(training, validation domain.Split, options FitOptions) (History, error)
	Predict(x domain.Tensor) (domain.Tensor, error)
	Save(path string) error
	Summary() string
}

type FitOptions struct {
	Epochs       int
	BatchSize    int
	Threads      int
	Patience     int
	LRFactor     float64
	LRPatience   int
	LearningRate float64
	Seed         int64
	Progress     bool
}

func DefaultFitOptions() FitOptions {
	return FitOptions{
		Epochs:       20,
		BatchSize:    2048,
		Threads:      1,
		Patience:     4,
		LRFactor:     0.2,
		LRPatience:   10,
		LearningRate: 0.001,
	}
}

// History keeps per-epoch metrics.
type History struct {
	Loss    []float64
	Acc     []float64
	ValLoss []float64
	ValAcc  []float64
}

func (h *History) Epochs() int { return len(h.Loss) }
