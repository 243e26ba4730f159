package features

import (
	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler rescales every column to zero mean and unit variance.
// The parameters are estimated once, on the training data.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s *StandardScaler) Fit(x domain.Tensor) error {
	var rows, width = x.Rows(), x.Width()
	if rows == 0 {
		return errors.Wrap(domain.ErrConfiguration, "cannot fit scaler on empty data")
	}
	s.Mean = make([]float64, width)
	s.Scale = make([]float64, width)
	var column = make([]float64, rows)
	for j := 0; j < width; j++ {
		for i := 0; i < rows; i++ {
			column[i] = float64(x.Data[i*width+j])
		}
		var mean, std = stat.PopMeanStdDev(column, nil)
		if std == 0 {
			// constant column
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return nil
}

func (s *StandardScaler) Transform(x domain.Tensor) (domain.Tensor, error) {
	var width = x.Width()
	if width != len(s.Mean) {
		return domain.Tensor{}, errors.Wrapf(domain.ErrConfiguration,
			"scaler fitted on width %v, got %v", len(s.Mean), width)
	}
	var res = domain.Tensor{
		Data:  make([]float32, len(x.Data)),
		Shape: append([]int(nil), x.Shape...),
	}
	for i, v := range x.Data {
		var j = i % width
		res.Data[i] = float32((float64(v) - s.Mean[j]) / s.Scale[j])
	}
	return res, nil
}

func (s *StandardScaler) FitTransform(x domain.Tensor) (domain.Tensor, error) {
	if err := s.Fit(x); err != nil {
		return domain.Tensor{}, err
	}
	return s.Transform(x)
}

// Reshape views every flattened sample as a rows x cols matrix.
func Reshape(x domain.Tensor, rows, cols int) (domain.Tensor, error) {
	if x.Width() != rows*cols {
		return domain.Tensor{}, errors.Wrapf(domain.ErrConfiguration,
			"cannot reshape width %v into [%v,%v]", x.Width(), rows, cols)
	}
	return domain.Tensor{
		Data:  x.Data,
		Shape: []int{x.Rows(), rows, cols},
	}, nil
}
