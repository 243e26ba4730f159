package features

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/pkg/errors"
)

func randomTensor(rnd *rand.Rand, rows, cols int, offset float64) domain.Tensor {
	var t = domain.NewTensor(rows, cols)
	for i := range t.Data {
		var j = i % cols
		t.Data[i] = float32(offset + float64(j) + rnd.NormFloat64()*float64(j+1))
	}
	return t
}

func columnStats(x domain.Tensor, j int) (mean, std float64) {
	var rows, width = x.Rows(), x.Width()
	for i := 0; i < rows; i++ {
		mean += float64(x.Data[i*width+j])
	}
	mean /= float64(rows)
	for i := 0; i < rows; i++ {
		var d = float64(x.Data[i*width+j]) - mean
		std += d * d
	}
	return mean, math.Sqrt(std / float64(rows))
}

func TestStandardScaler(t *testing.T) {
	var rnd = rand.New(rand.NewSource(1))
	var train = randomTensor(rnd, 500, 6, 0)
	var val = randomTensor(rnd, 200, 6, 50)

	var scaler = &StandardScaler{}
	scaledTrain, err := scaler.FitTransform(train)
	if err != nil {
		t.Fatal(err)
	}
	var fittedMean = append([]float64(nil), scaler.Mean...)

	for j := 0; j < 6; j++ {
		var mean, std = columnStats(scaledTrain, j)
		if math.Abs(mean) > 1e-4 || math.Abs(std-1) > 1e-4 {
			t.Errorf("column %v: mean %v std %v", j, mean, std)
		}
	}

	scaledVal, err := scaler.Transform(val)
	if err != nil {
		t.Fatal(err)
	}
	for j := range fittedMean {
		if scaler.Mean[j] != fittedMean[j] {
			t.Fatalf("transform changed fitted mean")
		}
		// val is shifted by 50, so its scaled mean stays far from zero
		var mean, _ = columnStats(scaledVal, j)
		var want = (50 + float64(j) - fittedMean[j]) / scaler.Scale[j]
		if math.Abs(mean-want) > 0.5 {
			t.Errorf("column %v: val mean %v, want about %v", j, mean, want)
		}
	}
}

func TestStandardScalerConstantColumn(t *testing.T) {
	var x = domain.Tensor{Data: []float32{3, 1, 3, 2, 3, 3}, Shape: []int{3, 2}}
	var scaler = &StandardScaler{}
	scaled, err := scaler.FitTransform(x)
	if err != nil {
		t.Fatal(err)
	}
	if scaler.Scale[0] != 1 {
		t.Errorf("constant column scale %v, want 1", scaler.Scale[0])
	}
	for i := 0; i < 3; i++ {
		if scaled.Row(i)[0] != 0 {
			t.Errorf("row %v: %v", i, scaled.Row(i))
		}
	}
}

func TestScalerWidthMismatch(t *testing.T) {
	var scaler = &StandardScaler{}
	if err := scaler.Fit(domain.NewTensor(4, 3)); err != nil {
		t.Fatal(err)
	}
	var _, err = scaler.Transform(domain.NewTensor(4, 5))
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("want configuration error, got %v", err)
	}
}

func TestReshape(t *testing.T) {
	var x = domain.NewTensor(4, 91)
	reshaped, err := Reshape(x, 7, 13)
	if err != nil {
		t.Fatal(err)
	}
	if reshaped.Rows() != 4 || reshaped.Width() != 91 || len(reshaped.Shape) != 3 {
		t.Errorf("shape %v", reshaped.Shape)
	}
	_, err = Reshape(domain.NewTensor(4, 39), 7, 13)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("want configuration error, got %v", err)
	}
}
