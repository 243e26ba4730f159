package metrics

import (
	"fmt"
	"strings"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func checkLabels(trueLabels, predLabels []int) error {
	if len(trueLabels) != len(predLabels) {
		return errors.Wrapf(domain.ErrConfiguration,
			"%v true labels and %v predictions", len(trueLabels), len(predLabels))
	}
	if len(trueLabels) == 0 {
		return errors.Wrap(domain.ErrConfiguration, "no labels")
	}
	return nil
}

func Accuracy(trueLabels, predLabels []int) (float64, error) {
	if err := checkLabels(trueLabels, predLabels); err != nil {
		return 0, err
	}
	var correct int
	for i := range trueLabels {
		if trueLabels[i] == predLabels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(trueLabels)), nil
}

// Confusion counts samples, rows are true classes and columns predicted ones.
func Confusion(trueLabels, predLabels []int, classes int) (*mat.Dense, error) {
	if err := checkLabels(trueLabels, predLabels); err != nil {
		return nil, err
	}
	var cm = mat.NewDense(classes, classes, nil)
	for i := range trueLabels {
		var t, p = trueLabels[i], predLabels[i]
		if t < 0 || t >= classes || p < 0 || p >= classes {
			return nil, errors.Wrapf(domain.ErrLookup, "label pair (%v,%v) out of %v classes", t, p, classes)
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}

// NormalizeRows divides every row by its sum. Empty rows stay zero.
func NormalizeRows(cm *mat.Dense) *mat.Dense {
	var rows, cols = cm.Dims()
	var res = mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		var row = mat.Row(nil, i, cm)
		var sum = floats.Sum(row)
		if sum != 0 {
			floats.Scale(1/sum, row)
		}
		res.SetRow(i, row)
	}
	return res
}

type ClassScore struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

func ClassScores(cm *mat.Dense) []ClassScore {
	var classes, _ = cm.Dims()
	var res = make([]ClassScore, classes)
	for c := 0; c < classes; c++ {
		var tp = cm.At(c, c)
		var actual = floats.Sum(mat.Row(nil, c, cm))
		var predicted = floats.Sum(mat.Col(nil, c, cm))
		var s = &res[c]
		s.Support = int(actual)
		if predicted != 0 {
			s.Precision = tp / predicted
		}
		if actual != 0 {
			s.Recall = tp / actual
		}
		if s.Precision+s.Recall != 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
	}
	return res
}

// MacroF1 averages per-class F1 over the classes present in truth or predictions.
func MacroF1(cm *mat.Dense) float64 {
	var scores = ClassScores(cm)
	var sum float64
	var n int
	for c, s := range scores {
		if s.Support == 0 && floats.Sum(mat.Col(nil, c, cm)) == 0 {
			continue
		}
		sum += s.F1
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Report renders per-class precision, recall, F1 and support.
func Report(cm *mat.Dense, labels []string) string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "%10s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for c, s := range ClassScores(cm) {
		fmt.Fprintf(sb, "%10s %10.2f %10.2f %10.2f %10d\n", labels[c], s.Precision, s.Recall, s.F1, s.Support)
	}
	fmt.Fprintf(sb, "\n%10s %32.2f\n", "macro f1", MacroF1(cm))
	return sb.String()
}
