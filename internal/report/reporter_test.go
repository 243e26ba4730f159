package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ChizhovVadim/phonetrain/internal/pipeline"
	"gonum.org/v1/gonum/mat"
)

func TestReporter(t *testing.T) {
	var dir = t.TempDir()
	var params = pipeline.Params{
		ContextLength:      7,
		NLayers:            1,
		HiddenNodes:        []int{64},
		Epochs:             3,
		UseDynamicFeatures: true,
	}
	r, err := NewReporter(dir, params)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "1_64_lmfcc_dynamic_feats_epochs_3"); r.Folder() != want {
		t.Errorf("folder %v, want %v", r.Folder(), want)
	}

	var cm = mat.NewDense(2, 2, []float64{3, 1, 0, 4})
	var steps = []func() error{
		func() error { return r.WriteSummary("dense_1 relu\n") },
		func() error { return r.WriteTestAccuracy(0.875, 0.5) },
		func() error { return r.WriteClassificationReport("report") },
		func() error { return r.WriteConfusion(cm, []string{"a", "b"}, false) },
		func() error { return r.WriteConfusion(cm, []string{"a", "b"}, true) },
		func() error { return r.WriteLossHistory([]float64{1, 0.5, 0.4}, []float64{1.1, 0.7, 0.6}) },
		func() error { return r.WriteAccHistory([]float64{0.5, 0.7, 0.8}, []float64{0.4, 0.6, 0.7}) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			t.Fatal(err)
		}
	}

	for _, name := range []string{
		"report.txt", "test_acc.txt", "classification_report.txt",
		"confusion.csv", "confusion.png", "norm_confusion.csv", "norm_confusion.png",
		"train_val_loss.png", "train_val_acc.png",
	} {
		if info, err := os.Stat(r.Path(name)); err != nil || info.Size() == 0 {
			t.Errorf("%v not written: %v", name, err)
		}
	}

	acc, err := os.ReadFile(r.Path("test_acc.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(acc) != "Accuracy: 0.875\nF1 score: 0.5" {
		t.Errorf("test_acc.txt = %q", acc)
	}
	csv, err := os.ReadFile(r.Path("confusion.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(csv), "3.000000,1.000000\n") {
		t.Errorf("confusion.csv = %q", csv)
	}
	summary, err := os.ReadFile(r.Path("report.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(summary), r.RunID.String()) {
		t.Errorf("report.txt lacks run id")
	}
}
