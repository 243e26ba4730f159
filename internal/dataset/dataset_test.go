package dataset

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/pkg/errors"
)

func utterance(filename string, n int) domain.Utterance {
	var frames = make([][]float64, n)
	var targets = make([]string, n)
	for i := range frames {
		frames[i] = []float64{float64(i), float64(-i)}
		targets[i] = "sil"
	}
	return domain.Utterance{
		Filename: filename,
		Features: map[string][][]float64{domain.FeatureLMFCC: frames},
		Targets:  targets,
	}
}

func TestSaveLoadPartitions(t *testing.T) {
	var dir = t.TempDir()
	var paths = Paths{
		Train: filepath.Join(dir, "train.gob"),
		Val:   filepath.Join(dir, "val.gob"),
		Test:  filepath.Join(dir, "test.gob"),
	}
	var want = Partitions{
		Train: []domain.Utterance{utterance("train/s1/a.wav", 3), utterance("train/s2/b.wav", 4)},
		Val:   []domain.Utterance{utterance("val/s3/c.wav", 2)},
		Test:  []domain.Utterance{utterance("test/s4/d.wav", 5)},
	}
	if err := SavePartitions(paths, want); err != nil {
		t.Fatal(err)
	}
	got, err := LoadPartitions(context.Background(), paths)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("loaded partitions differ from saved ones")
	}
}

func TestLoadMissing(t *testing.T) {
	var dir = t.TempDir()
	var train = filepath.Join(dir, "train.gob")
	if err := Save(train, []domain.Utterance{utterance("train/s1/a.wav", 3)}); err != nil {
		t.Fatal(err)
	}
	var _, err = LoadPartitions(context.Background(), Paths{
		Train: train,
		Val:   filepath.Join(dir, "missing.gob"),
		Test:  train,
	})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("want configuration error, got %v", err)
	}
}
