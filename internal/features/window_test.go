package features

import (
	"reflect"
	"testing"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/ChizhovVadim/phonetrain/internal/phones"
	"github.com/pkg/errors"
)

// newUtterance builds an utterance whose frame i holds i*100+j in dimension j.
func newUtterance(filename string, targets []string, dim int) domain.Utterance {
	var frames = make([][]float64, len(targets))
	for i := range frames {
		frames[i] = make([]float64, dim)
		for j := range frames[i] {
			frames[i][j] = float64(i*100 + j)
		}
	}
	return domain.Utterance{
		Filename: filename,
		Features: map[string][][]float64{domain.FeatureLMFCC: frames},
		Targets:  targets,
	}
}

func TestWindowerScenario(t *testing.T) {
	var inv = phones.NewInventory([]string{"a", "b"})
	var u = newUtterance("data/spk1/u1.wav", []string{"a", "a", "b", "b", "a"}, 13)
	var w = &FeatureWindower{
		FeatureName:   domain.FeatureLMFCC,
		ContextLength: 3,
		Phones:        inv,
	}
	split, err := w.Extract([]domain.Utterance{u})
	if err != nil {
		t.Fatal(err)
	}
	if split.X.Rows() != 5 || split.X.Width() != 39 {
		t.Fatalf("X shape %v, want [5 39]", split.X.Shape)
	}
	if got := phones.ArgMax(split.Y); !reflect.DeepEqual(got, []int{0, 0, 1, 1, 0}) {
		t.Errorf("targets %v", got)
	}
	if split.Y.Width() != 2 {
		t.Errorf("Y width %v, want 2", split.Y.Width())
	}

	var wantFrames = [][]int{
		{1, 0, 1},
		{1, 0, 1},
		{1, 0, 1},
		{2, 3, 4},
		{3, 4, 3},
	}
	for row, frames := range wantFrames {
		var window = split.X.Row(row)
		for k, frame := range frames {
			for j := 0; j < 13; j++ {
				var want = float32(frame*100 + j)
				if window[k*13+j] != want {
					t.Fatalf("row %v frame %v dim %v = %v, want %v", row, k, j, window[k*13+j], want)
				}
			}
		}
	}
}

func TestWindowIndices(t *testing.T) {
	tests := []struct {
		name string
		i    int
		half int
		n    int
		want []int
	}{
		{"head i=0", 0, 3, 20, []int{3, 2, 1, 0, 1, 2, 3}},
		{"head i=2", 2, 3, 20, []int{3, 2, 1, 0, 1, 2, 3}},
		{"interior", 3, 3, 20, []int{0, 1, 2, 3, 4, 5, 6}},
		{"interior h=1", 10, 1, 20, []int{9, 10, 11}},
		{"tail last", 19, 3, 20, []int{16, 17, 18, 19, 18, 17, 16}},
		{"tail first", 17, 3, 20, []int{14, 15, 16, 17, 18, 19, 18}},
		{"wide window after head", 3, 5, 20, []int{2, 1, 0, 1, 2, 3, 4, 5, 6, 7, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WindowIndices(tt.i, tt.half, tt.n)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("WindowIndices(%v, %v, %v) = %v, want %v", tt.i, tt.half, tt.n, got, tt.want)
			}
		})
	}
}

func TestWindowInteriorIsContiguous(t *testing.T) {
	const n = 25
	for half := 1; half <= 3; half++ {
		for i := max(half, headFrames); i < n-half; i++ {
			got, err := WindowIndices(i, half, n)
			if err != nil {
				t.Fatal(err)
			}
			for k := range got {
				if got[k] != i-half+k {
					t.Fatalf("half %v i %v: %v is not a contiguous slice", half, i, got)
				}
			}
		}
	}
}

func TestWindowTailBounds(t *testing.T) {
	for half := 1; half <= 6; half++ {
		for n := 2*half + 3; n < 2*half+10; n++ {
			for i := n - half; i < n; i++ {
				got, err := WindowIndices(i, half, n)
				if err != nil {
					t.Fatalf("half %v n %v i %v: %v", half, n, i, err)
				}
				for _, index := range got {
					if index < 0 || index >= n {
						t.Fatalf("half %v n %v i %v: index %v out of range", half, n, i, index)
					}
				}
			}
		}
	}
}

func TestWindowHeadRowsIdentical(t *testing.T) {
	var inv = phones.NewInventory([]string{"x"})
	var targets = make([]string, 12)
	for i := range targets {
		targets[i] = "x"
	}
	for _, contextLength := range []int{3, 5, 7, 9} {
		var w = &FeatureWindower{
			FeatureName:   domain.FeatureLMFCC,
			ContextLength: contextLength,
			Phones:        inv,
		}
		split, err := w.Extract([]domain.Utterance{newUtterance("a/s/u", targets, 4)})
		if err != nil {
			t.Fatal(err)
		}
		for i := 1; i < headFrames; i++ {
			if !reflect.DeepEqual(split.X.Row(0), split.X.Row(i)) {
				t.Errorf("context %v: window %v differs from window 0", contextLength, i)
			}
		}
	}
}

func TestWindowerErrors(t *testing.T) {
	var inv = phones.NewInventory([]string{"a"})
	tests := []struct {
		name          string
		contextLength int
		targets       []string
		want          error
	}{
		{"even context", 4, []string{"a", "a", "a", "a", "a", "a"}, domain.ErrConfiguration},
		{"too short", 7, []string{"a", "a"}, domain.ErrConfiguration},
		{"unknown label", 3, []string{"a", "a", "z", "a", "a"}, domain.ErrLookup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w = &FeatureWindower{
				FeatureName:   domain.FeatureLMFCC,
				ContextLength: tt.contextLength,
				Phones:        inv,
			}
			var _, err = w.Extract([]domain.Utterance{newUtterance("a/s/u", tt.targets, 2)})
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegularFeatureExtractor(t *testing.T) {
	var inv = phones.NewInventory([]string{"b", "a"})
	var e = &RegularFeatureExtractor{
		FeatureName: domain.FeatureLMFCC,
		Phones:      inv,
	}
	split, err := e.Extract([]domain.Utterance{
		newUtterance("x/s1/u1", []string{"a", "b"}, 3),
		newUtterance("x/s2/u2", []string{"b", "b", "a"}, 3),
	})
	if err != nil {
		t.Fatal(err)
	}
	if split.X.Rows() != 5 || split.X.Width() != 3 {
		t.Fatalf("X shape %v", split.X.Shape)
	}
	if got := phones.ArgMax(split.Y); !reflect.DeepEqual(got, []int{0, 1, 1, 1, 0}) {
		t.Errorf("targets %v", got)
	}
	// second utterance starts at row 2 with its own frame 0
	if split.X.Row(2)[1] != 1 || split.X.Row(4)[0] != 200 {
		t.Errorf("rows not concatenated in order: %v", split.X.Data)
	}
}

func TestFrameShapeMismatch(t *testing.T) {
	var u = newUtterance("x/s/u", []string{"a", "a"}, 3)
	u.Targets = u.Targets[:1]
	var _, _, err = frameShape([]domain.Utterance{u}, domain.FeatureLMFCC)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("want configuration error, got %v", err)
	}
}

func TestWindowerRestartsPerUtterance(t *testing.T) {
	var inv = phones.NewInventory([]string{"a", "b"})
	var first = newUtterance("data/spk1/u1.wav", []string{"a", "a", "b", "b", "a"}, 13)
	var second = newUtterance("data/spk1/u2.wav", []string{"b", "b", "a", "a", "b", "a"}, 13)
	for _, frame := range second.Features[domain.FeatureLMFCC] {
		for j := range frame {
			frame[j] += 10000
		}
	}
	var w = &FeatureWindower{
		FeatureName:   domain.FeatureLMFCC,
		ContextLength: 3,
		Phones:        inv,
	}
	split, err := w.Extract([]domain.Utterance{first, second})
	if err != nil {
		t.Fatal(err)
	}
	if split.X.Rows() != 11 {
		t.Fatalf("rows %v, want 11", split.X.Rows())
	}

	var window = func(u domain.Utterance, indices ...int) []float32 {
		var res []float32
		for _, index := range indices {
			for _, v := range u.Features[domain.FeatureLMFCC][index] {
				res = append(res, float32(v))
			}
		}
		return res
	}
	tests := []struct {
		row  int
		want []float32
	}{
		{3, window(first, 2, 3, 4)},
		{4, window(first, 3, 4, 3)},
		{5, window(second, 1, 0, 1)},
		{6, window(second, 1, 0, 1)},
		{7, window(second, 1, 0, 1)},
		{8, window(second, 2, 3, 4)},
		{10, window(second, 4, 5, 4)},
	}
	for _, tt := range tests {
		if got := split.X.Row(tt.row); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("row %v = %v, want %v", tt.row, got, tt.want)
		}
	}

	var labels = phones.ArgMax(split.Y)
	var wantLabels = []int{0, 0, 1, 1, 0, 1, 1, 0, 0, 1, 0}
	if !reflect.DeepEqual(labels, wantLabels) {
		t.Errorf("labels %v, want %v", labels, wantLabels)
	}
}
