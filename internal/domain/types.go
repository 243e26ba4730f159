package domain

import "strings"

// Feature names stored with every utterance.
const (
	FeatureLMFCC = "lmfcc"
	FeatureMSpec = "mspec"
)

// BaseFeatureDim is the width of the lmfcc feature used for speaker normalization.
const BaseFeatureDim = 13

// Utterance is one recording: named frame matrices and per-frame phoneme labels.
type Utterance struct {
	Filename string
	Features map[string][][]float64
	Targets  []string
}

// SpeakerID is the second-to-last segment of the storage path.
func (u *Utterance) SpeakerID() (string, bool) {
	var parts = strings.Split(u.Filename, "/")
	if len(parts) < 2 {
		return "", false
	}
	return parts[len(parts)-2], true
}

func (u *Utterance) Clone() Utterance {
	var features = make(map[string][][]float64, len(u.Features))
	for name, frames := range u.Features {
		features[name] = CloneFrames(frames)
	}
	return Utterance{
		Filename: u.Filename,
		Features: features,
		Targets:  append([]string(nil), u.Targets...),
	}
}

func CloneFrames(frames [][]float64) [][]float64 {
	var res = make([][]float64, len(frames))
	for i, frame := range frames {
		res[i] = append([]float64(nil), frame...)
	}
	return res
}

// Tensor is a dense row-major float32 array. Shape[0] is the number of samples.
type Tensor struct {
	Data  []float32
	Shape []int
}

func NewTensor(rows, cols int) Tensor {
	return Tensor{
		Data:  make([]float32, rows*cols),
		Shape: []int{rows, cols},
	}
}

func (t Tensor) Rows() int {
	if len(t.Shape) == 0 {
		return 0
	}
	return t.Shape[0]
}

// Width is the flattened size of one sample.
func (t Tensor) Width() int {
	if len(t.Shape) == 0 {
		return 0
	}
	var w = 1
	for _, d := range t.Shape[1:] {
		w *= d
	}
	return w
}

func (t Tensor) Row(i int) []float32 {
	var w = t.Width()
	return t.Data[i*w : (i+1)*w]
}

// Split is one dataset partition ready for a classifier.
type Split struct {
	X Tensor
	Y Tensor
}

type Partition int

const (
	PartitionTrain Partition = iota
	PartitionVal
	PartitionTest
)

func (p Partition) String() string {
	switch p {
	case PartitionTrain:
		return "train"
	case PartitionVal:
		return "val"
	case PartitionTest:
		return "test"
	}
	return "unknown"
}
