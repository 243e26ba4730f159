package features

import (
	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/ChizhovVadim/phonetrain/internal/phones"
	"github.com/pkg/errors"
)

// headFrames is the number of leading frames windowed by reflection about index 0.
const headFrames = 3

// FeatureWindower stacks ContextLength neighbouring frames around every frame.
type FeatureWindower struct {
	FeatureName   string
	ContextLength int
	Phones        *phones.Inventory
}

func (w *FeatureWindower) Name() string { return "dynamic_feats" }

func (w *FeatureWindower) Extract(utterances []domain.Utterance) (domain.Split, error) {
	if w.ContextLength <= 0 || w.ContextLength%2 == 0 {
		return domain.Split{}, errors.Wrapf(domain.ErrConfiguration,
			"context length must be odd and positive, got %v", w.ContextLength)
	}
	var half = w.ContextLength / 2
	var rows, width, err = frameShape(utterances, w.FeatureName)
	if err != nil {
		return domain.Split{}, err
	}
	var windowWidth = w.ContextLength * width
	var x = domain.NewTensor(rows, windowWidth)
	var targets = make([]int, 0, rows)
	var indices = make([]int, w.ContextLength)
	var row int
	for ui := range utterances {
		var u = &utterances[ui]
		var frames = u.Features[w.FeatureName]
		for i := range frames {
			err = windowIndices(i, half, len(frames), indices)
			if err != nil {
				return domain.Split{}, errors.WithMessagef(err, "utterance %v", u.Filename)
			}
			var dst = x.Data[row*windowWidth : (row+1)*windowWidth]
			for j, index := range indices {
				for k, v := range frames[index] {
					dst[j*width+k] = float32(v)
				}
			}
			row++
			index, err := w.Phones.Index(u.Targets[i])
			if err != nil {
				return domain.Split{}, errors.WithMessagef(err, "utterance %v frame %v", u.Filename, i)
			}
			targets = append(targets, index)
		}
	}
	return domain.Split{X: x, Y: w.Phones.OneHot(targets)}, nil
}

// WindowIndices returns the frame indices that make up the window of frame i
// in an utterance of n frames.
func WindowIndices(i, half, n int) ([]int, error) {
	var res = make([]int, 2*half+1)
	var err = windowIndices(i, half, n, res)
	return res, err
}

func windowIndices(i, half, n int, res []int) error {
	switch {
	case i < headFrames:
		// always reflected about index 0, whatever i is
		for k := -half; k <= half; k++ {
			res[k+half] = abs(k)
		}
	case i >= n-half:
		for k := i - half; k <= i+half; k++ {
			var index = k
			if index >= n {
				index = n - (index - n) - 2
			} else if index < 0 {
				index = -index
			}
			res[k-i+half] = index
		}
	default:
		for k := i - half; k <= i+half; k++ {
			var index = k
			if index < 0 {
				index = -index
			}
			res[k-i+half] = index
		}
	}
	for _, index := range res {
		if index < 0 || index >= n {
			return errors.Wrapf(domain.ErrConfiguration,
				"frame %v: window index %v out of range for %v frames and half width %v", i, index, n, half)
		}
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
