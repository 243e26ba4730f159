package features

import (
	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/ChizhovVadim/phonetrain/internal/phones"
)

// IFeatureExtractor turns utterances into classifier inputs and one-hot targets.
type IFeatureExtractor interface {
	Extract(utterances []domain.Utterance) (domain.Split, error)
	Name() string
}

// RegularFeatureExtractor concatenates the raw frames of every utterance.
type RegularFeatureExtractor struct {
	FeatureName string
	Phones      *phones.Inventory
}

func (e *RegularFeatureExtractor) Name() string { return "regular_feats" }

func (e *RegularFeatureExtractor) Extract(utterances []domain.Utterance) (domain.Split, error) {
	var rows, width, err = frameShape(utterances, e.FeatureName)
	if err != nil {
		return domain.Split{}, err
	}
	var x = domain.NewTensor(rows, width)
	var targets = make([]int, 0, rows)
	var offset int
	for i := range utterances {
		var u = &utterances[i]
		for j, frame := range u.Features[e.FeatureName] {
			for k, v := range frame {
				x.Data[offset+k] = float32(v)
			}
			offset += width
			var index, err = e.Phones.Index(u.Targets[j])
			if err != nil {
				return domain.Split{}, err
			}
			targets = append(targets, index)
		}
	}
	return domain.Split{X: x, Y: e.Phones.OneHot(targets)}, nil
}
