package pipeline

import (
	"fmt"
	"strings"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
)

// Fixed matrix shape used by the as_mat option.
const (
	MatRows = 7
	MatCols = 13
)

// Params is the immutable configuration of one experiment run.
type Params struct {
	ContextLength      int
	NLayers            int
	HiddenNodes        []int
	Epochs             int
	UseMSpec           bool
	AsMat              bool
	SpeakerNorm        bool
	UseDynamicFeatures bool
}

func (p Params) FeatureName() string {
	if p.UseMSpec {
		return domain.FeatureMSpec
	}
	return domain.FeatureLMFCC
}

func (p Params) ExtractorName() string {
	if p.UseDynamicFeatures {
		return "dynamic_feats"
	}
	return "regular_feats"
}

// Key names the run deterministically.
func (p Params) Key() string {
	var nodes = make([]string, len(p.HiddenNodes))
	for i, n := range p.HiddenNodes {
		nodes[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("%v_%v_%v_%v_epochs_%v",
		p.NLayers, strings.Join(nodes, "-"), p.FeatureName(), p.ExtractorName(), p.Epochs)
}
