// Package synth generates small labelled feature datasets with speaker
// variability, for smoke runs and tests.
package synth

import (
	"fmt"
	"math/rand"

	"github.com/ChizhovVadim/phonetrain/internal/dataset"
	"github.com/ChizhovVadim/phonetrain/internal/domain"
)

const MSpecDim = 40

type Options struct {
	Phonemes             []string
	Speakers             int
	UtterancesPerSpeaker int
	MinFrames            int
	MaxFrames            int
	Noise                float64
}

func DefaultOptions() Options {
	return Options{
		Phonemes:             []string{"aa", "ae", "b", "d", "iy", "m", "s", "sil"},
		Speakers:             4,
		UtterancesPerSpeaker: 6,
		MinFrames:            30,
		MaxFrames:            80,
		Noise:                0.3,
	}
}

type generator struct {
	rnd        *rand.Rand
	opts       Options
	prototypes map[string]map[string][]float64
}

// Generate builds train, val and test partitions with disjoint speakers.
func Generate(rnd *rand.Rand, opts Options) dataset.Partitions {
	var g = &generator{
		rnd:        rnd,
		opts:       opts,
		prototypes: make(map[string]map[string][]float64),
	}
	for _, name := range []string{domain.FeatureLMFCC, domain.FeatureMSpec} {
		var dim = featureDim(name)
		var protos = make(map[string][]float64, len(opts.Phonemes))
		for _, ph := range opts.Phonemes {
			protos[ph] = g.vector(dim, 3)
		}
		g.prototypes[name] = protos
	}
	return dataset.Partitions{
		Train: g.partition("train"),
		Val:   g.partition("val"),
		Test:  g.partition("test"),
	}
}

func featureDim(name string) int {
	if name == domain.FeatureMSpec {
		return MSpecDim
	}
	return domain.BaseFeatureDim
}

func (g *generator) vector(dim int, scale float64) []float64 {
	var res = make([]float64, dim)
	for i := range res {
		res[i] = g.rnd.NormFloat64() * scale
	}
	return res
}

func (g *generator) partition(name string) []domain.Utterance {
	var res []domain.Utterance
	for s := 0; s < g.opts.Speakers; s++ {
		var speaker = fmt.Sprintf("%v_spk%02d", name, s)
		var offsets = map[string][]float64{
			domain.FeatureLMFCC: g.vector(domain.BaseFeatureDim, 1),
			domain.FeatureMSpec: g.vector(MSpecDim, 1),
		}
		for u := 0; u < g.opts.UtterancesPerSpeaker; u++ {
			res = append(res, g.utterance(fmt.Sprintf("%v/%v/%v_%02d.wav", name, speaker, speaker, u), offsets))
		}
	}
	return res
}

func (g *generator) utterance(filename string, offsets map[string][]float64) domain.Utterance {
	var n = g.opts.MinFrames
	if g.opts.MaxFrames > g.opts.MinFrames {
		n += g.rnd.Intn(g.opts.MaxFrames - g.opts.MinFrames + 1)
	}
	var targets = make([]string, 0, n)
	for len(targets) < n {
		var ph = g.opts.Phonemes[g.rnd.Intn(len(g.opts.Phonemes))]
		var run = 3 + g.rnd.Intn(6)
		for i := 0; i < run && len(targets) < n; i++ {
			targets = append(targets, ph)
		}
	}
	var features = make(map[string][][]float64, len(offsets))
	for name, offset := range offsets {
		var frames = make([][]float64, n)
		for i := range frames {
			var proto = g.prototypes[name][targets[i]]
			var frame = make([]float64, len(proto))
			for j := range frame {
				frame[j] = proto[j] + offset[j] + g.rnd.NormFloat64()*g.opts.Noise
			}
			frames[i] = frame
		}
		features[name] = frames
	}
	return domain.Utterance{
		Filename: filename,
		Features: features,
		Targets:  targets,
	}
}
