package features

import (
	"math"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// SpeakerStats accumulates the lmfcc statistics of one speaker.
type SpeakerStats struct {
	Mean  []float64
	Std   []float64
	Count int
}

// SpeakerNormalizer rescales the base feature of every utterance with the
// mean and std of its speaker.
type SpeakerNormalizer struct {
	FeatureName string
	Dim         int
}

func NewSpeakerNormalizer() *SpeakerNormalizer {
	return &SpeakerNormalizer{
		FeatureName: domain.FeatureLMFCC,
		Dim:         domain.BaseFeatureDim,
	}
}

// Normalize returns normalized copies; the input utterances are not modified.
func (sn *SpeakerNormalizer) Normalize(utterances []domain.Utterance) ([]domain.Utterance, error) {
	var stats, err = sn.ComputeStats(utterances)
	if err != nil {
		return nil, err
	}
	var res = make([]domain.Utterance, len(utterances))
	for i := range utterances {
		var u = utterances[i].Clone()
		var speaker, _ = u.SpeakerID()
		var s = stats[speaker]
		for _, frame := range u.Features[sn.FeatureName] {
			floats.Sub(frame, s.Mean)
			floats.Div(frame, s.Std)
		}
		res[i] = u
	}
	log.Debug().
		Int("utterances", len(res)).
		Int("speakers", len(stats)).
		Msg("speaker normalization")
	return res, nil
}

// ComputeStats keys accumulators by speaker id, so the order of utterances
// does not matter.
// Std is sqrt(sum of squared deviations) / utterance count.
func (sn *SpeakerNormalizer) ComputeStats(utterances []domain.Utterance) (map[string]*SpeakerStats, error) {
	var stats = make(map[string]*SpeakerStats)
	var speakers = make([]*SpeakerStats, len(utterances))

	for i := range utterances {
		var u = &utterances[i]
		var speaker, ok = u.SpeakerID()
		if !ok {
			return nil, errors.Wrapf(domain.ErrConfiguration,
				"cannot derive speaker from path %q", u.Filename)
		}
		var frames, err = sn.baseFrames(u)
		if err != nil {
			return nil, err
		}
		var s = stats[speaker]
		if s == nil {
			s = &SpeakerStats{
				Mean: make([]float64, sn.Dim),
				Std:  make([]float64, sn.Dim),
			}
			stats[speaker] = s
		}
		floats.Add(s.Mean, frameMean(frames, sn.Dim))
		s.Count++
		speakers[i] = s
	}

	for _, s := range stats {
		floats.Scale(1/float64(s.Count), s.Mean)
	}

	var d = make([]float64, sn.Dim)
	for i := range utterances {
		var s = speakers[i]
		for _, frame := range utterances[i].Features[sn.FeatureName] {
			floats.SubTo(d, frame, s.Mean)
			floats.Mul(d, d)
			floats.Add(s.Std, d)
		}
	}

	for speaker, s := range stats {
		for j := range s.Std {
			s.Std[j] = math.Sqrt(s.Std[j]) / float64(s.Count)
			if s.Std[j] == 0 || math.IsNaN(s.Std[j]) {
				return nil, errors.Wrapf(domain.ErrNumerical,
					"speaker %v: std of dimension %v is %v", speaker, j, s.Std[j])
			}
		}
	}
	return stats, nil
}

func (sn *SpeakerNormalizer) baseFrames(u *domain.Utterance) ([][]float64, error) {
	var frames, found = u.Features[sn.FeatureName]
	if !found {
		return nil, errors.Wrapf(domain.ErrConfiguration,
			"utterance %v has no feature %q", u.Filename, sn.FeatureName)
	}
	if len(frames) == 0 {
		return nil, errors.Wrapf(domain.ErrNumerical,
			"utterance %v has no frames", u.Filename)
	}
	for _, frame := range frames {
		if len(frame) != sn.Dim {
			return nil, errors.Wrapf(domain.ErrConfiguration,
				"utterance %v: %v width %v, expected %v", u.Filename, sn.FeatureName, len(frame), sn.Dim)
		}
	}
	return frames, nil
}

func frameMean(frames [][]float64, dim int) []float64 {
	var res = make([]float64, dim)
	for _, frame := range frames {
		floats.Add(res, frame)
	}
	floats.Scale(1/float64(len(frames)), res)
	return res
}
