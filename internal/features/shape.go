package features

import (
	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/pkg/errors"
)

// frameShape counts frames and checks that every frame has the same width
// and every utterance has a label per frame.
func frameShape(utterances []domain.Utterance, featureName string) (rows, width int, err error) {
	width = -1
	for i := range utterances {
		var u = &utterances[i]
		var frames, found = u.Features[featureName]
		if !found {
			return 0, 0, errors.Wrapf(domain.ErrConfiguration,
				"utterance %v has no feature %q", u.Filename, featureName)
		}
		if len(frames) != len(u.Targets) {
			return 0, 0, errors.Wrapf(domain.ErrConfiguration,
				"utterance %v has %v frames and %v targets", u.Filename, len(frames), len(u.Targets))
		}
		for _, frame := range frames {
			if width == -1 {
				width = len(frame)
			} else if len(frame) != width {
				return 0, 0, errors.Wrapf(domain.ErrConfiguration,
					"utterance %v: frame width %v, expected %v", u.Filename, len(frame), width)
			}
		}
		rows += len(frames)
	}
	if width == -1 {
		width = 0
	}
	return rows, width, nil
}
