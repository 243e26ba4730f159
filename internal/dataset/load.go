package dataset

import (
	"bufio"
	"context"
	"encoding/gob"
	"os"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Partitions holds the three dataset partitions of one experiment.
type Partitions struct {
	Train []domain.Utterance
	Val   []domain.Utterance
	Test  []domain.Utterance
}

type Paths struct {
	Train string
	Val   string
	Test  string
}

// LoadPartitions reads train, val and test concurrently.
func LoadPartitions(ctx context.Context, paths Paths) (Partitions, error) {
	var res Partitions
	g, ctx := errgroup.WithContext(ctx)
	var load = func(path string, dst *[]domain.Utterance) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var utterances, err = Load(path)
			if err != nil {
				return err
			}
			*dst = utterances
			return nil
		})
	}
	load(paths.Train, &res.Train)
	load(paths.Val, &res.Val)
	load(paths.Test, &res.Test)
	if err := g.Wait(); err != nil {
		return Partitions{}, err
	}
	log.Info().
		Int("train", len(res.Train)).
		Int("val", len(res.Val)).
		Int("test", len(res.Test)).
		Msg("dataset loaded")
	return res, nil
}

// Load reads a gob encoded utterance list.
func Load(path string) ([]domain.Utterance, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrConfiguration, "dataset: %v", err)
	}
	defer file.Close()

	var utterances []domain.Utterance
	err = gob.NewDecoder(bufio.NewReader(file)).Decode(&utterances)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrConfiguration, "dataset %v: %v", path, err)
	}
	log.Debug().
		Str("path", path).
		Int("utterances", len(utterances)).
		Msg("load dataset")
	return utterances, nil
}
