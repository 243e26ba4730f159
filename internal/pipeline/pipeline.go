package pipeline

import (
	"context"

	"github.com/ChizhovVadim/phonetrain/internal/dataset"
	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/ChizhovVadim/phonetrain/internal/features"
	"github.com/ChizhovVadim/phonetrain/internal/phones"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// IDatasetProvider supplies the three utterance partitions.
type IDatasetProvider interface {
	Load(ctx context.Context) (dataset.Partitions, error)
}

// FileDatasetProvider loads gob partitions from disk.
type FileDatasetProvider struct {
	Paths dataset.Paths
}

func (p *FileDatasetProvider) Load(ctx context.Context) (dataset.Partitions, error) {
	return dataset.LoadPartitions(ctx, p.Paths)
}

// Pipeline holds the prepared splits of one experiment.
type Pipeline struct {
	Params Params
	Phones *phones.Inventory
	Scaler *features.StandardScaler
	Train  domain.Split
	Val    domain.Split
	Test   domain.Split
}

// Builder produces a fully formed Pipeline from Params.
type Builder struct {
	params     Params
	phones     *phones.Inventory
	provider   IDatasetProvider
	normalizer *features.SpeakerNormalizer
	extractor  features.IFeatureExtractor
}

func NewBuilder(params Params, inventory *phones.Inventory, provider IDatasetProvider) *Builder {
	var b = &Builder{
		params:   params,
		phones:   inventory,
		provider: provider,
	}
	if params.SpeakerNorm {
		b.normalizer = features.NewSpeakerNormalizer()
	}
	if params.UseDynamicFeatures {
		b.extractor = &features.FeatureWindower{
			FeatureName:   params.FeatureName(),
			ContextLength: params.ContextLength,
			Phones:        inventory,
		}
	} else {
		b.extractor = &features.RegularFeatureExtractor{
			FeatureName: params.FeatureName(),
			Phones:      inventory,
		}
	}
	return b
}

func (b *Builder) Build(ctx context.Context) (*Pipeline, error) {
	data, err := b.provider.Load(ctx)
	if err != nil {
		return nil, err
	}

	if b.normalizer != nil {
		for _, part := range []*[]domain.Utterance{&data.Train, &data.Val, &data.Test} {
			normalized, err := b.normalizer.Normalize(*part)
			if err != nil {
				return nil, err
			}
			*part = normalized
		}
	}

	var splits [3]domain.Split
	for i, part := range [][]domain.Utterance{data.Train, data.Val, data.Test} {
		var partition = domain.Partition(i)
		splits[i], err = b.extractor.Extract(part)
		if err != nil {
			return nil, errors.WithMessagef(err, "%v partition", partition)
		}
		if splits[i].X.Rows() == 0 {
			return nil, errors.Wrapf(domain.ErrConfiguration, "%v partition has no frames", partition)
		}
		log.Info().
			Str("partition", partition.String()).
			Str("extractor", b.extractor.Name()).
			Int("samples", splits[i].X.Rows()).
			Int("width", splits[i].X.Width()).
			Msg("features extracted")
	}

	var scaler = &features.StandardScaler{}
	if err = scaler.Fit(splits[domain.PartitionTrain].X); err != nil {
		return nil, err
	}
	for i := range splits {
		splits[i].X, err = scaler.Transform(splits[i].X)
		if err != nil {
			return nil, err
		}
	}

	if b.params.AsMat {
		for i := range splits {
			splits[i].X, err = features.Reshape(splits[i].X, MatRows, MatCols)
			if err != nil {
				return nil, err
			}
		}
	}

	return &Pipeline{
		Params: b.params,
		Phones: b.phones,
		Scaler: scaler,
		Train:  splits[domain.PartitionTrain],
		Val:    splits[domain.PartitionVal],
		Test:   splits[domain.PartitionTest],
	}, nil
}
