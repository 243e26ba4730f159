package experiment

import (
	"context"
	"math/rand"

	"github.com/ChizhovVadim/phonetrain/internal/config"
	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/ChizhovVadim/phonetrain/internal/metrics"
	"github.com/ChizhovVadim/phonetrain/internal/phones"
	"github.com/ChizhovVadim/phonetrain/internal/pipeline"
	"github.com/ChizhovVadim/phonetrain/internal/report"
	"github.com/ChizhovVadim/phonetrain/internal/train"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Result summarizes a finished run.
type Result struct {
	Folder   string
	Accuracy float64
	F1       float64
	History  train.History
}

func prepare(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, *report.Reporter, error) {
	inventory, err := phones.Load(cfg.PhonemesPath)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Int("phonemes", inventory.Size()).Msg("phoneme inventory")

	var builder = pipeline.NewBuilder(cfg.Params(), inventory,
		&pipeline.FileDatasetProvider{Paths: cfg.Paths()})
	p, err := builder.Build(ctx)
	if err != nil {
		return nil, nil, err
	}
	reporter, err := report.NewReporter(cfg.OutputDir, p.Params)
	if err != nil {
		return nil, nil, err
	}
	return p, reporter, nil
}

// Train builds the pipeline, fits a new model and writes every artifact.
func Train(ctx context.Context, cfg *config.Config) (Result, error) {
	p, reporter, err := prepare(ctx, cfg)
	if err != nil {
		return Result{}, err
	}

	var topology = train.NewTopology(p.Train.X.Width(), p.Phones.Size(), cfg.HiddenNodes)
	var model = train.NewModel(rand.New(rand.NewSource(cfg.Seed)), topology)
	if err = reporter.WriteSummary(model.Summary()); err != nil {
		return Result{}, err
	}

	history, err := model.Fit(p.Train, p.Val, cfg.FitOptions())
	if err != nil {
		return Result{}, err
	}
	if err = model.Save(reporter.ModelPath()); err != nil {
		return Result{}, err
	}
	if err = reporter.WriteLossHistory(history.Loss, history.ValLoss); err != nil {
		return Result{}, err
	}
	if err = reporter.WriteAccHistory(history.Acc, history.ValAcc); err != nil {
		return Result{}, err
	}

	result, err := evaluate(model, p, reporter)
	result.History = history
	return result, err
}

// Evaluate scores a saved model on the test partition.
func Evaluate(ctx context.Context, cfg *config.Config) (Result, error) {
	if cfg.ModelPath == "" {
		return Result{}, errors.Wrap(domain.ErrConfiguration, "model_path is required for evaluate")
	}
	p, reporter, err := prepare(ctx, cfg)
	if err != nil {
		return Result{}, err
	}
	model, err := train.LoadModel(cfg.ModelPath)
	if err != nil {
		return Result{}, err
	}
	if err = reporter.WriteSummary(model.Summary()); err != nil {
		return Result{}, err
	}
	return evaluate(model, p, reporter)
}

func evaluate(model train.IClassifier, p *pipeline.Pipeline, reporter *report.Reporter) (Result, error) {
	trueLabels, predLabels, _, err := train.PredictLabels(model, p.Test)
	if err != nil {
		return Result{}, err
	}
	acc, err := metrics.Accuracy(trueLabels, predLabels)
	if err != nil {
		return Result{}, err
	}
	cm, err := metrics.Confusion(trueLabels, predLabels, p.Phones.Size())
	if err != nil {
		return Result{}, err
	}
	var f1 = metrics.MacroF1(cm)
	log.Info().
		Float64("accuracy", acc).
		Float64("f1", f1).
		Msg("test")

	if err = reporter.WriteTestAccuracy(acc, f1); err != nil {
		return Result{}, err
	}
	if err = reporter.WriteClassificationReport(metrics.Report(cm, p.Phones.Labels())); err != nil {
		return Result{}, err
	}
	if err = reporter.WriteConfusion(cm, p.Phones.Labels(), false); err != nil {
		return Result{}, err
	}
	if err = reporter.WriteConfusion(metrics.NormalizeRows(cm), p.Phones.Labels(), true); err != nil {
		return Result{}, err
	}
	return Result{
		Folder:   reporter.Folder(),
		Accuracy: acc,
		F1:       f1,
	}, nil
}
