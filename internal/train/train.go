package train

import (
	"math"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/ChizhovVadim/phonetrain/internal/ml"
	"github.com/ChizhovVadim/phonetrain/internal/phones"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"
)

func (m *Model) Fit(training, validation domain.Split, options FitOptions) (History, error) {
	log.Info().Msg("train started")
	defer log.Info().Msg("train finished")

	for _, split := range []domain.Split{training, validation} {
		if err := m.checkInput(split.X); err != nil {
			return History{}, err
		}
		if split.Y.Width() != int(m.topology.Outputs) || split.Y.Rows() != split.X.Rows() {
			return History{}, errors.Wrapf(domain.ErrConfiguration,
				"targets shape %v do not match %v samples and %v classes",
				split.Y.Shape, split.X.Rows(), m.topology.Outputs)
		}
	}
	var size = training.X.Rows()
	if size == 0 {
		return History{}, errors.Wrap(domain.ErrConfiguration, "empty training set")
	}
	if options.Epochs <= 0 || options.BatchSize <= 0 {
		return History{}, errors.Wrapf(domain.ErrConfiguration,
			"epochs %v and batch size %v must be positive", options.Epochs, options.BatchSize)
	}

	var models = m.threadModels(options.Threads)
	var opt = ml.NewAdam(options.LearningRate)
	var rnd = rand.New(rand.NewSource(options.Seed))
	var order = make([]int, size)
	for i := range order {
		order[i] = i
	}

	var history History
	var stopping = newPlateau(options.Patience, 0)
	var lrReducing = newPlateau(options.LRPatience, 1e-4)

	for epoch := 1; epoch <= options.Epochs; epoch++ {
		rnd.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		var progress *mpb.Progress
		var bar *mpb.Bar
		if options.Progress {
			progress = mpb.New(mpb.WithWidth(64))
			bar = progress.AddBar(int64((size+options.BatchSize-1)/options.BatchSize),
				mpb.PrependDecorators(
					decor.Name("Epoch "+strconv.Itoa(epoch)+": "),
					decor.CountersNoUnit("%d / %d"),
				),
				mpb.AppendDecorators(
					decor.Percentage(),
					decor.EwmaETA(decor.ET_STYLE_GO, 60),
				),
			)
		}

		var totalCost float64
		var totalCorrect int
		for i := 0; i < size; i += options.BatchSize {
			var batch = order[i:min(i+options.BatchSize, size)]
			var cost, correct = trainBatch(training, batch, models)
			totalCost += cost
			totalCorrect += correct
			applyGradients(models, opt, len(batch))
			if bar != nil {
				bar.Increment()
			}
		}
		if progress != nil {
			progress.Wait()
		}

		var valLoss, valAcc = evaluate(validation, models)
		history.Loss = append(history.Loss, totalCost/float64(size))
		history.Acc = append(history.Acc, float64(totalCorrect)/float64(size))
		history.ValLoss = append(history.ValLoss, valLoss)
		history.ValAcc = append(history.ValAcc, valAcc)
		log.Info().
			Int("epoch", epoch).
			Float64("loss", history.Loss[epoch-1]).
			Float64("acc", history.Acc[epoch-1]).
			Float64("val_loss", valLoss).
			Float64("val_acc", valAcc).
			Float64("lr", opt.LearningRate).
			Msg("finished epoch")

		if math.IsNaN(valLoss) {
			return history, errors.Wrapf(domain.ErrNumerical, "validation loss is NaN at epoch %v", epoch)
		}
		if options.LRPatience > 0 && lrReducing.update(valLoss) {
			opt.LearningRate *= options.LRFactor
			lrReducing.wait = 0
			log.Info().
				Int("epoch", epoch).
				Float64("lr", opt.LearningRate).
				Msg("reducing learning rate")
		}
		if options.Patience > 0 && stopping.update(valLoss) {
			log.Info().
				Int("epoch", epoch).
				Float64("best_val_loss", stopping.best).
				Msg("early stopping")
			break
		}
	}
	return history, nil
}

// plateau reports when the monitored loss has not improved by more than
// minDelta for patience consecutive epochs.
type plateau struct {
	best     float64
	wait     int
	patience int
	minDelta float64
}

func newPlateau(patience int, minDelta float64) *plateau {
	return &plateau{
		best:     math.Inf(1),
		patience: patience,
		minDelta: minDelta,
	}
}

func (p *plateau) update(loss float64) bool {
	if loss < p.best-p.minDelta {
		p.best = loss
		p.wait = 0
		return false
	}
	p.wait++
	return p.wait >= p.patience
}

func (m *Model) threadModels(threads int) []*Model {
	var models = make([]*Model, max(1, threads))
	models[0] = m
	for i := 1; i < len(models); i++ {
		models[i] = m.ThreadCopy()
	}
	return models
}

func trainBatch(split domain.Split, batch []int, models []*Model) (float64, int) {
	var index int32 = -1
	var wg = &sync.WaitGroup{}
	var mu = &sync.Mutex{}
	var totalCost float64
	var totalCorrect int
	for i := range models {
		wg.Add(1)
		go func(m *Model) {
			defer wg.Done()
			var localCost float64
			var localCorrect int
			for {
				var i = int(atomic.AddInt32(&index, 1))
				if i >= len(batch) {
					break
				}
				var sample = batch[i]
				var cost, correct = m.Train(split.X.Row(sample), split.Y.Row(sample))
				localCost += cost
				if correct {
					localCorrect++
				}
			}
			mu.Lock()
			totalCost += localCost
			totalCorrect += localCorrect
			mu.Unlock()
		}(models[i])
	}
	wg.Wait()
	return totalCost, totalCorrect
}

func applyGradients(models []*Model, opt *ml.Adam, batchSize int) {
	for i := 1; i < len(models); i++ {
		models[i].AddGradients(models[0])
	}
	models[0].ApplyGradients(opt, batchSize)
}

func evaluate(split domain.Split, models []*Model) (loss, acc float64) {
	var size = split.X.Rows()
	if size == 0 {
		return 0, 0
	}
	var index int32 = -1
	var wg = &sync.WaitGroup{}
	var mu = &sync.Mutex{}
	var totalCost float64
	var totalCorrect int
	for i := range models {
		wg.Add(1)
		go func(m *Model) {
			defer wg.Done()
			var localCost float64
			var localCorrect int
			for {
				var i = int(atomic.AddInt32(&index, 1))
				if i >= size {
					break
				}
				var cost, correct = m.CalcCost(split.X.Row(i), split.Y.Row(i))
				localCost += cost
				if correct {
					localCorrect++
				}
			}
			mu.Lock()
			totalCost += localCost
			totalCorrect += localCorrect
			mu.Unlock()
		}(models[i])
	}
	wg.Wait()
	return totalCost / float64(size), float64(totalCorrect) / float64(size)
}

// Predict returns the posterior matrix, one row of class probabilities per sample.
func (m *Model) Predict(x domain.Tensor) (domain.Tensor, error) {
	if err := m.checkInput(x); err != nil {
		return domain.Tensor{}, err
	}
	var rows, classes = x.Rows(), int(m.topology.Outputs)
	var res = domain.NewTensor(rows, classes)
	var threads = min(runtime.NumCPU(), max(1, rows))
	var chunk = (rows + threads - 1) / threads
	var g errgroup.Group
	for start := 0; start < rows; start += chunk {
		var start, end = start, min(start+chunk, rows)
		var worker = m.ThreadCopy()
		g.Go(func() error {
			for i := start; i < end; i++ {
				var probs = worker.forward(x.Row(i))
				var dst = res.Data[i*classes : (i+1)*classes]
				for j, p := range probs {
					dst[j] = float32(p)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Tensor{}, err
	}
	return res, nil
}

// PredictLabels returns arg-max class indices of targets and predictions
// together with the posteriors.
func PredictLabels(model IClassifier, split domain.Split) (trueLabels, predLabels []int, posteriors domain.Tensor, err error) {
	posteriors, err = model.Predict(split.X)
	if err != nil {
		return nil, nil, domain.Tensor{}, err
	}
	return phones.ArgMax(split.Y), phones.ArgMax(posteriors), posteriors, nil
}
