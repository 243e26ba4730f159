package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ChizhovVadim/phonetrain/internal/pipeline"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// Reporter writes the artifacts of one run into a folder named after its parameters.
type Reporter struct {
	RunID  uuid.UUID
	Params pipeline.Params
	folder string
}

func NewReporter(outputDir string, params pipeline.Params) (*Reporter, error) {
	var folder = filepath.Join(outputDir, params.Key())
	if err := os.MkdirAll(folder, os.ModePerm); err != nil {
		return nil, errors.WithStack(err)
	}
	var r = &Reporter{
		RunID:  uuid.New(),
		Params: params,
		folder: folder,
	}
	log.Info().
		Str("run", r.RunID.String()).
		Str("folder", folder).
		Msg("report folder")
	return r, nil
}

func (r *Reporter) Folder() string { return r.folder }

func (r *Reporter) Path(name string) string { return filepath.Join(r.folder, name) }

func (r *Reporter) ModelPath() string { return r.Path("model.nn") }

func (r *Reporter) writeFile(name, content string) error {
	var err = os.WriteFile(r.Path(name), []byte(content), 0o644)
	if err != nil {
		return errors.WithStack(err)
	}
	log.Debug().Str("file", r.Path(name)).Msg("stored")
	return nil
}

// WriteSummary stores the run parameters and the model summary in report.txt.
func (r *Reporter) WriteSummary(modelSummary string) error {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "Run: %v\n", r.RunID)
	fmt.Fprintf(sb, "Date: %v\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(sb, "Params: %+v\n", r.Params)
	fmt.Fprintf(sb, "Feature: %v\n\n", r.Params.FeatureName())
	sb.WriteString(modelSummary)
	return r.writeFile("report.txt", sb.String())
}

func (r *Reporter) WriteTestAccuracy(acc, f1 float64) error {
	return r.writeFile("test_acc.txt", fmt.Sprintf("Accuracy: %v\nF1 score: %v", acc, f1))
}

func (r *Reporter) WriteClassificationReport(text string) error {
	return r.writeFile("classification_report.txt", text)
}

// WriteConfusion stores the matrix as CSV and as a heat map image.
func (r *Reporter) WriteConfusion(cm *mat.Dense, labels []string, normalized bool) error {
	var title = "confusion"
	if normalized {
		title = "norm_confusion"
	}
	if err := r.writeMatrixCSV(title+".csv", cm); err != nil {
		return err
	}
	return plotConfusion(cm, labels, title, r.Path(title+".png"))
}

func (r *Reporter) writeMatrixCSV(name string, m *mat.Dense) error {
	f, err := os.Create(r.Path(name))
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	var w = csv.NewWriter(f)
	var rows, cols = m.Dims()
	var record = make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'f', 6, 64)
		}
		if err = w.Write(record); err != nil {
			return errors.WithStack(err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return errors.WithStack(err)
	}
	return f.Close()
}

func (r *Reporter) WriteLossHistory(train, val []float64) error {
	return plotHistory("Training and validation loss", "Loss", train, val, r.Path("train_val_loss.png"))
}

func (r *Reporter) WriteAccHistory(train, val []float64) error {
	return plotHistory("Training and validation acc", "Acc", train, val, r.Path("train_val_acc.png"))
}
