package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/ChizhovVadim/phonetrain/internal/dataset"
	"github.com/ChizhovVadim/phonetrain/internal/logging"
	"github.com/ChizhovVadim/phonetrain/internal/synth"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	logging.Init("info", logging.FormatConsole)
	var err = run(os.Args[1:])
	if err != nil {
		log.Error().Err(err).Msg("gendata failed")
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts = synth.DefaultOptions()
	var fs = pflag.NewFlagSet("gendata", pflag.ContinueOnError)
	var outDir = fs.String("out", "dataset", "Output directory for partitions")
	var phonemesPath = fs.String("phonemes_path", "phonemeList.txt", "Output phoneme list")
	var seed = fs.Int64("seed", 1, "Random seed")
	fs.IntVar(&opts.Speakers, "speakers", opts.Speakers, "Speakers per partition")
	fs.IntVar(&opts.UtterancesPerSpeaker, "utterances", opts.UtterancesPerSpeaker, "Utterances per speaker")
	fs.IntVar(&opts.MinFrames, "min_frames", opts.MinFrames, "Minimum frames per utterance")
	fs.IntVar(&opts.MaxFrames, "max_frames", opts.MaxFrames, "Maximum frames per utterance")
	fs.Float64Var(&opts.Noise, "noise", opts.Noise, "Frame noise std")
	fs.StringSliceVar(&opts.Phonemes, "phonemes", opts.Phonemes, "Phoneme labels")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, os.ModePerm); err != nil {
		return errors.WithStack(err)
	}
	var partitions = synth.Generate(rand.New(rand.NewSource(*seed)), opts)
	var paths = dataset.Paths{
		Train: filepath.Join(*outDir, "traindata.gob"),
		Val:   filepath.Join(*outDir, "valdata.gob"),
		Test:  filepath.Join(*outDir, "testdata.gob"),
	}
	if err := dataset.SavePartitions(paths, partitions); err != nil {
		return err
	}
	var err = os.WriteFile(*phonemesPath, []byte(strings.Join(opts.Phonemes, "\n")+"\n"), 0o644)
	if err != nil {
		return errors.WithStack(err)
	}
	log.Info().
		Str("out", *outDir).
		Int("train", len(partitions.Train)).
		Int("val", len(partitions.Val)).
		Int("test", len(partitions.Test)).
		Msg("dataset generated")
	return nil
}
