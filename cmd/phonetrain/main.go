package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/ChizhovVadim/phonetrain/internal/config"
	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/ChizhovVadim/phonetrain/internal/experiment"
	"github.com/ChizhovVadim/phonetrain/internal/logging"
	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func main() {
	var err = run()
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, args, err := config.Load(os.Args[1:])
	if err != nil {
		logging.Init("info", logging.FormatConsole)
		return err
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("cpu", cpuid.CPU.BrandName).
		Int("cores", cpuid.CPU.PhysicalCores).
		Int("threads", cfg.Threads).
		Interface("config", cfg).
		Msg("phonetrain")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var command = "train"
	if len(args) != 0 {
		command = args[0]
	}
	var result experiment.Result
	switch command {
	case "train":
		result, err = experiment.Train(ctx, cfg)
	case "evaluate":
		result, err = experiment.Evaluate(ctx, cfg)
	default:
		return errors.Wrapf(domain.ErrConfiguration, "command not found %v", command)
	}
	if err != nil {
		return err
	}
	log.Info().
		Str("folder", result.Folder).
		Float64("accuracy", result.Accuracy).
		Float64("f1", result.F1).
		Msg("finished")
	return nil
}
