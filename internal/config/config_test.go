package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, args, err := Load([]string{"--env-file", "", "train"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(args, []string{"train"}) {
		t.Errorf("args %v", args)
	}
	if cfg.ContextLength != 7 || cfg.NLayers != 2 || !reflect.DeepEqual(cfg.HiddenNodes, []int{256, 256}) {
		t.Errorf("defaults %+v", cfg)
	}
	if !cfg.UseDynamicFeatures || cfg.SpeakerNorm || cfg.AsMat || cfg.BatchSize != 2048 {
		t.Errorf("defaults %+v", cfg)
	}
	if cfg.Threads <= 0 {
		t.Errorf("threads %v", cfg.Threads)
	}
}

func TestLoadPrecedence(t *testing.T) {
	var dir = t.TempDir()
	var configFile = filepath.Join(dir, "config.yml")
	var err = os.WriteFile(configFile, []byte(
		"epochs: 5\nn_layers: 1\nhidden_nodes: [32]\nspeaker_norm: true\noutput_dir: runs\n"), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("PHONETRAIN_BATCH_SIZE", "128")

	cfg, _, err := Load([]string{"--env-file", "", "--config", configFile, "--epochs", "9"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Epochs != 9 {
		t.Errorf("flag should win over file, epochs %v", cfg.Epochs)
	}
	if cfg.NLayers != 1 || !reflect.DeepEqual(cfg.HiddenNodes, []int{32}) || !cfg.SpeakerNorm || cfg.OutputDir != "runs" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.BatchSize != 128 {
		t.Errorf("env value not applied, batch size %v", cfg.BatchSize)
	}

	var params = cfg.Params()
	if params.Key() != "1_32_lmfcc_dynamic_feats_epochs_9" {
		t.Errorf("key %v", params.Key())
	}
}

func TestEnvFile(t *testing.T) {
	var envFile = filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("PHONETRAIN_SEED=42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PHONETRAIN_SEED") })
	cfg, _, err := Load([]string{"--env-file", envFile})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 42 {
		t.Errorf("seed %v", cfg.Seed)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"even context", func(c *Config) { c.ContextLength = 6 }},
		{"layers mismatch", func(c *Config) { c.NLayers = 3 }},
		{"zero epochs", func(c *Config) { c.Epochs = 0 }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"bad lr factor", func(c *Config) { c.LRFactor = 1.5 }},
		{"negative hidden", func(c *Config) { c.HiddenNodes = []int{-1, 4} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg = &Config{
				ContextLength: 7,
				NLayers:       2,
				HiddenNodes:   []int{8, 8},
				Epochs:        1,
				BatchSize:     1,
				LRFactor:      0.2,
				LearningRate:  0.001,
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("valid config rejected: %v", err)
			}
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("want configuration error, got %v", err)
			}
		})
	}
}
