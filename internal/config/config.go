package config

import (
	"os"
	"runtime"
	"strings"

	"github.com/ChizhovVadim/phonetrain/internal/dataset"
	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/ChizhovVadim/phonetrain/internal/pipeline"
	"github.com/ChizhovVadim/phonetrain/internal/train"
	"github.com/joho/godotenv"
	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "PHONETRAIN"

type Config struct {
	ContextLength      int     `mapstructure:"context_length"`
	NLayers            int     `mapstructure:"n_layers"`
	HiddenNodes        []int   `mapstructure:"hidden_nodes"`
	Epochs             int     `mapstructure:"epochs"`
	UseMSpec           bool    `mapstructure:"use_mspec"`
	AsMat              bool    `mapstructure:"as_mat"`
	SpeakerNorm        bool    `mapstructure:"speaker_norm"`
	UseDynamicFeatures bool    `mapstructure:"use_dynamic_features"`
	BatchSize          int     `mapstructure:"batch_size"`
	Threads            int     `mapstructure:"threads"`
	Seed               int64   `mapstructure:"seed"`
	Patience           int     `mapstructure:"patience"`
	LRFactor           float64 `mapstructure:"lr_factor"`
	LRPatience         int     `mapstructure:"lr_patience"`
	LearningRate       float64 `mapstructure:"learning_rate"`
	TrainPath          string  `mapstructure:"train_path"`
	ValPath            string  `mapstructure:"val_path"`
	TestPath           string  `mapstructure:"test_path"`
	PhonemesPath       string  `mapstructure:"phonemes_path"`
	OutputDir          string  `mapstructure:"output_dir"`
	ModelPath          string  `mapstructure:"model_path"`
	Progress           bool    `mapstructure:"progress"`
	LogLevel           string  `mapstructure:"log_level"`
	LogFormat          string  `mapstructure:"log_format"`
}

// DefaultThreads is the number of physical cores, or logical ones when unknown.
func DefaultThreads() int {
	if cpuid.CPU.PhysicalCores > 0 {
		return cpuid.CPU.PhysicalCores
	}
	return runtime.NumCPU()
}

func NewFlagSet(name string) *pflag.FlagSet {
	var fs = pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "Path to YAML config file")
	fs.String("env-file", ".env", "Path to .env file")
	fs.Int("context_length", 7, "Odd number of frames in a context window")
	fs.Int("n_layers", 2, "Number of hidden layers")
	fs.IntSlice("hidden_nodes", []int{256, 256}, "Hidden layer sizes")
	fs.Int("epochs", 20, "Number of epochs")
	fs.Bool("use_mspec", false, "Use mspec instead of lmfcc")
	fs.Bool("as_mat", false, "Reshape windows into 7x13 matrices")
	fs.Bool("speaker_norm", false, "Normalize lmfcc per speaker")
	fs.Bool("use_dynamic_features", true, "Use context windows")
	fs.Int("batch_size", 2048, "Mini-batch size")
	fs.Int("threads", DefaultThreads(), "Number of training threads")
	fs.Int64("seed", 0, "Random seed")
	fs.Int("patience", 4, "Early stopping patience in epochs, 0 disables")
	fs.Float64("lr_factor", 0.2, "Learning rate reduction factor on plateau")
	fs.Int("lr_patience", 10, "Epochs without improvement before reducing learning rate, 0 disables")
	fs.Float64("learning_rate", 0.001, "Initial learning rate")
	fs.String("train_path", "dataset/traindata.gob", "Training partition")
	fs.String("val_path", "dataset/valdata.gob", "Validation partition")
	fs.String("test_path", "dataset/testdata.gob", "Test partition")
	fs.String("phonemes_path", "phonemeList.txt", "Phoneme list, one per line")
	fs.String("output_dir", ".", "Directory for run folders")
	fs.String("model_path", "", "Saved model to evaluate instead of training")
	fs.Bool("progress", true, "Show progress bars")
	fs.String("log_level", "info", "Log level")
	fs.String("log_format", "console", "Log format: console or json")
	return fs
}

// Load resolves the configuration: defaults, YAML file, .env, environment, flags.
// It returns the positional arguments left after flag parsing.
func Load(args []string) (*Config, []string, error) {
	var fs = NewFlagSet("phonetrain")
	if err := fs.Parse(args); err != nil {
		return nil, nil, errors.Wrap(domain.ErrConfiguration, err.Error())
	}

	var envFile, _ = fs.GetString("env-file")
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, nil, errors.Wrapf(domain.ErrConfiguration, "env file %v: %v", envFile, err)
			}
		}
	}

	var v = viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, nil, errors.WithStack(err)
	}

	var configFile, _ = fs.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, errors.Wrapf(domain.ErrConfiguration, "config file %v: %v", configFile, err)
		}
	}

	var cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, errors.Wrap(domain.ErrConfiguration, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

func (c *Config) Validate() error {
	switch {
	case c.ContextLength <= 0 || c.ContextLength%2 == 0:
		return errors.Wrapf(domain.ErrConfiguration, "context_length must be odd and positive, got %v", c.ContextLength)
	case c.NLayers < 0 || len(c.HiddenNodes) != c.NLayers:
		return errors.Wrapf(domain.ErrConfiguration, "n_layers %v does not match hidden_nodes %v", c.NLayers, c.HiddenNodes)
	case c.Epochs <= 0:
		return errors.Wrapf(domain.ErrConfiguration, "epochs must be positive, got %v", c.Epochs)
	case c.BatchSize <= 0:
		return errors.Wrapf(domain.ErrConfiguration, "batch_size must be positive, got %v", c.BatchSize)
	case c.LRFactor <= 0 || c.LRFactor >= 1:
		return errors.Wrapf(domain.ErrConfiguration, "lr_factor must be in (0,1), got %v", c.LRFactor)
	case c.LearningRate <= 0:
		return errors.Wrapf(domain.ErrConfiguration, "learning_rate must be positive, got %v", c.LearningRate)
	}
	for _, n := range c.HiddenNodes {
		if n <= 0 {
			return errors.Wrapf(domain.ErrConfiguration, "hidden_nodes must be positive, got %v", c.HiddenNodes)
		}
	}
	return nil
}

func (c *Config) Params() pipeline.Params {
	return pipeline.Params{
		ContextLength:      c.ContextLength,
		NLayers:            c.NLayers,
		HiddenNodes:        append([]int(nil), c.HiddenNodes...),
		Epochs:             c.Epochs,
		UseMSpec:           c.UseMSpec,
		AsMat:              c.AsMat,
		SpeakerNorm:        c.SpeakerNorm,
		UseDynamicFeatures: c.UseDynamicFeatures,
	}
}

func (c *Config) FitOptions() train.FitOptions {
	return train.FitOptions{
		Epochs:       c.Epochs,
		BatchSize:    c.BatchSize,
		Threads:      c.Threads,
		Patience:     c.Patience,
		LRFactor:     c.LRFactor,
		LRPatience:   c.LRPatience,
		LearningRate: c.LearningRate,
		Seed:         c.Seed,
		Progress:     c.Progress,
	}
}

func (c *Config) Paths() dataset.Paths {
	return dataset.Paths{
		Train: c.TrainPath,
		Val:   c.ValPath,
		Test:  c.TestPath,
	}
}
