package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/ahmedtd/mlp/dataset"
	"github.com/ahmedtd/mlp/toolbox"
	"github.com/google/subcommands"
)

type TrainCommand struct {
	dataFile   string
	bmpDir     string
	trainCount int
	testCount  int

	epochs       int
	batchSize    int
	learningRate float64
	hidden       int
	seed         int64

	predict string

	cpuProfileFile string
}

var _ subcommands.Command = (*TrainCommand)(nil)

func (*TrainCommand) Name() string {
	return "train"
}

func (*TrainCommand) Synopsis() string {
	return "Train the model and report test accuracy"
}

func (*TrainCommand) Usage() string {
	return `train [--data-file=mnist.npz | --bmp-dir=res] [flags]
`
}

func (c *TrainCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dataFile, "data-file", "", "Path to the mnist.npz input file")
	f.StringVar(&c.bmpDir, "bmp-dir", "", "Directory of numbered BMP files; the first --train-count are used for training, the next --test-count for testing")
	f.IntVar(&c.trainCount, "train-count", 10000, "Number of training samples to load (0 loads all from --data-file)")
	f.IntVar(&c.testCount, "test-count", 10000, "Number of test samples to load (0 loads all from --data-file)")

	f.IntVar(&c.epochs, "epochs", 10, "Number of passes over the training set")
	f.IntVar(&c.batchSize, "batch-size", 100, "Minibatch size; must divide the number of training samples")
	f.Float64Var(&c.learningRate, "learning-rate", 1.0, "Gradient descent step size")
	f.IntVar(&c.hidden, "hidden", 64, "Number of hidden units")
	f.Int64Var(&c.seed, "seed", 12345, "Seed for weight initialization")

	f.StringVar(&c.predict, "predict", "", "Comma-separated image files to classify after training")

	f.StringVar(&c.cpuProfileFile, "cpu-profile", "", "Write a CPU profile")
}

func (c *TrainCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *TrainCommand) executeErr(ctx context.Context) error {
	if c.cpuProfileFile != "" {
		f, err := os.Create(c.cpuProfileFile)
		if err != nil {
			return fmt.Errorf("while creating CPU profile file: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("while starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	train, test, err := c.loadData()
	if err != nil {
		return fmt.Errorf("while loading data set: %w", err)
	}
	log.Printf("Data loaded: %d training samples, %d test samples", len(train), len(test))

	cfg := toolbox.MNISTConfig
	cfg.HiddenSize = c.hidden
	net, err := toolbox.MakeNetwork(cfg, rand.New(rand.NewSource(c.seed)))
	if err != nil {
		return fmt.Errorf("while creating network: %w", err)
	}

	err = net.SGD(train, toolbox.SGDConfig{
		Epochs:       c.epochs,
		BatchSize:    c.batchSize,
		LearningRate: c.learningRate,
		OnEpoch: func(epoch int, timings toolbox.SGDTimings) {
			c.logEpoch(net, train, epoch, timings)
		},
	})
	if err != nil {
		return fmt.Errorf("while training: %w", err)
	}

	testPercent, err := net.Evaluate(test)
	if err != nil {
		return fmt.Errorf("while evaluating test set: %w", err)
	}
	log.Printf("testing-cost=%f testing-pct=%.2f", net.TotalCost(test)/float64(len(test)), testPercent)

	return c.predictImages(net)
}

func (c *TrainCommand) loadData() (train, test []toolbox.Sample, err error) {
	switch {
	case c.dataFile != "" && c.bmpDir != "":
		return nil, nil, fmt.Errorf("--data-file and --bmp-dir are mutually exclusive")
	case c.dataFile != "":
		return dataset.LoadNPZ(c.dataFile, dataset.Limits{Train: c.trainCount, Test: c.testCount})
	case c.bmpDir != "":
		train, err = dataset.LoadBMPDir(c.bmpDir, 0, c.trainCount)
		if err != nil {
			return nil, nil, fmt.Errorf("while loading training images: %w", err)
		}
		test, err = dataset.LoadBMPDir(c.bmpDir, c.trainCount, c.testCount)
		if err != nil {
			return nil, nil, fmt.Errorf("while loading test images: %w", err)
		}
		return train, test, nil
	default:
		return nil, nil, fmt.Errorf("one of --data-file or --bmp-dir is required")
	}
}

func (c *TrainCommand) logEpoch(net *toolbox.Network, train []toolbox.Sample, epoch int, timings toolbox.SGDTimings) {
	// Labels were validated before training started.
	trainPercent, _ := net.Evaluate(train)

	log.Printf("epoch %d training-cost=%f training-pct=%.2f",
		epoch,
		net.TotalCost(train)/float64(len(train)),
		trainPercent,
	)
	log.Printf("epoch %d timings overall=%.1f backprop=%.1f weightupdate=%.1f",
		epoch,
		timings.Overall.Seconds(),
		timings.Backpropagation.Seconds(),
		timings.WeightUpdate.Seconds(),
	)

	norms := net.Norms()
	names := make([]string, 0, len(norms))
	for k := range norms {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s=%.3f", k, norms[k]))
	}
	log.Printf("epoch %d norms %s", epoch, strings.Join(parts, " "))
}

func (c *TrainCommand) predictImages(net *toolbox.Network) error {
	if c.predict == "" {
		return nil
	}
	for _, path := range strings.Split(c.predict, ",") {
		x, err := dataset.LoadImageFile(path)
		if err != nil {
			return fmt.Errorf("while loading image %s: %w", path, err)
		}
		log.Printf("Prediction for %s: %d", path, net.Predict(x))
	}
	return nil
}
