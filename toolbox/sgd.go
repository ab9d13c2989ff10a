package toolbox

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
)

type SGDConfig struct {
	Epochs       int
	BatchSize    int
	LearningRate float64

	// OnEpoch, if set, is called after every epoch with the timings
	// accumulated during that epoch.
	OnEpoch func(epoch int, timings SGDTimings)
}

type SGDTimings struct {
	Overall         time.Duration
	Backpropagation time.Duration
	WeightUpdate    time.Duration
}

func (t *SGDTimings) Reset() {
	t.Overall = 0 * time.Second
	t.Backpropagation = 0 * time.Second
	t.WeightUpdate = 0 * time.Second
}

// Validate checks the configuration against a training set of n samples.
// The batch size must divide n exactly; a trailing partial batch is an
// error.
func (c SGDConfig) Validate(n int) error {
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: epochs must be > 0, got %d", ErrInvalidConfig, c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be > 0, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if n == 0 {
		return ErrEmptyDataset
	}
	if n%c.BatchSize != 0 {
		return fmt.Errorf("%w: %d samples, batch size %d", ErrBatchSizeMismatch, n, c.BatchSize)
	}
	return nil
}

// SGD trains the network with mini-batch stochastic gradient descent.
// Batches are consecutive slices of samples, in order, for exactly
// cfg.Epochs epochs.
func (net *Network) SGD(samples []Sample, cfg SGDConfig) error {
	if err := cfg.Validate(len(samples)); err != nil {
		return err
	}
	for k, s := range samples {
		if err := s.Validate(net.Hidden.InputSize, net.Output.OutputSize); err != nil {
			return fmt.Errorf("while validating training sample %d: %w", k, err)
		}
	}

	acc := net.MakeGradients()
	var timings SGDTimings

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for start := 0; start < len(samples); start += cfg.BatchSize {
			net.sgdStep(samples[start:start+cfg.BatchSize], cfg.LearningRate, acc, &timings)
		}

		if cfg.OnEpoch != nil {
			cfg.OnEpoch(epoch, timings)
		}
		timings.Reset()
	}

	return nil
}

// SGDStep applies a single gradient descent update averaged over batch.
func (net *Network) SGDStep(batch []Sample, learningRate float64) error {
	if len(batch) == 0 {
		return ErrEmptyDataset
	}
	for k, s := range batch {
		if err := s.Validate(net.Hidden.InputSize, net.Output.OutputSize); err != nil {
			return fmt.Errorf("while validating batch sample %d: %w", k, err)
		}
	}
	var timings SGDTimings
	net.sgdStep(batch, learningRate, net.MakeGradients(), &timings)
	return nil
}

// acc (scratch) is overwritten with the averaged batch gradient.
func (net *Network) sgdStep(batch []Sample, learningRate float64, acc Gradients, timings *SGDTimings) {
	start := time.Now()

	backpropStart := time.Now()

	acc.Zero()
	for _, s := range batch {
		acc.AddDivided(net.Backprop(s), len(batch))
	}

	timings.Backpropagation += time.Since(backpropStart)

	weightUpdateStart := time.Now()

	floats.AddScaled(denseData(net.Hidden.W), -learningRate, denseData(acc.W1))
	floats.AddScaled(denseData(net.Output.W), -learningRate, denseData(acc.W2))
	floats.AddScaled(vecData(net.Hidden.B), -learningRate, vecData(acc.B1))
	floats.AddScaled(vecData(net.Output.B), -learningRate, vecData(acc.B2))

	timings.WeightUpdate += time.Since(weightUpdateStart)

	timings.Overall += time.Since(start)
}
