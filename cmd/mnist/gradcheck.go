package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/ahmedtd/mlp/toolbox"
	"github.com/google/subcommands"
	"gonum.org/v1/gonum/mat"
)

type GradCheckCommand struct {
	inputSize  int
	hiddenSize int
	outputSize int
	samples    int
	step       float64
	tolerance  float64
	seed       int64
}

var _ subcommands.Command = (*GradCheckCommand)(nil)

func (*GradCheckCommand) Name() string {
	return "gradcheck"
}

func (*GradCheckCommand) Synopsis() string {
	return "Compare backpropagation against finite differences on a random network"
}

func (*GradCheckCommand) Usage() string {
	return ``
}

func (c *GradCheckCommand) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.inputSize, "input", 16, "Input size of the random network")
	f.IntVar(&c.hiddenSize, "hidden", 8, "Hidden size of the random network")
	f.IntVar(&c.outputSize, "output", 10, "Output size of the random network")
	f.IntVar(&c.samples, "samples", 10, "Number of random samples to check")
	f.Float64Var(&c.step, "step", 1e-4, "Finite difference step")
	f.Float64Var(&c.tolerance, "tolerance", 1e-4, "Largest acceptable relative error")
	f.Int64Var(&c.seed, "seed", 12345, "Random seed")
}

func (c *GradCheckCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *GradCheckCommand) executeErr(ctx context.Context) error {
	r := rand.New(rand.NewSource(c.seed))

	net, err := toolbox.MakeNetwork(toolbox.Config{
		InputSize:  c.inputSize,
		HiddenSize: c.hiddenSize,
		OutputSize: c.outputSize,
	}, r)
	if err != nil {
		return fmt.Errorf("while creating network: %w", err)
	}

	worst := 0.0
	for k := 0; k < c.samples; k++ {
		image := mat.NewVecDense(c.inputSize, nil)
		for j := 0; j < c.inputSize; j++ {
			image.SetVec(j, r.Float64())
		}
		s := toolbox.Sample{Image: image, Label: toolbox.OneHot(r.Intn(c.outputSize), c.outputSize)}

		report, err := net.GradientCheck(s, c.step)
		if err != nil {
			return fmt.Errorf("while checking sample %d: %w", k, err)
		}
		log.Printf("sample %d relative-error W1=%.3g W2=%.3g b1=%.3g b2=%.3g", k, report.W1, report.W2, report.B1, report.B2)

		if report.Max() > worst {
			worst = report.Max()
		}
	}

	if worst > c.tolerance {
		return fmt.Errorf("largest relative error %.3g exceeds tolerance %.3g", worst, c.tolerance)
	}
	log.Printf("Gradients agree; largest relative error %.3g", worst)
	return nil
}
