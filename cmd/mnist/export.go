package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/ahmedtd/mlp/dataset"
	"github.com/google/subcommands"
)

// ExportBMPCommand writes an npz archive out as a directory of labeled BMP
// files, training samples first.
type ExportBMPCommand struct {
	dataFile   string
	outDir     string
	trainCount int
	testCount  int
}

var _ subcommands.Command = (*ExportBMPCommand)(nil)

func (*ExportBMPCommand) Name() string {
	return "export-bmp"
}

func (*ExportBMPCommand) Synopsis() string {
	return "Convert mnist.npz into a directory of BMP files"
}

func (*ExportBMPCommand) Usage() string {
	return ``
}

func (c *ExportBMPCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dataFile, "data-file", "mnist.npz", "Path to the mnist.npz input file")
	f.StringVar(&c.outDir, "out-dir", "res", "Directory to write BMP files into")
	f.IntVar(&c.trainCount, "train-count", 10000, "Number of training samples to export (0 exports all)")
	f.IntVar(&c.testCount, "test-count", 10000, "Number of test samples to export (0 exports all)")
}

func (c *ExportBMPCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *ExportBMPCommand) executeErr(ctx context.Context) error {
	train, test, err := dataset.LoadNPZ(c.dataFile, dataset.Limits{Train: c.trainCount, Test: c.testCount})
	if err != nil {
		return fmt.Errorf("while loading data set: %w", err)
	}

	if err := dataset.WriteBMPDir(c.outDir, 0, train); err != nil {
		return fmt.Errorf("while writing training images: %w", err)
	}
	if err := dataset.WriteBMPDir(c.outDir, len(train), test); err != nil {
		return fmt.Errorf("while writing test images: %w", err)
	}

	log.Printf("Wrote %d training and %d test images to %s", len(train), len(test), c.outDir)
	return nil
}
