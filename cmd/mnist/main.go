// Command mnist trains a 784-64-10 leaky-linear perceptron on MNIST and
// reports test accuracy.
//
// To train from the Keras archive: `go run ./cmd/mnist train --data-file=mnist.npz`
//
// To train from a BMP directory: `go run ./cmd/mnist train --bmp-dir=res`
//
// To convert an archive into a BMP directory: `go run ./cmd/mnist export-bmp --data-file=mnist.npz --out-dir=res`
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&TrainCommand{}, "")
	subcommands.Register(&GradCheckCommand{}, "")
	subcommands.Register(&ExportBMPCommand{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
