package toolbox

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyDataset      = errors.New("empty data set")
	ErrBatchSizeMismatch = errors.New("data set size is not a multiple of the batch size")
	ErrMalformedLabel    = errors.New("label is not one-hot")
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// Sample is one training or test example.
type Sample struct {
	Image *mat.VecDense // Shape (InputSize)
	Label *mat.VecDense // Shape (OutputSize), one-hot
}

// OneHot returns a length-n vector with a 1 at class and 0 elsewhere.
func OneHot(class, n int) *mat.VecDense {
	if class < 0 || class >= n {
		panic(fmt.Sprintf("class %d out of range [0, %d)", class, n))
	}
	v := mat.NewVecDense(n, nil)
	v.SetVec(class, 1)
	return v
}

// Validate checks the sample against the network input and output sizes.
func (s Sample) Validate(inputSize, outputSize int) error {
	if s.Image == nil || s.Image.Len() != inputSize {
		return fmt.Errorf("%w: image length must be %d", ErrShapeMismatch, inputSize)
	}
	if s.Label == nil || s.Label.Len() != outputSize {
		return fmt.Errorf("%w: label length must be %d", ErrShapeMismatch, outputSize)
	}
	if _, err := TrueClass(s.Label); err != nil {
		return err
	}
	return nil
}

// Config holds the fixed layer sizes of a network.
type Config struct {
	InputSize  int
	HiddenSize int
	OutputSize int
}

// MNISTConfig is the 784-64-10 sizing used for 28x28 digits.
var MNISTConfig = Config{InputSize: 28 * 28, HiddenSize: 64, OutputSize: 10}

func (c Config) Validate() error {
	if c.InputSize <= 0 || c.HiddenSize <= 0 || c.OutputSize <= 0 {
		return fmt.Errorf("%w: layer sizes must be positive, got %d-%d-%d", ErrInvalidConfig, c.InputSize, c.HiddenSize, c.OutputSize)
	}
	return nil
}

// Activate is the leaky linear unit: 0.25*x for x > 0, 0.01*x otherwise.
func Activate(x float64) float64 {
	if x > 0 {
		return 0.25 * x
	}
	return 0.01 * x
}

// ActivateGradient is the derivative of Activate.  x == 0 takes the
// non-positive slope.
func ActivateGradient(x float64) float64 {
	if x > 0 {
		return 0.25
	}
	return 0.01
}

// z (input) is the pre-activation output of a layer.
// a (output) receives Activate(z) elementwise.
func activate(z, a *mat.VecDense) {
	if z.Len() != a.Len() {
		panic("z.Len() != a.Len()")
	}
	for i := 0; i < z.Len(); i++ {
		a.SetVec(i, Activate(z.AtVec(i)))
	}
}

// z (input) is the pre-activation output of a layer.
// dadz (output) receives ActivateGradient(z) elementwise.
func activateGradient(z, dadz *mat.VecDense) {
	if z.Len() != dadz.Len() {
		panic("z.Len() != dadz.Len()")
	}
	for i := 0; i < z.Len(); i++ {
		dadz.SetVec(i, ActivateGradient(z.AtVec(i)))
	}
}

type Layer struct {
	W *mat.Dense    // Shape (OutputSize, InputSize)
	B *mat.VecDense // Shape (OutputSize)

	InputSize  int
	OutputSize int
}

// MakeDense creates a layer with weights drawn uniformly from [-1, 1) and
// zero biases.
func MakeDense(inputSize, outputSize int, r *rand.Rand) *Layer {
	l := &Layer{
		InputSize:  inputSize,
		OutputSize: outputSize,
		W:          mat.NewDense(outputSize, inputSize, nil),
		B:          mat.NewVecDense(outputSize, nil),
	}

	for i := 0; i < outputSize; i++ {
		for j := 0; j < inputSize; j++ {
			l.W.Set(i, j, r.Float64()*2-1)
		}
	}

	return l
}

// LayerOutput is the result of applying a layer to one input.
type LayerOutput struct {
	PreActivation *mat.VecDense // x = W·a + b
	Activation    *mat.VecDense // f(x)
}

// Forward applies the layer to a single input vector.
//
// aIn (input) is the previous layer's activation.  Shape (lay.InputSize)
func (lay *Layer) Forward(aIn mat.Vector) LayerOutput {
	if aIn.Len() != lay.InputSize {
		panic(fmt.Sprintf("dimension mismatch: input has length %d, layer wants %d", aIn.Len(), lay.InputSize))
	}
	if r, c := lay.W.Dims(); r != lay.OutputSize || c != lay.InputSize {
		panic("dimension mismatch: lay.W")
	}
	if lay.B.Len() != lay.OutputSize {
		panic("dimension mismatch: lay.B")
	}

	x := mat.NewVecDense(lay.OutputSize, nil)
	x.MulVec(lay.W, aIn)
	x.AddVec(x, lay.B)

	a := mat.NewVecDense(lay.OutputSize, nil)
	activate(x, a)

	return LayerOutput{PreActivation: x, Activation: a}
}

// Network is a fixed two-layer perceptron.  Hidden holds W1 and b1, Output
// holds W2 and b2.
type Network struct {
	Hidden *Layer
	Output *Layer
}

func MakeNetwork(cfg Config, r *rand.Rand) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Network{
		Hidden: MakeDense(cfg.InputSize, cfg.HiddenSize, r),
		Output: MakeDense(cfg.HiddenSize, cfg.OutputSize, r),
	}, nil
}

func (net *Network) Config() Config {
	return Config{
		InputSize:  net.Hidden.InputSize,
		HiddenSize: net.Hidden.OutputSize,
		OutputSize: net.Output.OutputSize,
	}
}

// Apply runs both layers on image.  output.Activation is the raw network
// output; no softmax is applied.
func (net *Network) Apply(image mat.Vector) (hidden, output LayerOutput) {
	hidden = net.Hidden.Forward(image)
	output = net.Output.Forward(hidden.Activation)
	return hidden, output
}

// Predict returns the index of the largest output.
func (net *Network) Predict(image mat.Vector) int {
	_, output := net.Apply(image)
	return Argmax(output.Activation)
}

// Cost is one half of the squared error between the network output and the
// label.
func (net *Network) Cost(s Sample) float64 {
	_, output := net.Apply(s.Image)
	var diff mat.VecDense
	diff.SubVec(output.Activation, s.Label)
	return mat.Dot(&diff, &diff) / 2
}

// TotalCost sums Cost over samples.
func (net *Network) TotalCost(samples []Sample) float64 {
	var total float64
	for _, s := range samples {
		total += net.Cost(s)
	}
	return total
}

// Gradients holds one tensor per network parameter.
type Gradients struct {
	W1 *mat.Dense    // Shape (HiddenSize, InputSize)
	W2 *mat.Dense    // Shape (OutputSize, HiddenSize)
	B1 *mat.VecDense // Shape (HiddenSize)
	B2 *mat.VecDense // Shape (OutputSize)
}

// MakeGradients allocates zeroed gradients shaped like the network's
// parameters.
func (net *Network) MakeGradients() Gradients {
	return Gradients{
		W1: mat.NewDense(net.Hidden.OutputSize, net.Hidden.InputSize, nil),
		W2: mat.NewDense(net.Output.OutputSize, net.Output.InputSize, nil),
		B1: mat.NewVecDense(net.Hidden.OutputSize, nil),
		B2: mat.NewVecDense(net.Output.OutputSize, nil),
	}
}

func (g Gradients) Zero() {
	g.W1.Zero()
	g.W2.Zero()
	g.B1.Zero()
	g.B2.Zero()
}

// AddDivided adds other/n to every tensor of g.
func (g Gradients) AddDivided(other Gradients, n int) {
	scale := 1 / float64(n)
	floats.AddScaled(denseData(g.W1), scale, denseData(other.W1))
	floats.AddScaled(denseData(g.W2), scale, denseData(other.W2))
	floats.AddScaled(vecData(g.B1), scale, vecData(other.B1))
	floats.AddScaled(vecData(g.B2), scale, vecData(other.B2))
}

// Backprop computes the gradient of Cost(s) with respect to every parameter.
// The network is not modified.
func (net *Network) Backprop(s Sample) Gradients {
	hidden, output := net.Apply(s.Image)

	// delta2 = (a2 - y) * f'(x2)
	dadz2 := mat.NewVecDense(net.Output.OutputSize, nil)
	activateGradient(output.PreActivation, dadz2)
	delta2 := mat.NewVecDense(net.Output.OutputSize, nil)
	delta2.SubVec(output.Activation, s.Label)
	delta2.MulElemVec(delta2, dadz2)

	// delta1 = (W2^T delta2) * f'(x1)
	dadz1 := mat.NewVecDense(net.Hidden.OutputSize, nil)
	activateGradient(hidden.PreActivation, dadz1)
	delta1 := mat.NewVecDense(net.Hidden.OutputSize, nil)
	delta1.MulVec(net.Output.W.T(), delta2)
	delta1.MulElemVec(delta1, dadz1)

	g := Gradients{
		W1: mat.NewDense(net.Hidden.OutputSize, net.Hidden.InputSize, nil),
		W2: mat.NewDense(net.Output.OutputSize, net.Output.InputSize, nil),
		B1: delta1,
		B2: delta2,
	}
	g.W2.Outer(1, delta2, hidden.Activation)
	g.W1.Outer(1, delta1, s.Image)

	return g
}

// DumpTensors exposes the parameters by name for inspection.  The matrices
// are the network's own storage, not copies.
func (net *Network) DumpTensors(tensors map[string]mat.Matrix) {
	tensors["net.0.weights"] = net.Hidden.W
	tensors["net.0.biases"] = net.Hidden.B
	tensors["net.1.weights"] = net.Output.W
	tensors["net.1.biases"] = net.Output.B
}

// Norms returns the Frobenius norm of every parameter, keyed like
// DumpTensors.
func (net *Network) Norms() map[string]float64 {
	tensors := map[string]mat.Matrix{}
	net.DumpTensors(tensors)

	norms := map[string]float64{}
	for k, t := range tensors {
		norms[k] = mat.Norm(t, 2)
	}
	return norms
}

// denseData returns the backing storage of m.  All matrices in this package
// are allocated with mat.NewDense, so rows are contiguous.
func denseData(m *mat.Dense) []float64 {
	raw := m.RawMatrix()
	if raw.Stride != raw.Cols {
		panic("non-contiguous matrix")
	}
	return raw.Data[:raw.Rows*raw.Cols]
}

func vecData(v *mat.VecDense) []float64 {
	raw := v.RawVector()
	if raw.Inc != 1 {
		panic("non-contiguous vector")
	}
	return raw.Data[:v.Len()]
}
