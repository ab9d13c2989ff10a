package toolbox

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Argmax returns the index of the largest entry of v.  The earliest index
// wins ties.
func Argmax(v mat.Vector) int {
	best := 0
	for i := 1; i < v.Len(); i++ {
		if v.AtVec(i) > v.AtVec(best) {
			best = i
		}
	}
	return best
}

// TrueClass returns the position of the 1 in a one-hot label.  Any other
// entry that is not exactly 0 is rejected.
func TrueClass(label mat.Vector) (int, error) {
	class := -1
	for i := 0; i < label.Len(); i++ {
		switch label.AtVec(i) {
		case 0:
		case 1:
			if class != -1 {
				return 0, fmt.Errorf("%w: entries %d and %d are both 1", ErrMalformedLabel, class, i)
			}
			class = i
		default:
			return 0, fmt.Errorf("%w: entry %d is %v", ErrMalformedLabel, i, label.AtVec(i))
		}
	}
	if class == -1 {
		return 0, fmt.Errorf("%w: no entry is 1", ErrMalformedLabel)
	}
	return class, nil
}

// Evaluate returns the percentage of samples whose predicted class matches
// the label.
func (net *Network) Evaluate(samples []Sample) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptyDataset
	}

	numCorrect := 0
	for k, s := range samples {
		if err := s.Validate(net.Hidden.InputSize, net.Output.OutputSize); err != nil {
			return 0, fmt.Errorf("while validating sample %d: %w", k, err)
		}

		digit, err := TrueClass(s.Label)
		if err != nil {
			return 0, fmt.Errorf("while reading label of sample %d: %w", k, err)
		}

		if net.Predict(s.Image) == digit {
			numCorrect++
		}
	}

	return 100 * float64(numCorrect) / float64(len(samples)), nil
}
