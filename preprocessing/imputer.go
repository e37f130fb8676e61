package preprocessing

import (
	"math"

	"github.com/YuminosukeSato/gamabench/core/model"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SimpleImputer replaces missing values (NaN) with the per-feature mean of
// the training data. Features that are entirely missing are filled with 0.
type SimpleImputer struct {
	state *model.StateManager

	// Statistics は各特徴量の補完値
	Statistics []float64
}

// NewSimpleImputer returns a mean imputer.
func NewSimpleImputer() *SimpleImputer {
	return &SimpleImputer{state: model.NewStateManager()}
}

// Fit computes the fill value of every feature, ignoring NaN.
func (s *SimpleImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	s.Statistics = make([]float64, c)
	for j := 0; j < c; j++ {
		var sum float64
		var n int
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n > 0 {
			s.Statistics[j] = sum / float64(n)
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform replaces NaN entries with the fitted statistics.
func (s *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("SimpleImputer", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("SimpleImputer.Transform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		if math.IsNaN(v) {
			return s.Statistics[j]
		}
		return v
	}, X)
	return result, nil
}

// FitTransform fits and transforms X.
func (s *SimpleImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func (s *SimpleImputer) String() string {
	return "SimpleImputer(strategy='mean')"
}
