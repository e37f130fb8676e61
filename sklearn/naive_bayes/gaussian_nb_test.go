package naive_bayes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

func twoBlobs() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		-1, -1,
		-2, -1,
		-3, -2,
		1, 1,
		2, 1,
		3, 2,
	})
	y := mat.NewDense(6, 1, []float64{1, 1, 1, 2, 2, 2})
	return X, y
}

func TestGaussianNB_Fit(t *testing.T) {
	X, y := twoBlobs()
	nb := NewGaussianNB()
	require.NoError(t, nb.Fit(X, y))

	assert.True(t, nb.state.IsFitted())
	assert.Equal(t, []int{1, 2}, nb.Classes())
	assert.InDelta(t, 0.5, nb.classPrior[0], 1e-12)
	assert.InDelta(t, -2.0, nb.theta[0][0], 1e-12)
	assert.InDelta(t, 2.0, nb.theta[1][0], 1e-12)
	// population variance of {1,2,3} is 2/3
	assert.InDelta(t, 2.0/3.0, nb.variance[1][0], 1e-6)
}

func TestGaussianNB_Predict(t *testing.T) {
	X, y := twoBlobs()
	nb := NewGaussianNB()
	require.NoError(t, nb.Fit(X, y))

	pred, err := nb.Predict(mat.NewDense(2, 2, []float64{-0.8, -1, 2.5, 1.5}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, pred.At(0, 0))
	assert.Equal(t, 2.0, pred.At(1, 0))
	assert.Equal(t, 1.0, nb.Score(X, y))
}

func TestGaussianNB_PredictProba(t *testing.T) {
	X, y := twoBlobs()
	nb := NewGaussianNB()
	require.NoError(t, nb.Fit(X, y))

	proba, err := nb.PredictProba(X)
	require.NoError(t, err)
	logProba, err := nb.PredictLogProba(X)
	require.NoError(t, err)

	rows, cols := proba.Dims()
	require.Equal(t, 2, cols)
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-9)
		assert.InDelta(t, math.Log(proba.At(i, 1)), logProba.At(i, 1), 1e-9)
	}
	assert.Greater(t, proba.At(0, 0), 0.99)
	assert.Greater(t, proba.At(5, 1), 0.99)
}

func TestGaussianNB_ConstantFeature(t *testing.T) {
	// Constant column has zero variance; smoothing keeps it finite.
	X := mat.NewDense(4, 2, []float64{
		0, 7,
		1, 7,
		5, 7,
		6, 7,
	})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	nb := NewGaussianNB()
	require.NoError(t, nb.Fit(X, y))

	proba, err := nb.PredictProba(X)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.False(t, math.IsNaN(proba.At(i, 0)))
	}
	assert.Equal(t, 1.0, nb.Score(X, y))
}

func TestGaussianNB_Validation(t *testing.T) {
	X, y := twoBlobs()

	err := NewGaussianNB(WithVarSmoothing(-1)).Fit(X, y)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	err = NewGaussianNB().Fit(X, mat.NewDense(2, 1, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestGaussianNB_NotFitted(t *testing.T) {
	nb := NewGaussianNB()
	_, err := nb.Predict(mat.NewDense(1, 2, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestGaussianNB_GetParams(t *testing.T) {
	nb := NewGaussianNB(WithVarSmoothing(1e-6))
	assert.Equal(t, 1e-6, nb.GetParams()["var_smoothing"])
	assert.Equal(t, "GaussianNB(var_smoothing=1e-06)", nb.String())
}
