package linear

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func TestLinearRegression_Basic(t *testing.T) {
	// y = 2x + 1
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	if math.Abs(lr.GetWeights()[0]-2) > 1e-9 {
		t.Errorf("Expected coefficient 2.0, got %f", lr.GetWeights()[0])
	}
	if math.Abs(lr.Intercept-1) > 1e-9 {
		t.Errorf("Expected intercept 1.0, got %f", lr.Intercept)
	}

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{5, 6}))
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	expected := []float64{11, 13}
	for i := 0; i < 2; i++ {
		if math.Abs(pred.At(i, 0)-expected[i]) > 1e-9 {
			t.Errorf("Expected prediction %f, got %f", expected[i], pred.At(i, 0))
		}
	}
}

func TestLinearRegression_NoIntercept(t *testing.T) {
	// y = 2x
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewLinearRegression(WithFitIntercept(false))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	if math.Abs(lr.GetWeights()[0]-2) > 1e-9 {
		t.Errorf("Expected coefficient 2.0, got %f", lr.GetWeights()[0])
	}
	if lr.Intercept != 0 {
		t.Errorf("Expected zero intercept, got %f", lr.Intercept)
	}
}

func TestLinearRegression_RidgeHandlesCollinearFeatures(t *testing.T) {
	// 2列目は1列目の複製
	X := mat.NewDense(4, 2, []float64{
		1, 1,
		2, 2,
		3, 3,
		4, 4,
	})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	ols := NewLinearRegression()
	err := ols.Fit(X, y)
	if !errors.Is(err, errors.ErrSingularMatrix) {
		t.Fatalf("expected singular matrix error, got %v", err)
	}

	ridge := NewLinearRegression(WithAlpha(0.1))
	if err := ridge.Fit(X, y); err != nil {
		t.Fatalf("ridge should fit collinear features: %v", err)
	}
	w := ridge.GetWeights()
	if math.Abs(w[0]-w[1]) > 1e-9 {
		t.Errorf("collinear features should share weight equally, got %v", w)
	}
}

func TestLinearRegression_Errors(t *testing.T) {
	lr := NewLinearRegression()

	if _, err := lr.Predict(mat.NewDense(1, 1, nil)); err == nil {
		t.Error("Predict before Fit should fail")
	}

	err := lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, []float64{1, 2}))
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}
