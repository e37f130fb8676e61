package preprocessing

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	scaler := NewStandardScalerDefault()
	got, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// 列0: 平均2.5, 母標準偏差 sqrt(1.25)
	std := math.Sqrt(1.25)
	for i := 0; i < 4; i++ {
		want := (float64(i+1) - 2.5) / std
		if math.Abs(got.At(i, 0)-want) > 1e-10 {
			t.Errorf("row %d col 0: got %v, want %v", i, got.At(i, 0), want)
		}
		// 定数列は0になる（スケール1）
		if got.At(i, 1) != 0 {
			t.Errorf("row %d col 1: constant column should become 0, got %v", i, got.At(i, 1))
		}
	}
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	scaler := NewStandardScalerDefault()
	if err := scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatal(err)
	}
	_, err := scaler.Transform(mat.NewDense(1, 3, nil))
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %v", err)
	}
}

func TestScalerNotFitted(t *testing.T) {
	_, err := NewMinMaxScalerDefault().Transform(mat.NewDense(1, 1, nil))
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFittedError, got %v", err)
	}
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{-1, 0, 3})

	scaler := NewMinMaxScaler([2]float64{0, 2})
	got, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	want := []float64{0, 0.5, 2}
	for i, w := range want {
		if math.Abs(got.At(i, 0)-w) > 1e-10 {
			t.Errorf("row %d: got %v, want %v", i, got.At(i, 0), w)
		}
	}
}

func TestSimpleImputer(t *testing.T) {
	nan := math.NaN()
	X := mat.NewDense(3, 2, []float64{
		1, nan,
		nan, nan,
		3, nan,
	})

	imp := NewSimpleImputer()
	got, err := imp.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	if got.At(1, 0) != 2 {
		t.Errorf("missing value should be replaced by the column mean, got %v", got.At(1, 0))
	}
	for i := 0; i < 3; i++ {
		if got.At(i, 1) != 0 {
			t.Errorf("all-missing column should be filled with 0, got %v", got.At(i, 1))
		}
	}
}
