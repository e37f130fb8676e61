package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "gamabench: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "gamabench: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LinearRegression", "Predict")

	want := "gamabench: LinearRegression: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewUnsupportedMetricError(t *testing.T) {
	err := NewUnsupportedMetricError("bleu", []string{"r2", "acc"})

	want := "Performance metric bleu not supported."
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var metricErr *UnsupportedMetricError
	if !As(err, &metricErr) {
		t.Fatal("Error should be castable to *UnsupportedMetricError")
	}
	if metricErr.Metric != "bleu" {
		t.Errorf("Metric = %q, want bleu", metricErr.Metric)
	}
	if strings.Join(metricErr.Supported, ",") != "acc,r2" {
		t.Errorf("Supported should be sorted, got %v", metricErr.Supported)
	}
}

func TestNewUnknownParameterError(t *testing.T) {
	err := NewUnknownParameterError("GamaClassifier", []string{"zeta", "alpha"})

	want := "gamabench: GamaClassifier got unexpected keyword argument(s): alpha, zeta"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestNewAPIUnavailableError(t *testing.T) {
	err := NewAPIUnavailableError("FitARFF", "21.0.1")

	var apiErr *APIUnavailableError
	if !As(err, &apiErr) {
		t.Fatal("Error should be castable to *APIUnavailableError")
	}
	if apiErr.Method != "FitARFF" || apiErr.Version != "21.0.1" {
		t.Errorf("unexpected fields: %+v", apiErr)
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrEvaluationTimeout, "in evaluate")

	if !Is(wrapped, ErrEvaluationTimeout) {
		t.Error("Expected Is(wrapped, ErrEvaluationTimeout) to be true")
	}

	if !strings.Contains(wrapped.Error(), "in evaluate") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestWarnUsesZerologFunc(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewConvergenceWarning("LogisticRegression", 100, ""))

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	if !strings.Contains(got[0].Error(), "failed to converge after 100 iterations") {
		t.Errorf("unexpected warning: %v", got[0])
	}
}

func TestCheckMatrix(t *testing.T) {
	ok := constMatrix{rows: 2, cols: 2, v: 1}
	if err := CheckMatrix("predict", ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := constMatrix{rows: 2, cols: 2, v: math.NaN()}
	err := CheckMatrix("predict", bad)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if numErr.Operation != "predict" {
		t.Errorf("Operation = %q", numErr.Operation)
	}
}

func TestLogSumExp(t *testing.T) {
	got := LogSumExp([]float64{math.Log(1), math.Log(3)})
	if math.Abs(got-math.Log(4)) > 1e-12 {
		t.Errorf("LogSumExp = %v, want %v", got, math.Log(4))
	}
	if !math.IsInf(LogSumExp(nil), -1) {
		t.Error("LogSumExp(nil) should be -Inf")
	}
}

type constMatrix struct {
	rows, cols int
	v          float64
}

func (m constMatrix) Dims() (int, int)    { return m.rows, m.cols }
func (m constMatrix) At(_, _ int) float64 { return m.v }
