package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// logLossEps clips probabilities away from 0 and 1 before taking logs.
const logLossEps = 1e-15

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// F1Score computes the F1 score. With two classes it is the F1 of the larger
// class code; with more it is the unweighted mean over classes (macro). When
// classes is nil it is taken from the labels present in yTrue and yPred.
func F1Score(yTrue, yPred *mat.VecDense, classes []int) (float64, error) {
	n, err := checkPair("F1Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if classes == nil {
		classes = uniqueLabels(yTrue, yPred)
	}
	if len(classes) == 0 {
		return 0, errors.NewValueError("F1Score", "no classes")
	}

	f1 := func(c float64) float64 {
		var tp, fp, fn float64
		for i := 0; i < n; i++ {
			t, p := yTrue.AtVec(i) == c, yPred.AtVec(i) == c
			switch {
			case t && p:
				tp++
			case p:
				fp++
			case t:
				fn++
			}
		}
		if 2*tp+fp+fn == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("F1Score", "no true nor predicted samples", 0))
			return 0
		}
		return 2 * tp / (2*tp + fp + fn)
	}

	if len(classes) <= 2 {
		return f1(float64(classes[len(classes)-1])), nil
	}
	sum := 0.0
	for _, c := range classes {
		sum += f1(float64(c))
	}
	return sum / float64(len(classes)), nil
}

func uniqueLabels(vs ...*mat.VecDense) []int {
	seen := make(map[int]bool)
	for _, v := range vs {
		for i := 0; i < v.Len(); i++ {
			seen[int(math.Round(v.AtVec(i)))] = true
		}
	}
	out := make([]int, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// BinaryLogLoss は 0/1 ラベルと陽性クラスの確率からロジスティック損失を計算する
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		if t != 0 && t != 1 {
			return 0, errors.NewValueError("BinaryLogLoss", "labels must be 0 or 1")
		}
		p := errors.ClipValue(yPred.AtVec(i), logLossEps, 1-logLossEps)
		sum -= t*math.Log(p) + (1-t)*math.Log(1-p)
	}
	return sum / float64(n), nil
}

// LogLoss computes the cross-entropy of class codes yTrue against proba,
// whose columns follow classes. Rows are renormalized before clipping.
func LogLoss(yTrue *mat.VecDense, proba mat.Matrix, classes []int) (float64, error) {
	if yTrue == nil || yTrue.Len() == 0 || proba == nil {
		return 0, errors.NewValueError("LogLoss", "empty input")
	}
	rows, cols := proba.Dims()
	if rows != yTrue.Len() {
		return 0, errors.NewDimensionError("LogLoss", yTrue.Len(), rows, 0)
	}
	if cols != len(classes) {
		return 0, errors.NewDimensionError("LogLoss", len(classes), cols, 1)
	}
	index := classIndex(classes)

	var sum float64
	for i := 0; i < rows; i++ {
		k, ok := index[int(math.Round(yTrue.AtVec(i)))]
		if !ok {
			return 0, errors.NewValueError("LogLoss", "yTrue contains a label not in classes")
		}
		total := 0.0
		for j := 0; j < cols; j++ {
			total += proba.At(i, j)
		}
		p := errors.SafeDivide(proba.At(i, k), total)
		sum -= math.Log(errors.ClipValue(p, logLossEps, 1-logLossEps))
	}
	return sum / float64(rows), nil
}

func classIndex(classes []int) map[int]int {
	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return index
}

// AUC は 0/1 ラベルとスコアから ROC 曲線下面積を計算する
// 同順位は平均順位で扱う。片方のクラスしか存在しない場合は 0.5 を返す
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		if t := yTrue.AtVec(i); t != 0 && t != 1 {
			return 0, errors.NewValueError("AUC", "labels must be 0 or 1")
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return yScore.AtVec(order[a]) < yScore.AtVec(order[b]) })

	// Mann-Whitney U: sum of positive ranks with ties averaged
	var rankSum, nPos float64
	for i := 0; i < n; {
		j := i
		for j+1 < n && yScore.AtVec(order[j+1]) == yScore.AtVec(order[i]) {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if yTrue.AtVec(order[k]) == 1 {
				rankSum += avg
				nPos++
			}
		}
		i = j + 1
	}
	nNeg := float64(n) - nPos
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in yTrue", 0.5))
		return 0.5, nil
	}
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg), nil
}

// ROCAUC computes ROC AUC from class codes and a probability matrix whose
// columns follow classes. Multiclass uses the one-vs-rest macro average.
func ROCAUC(yTrue *mat.VecDense, proba mat.Matrix, classes []int) (float64, error) {
	if yTrue == nil || yTrue.Len() == 0 || proba == nil {
		return 0, errors.NewValueError("ROCAUC", "empty input")
	}
	rows, cols := proba.Dims()
	if rows != yTrue.Len() {
		return 0, errors.NewDimensionError("ROCAUC", yTrue.Len(), rows, 0)
	}
	if cols != len(classes) || cols < 2 {
		return 0, errors.NewDimensionError("ROCAUC", len(classes), cols, 1)
	}

	oneVsRest := func(k int) (float64, error) {
		bin := mat.NewVecDense(rows, nil)
		for i := 0; i < rows; i++ {
			if int(math.Round(yTrue.AtVec(i))) == classes[k] {
				bin.SetVec(i, 1)
			}
		}
		return AUC(bin, mat.NewVecDense(rows, mat.Col(nil, k, proba)))
	}

	if cols == 2 {
		return oneVsRest(1)
	}
	sum := 0.0
	for k := range classes {
		auc, err := oneVsRest(k)
		if err != nil {
			return 0, err
		}
		sum += auc
	}
	return sum / float64(cols), nil
}
