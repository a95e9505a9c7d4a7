package model

import (
	"cmp"
	"math"
	"slices"

	"github.com/Brownie44l1/quorum-sorter/internal/predictor"
)

// rank turns raw output scores into predictions at or above threshold,
// most confident first. Scores beyond the class list are ignored.
func rank(scores []float32, classes []string, softmax bool, threshold float64) []predictor.Prediction {
	n := min(len(scores), len(classes))
	probs := make([]float64, n)
	for i := 0; i < n; i++ {
		probs[i] = float64(scores[i])
	}
	if softmax {
		softmaxInPlace(probs)
	}

	predictions := make([]predictor.Prediction, 0, 4)
	for i, p := range probs {
		if p >= threshold {
			predictions = append(predictions, predictor.Prediction{Label: classes[i], Confidence: p})
		}
	}
	slices.SortStableFunc(predictions, func(a, b predictor.Prediction) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return predictions
}

func softmaxInPlace(v []float64) {
	if len(v) == 0 {
		return
	}
	maxVal := slices.Max(v)
	var sum float64
	for i := range v {
		v[i] = math.Exp(v[i] - maxVal)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}
