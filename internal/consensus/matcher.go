// Package consensus turns the predictions of every predictor in a pool into
// a single "target found" verdict.
package consensus

import (
	"github.com/Brownie44l1/quorum-sorter/internal/predictor"
	"github.com/samber/lo"
)

// Matches reports whether any prediction carries a target label.
// Confidence is not checked here: predictors only return predictions at or
// above their own threshold.
func Matches(predictions []predictor.Prediction, targets map[string]struct{}) bool {
	return lo.ContainsBy(predictions, func(p predictor.Prediction) bool {
		_, ok := targets[p.Label]
		return ok
	})
}
