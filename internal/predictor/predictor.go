//go:generate go run go.uber.org/mock/mockgen -source=predictor.go -destination=../mocks/mock_predictor.go -package=mocks

// Package predictor defines the label predictor contract and the ordered
// pool of predictors a run is evaluated with.
package predictor

import (
	"context"
	"image"

	"github.com/Brownie44l1/quorum-sorter/internal/engine"
)

// Prediction is one label a model believes is present, with its confidence.
type Prediction struct {
	Label      string
	Confidence float64
}

// Predictor is a loaded label-prediction model bound to an engine.
type Predictor interface {
	// Classify returns the predictions whose confidence is at or above
	// threshold, most confident first.
	Classify(ctx context.Context, img image.Image, threshold float64) ([]Prediction, error)
	ModelID() string
	Engine() engine.Engine
	Labels() []string
}

// Loader resolves a model identifier to a ready predictor.
type Loader interface {
	Load(modelID string, eng engine.Engine) (Predictor, error)
}
