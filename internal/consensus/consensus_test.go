package consensus_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Brownie44l1/quorum-sorter/internal/config"
	"github.com/Brownie44l1/quorum-sorter/internal/consensus"
	"github.com/Brownie44l1/quorum-sorter/internal/engine"
	"github.com/Brownie44l1/quorum-sorter/internal/errs"
	"github.com/Brownie44l1/quorum-sorter/internal/mocks"
	"github.com/Brownie44l1/quorum-sorter/internal/predictor"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	catDog = []string{"cat", "dog"}
	blank  = image.NewRGBA(image.Rect(0, 0, 4, 4))
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedPredictor always answers with the same predictions.
type fixedPredictor struct {
	id          string
	predictions []predictor.Prediction
	calls       atomic.Int32
	barrier     *barrier
}

// barrier releases its callers only once want of them are in flight together.
type barrier struct {
	want    int32
	entered atomic.Int32
	all     chan struct{}
}

func newBarrier(want int) *barrier {
	return &barrier{want: int32(want), all: make(chan struct{})}
}

func (b *barrier) await(ctx context.Context) error {
	if b.entered.Add(1) == b.want {
		close(b.all)
	}
	select {
	case <-b.all:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return errors.New("predictor calls did not overlap")
	}
}

func (f *fixedPredictor) Classify(ctx context.Context, _ image.Image, _ float64) ([]predictor.Prediction, error) {
	f.calls.Add(1)
	if f.barrier != nil {
		if err := f.barrier.await(ctx); err != nil {
			return nil, err
		}
	}
	return f.predictions, nil
}
func (f *fixedPredictor) ModelID() string       { return f.id }
func (f *fixedPredictor) Engine() engine.Engine { return engine.DNN }
func (f *fixedPredictor) Labels() []string      { return catDog }

type poolLoader map[string]predictor.Predictor

func (l poolLoader) Load(modelID string, _ engine.Engine) (predictor.Predictor, error) {
	return l[modelID], nil
}

func buildPool(t *testing.T, preds ...predictor.Predictor) *predictor.Pool {
	t.Helper()
	loader := poolLoader{}
	cfgs := make([]config.PredictorConfig, 0, len(preds))
	for i, p := range preds {
		id := fmt.Sprintf("model-%d", i)
		loader[id] = p
		cfgs = append(cfgs, config.PredictorConfig{ModelID: id, TargetLabels: catDog, Threshold: 0.2})
	}
	pool, err := predictor.Build(loader, engine.DNN, cfgs)
	require.NoError(t, err)
	return pool
}

func agreeing(n, total int) []predictor.Predictor {
	out := make([]predictor.Predictor, 0, total)
	for i := 0; i < total; i++ {
		if i < n {
			out = append(out, &fixedPredictor{predictions: []predictor.Prediction{{Label: "dog", Confidence: 0.9}}})
		} else {
			out = append(out, &fixedPredictor{predictions: []predictor.Prediction{{Label: "car", Confidence: 0.9}}})
		}
	}
	return out
}

func consensusConfig(fraction string) config.ConsensusConfig {
	return config.ConsensusConfig{RequiredAgreement: config.MustFraction(fraction)}
}

func TestMatches(t *testing.T) {
	targets := map[string]struct{}{"cat": {}, "dog": {}}
	tests := []struct {
		name        string
		predictions []predictor.Prediction
		want        bool
	}{
		{"empty predictions", nil, false},
		{"no target label", []predictor.Prediction{{Label: "car", Confidence: 0.9}, {Label: "truck", Confidence: 0.8}}, false},
		{"single match", []predictor.Prediction{{Label: "dog", Confidence: 0.31}}, true},
		{"match listed last", []predictor.Prediction{{Label: "car", Confidence: 0.9}, {Label: "cat", Confidence: 0.2}}, true},
		{"match listed first", []predictor.Prediction{{Label: "cat", Confidence: 0.2}, {Label: "car", Confidence: 0.9}}, true},
		{"several matches", []predictor.Prediction{{Label: "cat", Confidence: 0.5}, {Label: "dog", Confidence: 0.4}}, true},
		{"labels are case sensitive", []predictor.Prediction{{Label: "Cat", Confidence: 0.9}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, consensus.Matches(tt.predictions, targets))
		})
	}

	require.False(t, consensus.Matches([]predictor.Prediction{{Label: "cat", Confidence: 1}}, nil))
}

func TestEvaluate_QuorumBoundaries(t *testing.T) {
	tests := []struct {
		agreeing int
		total    int
		fraction string
		want     bool
	}{
		{2, 4, "0.5", true},
		{2, 4, "0.51", false},
		{1, 4, "0.25", true},
		{0, 4, "0.25", false},
		{2, 3, "0.5", true},
		{2, 3, "0.67", false},
		{3, 3, "1", true},
		{2, 3, "1", false},
		{3, 5, "0.6", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d at %s", tt.agreeing, tt.total, tt.fraction), func(t *testing.T) {
			req := require.New(t)
			pool := buildPool(t, agreeing(tt.agreeing, tt.total)...)
			ev, err := consensus.NewEvaluator(discard(), pool, consensusConfig(tt.fraction))
			req.NoError(err)

			verdict, err := ev.Evaluate(context.Background(), blank)
			req.NoError(err)
			req.Equal(tt.want, verdict.Found)
			req.Equal(tt.agreeing, verdict.Agreeing)
			req.Equal(tt.total, verdict.Total)
			req.Len(verdict.Votes, tt.total)
		})
	}
}

func TestEvaluate_SinglePredictorPassThrough(t *testing.T) {
	for _, fraction := range []string{"0.01", "0.5", "0.99", "1"} {
		for _, matched := range []bool{true, false} {
			t.Run(fmt.Sprintf("%s/%v", fraction, matched), func(t *testing.T) {
				req := require.New(t)
				n := 0
				if matched {
					n = 1
				}
				pool := buildPool(t, agreeing(n, 1)...)
				ev, err := consensus.NewEvaluator(discard(), pool, consensusConfig(fraction))
				req.NoError(err)

				verdict, err := ev.Evaluate(context.Background(), blank)
				req.NoError(err)
				req.Equal(matched, verdict.Found)
				req.Equal(matched, verdict.Votes[0].Matched)
			})
		}
	}
}

func TestEvaluate_ThreePredictorScenario(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	thresholds := []float64{0.2, 0.3, 0.2}
	answers := [][]predictor.Prediction{
		{{Label: "tabby", Confidence: 0.4}, {Label: "cat", Confidence: 0.25}},
		{{Label: "car", Confidence: 0.8}},
		{{Label: "dog", Confidence: 0.9}},
	}

	loader := mocks.NewMockLoader(ctrl)
	cfgs := make([]config.PredictorConfig, 0, 3)
	for i := range thresholds {
		id := fmt.Sprintf("alwaysai/model-%d", i)
		p := mocks.NewMockPredictor(ctrl)
		p.EXPECT().Classify(gomock.Any(), blank, thresholds[i]).Return(answers[i], nil)
		loader.EXPECT().Load(id, engine.DNN).Return(p, nil)
		cfgs = append(cfgs, config.PredictorConfig{ModelID: id, TargetLabels: catDog, Threshold: thresholds[i]})
	}

	pool, err := predictor.Build(loader, engine.DNN, cfgs)
	req.NoError(err)
	ev, err := consensus.NewEvaluator(discard(), pool, consensusConfig("0.5"))
	req.NoError(err)

	verdict, err := ev.Evaluate(ctx, blank)
	req.NoError(err)
	req.True(verdict.Found)
	req.Equal(2, verdict.Agreeing)
	req.InDelta(0.667, verdict.Agreement(), 0.001)
	req.Equal([]bool{true, false, true}, []bool{verdict.Votes[0].Matched, verdict.Votes[1].Matched, verdict.Votes[2].Matched})
	req.Equal("alwaysai/model-1", verdict.Votes[1].ModelID)
}

func TestEvaluate_PredictorFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	boom := errors.New("inference failed")

	good := mocks.NewMockPredictor(ctrl)
	good.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	bad := mocks.NewMockPredictor(ctrl)
	bad.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)

	pool := buildPool(t, good, bad)
	ev, err := consensus.NewEvaluator(discard(), pool, consensusConfig("0.5"))
	req.NoError(err)

	_, err = ev.Evaluate(context.Background(), blank)
	req.ErrorIs(err, boom)
	req.True(errs.IsProcessing(err))
	req.Contains(err.Error(), "model-1")
}

func TestEvaluate_Parallel(t *testing.T) {
	req := require.New(t)
	preds := agreeing(2, 4)
	// Every call blocks until all four are running at once.
	b := newBarrier(len(preds))
	for _, p := range preds {
		p.(*fixedPredictor).barrier = b
	}
	pool := buildPool(t, preds...)

	ev, err := consensus.NewEvaluator(discard(), pool, consensusConfig("0.5"), consensus.WithParallelPredictors(true))
	req.NoError(err)

	verdict, err := ev.Evaluate(context.Background(), blank)
	req.NoError(err)
	req.Equal(int32(len(preds)), b.entered.Load())

	req.True(verdict.Found)
	for i, v := range verdict.Votes {
		req.Equal(i, v.Index)
		req.Equal(fmt.Sprintf("model-%d", i), v.ModelID)
		req.Equal(i < 2, v.Matched)
	}
	for _, p := range preds {
		req.Equal(int32(1), p.(*fixedPredictor).calls.Load())
	}
}

func TestEvaluate_CanceledContext(t *testing.T) {
	req := require.New(t)
	pool := buildPool(t, agreeing(1, 2)...)
	ev, err := consensus.NewEvaluator(discard(), pool, consensusConfig("0.5"))
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ev.Evaluate(ctx, blank)
	req.ErrorIs(err, context.Canceled)
}

func TestNewEvaluator_Rejections(t *testing.T) {
	req := require.New(t)
	pool := buildPool(t, agreeing(1, 1)...)

	_, err := consensus.NewEvaluator(discard(), nil, consensusConfig("0.5"))
	req.True(errs.IsConfiguration(err))
	req.ErrorIs(err, errs.ErrEmptyPool)

	for _, f := range []string{"0", "1.5", "-1"} {
		_, err = consensus.NewEvaluator(discard(), pool, consensusConfig(f))
		req.True(errs.IsConfiguration(err), f)
		req.ErrorIs(err, errs.ErrInvalidAgreement, f)
	}
}
