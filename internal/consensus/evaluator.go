package consensus

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/Brownie44l1/quorum-sorter/internal/config"
	"github.com/Brownie44l1/quorum-sorter/internal/errs"
	"github.com/Brownie44l1/quorum-sorter/internal/predictor"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Vote is the decision of one predictor for one image.
type Vote struct {
	Index       int
	ModelID     string
	Matched     bool
	Predictions []predictor.Prediction
}

// Verdict aggregates one vote per pool member, in pool order.
type Verdict struct {
	Found    bool
	Agreeing int
	Total    int
	Votes    []Vote
}

// Agreement is the agreeing share, for display only.
func (v Verdict) Agreement() float64 {
	if v.Total == 0 {
		return 0
	}
	return float64(v.Agreeing) / float64(v.Total)
}

type Evaluator struct {
	log      *slog.Logger
	members  []predictor.Member
	required config.Fraction
	parallel bool
}

type Option func(*Evaluator)

// WithParallelPredictors invokes the predictors of one image concurrently.
// Votes keep pool order.
func WithParallelPredictors(enabled bool) Option {
	return func(e *Evaluator) {
		e.parallel = enabled
	}
}

// NewEvaluator fails fast on an empty pool or an invalid agreement fraction.
func NewEvaluator(log *slog.Logger, pool *predictor.Pool, cfg config.ConsensusConfig, opts ...Option) (*Evaluator, error) {
	if pool == nil || pool.Len() == 0 {
		return nil, errs.Configuration("consensus", errs.ErrEmptyPool)
	}
	if err := cfg.RequiredAgreement.Validate(); err != nil {
		return nil, errs.Configuration("consensus", err)
	}
	e := &Evaluator{
		log:      log,
		members:  pool.Members(),
		required: cfg.RequiredAgreement,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate asks every predictor about img with its own threshold and target
// set, then compares the agreeing share with the required fraction exactly.
func (e *Evaluator) Evaluate(ctx context.Context, img image.Image) (Verdict, error) {
	votes := make([]Vote, len(e.members))

	var err error
	if e.parallel {
		err = e.voteConcurrently(ctx, img, votes)
	} else {
		err = e.voteSequentially(ctx, img, votes)
	}
	if err != nil {
		return Verdict{}, err
	}

	agreeing := lo.CountBy(votes, func(v Vote) bool { return v.Matched })
	verdict := Verdict{
		Found:    e.required.SatisfiedBy(agreeing, len(votes)),
		Agreeing: agreeing,
		Total:    len(votes),
		Votes:    votes,
	}
	e.log.Debug("Consensus evaluated",
		"agreeing", agreeing, "total", len(votes), "required", e.required.String(), "found", verdict.Found)
	return verdict, nil
}

func (e *Evaluator) voteSequentially(ctx context.Context, img image.Image, votes []Vote) error {
	for i := range e.members {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := e.vote(ctx, i, img)
		if err != nil {
			return err
		}
		votes[i] = v
	}
	return nil
}

func (e *Evaluator) voteConcurrently(ctx context.Context, img image.Image, votes []Vote) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range e.members {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := e.vote(gctx, i, img)
			if err != nil {
				return err
			}
			votes[i] = v
			return nil
		})
	}
	return g.Wait()
}

func (e *Evaluator) vote(ctx context.Context, i int, img image.Image) (Vote, error) {
	m := e.members[i]
	predictions, err := m.Predictor.Classify(ctx, img, m.Config.Threshold)
	if err != nil {
		// The batch driver fills in the image path.
		return Vote{}, errs.Processing("", fmt.Errorf("predictor %d (%s): %w", i, m.Config.ModelID, err))
	}
	return Vote{
		Index:       i,
		ModelID:     m.Config.ModelID,
		Matched:     Matches(predictions, m.Targets),
		Predictions: predictions,
	}, nil
}
