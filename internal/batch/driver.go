// Package batch drives one sorting pass: decode, evaluate and route every
// image in lexicographic order.
package batch

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"slices"

	"github.com/Brownie44l1/quorum-sorter/internal/config"
	"github.com/Brownie44l1/quorum-sorter/internal/consensus"
	"github.com/Brownie44l1/quorum-sorter/internal/errs"
)

// Evaluator decides whether an image satisfies the quorum.
type Evaluator interface {
	Evaluate(ctx context.Context, img image.Image) (consensus.Verdict, error)
}

// Router places a processed image.
type Router interface {
	Destination(source string, verdict bool) (string, error)
	Route(source string, verdict bool) (string, error)
}

// Decoder loads an image from disk.
type Decoder func(path string) (image.Image, error)

// ImageRecord is the outcome for one image. Destination is empty when the
// image failed.
type ImageRecord struct {
	Source      string
	Verdict     bool
	Destination string
}

type Summary struct {
	Total  int
	Found  int
	Empty  int
	Failed []string
}

// Observer is notified of every routed image and every failure.
type Observer interface {
	ImageRouted(record ImageRecord, verdict consensus.Verdict)
	ImageFailed(path string, err error)
}

type Driver struct {
	log       *slog.Logger
	evaluator Evaluator
	router    Router
	decode    Decoder
	policy    config.ErrorPolicy
	observers []Observer
	dryRun    bool
}

type Option func(*Driver)

func WithErrorPolicy(p config.ErrorPolicy) Option {
	return func(d *Driver) {
		d.policy = p
	}
}

func WithObserver(o Observer) Option {
	return func(d *Driver) {
		d.observers = append(d.observers, o)
	}
}

// WithDryRun computes destinations without moving any file.
func WithDryRun(enabled bool) Option {
	return func(d *Driver) {
		d.dryRun = enabled
	}
}

func NewDriver(log *slog.Logger, evaluator Evaluator, router Router, decode Decoder, opts ...Option) *Driver {
	d := &Driver{
		log:       log,
		evaluator: evaluator,
		router:    router,
		decode:    decode,
		policy:    config.PolicySkip,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run processes imagePaths in lexicographic order. With the abort policy the
// first failure stops the batch and is returned with the summary so far; a
// missing output folder does so under any policy. Skipped images are listed
// in Summary.Failed and do not make Run fail. Files already moved stay moved.
func (d *Driver) Run(ctx context.Context, imagePaths []string) (Summary, error) {
	paths := slices.Clone(imagePaths)
	slices.Sort(paths)

	var summary Summary
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		record, verdict, err := d.process(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			summary.Total++
			summary.Failed = append(summary.Failed, path)
			d.notifyFailure(path, err)
			if d.policy == config.PolicyAbort || fatal(err) {
				return summary, err
			}
			d.log.Warn("Skipping image", "path", path, "error", err)
			continue
		}

		summary.Total++
		if record.Verdict {
			summary.Found++
		} else {
			summary.Empty++
		}
		d.notifyRouted(record, verdict)
	}

	d.log.Info("Batch complete",
		"total", summary.Total, "found", summary.Found, "empty", summary.Empty, "failed", len(summary.Failed))
	return summary, nil
}

func (d *Driver) process(ctx context.Context, path string) (ImageRecord, consensus.Verdict, error) {
	img, err := d.decode(path)
	if err != nil {
		return ImageRecord{}, consensus.Verdict{}, asProcessing(path, err)
	}

	verdict, err := d.evaluator.Evaluate(ctx, img)
	if err != nil {
		if ctx.Err() != nil {
			return ImageRecord{}, consensus.Verdict{}, ctx.Err()
		}
		return ImageRecord{}, consensus.Verdict{}, asProcessing(path, err)
	}

	dest, err := d.route(path, verdict.Found)
	if err != nil {
		return ImageRecord{}, verdict, err
	}

	d.log.Debug("Image routed", "path", path, "found", verdict.Found, "destination", dest)
	return ImageRecord{Source: path, Verdict: verdict.Found, Destination: dest}, verdict, nil
}

func (d *Driver) route(path string, found bool) (string, error) {
	if d.dryRun {
		return d.router.Destination(path, found)
	}

	dest, err := d.router.Route(path, found)
	if err == nil || d.policy == config.PolicyAbort || !retryable(err) {
		return dest, err
	}
	d.log.Warn("Routing failed, retrying", "path", path, "error", err)
	return d.router.Route(path, found)
}

// fatal reports failures no later image can avoid: a missing output folder
// stops the batch under any policy.
func fatal(err error) bool {
	return errors.Is(err, errs.ErrDestinationMissing)
}

// retryable excludes failures a second attempt cannot fix.
func retryable(err error) bool {
	return !errors.Is(err, errs.ErrOutsideSourceRoot) && !errors.Is(err, errs.ErrDestinationMissing)
}

// asProcessing attaches path to err, keeping an existing
// ImageProcessingError's cause.
func asProcessing(path string, err error) error {
	var perr *errs.ImageProcessingError
	if errors.As(err, &perr) {
		if perr.Path != "" {
			return err
		}
		return errs.Processing(path, perr.Err)
	}
	return errs.Processing(path, err)
}

func (d *Driver) notifyRouted(record ImageRecord, verdict consensus.Verdict) {
	for _, o := range d.observers {
		o.ImageRouted(record, verdict)
	}
}

func (d *Driver) notifyFailure(path string, err error) {
	for _, o := range d.observers {
		o.ImageFailed(path, err)
	}
}
