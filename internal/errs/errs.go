// Package errs holds the error taxonomy of the sorter: configuration
// failures are fatal before any image is touched, image processing and
// routing failures are handled according to the batch error policy.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrConfigNotFound     = errors.New("configuration file not found")
	ErrEmptyPool          = errors.New("predictor pool is empty")
	ErrInvalidAgreement   = errors.New("required agreement fraction must be in (0, 1]")
	ErrUnknownModel       = errors.New("model identifier cannot be resolved")
	ErrUnsupportedEngine  = errors.New("unsupported engine")
	ErrDestinationMissing = errors.New("destination directory does not exist")
	ErrOutsideSourceRoot  = errors.New("path is not below the source root")
	ErrImagesFailed       = errors.New("images could not be sorted")
)

// ConfigurationError reports a bad or missing configuration, an unresolvable
// model or an invalid agreement fraction.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ImageProcessingError reports an unreadable image or a failed predictor
// invocation for a single image.
type ImageProcessingError struct {
	Path string
	Err  error
}

func (e *ImageProcessingError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("processing image: %v", e.Err)
	}
	return fmt.Sprintf("processing %s: %v", e.Path, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// RoutingError reports a failed move of a processed image.
type RoutingError struct {
	Source      string
	Destination string
	Err         error
}

func (e *RoutingError) Error() string {
	if e.Destination == "" {
		return fmt.Sprintf("routing %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("routing %s -> %s: %v", e.Source, e.Destination, e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }

func Configuration(op string, err error) error {
	return &ConfigurationError{Op: op, Err: err}
}

func Processing(path string, err error) error {
	return &ImageProcessingError{Path: path, Err: err}
}

func Routing(source, destination string, err error) error {
	return &RoutingError{Source: source, Destination: destination, Err: err}
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsProcessing(err error) bool {
	var target *ImageProcessingError
	return errors.As(err, &target)
}

func IsRouting(err error) bool {
	var target *RoutingError
	return errors.As(err, &target)
}
