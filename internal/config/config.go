// Package config loads and validates the run configuration: the ordered list
// of predictors, the consensus quorum and the input/output folders.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Brownie44l1/quorum-sorter/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSourceDir  = "source_images"
	DefaultModelsDir  = "models"
	DefaultEngine     = "auto"
	DefaultConfidence = 0.3
)

// ErrorPolicy decides what the batch does with a failing image.
type ErrorPolicy string

const (
	// PolicyAbort stops the batch on the first failing image.
	PolicyAbort ErrorPolicy = "abort"
	// PolicySkip records the failing image and continues.
	PolicySkip ErrorPolicy = "skip"
)

var validate = validator.New()

// PredictorConfig binds one model to the labels it watches for and the
// minimum confidence it reports.
type PredictorConfig struct {
	ModelID      string   `validate:"required"`
	TargetLabels []string `validate:"required,min=1,dive,required"`
	Threshold    float64  `validate:"gte=0,lte=1"`
}

type ConsensusConfig struct {
	RequiredAgreement Fraction
}

// RunConfig is the immutable configuration of one batch run.
type RunConfig struct {
	Predictors         []PredictorConfig `validate:"required,min=1,dive"`
	Consensus          ConsensusConfig
	FoundDir           string      `validate:"required"`
	EmptyDir           string      `validate:"required,nefield=FoundDir"`
	SourceDir          string      `validate:"required"`
	ModelsDir          string      `validate:"required"`
	Engine             string      `validate:"oneof=auto dnn dnn_openvino dnn_cuda"`
	OnImageError       ErrorPolicy `validate:"oneof=abort skip"`
	ParallelPredictors bool
}

// Overrides are values given on the command line or in the environment;
// empty fields keep the file value.
type Overrides struct {
	SourceDir string
	ModelsDir string
}

type fileClassifier struct {
	ModelID                  string   `json:"model_id" yaml:"model_id"`
	MinimumConfidenceLevel   *float64 `json:"minimum_confidence_level" yaml:"minimum_confidence_level"`
	ConfidenceLevelThreshold *float64 `json:"confidence_level_threshold" yaml:"confidence_level_threshold"`
	TargetLabels             []string `json:"target_labels" yaml:"target_labels"`
	TargetLabelPresets       []string `json:"target_label_presets" yaml:"target_label_presets"`
}

type fileConfig struct {
	Classifiers              []fileClassifier `json:"classifiers" yaml:"classifiers"`
	ClassifiersNeededToAgree *Fraction        `json:"classifiers_needed_to_agree" yaml:"classifiers_needed_to_agree"`
	FoundFolder              string           `json:"found_folder" yaml:"found_folder"`
	DetectedOutputFolder     string           `json:"detected_output_folder" yaml:"detected_output_folder"`
	EmptyFolder              string           `json:"empty_folder" yaml:"empty_folder"`
	EmptyOutputFolder        string           `json:"empty_output_folder" yaml:"empty_output_folder"`
	SourceFolder             string           `json:"source_folder" yaml:"source_folder"`
	ModelsFolder             string           `json:"models_folder" yaml:"models_folder"`
	Engine                   string           `json:"engine" yaml:"engine"`
	OnImageError             string           `json:"on_image_error" yaml:"on_image_error"`
	ParallelPredictors       bool             `json:"parallel_predictors" yaml:"parallel_predictors"`
}

// Load reads the configuration file at path. JSON is the default format,
// files ending in .yaml or .yml are decoded as YAML.
func Load(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RunConfig{}, errs.Configuration("load", fmt.Errorf("%w: %s", errs.ErrConfigNotFound, path))
		}
		return RunConfig{}, errs.Configuration("load", err)
	}

	var raw fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return RunConfig{}, errs.Configuration("decode "+path, err)
	}

	cfg, err := raw.resolve()
	if err != nil {
		return RunConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

func (raw fileConfig) resolve() (RunConfig, error) {
	predictors := make([]PredictorConfig, 0, len(raw.Classifiers))
	for i, c := range raw.Classifiers {
		labels, err := expandLabels(c.TargetLabels, c.TargetLabelPresets)
		if err != nil {
			return RunConfig{}, errs.Configuration(fmt.Sprintf("classifier %d (%s)", i, c.ModelID), err)
		}
		threshold := DefaultConfidence
		switch {
		case c.MinimumConfidenceLevel != nil:
			threshold = *c.MinimumConfidenceLevel
		case c.ConfidenceLevelThreshold != nil:
			threshold = *c.ConfidenceLevelThreshold
		}
		predictors = append(predictors, PredictorConfig{
			ModelID:      strings.TrimSpace(c.ModelID),
			TargetLabels: labels,
			Threshold:    threshold,
		})
	}

	var agreement Fraction
	if raw.ClassifiersNeededToAgree != nil {
		agreement = *raw.ClassifiersNeededToAgree
	}

	return RunConfig{
		Predictors:         predictors,
		Consensus:          ConsensusConfig{RequiredAgreement: agreement},
		FoundDir:           lo.CoalesceOrEmpty(raw.FoundFolder, raw.DetectedOutputFolder),
		EmptyDir:           lo.CoalesceOrEmpty(raw.EmptyFolder, raw.EmptyOutputFolder),
		SourceDir:          lo.CoalesceOrEmpty(raw.SourceFolder, DefaultSourceDir),
		ModelsDir:          lo.CoalesceOrEmpty(raw.ModelsFolder, DefaultModelsDir),
		Engine:             strings.ToLower(lo.CoalesceOrEmpty(raw.Engine, DefaultEngine)),
		OnImageError:       ErrorPolicy(strings.ToLower(lo.CoalesceOrEmpty(raw.OnImageError, string(PolicySkip)))),
		ParallelPredictors: raw.ParallelPredictors,
	}, nil
}

// Validate checks field constraints and the agreement fraction. Every
// failure is a ConfigurationError.
func (c RunConfig) Validate() error {
	if len(c.Predictors) == 0 {
		return errs.Configuration("validate", errs.ErrEmptyPool)
	}
	if err := validate.Struct(c); err != nil {
		return errs.Configuration("validate", err)
	}
	if err := c.Consensus.RequiredAgreement.Validate(); err != nil {
		return errs.Configuration("classifiers_needed_to_agree", err)
	}
	return nil
}

// WithOverrides returns a copy of c with the non-empty override values applied.
func (c RunConfig) WithOverrides(o Overrides) RunConfig {
	out := c
	out.Predictors = append([]PredictorConfig(nil), c.Predictors...)
	if o.SourceDir != "" {
		out.SourceDir = o.SourceDir
	}
	if o.ModelsDir != "" {
		out.ModelsDir = o.ModelsDir
	}
	return out
}

// ModelIDs lists the configured model identifiers in pool order.
func (c RunConfig) ModelIDs() []string {
	return lo.Map(c.Predictors, func(p PredictorConfig, _ int) string { return p.ModelID })
}
