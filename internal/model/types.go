package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	defaultInputName  = "input"
	defaultOutputName = "output"
)

// Metadata describes how to feed a model and read its scores. It lives next
// to the model file as metadata.json.
type Metadata struct {
	InputShape  []int64   `json:"input_shape"`
	OutputShape []int64   `json:"output_shape"`
	Classes     []string  `json:"classes"`
	ImageSize   int       `json:"image_size"`
	InputName   string    `json:"input_name"`
	OutputName  string    `json:"output_name"`
	Mean        []float32 `json:"mean"`
	Std         []float32 `json:"std"`
	// Softmax is set when the model outputs logits rather than probabilities.
	Softmax bool `json:"softmax"`
}

func LoadMetadata(path string) (Metadata, error) {
	metaFile, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	metadata.defaults()
	if err := metadata.validate(); err != nil {
		return Metadata{}, fmt.Errorf("invalid metadata %s: %w", path, err)
	}
	return metadata, nil
}

func (m *Metadata) defaults() {
	if m.InputName == "" {
		m.InputName = defaultInputName
	}
	if m.OutputName == "" {
		m.OutputName = defaultOutputName
	}
}

func (m Metadata) validate() error {
	if len(m.InputShape) == 0 || len(m.OutputShape) == 0 {
		return errors.New("input_shape and output_shape are required")
	}
	if len(m.Classes) == 0 {
		return errors.New("classes are required")
	}
	if m.ImageSize <= 0 {
		return errors.New("image_size must be positive")
	}
	if want := 3 * m.ImageSize * m.ImageSize; elements(m.InputShape) != want {
		return fmt.Errorf("input_shape %v holds %d values, expected %d (3x%dx%d)",
			m.InputShape, elements(m.InputShape), want, m.ImageSize, m.ImageSize)
	}
	if len(m.Mean) != 0 && len(m.Mean) != 3 {
		return errors.New("mean must have 3 values")
	}
	if len(m.Std) != 0 && len(m.Std) != 3 {
		return errors.New("std must have 3 values")
	}
	for _, s := range m.Std {
		if s == 0 {
			return errors.New("std values must be non-zero")
		}
	}
	return nil
}

func elements(shape []int64) int {
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}
