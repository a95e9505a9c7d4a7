package model

import (
	"context"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/Brownie44l1/quorum-sorter/internal/engine"
	"github.com/Brownie44l1/quorum-sorter/internal/predictor"
	ort "github.com/yalue/onnxruntime_go"
)

// Session is an ONNX Runtime backed predictor. The input and output tensors
// are shared between runs, so Classify serializes access to them.
type Session struct {
	modelID  string
	engine   engine.Engine
	Metadata Metadata

	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

var _ predictor.Predictor = (*Session)(nil)

// NewSession loads modelPath with the given options. The ONNX environment
// must already be initialized.
func NewSession(modelID, modelPath string, metadata Metadata, eng engine.Engine, options *ort.SessionOptions) (*Session, error) {
	inputShape := ort.NewShape(metadata.InputShape...)
	outputShape := ort.NewShape(metadata.OutputShape...)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		options)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Session{
		modelID:      modelID,
		engine:       eng,
		Metadata:     metadata,
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (s *Session) Classify(ctx context.Context, img image.Image, threshold float64) ([]predictor.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inputData := preprocessImage(img, s.Metadata)

	s.mu.Lock()
	copy(s.inputTensor.GetData(), inputData)
	if err := s.session.Run(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	scores := slices.Clone(s.outputTensor.GetData())
	s.mu.Unlock()

	return rank(scores, s.Metadata.Classes, s.Metadata.Softmax, threshold), nil
}

func (s *Session) ModelID() string {
	return s.modelID
}

func (s *Session) Engine() engine.Engine {
	return s.engine
}

func (s *Session) Labels() []string {
	return slices.Clone(s.Metadata.Classes)
}

// Close releases the tensors and the session. The environment is owned by
// the Registry.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
		s.inputTensor = nil
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
		s.outputTensor = nil
	}
	if s.session != nil {
		err := s.session.Destroy()
		s.session = nil
		return err
	}
	return nil
}
