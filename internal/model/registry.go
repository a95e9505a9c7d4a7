package model

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Brownie44l1/quorum-sorter/internal/engine"
	"github.com/Brownie44l1/quorum-sorter/internal/errs"
	"github.com/Brownie44l1/quorum-sorter/internal/predictor"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	modelFileName    = "model.onnx"
	metadataFileName = "metadata.json"
)

// Registry resolves model identifiers such as "alwaysai/googlenet" to
// <modelsDir>/alwaysai/googlenet/{model.onnx,metadata.json} and owns the
// process-wide ONNX Runtime environment.
type Registry struct {
	log         *slog.Logger
	modelsDir   string
	libraryPath string

	mu          sync.Mutex
	initialized bool
}

var _ predictor.Loader = (*Registry)(nil)

// NewRegistry builds a registry. libraryPath may be empty to use the
// onnxruntime shared library found by the platform loader.
func NewRegistry(log *slog.Logger, modelsDir, libraryPath string) *Registry {
	return &Registry{
		log:         log,
		modelsDir:   modelsDir,
		libraryPath: libraryPath,
	}
}

// Resolve returns the model and metadata paths for modelID.
func (r *Registry) Resolve(modelID string) (string, string, error) {
	id := filepath.Clean(filepath.FromSlash(strings.TrimSpace(modelID)))
	if id == "." || filepath.IsAbs(id) || id == ".." || strings.HasPrefix(id, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%w: %q", errs.ErrUnknownModel, modelID)
	}

	dir := filepath.Join(r.modelsDir, id)
	modelPath := filepath.Join(dir, modelFileName)
	metadataPath := filepath.Join(dir, metadataFileName)
	for _, p := range []string{modelPath, metadataPath} {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", "", fmt.Errorf("%w: %q (missing %s)", errs.ErrUnknownModel, modelID, p)
			}
			return "", "", err
		}
	}
	return modelPath, metadataPath, nil
}

// Load resolves modelID and creates an ONNX session on eng.
func (r *Registry) Load(modelID string, eng engine.Engine) (predictor.Predictor, error) {
	modelPath, metadataPath, err := r.Resolve(modelID)
	if err != nil {
		return nil, err
	}

	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	if err := r.ensureEnvironment(); err != nil {
		return nil, err
	}

	options, err := sessionOptions(eng)
	if err != nil {
		return nil, err
	}
	if options != nil {
		defer options.Destroy()
	}

	r.log.Info("Loading model", "model_id", modelID, "path", modelPath, "engine", eng.String(), "classes", len(metadata.Classes))
	s, err := NewSession(modelID, modelPath, metadata, eng, options)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Registry) ensureEnvironment() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized || ort.IsInitialized() {
		r.initialized = true
		return nil
	}
	if r.libraryPath != "" {
		ort.SetSharedLibraryPath(r.libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	r.initialized = true
	return nil
}

// Close tears down the ONNX environment once every session is closed.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return nil
	}
	r.initialized = false
	return ort.DestroyEnvironment()
}
