package model

import (
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Brownie44l1/quorum-sorter/internal/engine"
	"github.com/Brownie44l1/quorum-sorter/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestRank_FiltersAndOrders(t *testing.T) {
	classes := []string{"cat", "dog", "bird", "fish"}
	scores := []float32{0.1, 0.6, 0.25, 0.05}

	got := rank(scores, classes, false, 0.2)
	require.Len(t, got, 2)
	require.Equal(t, "dog", got[0].Label)
	require.Equal(t, "bird", got[1].Label)
	require.InDelta(t, 0.6, got[0].Confidence, 1e-6)
}

func TestRank_ThresholdIsInclusive(t *testing.T) {
	got := rank([]float32{0.5, 0.5}, []string{"a", "b"}, false, 0.5)
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].Label)
}

func TestRank_IgnoresScoresBeyondClasses(t *testing.T) {
	got := rank([]float32{0.9, 0.9, 0.9}, []string{"only"}, false, 0)
	require.Len(t, got, 1)
	require.Equal(t, "only", got[0].Label)
}

func TestRank_Softmax(t *testing.T) {
	got := rank([]float32{2, 2}, []string{"a", "b"}, true, 0)
	require.Len(t, got, 2)
	require.InDelta(t, 0.5, got[0].Confidence, 1e-9)
	require.InDelta(t, 0.5, got[1].Confidence, 1e-9)
}

func TestSoftmaxInPlace_SumsToOne(t *testing.T) {
	v := []float64{1, 2, 3, 1000}
	softmaxInPlace(v)
	var sum float64
	for _, p := range v {
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-9)
	require.Greater(t, v[3], 0.99)

	softmaxInPlace(nil)
}

func TestPreprocessImage_PlanarLayout(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}
	m := Metadata{ImageSize: 4}

	data := preprocessImage(img, m)
	require.Len(t, data, 3*4*4)
	require.InDelta(t, 1.0, data[0], 1e-3)
	require.InDelta(t, 0.0, data[16], 1e-3)
	require.InDelta(t, 0.0, data[32], 1e-3)
}

func TestPreprocessImage_Normalizes(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	m := Metadata{
		ImageSize: 2,
		Mean:      []float32{0.5, 0.5, 0.5},
		Std:       []float32{0.25, 0.25, 0.25},
	}

	data := preprocessImage(img, m)
	for _, v := range data {
		require.InDelta(t, -2.0, v, 1e-3)
	}
}

func writeMetadata(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, metadataFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMetadata_AppliesDefaults(t *testing.T) {
	path := writeMetadata(t, t.TempDir(), `{
		"input_shape": [1, 3, 2, 2],
		"output_shape": [1, 2],
		"classes": ["cat", "dog"],
		"image_size": 2
	}`)

	m, err := LoadMetadata(path)
	require.NoError(t, err)
	require.Equal(t, "input", m.InputName)
	require.Equal(t, "output", m.OutputName)
	require.Equal(t, []string{"cat", "dog"}, m.Classes)
}

func TestLoadMetadata_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"no classes", `{"input_shape":[1,3,2,2],"output_shape":[1,2],"image_size":2}`},
		{"shape mismatch", `{"input_shape":[1,3,4,4],"output_shape":[1,2],"classes":["a"],"image_size":2}`},
		{"no image size", `{"input_shape":[1,3,2,2],"output_shape":[1,2],"classes":["a"]}`},
		{"short mean", `{"input_shape":[1,3,2,2],"output_shape":[1,2],"classes":["a"],"image_size":2,"mean":[0.5]}`},
		{"zero std", `{"input_shape":[1,3,2,2],"output_shape":[1,2],"classes":["a"],"image_size":2,"std":[1,0,1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMetadata(writeMetadata(t, t.TempDir(), tt.body))
			require.Error(t, err)
		})
	}
}

func TestRegistry_Resolve(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "alwaysai", "googlenet")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, modelFileName), []byte("onnx"), 0o644))
	writeMetadata(t, dir, `{}`)

	r := NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)), root, "")

	modelPath, metadataPath, err := r.Resolve("alwaysai/googlenet")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, modelFileName), modelPath)
	require.Equal(t, filepath.Join(dir, metadataFileName), metadataPath)

	for _, id := range []string{"", "alwaysai/missing", "../escape", "/abs/model"} {
		_, _, err := r.Resolve(id)
		require.ErrorIs(t, err, errs.ErrUnknownModel, id)
	}
}

func TestRegistry_LoadUnknownModelSkipsRuntime(t *testing.T) {
	r := NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)), t.TempDir(), "")

	_, err := r.Load("alwaysai/nothing", engine.DNN)
	require.True(t, errors.Is(err, errs.ErrUnknownModel))
	require.False(t, r.initialized)
	require.NoError(t, r.Close())
}

func TestSessionOptions_CPUUsesDefaults(t *testing.T) {
	options, err := sessionOptions(engine.DNN)
	require.NoError(t, err)
	require.Nil(t, options)

	_, err = sessionOptions(engine.Engine(42))
	require.ErrorIs(t, err, errs.ErrUnsupportedEngine)
}
