package report_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Brownie44l1/quorum-sorter/internal/batch"
	"github.com/Brownie44l1/quorum-sorter/internal/config"
	"github.com/Brownie44l1/quorum-sorter/internal/consensus"
	"github.com/Brownie44l1/quorum-sorter/internal/engine"
	"github.com/Brownie44l1/quorum-sorter/internal/predictor"
	"github.com/Brownie44l1/quorum-sorter/internal/report"
	"github.com/stretchr/testify/require"
)

func TestConsole_Banner(t *testing.T) {
	var buf bytes.Buffer
	c := report.NewConsole(&buf, false)

	c.PrintBanner(report.Banner{
		RunID:     "run-1",
		Selection: engine.Selection{Engine: engine.DNNOpenVINO, Device: &engine.KnownDevices[0]},
		Predictors: []config.PredictorConfig{
			{ModelID: "alwaysai/googlenet", TargetLabels: []string{"cat", "dog"}, Threshold: 0.3},
		},
		Required:  config.MustFraction("0.5"),
		SourceDir: "source_images",
		FoundDir:  "found",
		EmptyDir:  "empty",
		Images:    4,
		DryRun:    true,
	})

	out := buf.String()
	require.Contains(t, out, "Engine: dnn_openvino")
	require.Contains(t, out, "Accelerator: "+engine.KnownDevices[0].Name)
	require.Contains(t, out, "Model 0: alwaysai/googlenet (threshold 0.3, 2 target labels)")
	require.Contains(t, out, "Required agreement: 0.5 of 1")
	require.Contains(t, out, "Dry run")
}

func TestConsole_ImageLines(t *testing.T) {
	var buf bytes.Buffer
	c := report.NewConsole(&buf, false)

	c.ImageRouted(
		batch.ImageRecord{Source: "source_images/a.jpg", Verdict: true, Destination: "found/a.jpg"},
		consensus.Verdict{Found: true, Agreeing: 2, Total: 3, Votes: []consensus.Vote{
			{Index: 0, ModelID: "m0", Matched: true, Predictions: []predictor.Prediction{{Label: "cat", Confidence: 0.91}}},
			{Index: 1, ModelID: "m1"},
		}},
	)
	c.ImageFailed("source_images/b.jpg", errors.New("bad header"))

	out := buf.String()
	require.Contains(t, out, "FOUND source_images/a.jpg -> found/a.jpg (2/3 agree, 67%)")
	require.Contains(t, out, "[0] m0: match (cat 0.91)")
	require.Contains(t, out, "[1] m1: no match (nothing above threshold)")
	require.Contains(t, out, "FAILED source_images/b.jpg: bad header")
	require.NotContains(t, out, "\x1b[", "plain console must not emit ANSI codes")
}

func TestConsole_Summary(t *testing.T) {
	var buf bytes.Buffer
	c := report.NewConsole(&buf, false)

	c.PrintSummary(batch.Summary{Total: 3, Found: 1, Empty: 1, Failed: []string{"x.jpg"}})

	out := buf.String()
	require.Contains(t, out, "TOTAL")
	require.Contains(t, out, "FAILED")
	require.Contains(t, out, "failed: x.jpg")
}
