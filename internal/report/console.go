// Package report prints the run banner, per-image diagnostics and the final
// summary to the console.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Brownie44l1/quorum-sorter/internal/batch"
	"github.com/Brownie44l1/quorum-sorter/internal/config"
	"github.com/Brownie44l1/quorum-sorter/internal/consensus"
	"github.com/Brownie44l1/quorum-sorter/internal/engine"
	"github.com/Brownie44l1/quorum-sorter/internal/predictor"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

var (
	foundStyle  = color.New(color.FgGreen, color.OpBold)
	emptyStyle  = color.New(color.FgYellow)
	failedStyle = color.New(color.FgRed, color.OpBold)
	headerStyle = color.New(color.BgBlack, color.FgGreen)
)

// Console writes human-readable progress. It implements batch.Observer.
type Console struct {
	w      io.Writer
	colors bool
}

var _ batch.Observer = (*Console)(nil)

func NewConsole(w io.Writer, colors bool) *Console {
	return &Console{w: w, colors: colors}
}

func (c *Console) paint(s color.Style, text string) string {
	if !c.colors {
		return text
	}
	return s.Render(text)
}

// Banner describes what the run is about to do.
type Banner struct {
	RunID      string
	Selection  engine.Selection
	Predictors []config.PredictorConfig
	Required   config.Fraction
	SourceDir  string
	FoundDir   string
	EmptyDir   string
	Images     int
	DryRun     bool
}

func (c *Console) PrintBanner(b Banner) {
	fmt.Fprintln(c.w, c.paint(headerStyle, "  ====== quorum-sorter ======"))
	fmt.Fprintf(c.w, "Run: %s\n", b.RunID)
	fmt.Fprintf(c.w, "Engine: %s\n", b.Selection.Engine)
	fmt.Fprintf(c.w, "Accelerator: %s\n", b.Selection.Describe())
	for i, p := range b.Predictors {
		fmt.Fprintf(c.w, "Model %d: %s (threshold %s, %d target labels)\n",
			i, p.ModelID, strconv.FormatFloat(p.Threshold, 'f', -1, 64), len(p.TargetLabels))
	}
	fmt.Fprintf(c.w, "Required agreement: %s of %d\n", b.Required, len(b.Predictors))
	fmt.Fprintf(c.w, "Source: %s (%d images)\n", b.SourceDir, b.Images)
	fmt.Fprintf(c.w, "Found: %s  Empty: %s\n", b.FoundDir, b.EmptyDir)
	if b.DryRun {
		fmt.Fprintln(c.w, c.paint(emptyStyle, "Dry run: no file will be moved"))
	}
}

func (c *Console) ImageRouted(record batch.ImageRecord, verdict consensus.Verdict) {
	label := c.paint(emptyStyle, "EMPTY")
	if record.Verdict {
		label = c.paint(foundStyle, "FOUND")
	}
	fmt.Fprintf(c.w, "%s %s -> %s (%d/%d agree, %.0f%%)\n",
		label, record.Source, record.Destination, verdict.Agreeing, verdict.Total, verdict.Agreement()*100)
	for _, v := range verdict.Votes {
		fmt.Fprintf(c.w, "    [%d] %s: %s\n", v.Index, v.ModelID, describeVote(v))
	}
}

func describeVote(v consensus.Vote) string {
	mark := "no match"
	if v.Matched {
		mark = "match"
	}
	if len(v.Predictions) == 0 {
		return mark + " (nothing above threshold)"
	}
	top := lo.Map(lo.Slice(v.Predictions, 0, 3), func(p predictor.Prediction, _ int) string {
		return fmt.Sprintf("%s %.2f", p.Label, p.Confidence)
	})
	return mark + " (" + strings.Join(top, ", ") + ")"
}

func (c *Console) ImageFailed(path string, err error) {
	fmt.Fprintf(c.w, "%s %s: %v\n", c.paint(failedStyle, "FAILED"), path, err)
}

// PrintSummary renders the final counts as a table, followed by the failed
// images if any.
func (c *Console) PrintSummary(s batch.Summary) {
	table := tablewriter.NewWriter(c.w)
	table.SetHeader([]string{"Total", "Found", "Empty", "Failed"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.Append([]string{
		strconv.Itoa(s.Total),
		strconv.Itoa(s.Found),
		strconv.Itoa(s.Empty),
		strconv.Itoa(len(s.Failed)),
	})
	table.Render()

	for _, p := range s.Failed {
		fmt.Fprintf(c.w, "  %s %s\n", c.paint(failedStyle, "failed:"), p)
	}
}
