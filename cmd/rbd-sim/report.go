package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-rbd/pkg/estimate"
	"github.com/dd0wney/cluso-rbd/pkg/rbd"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(14)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00")).
			Bold(true)
)

// report is the JSON form of a run.
type report struct {
	RunID      string                `json:"run_id"`
	System     string                `json:"system"`
	Seed       uint64                `json:"seed"`
	Requested  int                   `json:"requested_trials"`
	Trials     int                   `json:"trials"`
	MTTF       *float64              `json:"mttf"`
	StdDev     *float64              `json:"std_dev"`
	HalfWidth  *float64              `json:"half_width"`
	Censored   int                   `json:"censored"`
	Cancelled  bool                  `json:"cancelled"`
	ElapsedMS  int64                 `json:"elapsed_ms"`
	Curve      []estimate.CurvePoint `json:"curve"`
	MinimalCut [][]string            `json:"minimal_cuts,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
}

func newReport(res *rbd.Result, cuts [][]string) report {
	r := report{
		RunID:      res.RunID,
		System:     res.System,
		Seed:       res.Seed,
		Requested:  res.Requested,
		Trials:     res.Trials,
		MTTF:       finite(res.MTTF),
		StdDev:     finite(res.StdDev),
		HalfWidth:  finite(res.HalfWidth),
		Censored:   res.Censored,
		Cancelled:  res.Cancelled,
		ElapsedMS:  res.Elapsed.Milliseconds(),
		Curve:      res.Curve,
		MinimalCut: cuts,
	}
	for _, w := range res.Warnings {
		r.Warnings = append(r.Warnings, w.Error())
	}
	return r
}

// finite maps NaN and infinities to null
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func renderSummary(res *rbd.Result, cuts [][]string) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("System", res.System)
	row("Run", res.RunID)
	row("Trials", fmt.Sprintf("%d of %d (seed %d)", res.Trials, res.Requested, res.Seed))
	row("MTTF", fmt.Sprintf("%.6g ± %.3g", res.MTTF, res.HalfWidth))
	row("Std dev", fmt.Sprintf("%.6g", res.StdDev))
	row("Range", fmt.Sprintf("[%.6g, %.6g]", res.MinFailure, res.MaxFailure))
	row("Elapsed", res.Elapsed.String())

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Reliability"))
	b.WriteString("\n")
	for _, p := range res.Curve {
		row(fmt.Sprintf("t=%.6g", p.Time), fmt.Sprintf("%.4f", p.Probability))
	}

	if len(cuts) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Minimal cut sets"))
		b.WriteString("\n")
		for _, cut := range cuts {
			b.WriteString("{" + strings.Join(cut, ", ") + "}\n")
		}
	}

	if res.Cancelled {
		b.WriteString("\n" + warnStyle.Render("run cancelled: partial result") + "\n")
	}
	for _, w := range res.Warnings {
		b.WriteString("\n" + warnStyle.Render(w.Error()) + "\n")
	}

	return titleStyle.Render("rbd-sim") + "\n" + boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
