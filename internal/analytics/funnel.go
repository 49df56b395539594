// Package analytics tracks how far sessions get through the lead funnel.
package analytics

import (
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"go.uber.org/zap"
)

type Stage string

const (
	StageChat          Stage = "chat"
	StageFormStarted   Stage = "form_started"
	StageLeadCompleted Stage = "lead_completed"
	StageLeadSaved     Stage = "lead_saved"
)

// maxSteps covers the longest form flow minus its final answer, which is
// counted as StageLeadCompleted.
const maxSteps = 4

// StepStage is the stage reached after answering n form questions.
func StepStage(n int) Stage {
	return Stage(fmt.Sprintf("step_%d", n))
}

// Repository counts distinct sessions per stage.
type Repository interface {
	Hit(stage Stage, sessionID string) error
	Counts() map[Stage]int
}

type Funnel struct {
	repo   Repository
	order  []Stage
	logger *zap.Logger
}

func NewFunnel(repo Repository, logger *zap.Logger) *Funnel {
	if logger == nil {
		logger = zap.NewNop()
	}
	order := []Stage{StageChat, StageFormStarted}
	for i := 1; i <= maxSteps; i++ {
		order = append(order, StepStage(i))
	}
	order = append(order, StageLeadCompleted, StageLeadSaved)
	return &Funnel{repo: repo, order: order, logger: logger}
}

// Reach records that sessionID got to stage. Storage errors are logged only.
func (f *Funnel) Reach(sessionID string, stage Stage) {
	if f == nil || stage == "" || sessionID == "" {
		return
	}
	if err := f.repo.Hit(stage, sessionID); err != nil {
		f.logger.Warn("funnel hit not recorded", zap.String("stage", string(stage)), zap.Error(err))
	}
}

// StageCount is one row of the funnel report.
type StageCount struct {
	Stage         Stage  `json:"stage"`
	Label         string `json:"label"`
	Sessions      int    `json:"sessions"`
	PercentOfBase int    `json:"percentOfBase"`
	PercentOfPrev int    `json:"percentOfPrevious"`
}

// Report lists every stage in funnel order. The base is the first stage, or
// the largest stage when nobody has reached the first yet.
func (f *Funnel) Report() []StageCount {
	counts := f.repo.Counts()
	var base int
	if len(f.order) > 0 {
		base = counts[f.order[0]]
	}
	if base == 0 {
		for _, s := range f.order {
			if counts[s] > base {
				base = counts[s]
			}
		}
	}

	out := make([]StageCount, 0, len(f.order))
	var prev int
	for i, s := range f.order {
		c := counts[s]
		relPrev := 0
		if i == 0 {
			relPrev = 100
		} else if prev > 0 {
			relPrev = percent(c, prev)
		}
		out = append(out, StageCount{
			Stage:         s,
			Label:         stageLabel(s),
			Sessions:      c,
			PercentOfBase: percent(c, base),
			PercentOfPrev: relPrev,
		})
		prev = c
	}
	return out
}

// Summary renders the report as text bars.
func (f *Funnel) Summary() string {
	report := f.Report()
	base := 0
	for _, r := range report {
		if r.Sessions > base {
			base = r.Sessions
		}
	}
	if base == 0 {
		return "No funnel data yet"
	}
	var b strings.Builder
	b.WriteString("Funnel by stage:\n")
	for _, r := range report {
		fmt.Fprintf(&b, "- %s: %d | %3d%% of base | %3d%% of previous %s\n",
			r.Label, r.Sessions, r.PercentOfBase, r.PercentOfPrev, bar20(r.Sessions, base))
	}
	return b.String()
}

// RenderPNG draws the funnel as a bar chart.
func (f *Funnel) RenderPNG(w io.Writer) error {
	report := f.Report()
	bars := make([]chart.Value, 0, len(report))
	maxVal := 0
	for _, r := range report {
		if r.Sessions > maxVal {
			maxVal = r.Sessions
		}
		bars = append(bars, chart.Value{Value: float64(r.Sessions), Label: r.Label})
	}
	// go-chart rejects an empty value range.
	yMax := float64(maxVal)
	if yMax <= 0 {
		yMax = 1
	}
	graph := chart.BarChart{
		Width:    1100,
		Height:   600,
		BarWidth: 48,
		Background: chart.Style{Padding: chart.Box{
			Top:    50,
			Left:   16,
			Right:  16,
			Bottom: 0,
		}},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}
	return graph.Render(chart.PNG, w)
}

func percent(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (100 * a) / b
}

func bar20(val, max int) string {
	if max <= 0 {
		return ""
	}
	filled := (20 * val) / max
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}

func stageLabel(s Stage) string {
	switch s {
	case StageChat:
		return "Chat"
	case StageFormStarted:
		return "Form started"
	case StageLeadCompleted:
		return "Form completed"
	case StageLeadSaved:
		return "Lead saved"
	}
	var n int
	if _, err := fmt.Sscanf(string(s), "step_%d", &n); err == nil {
		return fmt.Sprintf("Answer %d", n)
	}
	return string(s)
}
