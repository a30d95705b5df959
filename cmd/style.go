package cmd

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathforge/internal/content"
	"github.com/abhisek/pathforge/internal/curriculum"
	"github.com/abhisek/pathforge/internal/progression"
)

var (
	primary = lipgloss.Color("#8B5CF6")
	success = lipgloss.Color("#22C55E")
	warning = lipgloss.Color("#F97316")
	dim     = lipgloss.Color("#94A3B8")
	border  = lipgloss.Color("#334155")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(primary)
	hintStyle   = lipgloss.NewStyle().Foreground(dim).Italic(true)
	doneStyle   = lipgloss.NewStyle().Foreground(success)
	activeStyle = lipgloss.NewStyle().Foreground(primary).Bold(true)
	lockedStyle = lipgloss.NewStyle().Foreground(dim)
	warnStyle   = lipgloss.NewStyle().Foreground(warning)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1)
)

// renderPlan prints a plan with one line per module.
func renderPlan(w io.Writer, p *curriculum.Plan) {
	header := titleStyle.Render(p.Title)
	if !p.Active {
		header += " " + hintStyle.Render("(inactive)")
	}
	fmt.Fprintln(w, header)

	meta := fmt.Sprintf("id %s  ·  goal %s  ·  %s, %s  ·  %s level", p.ID, p.Goal, p.Pace, p.Duration, orDash(p.TargetLevel))
	if p.Synthetic {
		meta += "  ·  " + warnStyle.Render("offline template")
	} else if p.Model != "" {
		meta += "  ·  model " + p.Model
	}
	fmt.Fprintln(w, hintStyle.Render(meta))
	fmt.Fprintln(w)

	for _, m := range p.Modules {
		var mark string
		style := lockedStyle
		switch progression.StateOf(m) {
		case progression.Completed:
			mark, style = "✓", doneStyle
		case progression.Active:
			mark, style = "▶", activeStyle
		default:
			mark = "·"
		}
		fmt.Fprintf(w, "%s %s %s %s\n",
			style.Render(mark),
			style.Render(fmt.Sprintf("%2s.", m.ID)),
			style.Render(m.Title),
			hintStyle.Render("["+string(m.Kind)+"]"))
	}
}

// renderPlanRow prints a plan as one line of a listing.
func renderPlanRow(w io.Writer, p *curriculum.Plan) {
	var done int
	for _, m := range p.Modules {
		if m.Completed {
			done++
		}
	}
	state := lockedStyle.Render("inactive")
	if p.Active {
		state = activeStyle.Render("active  ")
	}
	fmt.Fprintf(w, "%-36s  %s  %2d/%-2d  %s\n", p.ID, state, done, len(p.Modules), p.Title)
}

// renderSection prints one content section inside a card.
func renderSection(w io.Writer, s content.Section) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(sectionTitle(s.Kind)))
	if s.Fallback() {
		b.WriteString(" " + warnStyle.Render("(template)"))
	}
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(s.Content))

	if len(s.KeyPoints) > 0 {
		b.WriteString("\n\nKey points:")
		for _, k := range s.KeyPoints {
			b.WriteString("\n  • " + k)
		}
	}
	if t := s.Task; t != nil {
		fmt.Fprintf(&b, "\n\nTask: %s\n%s", t.Title, t.Description)
		for i, step := range t.Instructions {
			fmt.Fprintf(&b, "\n  %d. %s", i+1, step)
		}
	}
	for i, q := range s.Questions {
		fmt.Fprintf(&b, "\n  Q%d. %s", i+1, q.Question)
	}
	for _, v := range s.Videos {
		b.WriteString("\n  ▷ " + v.Title)
	}
	fmt.Fprintln(w, cardStyle.Render(b.String()))
}

// renderResult prints an evaluation result.
func renderResult(w io.Writer, r progression.Result) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Score %d/100  ·  level %d/5  ·  next: %s",
		r.PerformanceScore, r.UnderstandingLevel, r.NextModuleDifficulty)))
	if r.DetailedFeedback != "" {
		fmt.Fprintln(w, r.DetailedFeedback)
	}
	if len(r.Strengths) > 0 {
		fmt.Fprintln(w, doneStyle.Render("Strengths: "+strings.Join(r.Strengths, ", ")))
	}
	if len(r.StruggledConcepts) > 0 {
		fmt.Fprintln(w, warnStyle.Render("Review: "+strings.Join(r.StruggledConcepts, ", ")))
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintln(w, "  • "+rec)
	}
	if r.Unlocked != "" {
		fmt.Fprintln(w, activeStyle.Render("Unlocked module "+r.Unlocked))
	}
}

func sectionTitle(k content.Kind) string {
	switch k {
	case content.KindIntroduction:
		return "Introduction"
	case content.KindDetailedExplanation:
		return "In depth"
	case content.KindPracticalTask:
		return "Practice"
	case content.KindSummaryEvaluation:
		return "Summary"
	}
	return string(k)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
