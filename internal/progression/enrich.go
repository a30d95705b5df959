package progression

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"text/template"

	"github.com/abhisek/pathforge/internal/cascade"
	"github.com/abhisek/pathforge/internal/curriculum"
	"github.com/abhisek/pathforge/internal/llm"
	"github.com/abhisek/pathforge/internal/recovery"
)

// HarderThreshold is the minimum score at which enrichment may raise the
// next module's difficulty.
const HarderThreshold = 60

// EnrichInput is what an Enricher sees.
type EnrichInput struct {
	Module     curriculum.Module
	Submission Submission
	Result     Result
}

// Enrichment is a secondary judgment on an evaluation.
type Enrichment struct {
	NextModuleDifficulty NextDifficulty `json:"nextModuleDifficulty"`
	DetailedFeedback     string         `json:"detailedFeedback"`
	Recommendations      []string       `json:"recommendations"`
}

// Enricher produces a secondary judgment.
type Enricher interface {
	Enrich(ctx context.Context, in EnrichInput) (Enrichment, error)
}

// Apply merges enr into res. The deterministic banding stays
// authoritative: the only difficulty change accepted is Same to Harder,
// and only when the unrounded score reaches HarderThreshold.
func Apply(res Result, enr Enrichment) Result {
	if enr.NextModuleDifficulty == Harder && res.NextModuleDifficulty == Same && res.score() >= HarderThreshold {
		res.NextModuleDifficulty = Harder
	}
	if fb := strings.TrimSpace(enr.DetailedFeedback); fb != "" {
		res.DetailedFeedback = fb
	}
	if recs := trimmed(enr.Recommendations); len(recs) > 0 {
		res.Recommendations = recs
	}
	res.Enriched = true
	return res
}

// EnrichmentSchema constrains recovered enrichment payloads.
var EnrichmentSchema = &llm.Schema{
	Name:        "evaluation-enrichment",
	Description: "Secondary judgment on a scored assessment",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"nextModuleDifficulty": map[string]any{
				"type": "string",
				"enum": []any{"easier", "same", "harder"},
			},
			"detailedFeedback": map[string]any{"type": "string"},
			"recommendations": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"nextModuleDifficulty"},
	},
}

// errNoEnrichment marks a cascade fallback; the engine keeps its
// deterministic result.
var errNoEnrichment = errors.New("no enrichment available")

// CascadeEnricher asks the model cascade for a judgment.
type CascadeEnricher struct {
	cascade *cascade.Cascade
}

// NewCascadeEnricher creates an Enricher backed by c.
func NewCascadeEnricher(c *cascade.Cascade) *CascadeEnricher {
	return &CascadeEnricher{cascade: c}
}

// Enrich implements Enricher. Model failures surface as errors so the
// engine can log them and fall back.
func (c *CascadeEnricher) Enrich(ctx context.Context, in EnrichInput) (Enrichment, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeEvaluate)

	var buf bytes.Buffer
	if err := enrichTemplate.Execute(&buf, in); err != nil {
		return Enrichment{}, err
	}

	out, err := cascade.Resolve(ctx, c.cascade,
		cascade.Prompt{
			System: enrichSystemPrompt,
			User:   buf.String(),
			JSON:   true,
			Check:  cascade.ShapeCheck{MinLength: 20, RequiredMarkers: []string{cascade.Marker("nextModuleDifficulty")}},
		},
		parseEnrichment,
		func(error) Enrichment { return Enrichment{} },
	)
	if err != nil {
		return Enrichment{}, err
	}
	if out.Fallback {
		return Enrichment{}, errors.Join(errNoEnrichment, out.Reason)
	}
	return out.Value, nil
}

func parseEnrichment(text string) (Enrichment, error) {
	var enr Enrichment
	res, err := recovery.Strict.Decode(text, &enr)
	if err != nil {
		return Enrichment{}, err
	}
	if err := llm.ValidateValue(EnrichmentSchema, res.Value); err != nil {
		return Enrichment{}, err
	}
	return enr, nil
}

func trimmed(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

const enrichSystemPrompt = `You are a learning coach reviewing a learner's assessment. Decide whether the next module should be easier, the same or harder, and give short, specific feedback. Reply with JSON only.`

var enrichTemplate = template.Must(template.New("enrich").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`Module: {{.Module.Title}}
Description: {{.Module.Description}}
Score: {{.Result.PerformanceScore}}/100 (understanding level {{.Result.UnderstandingLevel}}/5)
Struggled with: {{if .Result.StruggledConcepts}}{{join .Result.StruggledConcepts ", "}}{{else}}nothing{{end}}
Strengths: {{if .Result.Strengths}}{{join .Result.Strengths ", "}}{{else}}none recorded{{end}}
{{with .Submission.Task}}
Practical task response:
{{.Response}}
{{end}}{{with .Submission.Feedback}}
Learner feedback: {{.}}
{{end}}
Answers:
{{range .Submission.Answers}}- {{.Question}} | expected: {{.CorrectAnswer}} | given: {{.UserAnswer}} | {{.Difficulty}}
{{end}}
Respond in this JSON format:
{"nextModuleDifficulty": "same", "detailedFeedback": "...", "recommendations": ["..."]}`))
