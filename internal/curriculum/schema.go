package curriculum

import "github.com/abhisek/pathforge/internal/llm"

// PlanSchema is the minimum a recovered plan candidate must satisfy
// before normalization. It is deliberately loose: the normalizer fills
// everything else.
var PlanSchema = &llm.Schema{
	Name:        "learning-plan",
	Description: "A learning plan with an ordered list of modules",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"modules": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": []any{"object", "string"},
				},
			},
		},
		"required": []any{"modules"},
	},
}

// planCheck rejects responses that cannot hold a plan.
var planCheck = cascadeCheck(50, "modules")
