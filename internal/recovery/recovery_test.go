package recovery

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestRepair_ValidJSONIsIdempotent(t *testing.T) {
	inputs := []string{
		`{"a":1,"b":[1,2,{"c":"}{"}]}`,
		`[1, "two", null, true]`,
		`"just a string"`,
		`  {"padded": true}  `,
	}
	for _, in := range inputs {
		got, err := Repair(in)
		require.NoError(t, err, in)
		assert.Equal(t, decodeJSON(t, in), got, in)

		res, err := Strict.Run(in)
		require.NoError(t, err)
		assert.Equal(t, StageDirect, res.Stage)

		// Re-repairing the serialized result is stable.
		b, err := json.Marshal(got)
		require.NoError(t, err)
		again, err := Repair(string(b))
		require.NoError(t, err)
		assert.Equal(t, got, again)
	}
}

func TestRepair_StripsFencesAndProse(t *testing.T) {
	raw := "Here is your plan:\n```json\n{\"title\": \"Go {basics}\", \"n\": 2}\n```\nHope this helps! {not json}"

	res, err := Strict.Run(raw)
	require.NoError(t, err)
	assert.Equal(t, "framing", res.Stage)
	assert.Equal(t, map[string]any{"title": "Go {basics}", "n": float64(2)}, res.Value)
}

func TestRepair_ClosesTruncatedDocuments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"one brace", `{"a": 1`, `{"a": 1}`},
		{"two levels", `{"a": {"b": 2`, `{"a": {"b": 2}}`},
		{"three levels", `{"a": {"b": [1, 2`, `{"a": {"b": [1, 2]}}`},
		{"open string", `{"title": "Intro", "description": "Learn the bas`, `{"title": "Intro", "description": "Learn the bas"}`},
		{"after comma", `{"a": 1, "b": [1, 2,`, `{"a": 1, "b": [1, 2]}`},
		{"after colon", `{"a": 1, "b":`, `{"a": 1, "b": null}`},
		{"dangling key", `{"a": 1, "descr`, `{"a": 1}`},
		{"partial literal", `{"a":tr`, `{"a": null}`},
		{"partial number", `{"a":1.`, `{"a": null}`},
		{"partial array item", `{"a": [1, 2, fa`, `{"a": [1, 2]}`},
		{"complete number kept", `{"a": 1.5e3`, `{"a": 1500}`},
		{"trailing backslash", `{"a":"x\`, `{"a": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Repair(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, decodeJSON(t, tt.want), got)
		})
	}
}

func TestRepair_SyntaxDamage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"trailing commas", `{"a": [1, 2,], "b": {"c": 3,},}`, `{"a": [1, 2], "b": {"c": 3}}`},
		{"bare keys", `{title: "x", count: 2, nested: {ok: true}}`, `{"title": "x", "count": 2, "nested": {"ok": true}}`},
		{"missing commas", "{\n  \"a\": 1\n  \"b\": \"two\"\n  \"c\": [1]\n  \"d\": {}\n}", `{"a": 1, "b": "two", "c": [1], "d": {}}`},
		{"comma inside string untouched", `{"note": "a, }", "x": 1,}`, `{"note": "a, }", "x": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Strict.Run(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "syntax", res.Stage)
			assert.Equal(t, decodeJSON(t, tt.want), res.Value)
		})
	}
}

func TestRepairLax_AggressiveStage(t *testing.T) {
	raw := `{'title': 'Go basics', kind: lesson, 'done': 'false', count: '3', note: don't panic}`

	_, err := Repair(raw)
	var rerr *RecoveryError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "syntax", rerr.Stage)

	res, err := Lax.Run(raw)
	require.NoError(t, err)
	assert.Equal(t, "aggressive", res.Stage)
	assert.Equal(t, map[string]any{
		"title": "Go basics",
		"kind":  "lesson",
		"done":  false,
		"count": float64(3),
		"note":  "don't panic",
	}, res.Value)
}

func TestRepair_Unrecoverable(t *testing.T) {
	for _, raw := range []string{"", "   ", "I cannot help with that."} {
		_, err := RepairLax(raw)
		var rerr *RecoveryError
		require.True(t, errors.As(err, &rerr), "input %q", raw)
		assert.NotEmpty(t, rerr.Stage)
	}
}

func TestEngine_Stages(t *testing.T) {
	assert.Equal(t, []string{"direct", "framing", "syntax"}, Strict.Stages())
	assert.Equal(t, []string{"direct", "framing", "syntax", "aggressive"}, Lax.Stages())
}

func TestEngine_Decode(t *testing.T) {
	var out struct {
		Title   string   `json:"title"`
		Modules []string `json:"modules"`
	}
	res, err := Strict.Decode("```json\n{\"title\": \"Plan\", \"modules\": [\"a\", \"b\",\n", &out)
	require.NoError(t, err)
	assert.Equal(t, "syntax", res.Stage)
	assert.Equal(t, "Plan", out.Title)
	assert.Equal(t, []string{"a", "b"}, out.Modules)
}

func TestBalance(t *testing.T) {
	assert.Equal(t, `{"a": "}"}`, Balance(`{"a": "}"} trailing`))
	assert.Equal(t, `{"a": "\"}"}`, Balance(`{"a": "\"}`))
	assert.Equal(t, "no json", Balance("no json"))
	assert.Equal(t, `{"a":}`, Balance(`{"a":tr`))
	assert.Equal(t, `{"a":true}`, Balance(`{"a":true`))
	assert.Equal(t, `{"a":"x"}`, Balance(`{"a":"x\`))
}
