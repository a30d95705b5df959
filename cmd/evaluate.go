package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathforge/internal/progression"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <plan> <module>",
	Short: "Score a module assessment and unlock the next module",
	Long: `Score the answers in --answers (a JSON file, or - for stdin) and complete
the module. The file holds {"answers": [...], "task": {...}, "feedback": "..."}
where each answer has question, userAnswer, correctAnswer, concept and
difficulty (easy, medium or hard).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("answers")
		sub, err := readSubmission(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}

		rt, err := newRuntime(cmd)
		if err != nil {
			return describe(err)
		}
		defer rt.close()

		res, err := rt.coach.EvaluateProgress(cmd.Context(), rt.userID, args[0], args[1], sub)
		if err != nil {
			return describe(err)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		renderResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func readSubmission(stdin io.Reader, path string) (progression.Submission, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return progression.Submission{}, fmt.Errorf("open answers: %w", err)
		}
		defer f.Close()
		r = f
	}
	var sub progression.Submission
	if err := json.NewDecoder(r).Decode(&sub); err != nil {
		return progression.Submission{}, fmt.Errorf("decode answers: %w", err)
	}
	return sub, nil
}

func init() {
	evaluateCmd.Flags().String("answers", "", "JSON submission file, - for stdin (required)")
	evaluateCmd.Flags().Bool("json", false, "Print JSON instead of formatted output")
	_ = evaluateCmd.MarkFlagRequired("answers")
}
