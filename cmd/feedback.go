package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <plan> <text...>",
	Short: "Leave feedback on a plan or one of its modules",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		module, _ := cmd.Flags().GetString("module")
		rating, _ := cmd.Flags().GetInt("rating")

		rt, err := newRuntime(cmd)
		if err != nil {
			return describe(err)
		}
		defer rt.close()

		rec, err := rt.coach.SaveFeedback(cmd.Context(), rt.userID, args[0], module, strings.Join(args[1:], " "), rating)
		if err != nil {
			return describe(err)
		}
		mood := map[int]string{-1: "negative", 0: "neutral", 1: "positive"}[rec.Sentiment]
		fmt.Fprintf(cmd.OutOrStdout(), "Feedback saved (%s).\n", mood)
		return nil
	},
}

func init() {
	feedbackCmd.Flags().String("module", "", "Module the feedback is about")
	feedbackCmd.Flags().Int("rating", 0, "Rating from 1 to 5")
}
