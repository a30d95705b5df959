package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathforge/internal/curriculum"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate and manage learning plans",
}

var planGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new learning plan",
	Long: `Generate a plan for the given goal. The new plan becomes the only active
plan of the user. When no model answers usefully an offline template plan
is stored instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		var p curriculum.Profile
		p.Goal, _ = f.GetString("goal")
		p.DailyTime, _ = f.GetString("pace")
		p.Duration, _ = f.GetString("duration")
		p.Style, _ = f.GetString("style")
		p.TargetLevel, _ = f.GetString("level")

		rt, err := newRuntime(cmd)
		if err != nil {
			return describe(err)
		}
		defer rt.close()

		plan, err := rt.coach.GeneratePlan(cmd.Context(), rt.userID, p)
		if err != nil {
			return describe(err)
		}
		return showPlan(cmd, plan)
	},
}

var planRegenerateCmd = &cobra.Command{
	Use:   "regenerate <plan>",
	Short: "Replace a plan using its feedback and completed modules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return describe(err)
		}
		defer rt.close()

		plan, err := rt.coach.RegeneratePlan(cmd.Context(), rt.userID, args[0])
		if err != nil {
			return describe(err)
		}
		return showPlan(cmd, plan)
	},
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the user's plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		activeOnly, _ := cmd.Flags().GetBool("active")

		rt, err := newRuntime(cmd)
		if err != nil {
			return describe(err)
		}
		defer rt.close()

		plans, err := rt.coach.ListPlans(cmd.Context(), rt.userID, activeOnly)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), plans)
		}
		if len(plans) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No plans yet. Run `pathforge plan generate`.")
			return nil
		}
		for _, p := range plans {
			renderPlanRow(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show <plan>",
	Short: "Show a plan and the state of its modules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return describe(err)
		}
		defer rt.close()

		plan, err := rt.coach.GetPlan(cmd.Context(), rt.userID, args[0])
		if err != nil {
			return err
		}
		return showPlan(cmd, plan)
	},
}

var planDeactivateCmd = &cobra.Command{
	Use:   "deactivate <plan>",
	Short: "Mark a plan inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return describe(err)
		}
		defer rt.close()

		if err := rt.coach.DeactivatePlan(cmd.Context(), rt.userID, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Plan %s deactivated.\n", args[0])
		return nil
	},
}

func showPlan(cmd *cobra.Command, plan *curriculum.Plan) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), plan)
	}
	renderPlan(cmd.OutOrStdout(), plan)
	return nil
}

func init() {
	f := planGenerateCmd.Flags()
	f.String("goal", "", "What the learner wants to achieve (required)")
	f.String("pace", "", "Daily study time, e.g. 30min or 1hour (required)")
	f.String("duration", "", "Plan length: 2weeks, 4weeks, 8weeks or 12weeks (required)")
	f.String("style", "", "Learning style: visual, practical or reading")
	f.String("level", "beginner", "Target level: beginner, intermediate or advanced")
	_ = planGenerateCmd.MarkFlagRequired("goal")

	planListCmd.Flags().Bool("active", false, "Only show the active plan")

	planCmd.PersistentFlags().Bool("json", false, "Print JSON instead of formatted output")

	planCmd.AddCommand(planGenerateCmd)
	planCmd.AddCommand(planRegenerateCmd)
	planCmd.AddCommand(planListCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planDeactivateCmd)
}
