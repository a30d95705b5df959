package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathforge/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "pathforge",
	Short: "Adaptive micro-learning plans from unreliable models",
	Long: `pathforge builds personalized learning plans, module content and
evaluations with a cascade of generative models. When every model fails
it falls back to deterministic plans and templated content.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Cancelling ctx aborts in-flight model
// calls.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides PATHFORGE_DB)")
	pf.String("cascade", "", "YAML cascade policy file (overrides PATHFORGE_CASCADE_FILE)")
	pf.String("log-mode", "", "Log encoder: dev or prod (overrides PATHFORGE_LOG_MODE)")
	pf.String("user", "local", "User the command acts for")
	pf.String("token", "", "Bearer token; minted for --user when empty")
	pf.Bool("trace", false, "Write OpenTelemetry spans to stderr")
	pf.Bool("metrics", false, "Print pipeline counters after the command")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db (highest priority),
// then PATHFORGE_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, fromEnv string) (string, error) {
	p, _ := cmd.Flags().GetString("db")
	if p == "" {
		p = fromEnv
	}
	if p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
