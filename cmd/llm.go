package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathforge/internal/cascade"
	"github.com/abhisek/pathforge/internal/llm"
	"github.com/abhisek/pathforge/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		failed, _ := cmd.Flags().GetBool("failed")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(),
			store.QueryOpts{Limit: limit, Purpose: purpose, Failed: failed})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(w, hintStyle.Render("no model calls recorded"))
			return nil
		}
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%-5s  %-16s  %-15s  %-28s  %6s  %6s  %7s  %s",
			"Seq", "When", "Purpose", "Model", "In", "Out", "Ms", "Result")))
		for _, e := range events {
			fmt.Fprintf(w, "%-5d  %-16s  %-15s  %-28s  %6d  %6d  %7d  %s\n",
				e.Sequence, e.Timestamp.Local().Format("01-02 15:04:05"), e.Purpose,
				truncate(e.Model, 28), e.InputTokens, e.OutputTokens, e.LatencyMs, eventResult(e))
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full transcript of one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("event id %q: %w", args[0], err)
		}
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		w := cmd.OutOrStdout()
		rows := [][2]string{
			{"Sequence", strconv.FormatInt(e.Sequence, 10)},
			{"Time", e.Timestamp.Local().Format(time.DateTime)},
			{"Provider", e.Provider},
			{"Model", e.Model},
			{"Purpose", e.Purpose},
			{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
			{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
			{"Result", eventResult(*e)},
		}
		if e.ErrorMessage != "" {
			rows = append(rows, [2]string{"Error", e.ErrorMessage})
		}
		for _, r := range rows {
			fmt.Fprintf(w, "%s %s\n", hintStyle.Render(fmt.Sprintf("%-9s", r[0]+":")), r[1])
		}
		for _, part := range [][2]string{{"request", e.RequestBody}, {"response", e.ResponseBody}} {
			fmt.Fprintln(w)
			fmt.Fprintln(w, titleStyle.Render(part[0]))
			fmt.Fprintln(w, orDash(part[1]))
		}
		return nil
	},
}

// eventResult renders a call outcome: a check mark or the failure class.
func eventResult(e store.LLMEvent) string {
	if e.Success {
		return doneStyle.Render("✓")
	}
	return warnStyle.Render("✗ " + orDash(e.Failure))
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		stats, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		if len(stats) == 0 {
			fmt.Fprintln(w, "No LLM usage recorded yet.")
			return nil
		}

		// Usage by purpose.
		fmt.Fprintln(w, "Usage by Purpose")
		fmt.Fprintln(w, strings.Repeat("\u2500", 72))
		fmt.Fprintf(w, "%-16s  %6s  %10s  %10s  %10s  %8s\n",
			"Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
		fmt.Fprintln(w, strings.Repeat("\u2500", 72))

		var totalCalls, totalIn, totalOut int
		for _, st := range stats {
			total := st.InputTokens + st.OutputTokens
			fmt.Fprintf(w, "%-16s  %6d  %10d  %10d  %10d  %8d\n",
				st.Purpose, st.Calls, st.InputTokens, st.OutputTokens, total, st.AvgLatencyMs)
			totalCalls += st.Calls
			totalIn += st.InputTokens
			totalOut += st.OutputTokens
		}

		fmt.Fprintln(w, strings.Repeat("\u2500", 72))
		fmt.Fprintf(w, "%-16s  %6d  %10d  %10d  %10d\n",
			"TOTAL", totalCalls, totalIn, totalOut, totalIn+totalOut)

		// Cost by model.
		modelUsage, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		if len(modelUsage) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Estimated Cost (USD)")
			fmt.Fprintln(w, strings.Repeat("\u2500", 72))
			fmt.Fprintf(w, "%-32s  %6s  %10s  %10s  %10s\n",
				"Model", "Calls", "Input", "Output", "Cost")
			fmt.Fprintln(w, strings.Repeat("\u2500", 72))

			var totalCost float64
			var unknownModels []string
			for _, mu := range modelUsage {
				cost := llm.LookupCost(mu.Model)
				if cost == nil {
					unknownModels = append(unknownModels, mu.Model)
					fmt.Fprintf(w, "%-32s  %6d  %10d  %10d  %10s\n",
						truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, "?")
					continue
				}
				c := cost.Cost(mu.InputTokens, mu.OutputTokens)
				totalCost += c
				fmt.Fprintf(w, "%-32s  %6d  %10d  %10d  %9s\n",
					truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, formatCost(c))
			}

			fmt.Fprintln(w, strings.Repeat("\u2500", 72))
			label := "TOTAL"
			if len(unknownModels) > 0 {
				label = "TOTAL (partial)"
			}
			fmt.Fprintf(w, "%-32s  %6s  %10s  %10s  %9s\n",
				label, "", "", "", formatCost(totalCost))

			if len(unknownModels) > 0 {
				fmt.Fprintf(w, "\nPricing unavailable for: %s\n", strings.Join(unknownModels, ", "))
			}
		}

		return nil
	},
}

var llmPolicyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Show the model cascade in the order it is tried",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		spec := cascade.DefaultPolicySpec(cfg.LLM)
		source := "discovered API keys"
		if cfg.CascadeFile != "" {
			if spec, err = cascade.LoadPolicyFile(cfg.CascadeFile); err != nil {
				return err
			}
			source = cfg.CascadeFile
		}

		fmt.Fprintln(w, hintStyle.Render("policy from "+source))
		for i, a := range spec.Attempts {
			status := doneStyle.Render("ready")
			if err := cfg.LLM.ValidateProvider(a.Provider); err != nil {
				status = warnStyle.Render("skipped: " + err.Error())
			}
			fmt.Fprintf(w, "%d. %-24s  %-10s  %-28s  %-6s  %s\n",
				i+1, truncate(a.Name, 24), a.Provider, truncate(orDash(a.Model), 28), orDash(a.Timeout), status)
		}
		if c := spec.Check; !c.IsZero() {
			fmt.Fprintf(w, "shape check: min length %d, markers %s\n", c.MinLength, strings.Join(c.RequiredMarkers, " "))
		}
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (plan, plan-regenerate, content, evaluate)")
	llmListCmd.Flags().Bool("failed", false, "Only show failed calls")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
	llmCmd.AddCommand(llmPolicyCmd)
}
