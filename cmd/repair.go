package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathforge/internal/recovery"
)

var repairCmd = &cobra.Command{
	Use:   "repair [file|-]",
	Short: "Recover JSON from malformed model output",
	Long: `Run the structured output recovery engine over a file (or stdin) and
print the recovered value along with the stage that produced it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		engine := recovery.Strict
		if lax, _ := cmd.Flags().GetBool("lax"); lax {
			engine = recovery.Lax
		}

		res, err := engine.Run(string(raw))
		if err != nil {
			var re *recovery.RecoveryError
			if errors.As(err, &re) {
				fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("unrecoverable after stage "+re.Stage))
				fmt.Fprintln(cmd.ErrOrStderr(), hintStyle.Render(re.Text))
			}
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), hintStyle.Render("recovered at stage "+res.Stage))
		return printJSON(cmd.OutOrStdout(), res.Value)
	},
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}

func init() {
	repairCmd.Flags().Bool("lax", false, "Also run the aggressive stage (single quotes, bare values)")
}
