package cmd

import (
	"github.com/spf13/cobra"
)

var contentCmd = &cobra.Command{
	Use:   "content <plan> <module>",
	Short: "Generate or show the content of a module",
	Long: `Print the four content sections of a module. Sections already generated
for the module are reused; missing ones are generated, pitched at the level
suggested by the evaluation of the previous module.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return describe(err)
		}
		defer rt.close()

		sections, err := rt.coach.GenerateModuleContent(cmd.Context(), rt.userID, args[0], args[1])
		if err != nil {
			return describe(err)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), sections)
		}
		for _, s := range sections {
			renderSection(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

func init() {
	contentCmd.Flags().Bool("json", false, "Print JSON instead of formatted output")
}
