package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docgate/internal/locate"
)

var findCmd = &cobra.Command{
	Use:   "find [pattern]",
	Short: "Find supported documents under the roots",
	Long: `Find lists documents whose name matches pattern. A pattern with glob
characters (* ? [ {) is a doublestar glob, matched against the path relative to
its root when it contains '/', otherwise against the file name. Any other
pattern is a case-insensitive substring. No pattern lists everything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var pattern string
		if len(args) == 1 {
			pattern = args[0]
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		hidden, _ := cmd.Flags().GetBool("hidden")
		all, _ := cmd.Flags().GetBool("all")

		loc := locate.NewLocator(a.Policy.Load(), logger,
			locate.WithSkipHidden(!hidden),
			locate.WithSupportedOnly(!all),
		)
		out := cmd.OutOrStdout()
		if !asJSON {
			for p := range loc.Paths(cmd.Context(), pattern) {
				fmt.Fprintln(out, p)
			}
			return cmd.Context().Err()
		}
		matches := []locate.Match{}
		for m := range loc.Find(cmd.Context(), pattern) {
			matches = append(matches, m)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	},
}

func init() {
	findCmd.Flags().Bool("json", false, "print matches as JSON")
	findCmd.Flags().Bool("hidden", false, "include dot-files and dot-directories")
	findCmd.Flags().Bool("all", false, "include files no backend can convert")
	rootCmd.AddCommand(findCmd)
}
