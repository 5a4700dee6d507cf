package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "Print the allowed root directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		for _, r := range a.Pipeline.ListRoots(a.Policy.Load()) {
			fmt.Fprintln(cmd.OutOrStdout(), r)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rootsCmd)
}
