package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docgate/internal/app"
)

var exportCmd = &cobra.Command{
	Use:   "export <path-or-pattern>...",
	Short: "Tabulate the fields of many documents in an XLSX workbook",
	Long: `Export converts every selected document and writes one workbook with a
Fields sheet, a Line Items sheet and an Errors sheet for documents that could
not be converted. An argument naming an existing file selects that file; any
other argument is a find pattern. The workbook must be saved inside the roots.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return errors.New("--out is required")
		}
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		paths, err := selectDocuments(cmd, a, args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return errors.New("no documents matched")
		}

		sum, err := a.Export.Export(cmd.Context(), a.Policy.Load(), paths, out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s: %d documents, %d fields, %d line items, %d failures\n",
			sum.SavedTo, sum.Documents, sum.Fields, sum.LineItems, sum.Failures)
		return nil
	},
}

func selectDocuments(cmd *cobra.Command, a *app.App, args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	for _, arg := range args {
		if st, err := os.Stat(arg); err == nil && st.Mode().IsRegular() {
			add(arg)
			continue
		}
		found, err := a.Pipeline.FindDocuments(cmd.Context(), a.Policy.Load(), arg)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}
	return out, nil
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "workbook to write (.xlsx, inside the roots)")
	rootCmd.AddCommand(exportCmd)
}
