package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docgate/internal/entity"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent gate decisions from the audit database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Audit.DSN == "" {
			return errors.New("no audit database configured (set --audit-dsn or audit.dsn)")
		}
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		requestID, _ := cmd.Flags().GetString("request")
		var events []entity.GateEvent
		if requestID != "" {
			events, err = a.Audit.ByRequest(cmd.Context(), requestID)
		} else {
			events, err = a.Audit.Recent(cmd.Context(), limit)
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tREQUEST\tOP\tALLOWED\tSTAGE\tPATH")
		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
				e.CreatedAt.Local().Format(time.DateTime), e.RequestID, e.Op, e.Allowed, e.Stage, e.Path)
		}
		return w.Flush()
	},
}

func init() {
	auditCmd.Flags().Int("limit", 50, "number of events to show")
	auditCmd.Flags().String("request", "", "show the events of one request id")
	rootCmd.AddCommand(auditCmd)
}
