package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/async"
	"github.com/joseph-ayodele/docgate/internal/pipeline"
	"github.com/joseph-ayodele/docgate/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Convert documents as they appear under the roots",
	Long: `Watch follows every root recursively and converts each supported document
that is created or changed, saving the result next to it as <file>.md,
<file>.txt or <file>.json. Its own outputs are ignored. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		f, ok := constants.ParseOutputFormat(format)
		if !ok {
			return fmt.Errorf("unknown format %q (want one of %v)", format, constants.FormatNames())
		}
		initial, _ := cmd.Flags().GetBool("initial")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		policy := a.Policy.Load()
		events, errs, err := watch.Start(ctx, watch.Config{
			Policy:      policy,
			InitialScan: initial,
			Debounce:    debounce,
			Ignore:      func(p string) bool { return watch.IsOutput(p, f) },
			Logger:      logger,
		})
		if err != nil {
			return err
		}

		q := a.Queue()
		defer q.Shutdown(context.Background())
		logger.Info("watching", "roots", policy.Roots(), "format", f)

		for {
			select {
			case p, ok := <-events:
				if !ok {
					return nil
				}
				err := q.Enqueue(ctx, async.Job{
					Policy: policy,
					Request: pipeline.Request{
						Path:        p,
						Format:      string(f),
						Destination: watch.OutputPath(p, f),
					},
					Done: func(res *pipeline.Result, err error) {
						if err == nil {
							fmt.Fprintln(cmd.OutOrStdout(), res.SavedTo)
						}
					},
				})
				if err != nil {
					return nil
				}
			case err, ok := <-errs:
				if ok {
					logger.Warn("watch error", "error", err)
				}
			case <-ctx.Done():
				return nil
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringP("format", "f", string(constants.FormatMarkdown), "output format: text, markdown or json")
	watchCmd.Flags().Bool("initial", false, "also convert documents already present")
	watchCmd.Flags().Duration("debounce", 500*time.Millisecond, "quiet period before a changed file is converted")
	rootCmd.AddCommand(watchCmd)
}
