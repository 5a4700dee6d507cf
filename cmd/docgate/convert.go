package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/app"
	"github.com/joseph-ayodele/docgate/internal/async"
	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/pipeline"
	"github.com/joseph-ayodele/docgate/internal/watch"
)

var convertCmd = &cobra.Command{
	Use:   "convert <path>...",
	Short: "Convert documents to text, markdown or json",
	Long: `Convert extracts the text of a PDF, image or text document, pulls out
receipt and invoice fields, and renders the result.

With one path the output goes to stdout, or to --out. With several paths, or
with --save, every document is converted in the background worker pool and
saved next to its source as <file>.md, <file>.txt or <file>.json.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		save, _ := cmd.Flags().GetBool("save")
		f, ok := constants.ParseOutputFormat(format)
		if !ok {
			return fmt.Errorf("unknown format %q (want one of %v)", format, constants.FormatNames())
		}
		if out != "" && (len(args) > 1 || save) {
			return errors.New("--out takes a single input and cannot be combined with --save")
		}

		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) > 1 || save {
			return convertBatch(cmd, a, args, f)
		}

		res, err := a.Pipeline.Convert(cmd.Context(), a.Policy.Load(), pipeline.Request{
			Path:        args[0],
			Format:      format,
			Destination: out,
		})
		return emitConversion(cmd, res, err)
	},
}

// emitConversion prints the outcome of a single conversion. When only the save
// failed, the output goes to stdout before the error is returned.
func emitConversion(cmd *cobra.Command, res *pipeline.Result, err error) error {
	if err != nil {
		if res != nil && errors.Is(err, common.ErrWrite) {
			if _, perr := fmt.Fprint(cmd.OutOrStdout(), res.Output); perr != nil {
				return errors.Join(err, perr)
			}
		}
		return err
	}
	if res.SavedTo != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "saved", res.SavedTo)
		return nil
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), res.Output)
	return err
}

// convertBatch saves every input next to its source through the worker pool
// and reports per-file outcomes. It fails when any input failed.
func convertBatch(cmd *cobra.Command, a *app.App, paths []string, f constants.OutputFormat) error {
	q := a.Queue()
	policy := a.Policy.Load()

	var (
		mu     sync.Mutex
		failed int
	)
	report := func(src string) func(*pipeline.Result, error) {
		return func(res *pipeline.Result, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", src, err)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.SavedTo)
		}
	}

	for _, p := range paths {
		err := q.Enqueue(cmd.Context(), async.Job{
			Policy: policy,
			Request: pipeline.Request{
				Path:        p,
				Format:      string(f),
				Destination: watch.OutputPath(p, f),
			},
			SubmittedAt: time.Now(),
			Done:        report(p),
		})
		if err != nil {
			q.Shutdown(cmd.Context())
			return err
		}
	}
	q.Shutdown(cmd.Context())
	if err := cmd.Context().Err(); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(paths))
	}
	return nil
}

func init() {
	convertCmd.Flags().StringP("format", "f", string(constants.FormatMarkdown), "output format: text, markdown or json")
	convertCmd.Flags().StringP("out", "o", "", "save the output to this file (inside the roots)")
	convertCmd.Flags().Bool("save", false, "save each output next to its source")
	rootCmd.AddCommand(convertCmd)
}
