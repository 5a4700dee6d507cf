// Package main is the docgate command line: root-scoped document lookup and
// conversion, batch export, folder watching and an MCP stdio server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joseph-ayodele/docgate/internal/app"
	"github.com/joseph-ayodele/docgate/internal/common"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docgate",
	Short: "Find and convert documents inside an allow-list of directories",
	Long: `docgate restricts every file access to a set of root directories and
converts PDF, image and text documents into text, markdown or json, pulling
receipt and invoice fields out along the way.

Roots come from --roots, the roots key of docgate.yaml or DOCGATE_ROOTS
(a PATH-style list). Without any, the Downloads, Documents and Desktop
folders plus the temp directory are used.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()
		cfgFile, _ := cmd.Flags().GetString("config")
		v, err := common.NewViper(cfgFile)
		if err != nil {
			return err
		}
		if err := bindFlags(cmd, v); err != nil {
			return err
		}
		cfg = common.LoadConfig(v)
		if n, _ := cmd.Flags().GetCount("verbose"); n > 0 {
			cfg.Log.Level = common.LevelFromVerbosity(n)
		}
		logger = common.NewLogger(cfg.Log, os.Stderr)
		slog.SetDefault(logger)
		if used := v.ConfigFileUsed(); used != "" {
			logger.Info("using config file", "path", used)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./docgate.yaml or ~/.config/docgate/docgate.yaml)")
	pf.StringSlice("roots", nil, "allowed root directory (repeatable)")
	pf.CountP("verbose", "v", "increase log verbosity (-v info, -vv debug)")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("audit-dsn", "", "record gate decisions to this database (postgres:// URL or SQLite file)")
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for key, flag := range map[string]string{
		"roots":      "roots",
		"log.format": "log-format",
		"audit.dsn":  "audit-dsn",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// bootstrap wires the gate for a command. Callers must Close the app.
func bootstrap(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfg, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "docgate:", err)
		stop()
		os.Exit(1)
	}
}
