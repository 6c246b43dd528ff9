// gmpaudit - GMP audit checklist
//
// gmpaudit records a pharmaceutical GMP audit question by question and
// exports it as a paginated PDF report.
//
// Commands:
//   - shell:   interactive checklist (default)
//   - serve:   HTTP API and websocket notifications for the web UI
//   - export:  write the PDF, HTML or CSV report
//   - stats:   print compliance statistics
//   - summary: render a Markdown summary in the terminal
//   - init:    write a default config file
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/r3d91ll/gmpaudit/pkg/config"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/logging"
)

const version = "1.0.0"

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gmpaudit",
	Short: "GMP audit checklist with PDF reporting",
	Long: `gmpaudit walks an auditor through the GMP checklist, stores answers,
notes and photo evidence, and exports a paginated PDF report with a
compliance summary and overall verdict.

Run without arguments to start the interactive shell.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		// The shell owns the terminal, so it logs to a file.
		if cmd.Name() == "shell" || cmd == cmd.Root() {
			file := cfg.Log.File
			if file == "" {
				file = defaultLogFile()
			}
			_ = os.MkdirAll(filepath.Dir(file), 0755)
			logger = logging.Must(logging.NewFile(level, cfg.Log.Format, file))
			return nil
		}
		logger = logging.Must(logging.New(level, cfg.Log.Format))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runShell,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gmpaudit %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		initCmd,
		shellCmd,
		serveCmd,
		exportCmd,
		statsCmd,
		summaryCmd,
		versionCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if _, ok := werrors.AsAuditError(err); ok {
			werrors.Display(err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
