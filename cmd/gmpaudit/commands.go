package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/r3d91ll/gmpaudit/pkg/api"
	"github.com/r3d91ll/gmpaudit/pkg/config"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/report"
	"github.com/r3d91ll/gmpaudit/pkg/shell"
	"github.com/r3d91ll/gmpaudit/pkg/stats"
)

// -----------------------------------------------------------------------------
// init
// -----------------------------------------------------------------------------

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config initialized at: %s\n", configPath)
		return nil
	},
}

// -----------------------------------------------------------------------------
// shell
// -----------------------------------------------------------------------------

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive checklist",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	sh := a.newShell(cmd)
	err = sh.Run(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), "Goodbye!")
	return err
}

func (a *app) newShell(cmd *cobra.Command) *shell.Shell {
	return shell.New(shell.Deps{
		Store:     a.store,
		Backend:   a.backend,
		Saver:     a.saver,
		Photos:    a.photos,
		Paginator: a.paginator,
		Logger:    a.logger.Named("shell"),
		Out:       cmd.OutOrStdout(),
	}, shell.Config{
		HistoryFile: filepath.Join(config.DefaultDir(), "history"),
		OutputDir:   a.cfg.Export.OutputDir,
		Report:      a.report,
		CSV:         a.cfg.CSVConfig(),
	})
}

// -----------------------------------------------------------------------------
// serve
// -----------------------------------------------------------------------------

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and websocket notifications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, logger, true)
		if err != nil {
			return err
		}
		defer a.Close()

		sc := api.ServerConfig{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}
		if cmd.Flags().Changed("host") {
			sc.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			sc.Port = servePort
		}
		srv := api.NewServer(sc, api.Deps{
			Store:     a.store,
			Backend:   a.backend,
			Saver:     a.saver,
			Photos:    a.photos,
			Paginator: a.paginator,
			Report:    a.report,
			CSV:       cfg.CSVConfig(),
			Logger:    logger.Named("api"),
		})
		fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", srv.Address())
		return srv.Run(cmd.Context())
	},
}

// -----------------------------------------------------------------------------
// export
// -----------------------------------------------------------------------------

var exportFlags struct {
	format       string
	output       string
	orientation  string
	pageSize     string
	dialect      string
	noPhotos     bool
	noSummary    bool
	includeEmpty bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the audit report",
	Long: `Writes the audit report as PDF (default), HTML or CSV. Without --output
the file is named GMP_Audit_<company>_<date> and written to export.output_dir.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := applyExportFlags(cmd, a); err != nil {
			return err
		}
		for _, w := range report.ValidateForExport(report.FromForm(a.store.Snapshot())) {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", w)
		}

		line := "/export " + exportFlags.format
		if exportFlags.output != "" {
			line += " " + exportFlags.output
		}
		return a.newShell(cmd).Execute(cmd.Context(), line)
	},
}

func applyExportFlags(cmd *cobra.Command, a *app) error {
	f := cmd.Flags()
	if f.Changed("orientation") {
		o, err := report.ParseOrientation(exportFlags.orientation)
		if err != nil {
			return werrors.Validation(werrors.ErrValidationInvalidOption, err.Error())
		}
		a.report.Orientation = o
	}
	if f.Changed("page-size") {
		s, err := report.ParsePageSize(exportFlags.pageSize)
		if err != nil {
			return werrors.Validation(werrors.ErrValidationInvalidOption, err.Error())
		}
		a.report.PageSize = s
	}
	if f.Changed("dialect") {
		a.cfg.Export.CSVDialect = exportFlags.dialect
		if _, err := report.ParseCSVDialect(exportFlags.dialect); err != nil {
			return werrors.Validation(werrors.ErrValidationInvalidOption, err.Error())
		}
	}
	if exportFlags.noPhotos {
		a.report.IncludePhotos = false
	}
	if exportFlags.noSummary {
		a.report.IncludeSummary = false
	}
	if exportFlags.includeEmpty {
		a.report.IncludeEmptyFields = true
	}
	return nil
}

// -----------------------------------------------------------------------------
// stats and summary
// -----------------------------------------------------------------------------

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print compliance statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if !statsJSON {
			return a.newShell(cmd).Execute(cmd.Context(), "/stats")
		}
		f := a.store.Snapshot()
		st := stats.Calculate(f.Sections)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(api.StatsResponse{Stats: st, Completion: stats.Completion(f), Verdict: st.Verdict()})
	},
}

var summaryPlain bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Render a Markdown summary of the audit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		var md bytes.Buffer
		if err := report.WriteMarkdown(&md, report.FromForm(a.store.Snapshot())); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		f, isFile := out.(*os.File)
		if summaryPlain || !isFile || !term.IsTerminal(int(f.Fd())) {
			_, err := out.Write(md.Bytes())
			return err
		}
		rendered, err := renderMarkdown(md.String(), terminalWidth(f))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, rendered)
		return err
	},
}

func renderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func terminalWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w - 4
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides server.host)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides server.port)")

	ef := exportCmd.Flags()
	ef.StringVarP(&exportFlags.format, "format", "f", "pdf", "pdf, html or csv")
	ef.StringVarP(&exportFlags.output, "output", "o", "", "output file path")
	ef.StringVar(&exportFlags.orientation, "orientation", "", "portrait or landscape")
	ef.StringVar(&exportFlags.pageSize, "page-size", "", "a4 or letter")
	ef.StringVar(&exportFlags.dialect, "dialect", "", "CSV dialect: standard, excel or tsv")
	ef.BoolVar(&exportFlags.noPhotos, "no-photos", false, "omit photo references")
	ef.BoolVar(&exportFlags.noSummary, "no-summary", false, "omit the summary and verdict")
	ef.BoolVar(&exportFlags.includeEmpty, "include-empty", false, "include unanswered questions without notes")

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print JSON")
	summaryCmd.Flags().BoolVar(&summaryPlain, "plain", false, "print raw Markdown")
}
