package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Afrawles/asanamailer/internal/asanamailer"
	"github.com/Afrawles/asanamailer/internal/config"
	"github.com/Afrawles/asanamailer/internal/digest"
)

var (
	configPath string
	printOnly  bool
	quiet      bool

	exportFormat string
	exportOutput string
)

var rootCmd = &cobra.Command{
	Use:   "asanamailer",
	Short: "Email a digest of your pending Asana tasks",
	Long: `asanamailer fetches the tasks assigned to you in each configured Asana
workspace, keeps the ones in your inbox or upcoming, and mails them as an
HTML digest. Run it from cron or any other scheduler.`,
	SilenceUsage: true,
	RunE:         runDigest,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config and the Asana API key",
	RunE:  runCheck,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export pending tasks to xlsx, csv or json",
	RunE:  runExport,
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(checkCmd, exportCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "asana.yml", "Config file (YAML or TOML); empty to use environment only")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Hide progress spinners")

	rootCmd.Flags().BoolVarP(&printOnly, "print", "p", false, "Print the digest to stdout instead of sending it")

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "xlsx", "Export format: xlsx, csv, json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "reports", "Output directory")
}

func newApplication() (*asanamailer.Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	app, err := asanamailer.New(cfg)
	if err != nil {
		return nil, err
	}
	if !quiet {
		app.Generator.Source = newSpinnerSource(app.Generator.Source)
	}
	return app, nil
}

func runDigest(cmd *cobra.Command, args []string) error {
	app, err := newApplication()
	if err != nil {
		return err
	}

	if printOnly {
		return app.Print(cmd.Context(), cmd.OutOrStdout())
	}
	return app.Send(cmd.Context())
}

func runCheck(cmd *cobra.Command, args []string) error {
	app, err := newApplication()
	if err != nil {
		return err
	}

	user, err := app.Check(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Authenticated as %s <%s>\n", user.Name, user.Email)
	for _, ws := range user.Workspaces {
		fmt.Fprintf(out, "  workspace %s  %s\n", ws.Key(), ws.Name)
	}

	if err := app.Config.ValidateMail(); err != nil {
		fmt.Fprintf(out, "Mail settings incomplete, only --print will work: %v\n", err)
	} else {
		fmt.Fprintln(out, "Mail settings ok")
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	app, err := newApplication()
	if err != nil {
		return err
	}

	exporter, err := newExporter(exportFormat, exportOutput, app.Location)
	if err != nil {
		return err
	}

	path, stats, err := app.Export(cmd.Context(), exporter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Exported %d pending tasks (%d with a due date)\n", stats["total"], stats["with_due_date"])
	fmt.Fprintf(out, "  -> %s\n", path)
	return nil
}

var errUnknownFormat = errors.New("unknown export format")

func newExporter(format, dir string, loc *time.Location) (digest.Exporter, error) {
	switch strings.ToLower(format) {
	case "xlsx", "excel":
		return digest.NewExcelExporter(dir, loc), nil
	case "csv":
		return digest.NewCSVExporter(dir, loc), nil
	case "json":
		return digest.NewJSONExporter(dir, loc), nil
	default:
		return nil, fmt.Errorf("%w %q: valid options are xlsx, csv, json", errUnknownFormat, format)
	}
}
