package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"rcrao/internal/cli"
	"rcrao/internal/services"
	"rcrao/internal/worker"
)

type generateCmd struct {
	app         *app
	category    string
	periodKind  string
	selector    string
	generatedBy string
	outDir      string
}

func newGenerateCmd(a *app) *cobra.Command {
	gc := &generateCmd{app: a}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a report and write the PDF to a directory",
		Example: `  rcrao-report generate --type collections --period daily --selector 2024-03-15
  rcrao-report generate --type summary --period weekly --selector 2024-W11 --out /tmp/reports`,
		RunE: gc.run,
	}

	cmd.Flags().StringVar(&gc.category, "type", "summary", "Report type: collections, expenses, receivables or summary")
	cmd.Flags().StringVar(&gc.periodKind, "period", "daily", "Period: daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&gc.selector, "selector", "", "Period selector (2024-03-15, 2024-W11, 2024-03, 2024); defaults to the current period")
	cmd.Flags().StringVar(&gc.generatedBy, "generated-by", "", "Name printed in the footer (default REPORT_GENERATED_BY)")
	cmd.Flags().StringVar(&gc.outDir, "out", "", "Output directory (default REPORT_OUTPUT_DIR)")

	return cmd
}

func (gc *generateCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := gc.app.cfg

	res, err := cli.OpenBackend(ctx, gc.app.logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
	}()

	svc := cli.NewReportService(cfg, res)
	out, err := svc.Generate(ctx, services.Request{
		Category:    gc.category,
		PeriodKind:  gc.periodKind,
		Selector:    gc.selector,
		GeneratedBy: gc.generatedBy,
	})
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	dir := gc.outDir
	if dir == "" {
		dir = cfg.ReportOutputDir
	}
	path, err := worker.WriteReport(dir, out)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", path, len(out.Bytes))
	return nil
}
