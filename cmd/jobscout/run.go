package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/orchestrator"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once",
	Long: "Fetches every enabled source once, stores newly accepted jobs, advances the\n" +
		"watermark and prints a summary. With --dry-run nothing is stored or advanced.",
	RunE: runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "fetch and filter only; do not store jobs or move the watermark")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFormat)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, cfg, pipelineOptions{dryRun: runDryRun}, logger)
	if err != nil {
		return err
	}
	defer p.close()

	rep, err := p.runner.RunOnce(ctx)
	if err != nil {
		return err
	}
	printReport(os.Stdout, rep)
	return nil
}

func printReport(w io.Writer, rep orchestrator.Report) {
	style := table.StyleLight
	if isTerminal(w) {
		style = table.StyleRounded
	}

	sources := table.NewWriter()
	sources.SetStyle(style)
	sources.AppendHeader(table.Row{"Tier", "Source", "State", "Records", "Since", "Took", "Error"})
	for _, st := range rep.Statuses {
		since := "-"
		if st.SinceApplied {
			since = "yes"
		}
		sources.AppendRow(table.Row{st.Tier, st.Name, st.State, st.Records, since, st.Duration.Round(time.Millisecond), st.Err})
	}
	sources.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 7, WidthMax: 60},
	})
	fmt.Fprintln(w, sources.Render())

	counts := rep.SourceCounts()
	summary := table.NewWriter()
	summary.SetStyle(style)
	summary.AppendRows([]table.Row{
		{"Run", rep.RunID},
		{"Took", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond)},
		{"Since", sinceText(rep.Since)},
		{"Sources ok / empty / failed", fmt.Sprintf("%d / %d / %d", counts[model.SourceOK], counts[model.SourceEmpty], counts[model.SourceFailed])},
		{"Fetched", rep.Fetched},
		{"Irrelevant", rep.Irrelevant},
		{"Unique", rep.Unique},
		{"Rejected", rep.Rejected},
		{"Already stored", rep.CrossRunDuplicates},
		{"Same-key duplicates", rep.SameRunDuplicates},
		{"Accepted", len(rep.Accepted)},
		{"Watermark advanced", strconv.FormatBool(rep.WatermarkAdvanced)},
	})
	for _, rc := range rep.TopRejectReasons(5) {
		summary.AppendRow(table.Row{"  " + rc.Reason, rc.Count})
	}
	fmt.Fprintln(w, summary.Render())

	if len(rep.Accepted) == 0 {
		return
	}
	jobs := table.NewWriter()
	jobs.SetStyle(style)
	jobs.AppendHeader(table.Row{"Priority", "Title", "Company", "Location", "Salary", "Portal"})
	for _, j := range rep.Accepted {
		jobs.AppendRow(table.Row{j.Priority, j.Title, j.Company, j.Location, j.Salary, j.Portal})
	}
	jobs.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 50},
		{Number: 4, WidthMax: 30},
	})
	fmt.Fprintln(w, jobs.Render())
}

func sinceText(since *time.Time) string {
	if since == nil {
		return "first run"
	}
	return since.Local().Format(time.DateTime)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
