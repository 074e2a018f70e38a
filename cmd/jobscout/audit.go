package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/audit"
	"github.com/amishk599/jobscout/internal/config"
	"github.com/amishk599/jobscout/internal/orchestrator"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse one source's verdicts interactively (TUI)",
	Long: "Shows the source picker TUI, fetches the chosen source without a since\n" +
		"filter and launches the split-pane view of every record and its verdict.\n" +
		"Nothing is stored and the watermark is not touched.",
	RunE: runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Any log output while the TUI owns the terminal corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	p, err := buildPipeline(ctx, cfg, pipelineOptions{dryRun: true}, silentLogger)
	if err != nil {
		return err
	}
	defer p.close()

	runAudit(ctx, cfg, p.orch)
	return nil
}

func runAudit(ctx context.Context, cfg *config.Config, orch *orchestrator.Orchestrator) {
	var items []audit.SourceItem
	for _, tier := range []struct {
		name string
		list []config.SourceConfig
	}{
		{"portals", cfg.Sources.Portals},
		{"companies", cfg.Sources.Companies},
	} {
		for _, s := range config.EnabledSources(tier.list) {
			items = append(items, audit.SourceItem{Name: s.Label(), Tier: tier.name, Type: s.Type})
		}
	}
	if len(items) == 0 {
		fmt.Println("No enabled sources in config.")
		return
	}

	for {
		choice, err := audit.RunSourcePicker(items)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		item := items[choice]

		src, ok := orch.Source(item.Name)
		if !ok {
			fmt.Printf("Source %s is not available\n", item.Name)
			continue
		}

		jobs, err := audit.RunLoader(ctx, item.Name, func(ctx context.Context) ([]orchestrator.AuditedJob, error) {
			_, jobs, err := orch.Audit(ctx, src, nil)
			return jobs, err
		})
		if errors.Is(err, audit.ErrCancelled) {
			continue
		}
		if err != nil {
			fmt.Printf("Error auditing %s: %v\n", item.Name, err)
			continue
		}

		wantQuit, err := audit.RunAuditTUI(item.Name, jobs)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
