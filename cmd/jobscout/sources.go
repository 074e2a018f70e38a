package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/config"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured sources",
	Long:  "Reads the config and prints a table of all configured sources by tier.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	if isTerminal(os.Stdout) {
		tw.SetStyle(table.StyleRounded)
	}
	tw.AppendHeader(table.Row{"Tier", "Source", "Type", "Target", "Status"})

	enabled, disabled := 0, 0
	add := func(tier string, list []config.SourceConfig) {
		for _, s := range list {
			status := "enabled"
			if !s.Enabled {
				status = "disabled"
				disabled++
			} else {
				enabled++
			}
			tw.AppendRow(table.Row{tier, s.Label(), s.Type, target(s), status})
		}
	}
	add("portals", cfg.Sources.Portals)
	add("companies", cfg.Sources.Companies)
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d sources", enabled+disabled), "", "", fmt.Sprintf("%d enabled", enabled)})

	fmt.Println(tw.Render())
	return nil
}

func target(s config.SourceConfig) string {
	switch {
	case s.Query != "":
		return "q=" + s.Query
	case s.BoardToken != "":
		return s.BoardToken
	case s.URL != "":
		return s.URL
	case s.Location != "":
		return s.Location
	}
	return "-"
}
