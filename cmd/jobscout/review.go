package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reviewPrune bool

var reviewCmd = &cobra.Command{
	Use:   "review <key>...",
	Short: "Mark stored jobs as reviewed",
	Long: "Flags the jobs with the given keys as reviewed. With --prune, reviewed\n" +
		"jobs are deleted from the store afterwards.",
	Args: cobra.ArbitraryArgs,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewPrune, "prune", false, "delete all reviewed jobs")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFormat)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(args) == 0 && !reviewPrune {
		return fmt.Errorf("nothing to do: pass job keys or --prune")
	}

	s, err := openStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	if len(args) > 0 {
		n, err := s.MarkReviewed(ctx, args)
		if err != nil {
			return err
		}
		logger.Info("marked jobs reviewed", "requested", len(args), "marked", n)
	}
	if reviewPrune {
		return prune(ctx, s, 0, logger)
	}
	return nil
}
