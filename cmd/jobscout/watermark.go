package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/watermark"
)

// lockTimeout bounds how long the commands wait for a running pipeline to
// release the watermark.
const lockTimeout = 5 * time.Second

var watermarkCmd = &cobra.Command{
	Use:   "watermark",
	Short: "Inspect or reset the last successful run",
}

var watermarkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the last successful run time",
	RunE:  runWatermarkShow,
}

var watermarkResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the last successful run",
	Long:  "Removes the watermark so the next run fetches without a since filter.",
	RunE:  runWatermarkReset,
}

func init() {
	rootCmd.AddCommand(watermarkCmd)
	watermarkCmd.AddCommand(watermarkShowCmd, watermarkResetCmd)
}

func runWatermarkShow(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFormat)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	wm := watermark.NewFileStore(cfg.WatermarkPath, logger)
	w, err := wm.Read(ctx)
	if err != nil {
		return err
	}
	if w.LastSuccessfulRunAt == nil {
		fmt.Printf("%s: no successful run yet\n", wm.Path())
		return nil
	}
	fmt.Printf("%s: last successful run %s (%s), %d jobs found\n",
		wm.Path(),
		w.LastSuccessfulRunAt.Local().Format(time.DateTime),
		watermark.Since(w, time.Now()),
		w.JobsFound,
	)
	return nil
}

func runWatermarkReset(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFormat)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	wm := watermark.NewFileStore(cfg.WatermarkPath, logger)
	if err := wm.Reset(ctx); err != nil {
		return err
	}
	logger.Info("watermark reset", "path", wm.Path())
	return nil
}
