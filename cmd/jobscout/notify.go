package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/notifier"
)

var notifyCount int

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a sample digest through the configured notifier",
	Long: "Builds placeholder jobs and delivers them exactly as a run would.\n" +
		"Use --count above 15 to check how long digests are cut off.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if notifyCount < 1 {
			return fmt.Errorf("--count must be at least 1")
		}
		logger := setupLogger(debug, logFormat)
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
		if err := n.Notify(notifier.SampleDigest(notifyCount)); err != nil {
			return fmt.Errorf("send test digest: %w", err)
		}
		logger.Info("test digest sent", "notifier", cfg.Notification.Type, "jobs", notifyCount)
		return nil
	},
}

func init() {
	notifyTestCmd.Flags().IntVarP(&notifyCount, "count", "n", 1, "number of sample jobs in the digest")
	notifyCmd.AddCommand(notifyTestCmd)
	rootCmd.AddCommand(notifyCmd)
}
