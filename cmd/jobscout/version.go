package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// buildRevision returns the VCS revision embedded by the Go toolchain, if any.
func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		line := "jobscout " + version
		if rev := buildRevision(); rev != "" {
			line += " (" + rev + ")"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s\n", line, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
