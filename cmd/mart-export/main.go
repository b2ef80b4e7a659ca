package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// If not set (e.g., via go install), it will be determined from build info.
var version = "dev"

func init() {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mart-export",
		Short:         "Export anonymized mart tables to a dated CSV archive",
		Long:          "Reads the tables selected by EXPORT_CATEGORIES, applies the column policy and date window, and writes one CSV per table into a zip archive. All settings come from the environment or a .env file.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context())
		},
	}

	rootCmd.AddCommand(newCategoriesCmd())
	return rootCmd
}

func main() {
	// A missing .env is fine; the environment may already be populated
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		if loggerInstalled {
			zap.L().Error("Export failed", zap.Error(err))
			_ = zap.L().Sync()
		} else {
			fmt.Fprintf(os.Stderr, "mart-export: %v\n", err)
		}
		os.Exit(1)
	}
}
