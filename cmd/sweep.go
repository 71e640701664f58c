package cmd

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-invert/domains/artifact"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete stored files older than the retention window",
	Long: `Run the retention sweep once and exit. With --all every stored file is
removed, which is needed after changing --policy or --hash.`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().Bool("all", false, "remove every stored file regardless of age")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	defer StopApp()

	ctx := context.Background()
	all, _ := cmd.Flags().GetBool("all")

	var (
		report artifact.SweepReport
		err    error
	)
	if all {
		report, err = cacheUsecase.Clear(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear storage: %w", err)
		}
	} else {
		report = cacheUsecase.Sweep(ctx)
	}

	logrus.Infof("[CACHE] scanned=%d deleted=%d failed=%d", report.Scanned, report.Deleted, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d entries could not be deleted", report.Failed)
	}
	return nil
}
