package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/crpt-tools/guilaunch/internal/console"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [-- app args]",
	Short: "Prepare the environment and start the application",
	Long: `Run the full launch: find Python, resolve the virtual environment, install PyQt6
and the requirement manifests, then start launcher.py. This is also what guilaunch
does when started without a subcommand.`,
	Args: cobra.ArbitraryArgs,
	RunE: runLaunch,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	launcher, printer, err := newLauncher(cmd, args)
	if err != nil {
		return err
	}

	_, err = launcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		printer.Warn(console.MsgInterrupted)
		logger.Info("launch interrupted")
		return nil
	}
	return err
}
