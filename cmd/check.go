package cmd

import (
	"github.com/crpt-tools/guilaunch/internal/report"
	"github.com/spf13/cobra"
)

var checkFormat string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Describe the Python environment without changing it",
	Long: `Check finds the interpreter and inspects the virtual environment, the GUI toolkit
and the requirement manifests exactly as a launch would, but creates, installs and
starts nothing. The result is printed as YAML or JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(checkFormat)
		if err != nil {
			return err
		}

		launcher, _, err := newLauncher(cmd, nil)
		if err != nil {
			return err
		}

		d, checkErr := launcher.Check(cmd.Context())
		r := report.New(d, checkErr)
		if err := report.Write(cmd.OutOrStdout(), format, r); err != nil {
			return err
		}

		logger.Info("environment checked", "status", r.Status)
		return checkErr
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "yaml", "output format (yaml, json)")
	rootCmd.AddCommand(checkCmd)
}
