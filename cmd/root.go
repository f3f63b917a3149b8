package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/crpt-tools/guilaunch/internal/bootstrap"
	"github.com/crpt-tools/guilaunch/internal/config"
	"github.com/crpt-tools/guilaunch/internal/console"
	"github.com/crpt-tools/guilaunch/internal/logging"
	"github.com/crpt-tools/guilaunch/internal/python"
	"github.com/crpt-tools/guilaunch/internal/runner"
	"github.com/crpt-tools/guilaunch/internal/version"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	baseDir  string
	logLevel string
	lang     string
	noVenv   bool
	noPause  bool

	// cfg and logger are populated by PersistentPreRunE and shared with all subcommands.
	cfg      *config.Config
	logger   *slog.Logger
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "guilaunch [flags] [-- app args]",
	Short: "Prepare Python and start the marking GUI",
	Long: `guilaunch finds a Python interpreter, sets up the ../.venv virtual environment,
makes sure PyQt6 and the requirement manifests are installed, and starts launcher.py.

Run without arguments (or double-click) to launch the application.`,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runLaunch,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("guilaunch %s\n", version.String()))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	flags.StringVar(&baseDir, "dir", "", "launcher directory (default: directory of the executable)")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&lang, "lang", console.DefaultLang, "message language (en, ru)")
	flags.BoolVar(&noVenv, "no-venv", false, "use the system interpreter instead of the virtual environment")
	flags.BoolVar(&noPause, "no-pause", false, "do not wait for Enter after a failure")
}

// Execute runs the root command and exits with the launch's status
func Execute() {
	err := rootCmd.Execute()
	if cerr := closeLog(); cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
	}
	if err != nil && !alreadyReported(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

// setup loads configuration, applies explicit flags over it and opens the log.
func setup(cmd *cobra.Command, args []string) error {
	searchDir := baseDir
	if searchDir == "" {
		// a missing executable dir only means no implicit config file
		searchDir, _ = config.ExecutableDir()
	}

	var err error
	cfg, err = config.Load(cfgFile, searchDir)
	if err != nil {
		return &configError{err: err}
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Dir = baseDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("lang") {
		cfg.UI.Lang = lang
	}
	if noVenv {
		cfg.Venv.Enabled = false
	}
	if noPause {
		cfg.UI.Pause = false
	}

	l, closeFn, err := logging.Setup(logging.Config{
		Level:      logging.ParseLevel(cfg.Log.Level),
		Dir:        cfg.Log.Dir,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		// An unwritable log directory must not keep the application from starting.
		fmt.Fprintf(cmd.ErrOrStderr(), "logging disabled: %v\n", err)
		logger = logging.Discard()
		return nil
	}
	logger, closeLog = l, closeFn
	return nil
}

// newLauncher wires the launch pipeline from the loaded configuration
func newLauncher(cmd *cobra.Command, args []string) (*bootstrap.Launcher, *console.Printer, error) {
	dir, err := cfg.ResolveDir()
	if err != nil {
		return nil, nil, err
	}

	r := runner.NewExecRunner(logger)
	finder := python.NewFinder(cfg.Python.Candidates, cfg.MinPythonVersion(), r, logger)
	printer := console.NewPrinter(cmd.OutOrStdout(), cmd.InOrStdin(), cfg.UI.Lang, cfg.UI.Pause && interactive())

	l := bootstrap.New(bootstrap.Options{
		Dir:            dir,
		UseVenv:        cfg.Venv.Enabled,
		VenvDir:        cfg.Venv.Dir,
		ToolkitPackage: cfg.Toolkit.Package,
		ToolkitModule:  cfg.Toolkit.Module,
		Manifests:      cfg.Manifests,
		PipArgs:        cfg.Pip.ExtraArgs,
		Entry:          cfg.App.Entry,
		Fallback:       cfg.App.Fallback,
		Args:           args,
		MinVersion:     cfg.MinPythonVersion(),
	}, finder, r, printer, logger)

	return l, printer, nil
}

// interactive reports whether stdin is a console someone can press Enter in
func interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
