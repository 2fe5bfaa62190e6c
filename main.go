// Package main implements the filefinder entry point.
//
// This package handles:
//   - Configuration loading (flags, FILEFINDER_* env, filefinder.yaml)
//   - Logger setup; the TUI owns the terminal so logs go to a file
//   - Backend selection: the in-process local backend or a native host over HTTP
//   - TUI initialization and execution, plus the disks/search/serve/version subcommands
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"filefinder/internal"
	"filefinder/internal/backend"
	"filefinder/internal/config"
	"filefinder/internal/logging"
	"filefinder/internal/session"
)

var (
	v       = viper.New()
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "filefinder",
	Short: internal.AppDesc,
	Long: `filefinder searches file names across your mounted disks.

Run without arguments for the interactive UI, or use the subcommands for
one-shot searches and for hosting the backend over HTTP.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: runTUI,
}

func init() {
	config.Setup(v)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: ./filefinder.yaml or $XDG_CONFIG_HOME/filefinder/filefinder.yaml)")
	flags.String("backend", config.DefaultMode, "Backend mode: local or http")
	flags.String("url", config.DefaultURL, "Native host base URL for the http backend")
	flags.String("timeout", "0s", "HTTP backend timeout (0 means none)")
	flags.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	flags.String("log-file", "", "Log file (default: $XDG_CACHE_HOME/filefinder/filefinder.log)")
	flags.Bool("ascii", false, "Use ASCII symbols instead of Unicode")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging (overrides --log-level)")

	// Bind flags to viper keys
	v.BindPFlag("backend.mode", flags.Lookup("backend"))
	v.BindPFlag("backend.url", flags.Lookup("url"))
	v.BindPFlag("backend.timeout", flags.Lookup("timeout"))
	v.BindPFlag("log.level", flags.Lookup("log-level"))
	v.BindPFlag("log.file", flags.Lookup("log-file"))
	v.BindPFlag("ui.ascii", flags.Lookup("ascii"))

	rootCmd.Flags().Bool("no-alt-screen", false, "Render inline instead of the alternate screen")

	rootCmd.AddCommand(disksCmd, searchCmd, serveCmd, versionCmd)
}

// setup loads configuration and initializes logging before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.ReadFile(v, cfgFile); err != nil {
		return err
	}

	loaded, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded

	if err := logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.File,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if verbose {
		logging.SetLevel("debug")
	}

	if cfg.UI.ASCII {
		internal.ForceASCII()
	}

	logging.L().Info("starting",
		zap.String("version", internal.AppVersion),
		zap.String("command", cmd.Name()),
		zap.String("backend", cfg.Backend.Mode),
		zap.String("config", v.ConfigFileUsed()))
	return nil
}

// newBackend builds the configured backend transport.
func newBackend(c *config.Config) backend.Backend {
	if c.Backend.Mode == config.ModeHTTP {
		return backend.NewHTTPClient(backend.HTTPConfig{
			BaseURL: c.Backend.URL,
			Timeout: c.Backend.Timeout,
		})
	}

	checkRevealProgram()
	return backend.NewLocal(logging.L().Named("local"))
}

// checkRevealProgram warns when the platform file manager is missing.
// Searching still works; only "show in file manager" will fail.
func checkRevealProgram() {
	if prog := backend.RevealProgram(); !backend.CheckProgramExists(prog) {
		logging.L().Warn("file manager program not found, reveal will fail", zap.String("program", prog))
	}
}

// newController wires a session controller to the configured backend.
func newController(c *config.Config) *session.Controller {
	return session.New(newBackend(c), session.WithLogger(logging.L().Named("session")))
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctrl := newController(cfg)

	m := internal.InitialModel(ctrl)
	defer m.Close()

	var opts []tea.ProgramOption
	noAlt, _ := cmd.Flags().GetBool("no-alt-screen")
	if cfg.UI.AltScreen && !noAlt {
		opts = append(opts, tea.WithAltScreen())
	}

	p := tea.NewProgram(m, opts...)
	if _, err := p.Run(); err != nil {
		logging.L().Error("tui exited with error", zap.Error(err))
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, internal.FormatError(err.Error()))
		os.Exit(1)
	}
}
