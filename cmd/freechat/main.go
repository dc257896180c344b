package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"freechat/internal/config"
	"freechat/internal/logging"
	"freechat/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"

	flagServer   string
	flagStateDir string
	flagConfig   string
	flagVerbose  bool
	flagSmoke    bool
)

var rootCmd = &cobra.Command{
	Use:   "freechat",
	Short: "Terminal client for the freechat conversational-AI service",
	Long: `freechat is a terminal client for a hosted conversational-AI service.

It signs you in, lists and creates chat sessions, exchanges messages with
the selected model, and tracks your token balance. All state shown on
screen comes from the server; the client never invents a balance or a
message order.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&flagServer, "server", "", "API base address (overrides config)")
	rootCmd.Flags().StringVar(&flagStateDir, "state-dir", "", "state directory (token, logs, config)")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to config.yaml")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().BoolVar(&flagSmoke, "smoke", false, "run a deterministic non-interactive UI simulation")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.Init(cfg.StateDir, cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	app, err := ui.NewApp(cfg, logger)
	if err != nil {
		return err
	}
	model := ui.NewModel(app)

	if flagSmoke {
		report := ui.RunSmoke(model)
		fmt.Println(report)
		return nil
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func loadConfig() (config.Config, error) {
	stateDir := flagStateDir
	if stateDir == "" {
		stateDir = config.Default().StateDir
	}
	path := flagConfig
	if path == "" {
		path = config.DefaultPath(stateDir)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if flagStateDir != "" {
		cfg.StateDir = flagStateDir
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
