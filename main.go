package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"prism-todos/config"
)

var rootFlags struct {
	baseURL string
	debug   bool
}

var rootCmd = &cobra.Command{
	Use:           "prism-todos",
	Short:         "Browse and edit a remote todo list",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if rootFlags.debug {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.baseURL, "base-url", "", "task service base URL (overrides TODOS_API_BASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.debug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(tuiCmd, listCmd, toggleCmd, deleteCmd, serveMockCmd)
}

// loadClientConfig reads the environment and applies persistent flag
// overrides. Invalid configuration is fatal.
func loadClientConfig() config.Client {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if rootFlags.baseURL != "" {
		cfg.BaseURL = rootFlags.baseURL
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
