// Command healthai runs the Health-AI wellness companion, either as a JSON
// HTTP API or as an interactive terminal chat with optional voice.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/healthai-agent/internal/config"
	"github.com/PabloGalante/healthai-agent/internal/observability"
)

var cfgPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "healthai",
		Short: "Health-AI - mental wellness companion",
		Long: `Health-AI combines a conversational companion, a multidimensional
wellness questionnaire and a reflective journal.

Start the API:      healthai serve
Chat in terminal:   healthai chat --user ana`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (YAML); HEALTHAI_* env vars override it")

	root.AddCommand(newServeCmd())
	root.AddCommand(newChatCmd())

	return root
}

// loadConfig reads and validates configuration and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	observability.Init(os.Stderr, cfg.LogLevel)
	return cfg, nil
}
