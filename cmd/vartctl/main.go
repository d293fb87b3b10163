package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vart-team/vart/go-controller/pkg/config"
	"github.com/vart-team/vart/go-controller/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:          "vartctl",
		Short:        "Inspect, preview and simulate Vart plotter programs",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logging.Setup(logLevel, "text")
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("VART_CONFIG"), "YAML settings file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "log level")

	load := func() (*config.Settings, error) {
		return config.Load(configPath)
	}
	cmd.AddCommand(
		disasmCmd(),
		previewCmd(load),
		demoCmd(),
		simulateCmd(load),
		configCmd(load),
	)
	return cmd
}
