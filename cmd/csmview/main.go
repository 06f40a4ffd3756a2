package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gekko3d/csm"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "csmview",
	Short: "Run cascaded shadow frames against a scene on the software host",
	Long: `csmview drives the directional shadow pipeline on the CPU reference host.

Configuration is read from --config (YAML) and CSM_* environment variables,
e.g. CSM_SHADOWS_DIRECTIONAL_ATLAS_SIZE=2048.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug logging")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
	configCmd.AddCommand(configValidateCmd)
}

func loadConfig() (*csm.Config, csm.Logger, error) {
	cfg, err := csm.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	log := csm.NewDefaultLogger(cfg.Log.Prefix, cfg.Log.Debug || debug)
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
