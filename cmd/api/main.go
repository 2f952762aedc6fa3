package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configDir string

func main() {
	rootCmd := &cobra.Command{
		Use:   "medbook-api",
		Short: "Medical appointment booking API",
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Directory containing config.yaml")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configPaths() []string {
	if configDir == "" {
		return nil
	}
	return []string{configDir}
}
