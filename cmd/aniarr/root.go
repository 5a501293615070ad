package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configFile string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "aniarr",
	Short: "CLI for the aniarr smart filter engine",
	Long: `aniarr - smart filters for your anime library

Manage filter definitions, inspect memberships, and rebuild
collections against the library database.

Run 'aniarrd' to start the daemon that keeps memberships current.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: discovered)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("aniarr {{.Version}}\n")
}
