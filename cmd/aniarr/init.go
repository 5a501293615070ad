package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aniarr/aniarr/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE:  runInitCmd,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing config")
	initCmd.Flags().StringP("output", "o", "config.toml", "Where to write the config")
}

func runInitCmd(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	output, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", output)
	}

	if err := config.WriteDefault(output); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", output)
	fmt.Println("Edit it, then run 'aniarrd' to start the daemon.")
	return nil
}
