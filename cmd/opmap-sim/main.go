// Package main is the entry point for the opmap-sim application.
// It registers the simulate and version commands and drives the operation registry
// with a synthetic multi-client workload.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Fusion-OS/android-system-security/cmd/opmap-sim/internal/commands"

	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "opmap-sim",
		Short: "Keystore operation registry simulator",
		Long: `opmap-sim wires the operation registry, client session tracker and a slot limited
crypto engine together and runs concurrent clients against them. Clients begin, update,
finish, abort and abandon operations and some of them disconnect with live operations.
After the run the registry must be empty and internally consistent.

Settings are read from the file passed with --config and may be overridden with
OPMAP_* environment variables, e.g. OPMAP_ENGINE_SLOTS=4.`,
		SilenceUsage: true,
	}

	commands.InitSimulateCommands(rootCmd)
	commands.InitVersionCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

// init sets up any necessary initialization before main runs.
func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stderr)
}
