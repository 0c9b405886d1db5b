// Relayd is the network agent for remotely actuated relay devices.
//
// It keeps the network link up, maintains an authenticated websocket
// session against the control endpoint, drives the actuator from session
// commands, and applies firmware updates dispatched over the session.
//
// Usage:
//
//	relayd [command] [flags]
//
// Running without arguments starts the agent.
// See 'relayd --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaylink/relaylink/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var settingsPath string

var rootCmd = &cobra.Command{
	Use:   "relayd",
	Short: "Relaylink device agent",
	Long: `The relaylink device agent.

Maintains the network link and the authenticated control session, drives
the actuator from session commands, and applies dispatched firmware
updates. Running without a subcommand starts the agent.`,
	Version: version.Version,
	RunE:    runAgent,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Settings file path (default: OS config directory)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(portalCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relayd %s\n", version.Full())
	},
}
