// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gamedig",
	Short: "gamedig - Game server query client with synthetic packet capture",
	Long: `gamedig queries game servers for live status (server name, map, players)
over their native query protocols.

With --capture it also writes a pcapng file reconstructing the exchange as it
would have appeared on the wire — including Ethernet/IP/TCP-or-UDP layering
and a synthesized TCP handshake — without a sniffer or elevated privileges.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path")

	rootCmd.AddCommand(queryCmd)
}
