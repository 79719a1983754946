package cmd

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/squadnox/gamedig/internal/capture"
	"github.com/squadnox/gamedig/internal/config"
	"github.com/squadnox/gamedig/internal/log"
	"github.com/squadnox/gamedig/internal/query/valve"
)

var (
	captureFile  string
	queryTimeout time.Duration
)

var queryCmd = &cobra.Command{
	Use:   "query <address[:port]>",
	Short: "Query a game server, optionally recording a synthetic capture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if err := log.Init(cfg.Log); err != nil {
			return err
		}
		if captureFile != "" {
			cfg.Capture.Output = captureFile
		}
		if queryTimeout > 0 {
			cfg.Query.Timeout = queryTimeout
		}

		// The capture writer must be installed exactly once, before any
		// socket traffic.
		if err := capture.Setup(cfg.Capture.Output); err != nil {
			return err
		}
		defer capture.Close()

		address := args[0]
		if _, _, err := net.SplitHostPort(address); err != nil {
			address = net.JoinHostPort(address, strconv.Itoa(valve.DefaultPort))
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Query.Timeout)
		defer cancel()

		info, err := valve.Query(ctx, address, cfg.Query.Timeout, capture.Active())
		if err != nil {
			return err
		}

		fmt.Printf("Server:     %s\n", info.Name)
		fmt.Printf("Map:        %s\n", info.Map)
		fmt.Printf("Game:       %s (app %d)\n", info.Game, info.AppID)
		fmt.Printf("Players:    %d/%d (%d bots)\n", info.Players, info.MaxPlayers, info.Bots)
		fmt.Printf("Password:   %t\n", info.Password)
		fmt.Printf("VAC:        %t\n", info.VAC)
		if cfg.Capture.Output != "" {
			fmt.Printf("Capture:    %s\n", cfg.Capture.Output)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVarP(&captureFile, "capture", "w", "",
		"write a synthetic pcapng capture of the exchange to this file (must not exist)")
	queryCmd.Flags().DurationVarP(&queryTimeout, "timeout", "t", 0,
		"per-read timeout (overrides config)")
}
