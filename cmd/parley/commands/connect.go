package commands

import (
	"github.com/spf13/cobra"

	"parley/internal/client"
	"parley/internal/config"
)

func connectCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to a chat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if addr == "" {
				addr = cfg.Addr()
			}
			logger := newLogger()

			cli, err := client.Dial(addr, cfg, logger)
			if err != nil {
				return err
			}
			if err := cli.Handshake(); err != nil {
				return err
			}
			return cli.Run()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "server address (defaults to the configured host:port)")
	return cmd
}
