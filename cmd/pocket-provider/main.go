package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/status-im/pocket-provider/params"
)

const (
	HostFlag      = "host"
	NetworkIDFlag = "network-id"
	TimeoutFlag   = "timeout"
	HeaderFlag    = "header"
	ConfigFlag    = "config"
	ListenFlag    = "listen"
	MetricsFlag   = "metrics"
	KeysFlag      = "keys"
	LogLevelFlag  = "log-level"
	LogFileFlag   = "log-file"
)

func main() {
	app := &cli.App{
		Name:   "pocket-provider",
		Usage:  "Serve Ethereum JSON-RPC backed by a Pocket node",
		Flags:  appFlags(),
		Action: serve,
		// header values may contain commas
		DisableSliceFlagSeparator: true,
	}

	if err := app.Run(os.Args); err != nil {
		zap.S().Fatal(err)
	}
}

func appFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  ConfigFlag,
			Usage: "JSON config file, flags take precedence over its values",
		},
		&cli.StringFlag{
			Name:  HostFlag,
			Usage: "Pocket node URL",
			Value: params.DefaultHost,
		},
		&cli.StringFlag{
			Name:  NetworkIDFlag,
			Usage: "Ethereum network id sent as subnetwork",
			Value: params.DefaultNetworkID.String(),
		},
		&cli.Int64Flag{
			Name:  TimeoutFlag,
			Usage: "Request timeout in milliseconds, 0 disables it",
			Value: params.NoTimeout,
		},
		&cli.StringSliceFlag{
			Name:  HeaderFlag,
			Usage: "Extra request header as name:value, can be repeated",
		},
		&cli.StringFlag{
			Name:  ListenFlag,
			Usage: "Address of the JSON-RPC server",
			Value: "127.0.0.1:8545",
		},
		&cli.IntFlag{
			Name:  MetricsFlag,
			Usage: "Port of the metrics server, 0 disables it",
		},
		&cli.StringFlag{
			Name:  KeysFlag,
			Usage: "File with one hex private key per line used to sign transactions",
		},
		&cli.StringFlag{
			Name:  LogLevelFlag,
			Usage: "Log level (debug, info, warn, error)",
			Value: "info",
		},
		&cli.StringFlag{
			Name:  LogFileFlag,
			Usage: "Rotated log file, stderr when empty",
		},
	}
}
