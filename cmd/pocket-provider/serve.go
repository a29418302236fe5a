package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/status-im/pocket-provider/metrics"
	"github.com/status-im/pocket-provider/rpc"
	"github.com/status-im/pocket-provider/server"
	"github.com/status-im/pocket-provider/transactions"
)

const shutdownTimeout = 10 * time.Second

func serve(cCtx *cli.Context) error {
	logger, err := setupLogger(cCtx.String(LogLevelFlag), cCtx.String(LogFileFlag))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	config, err := configFromFlags(cCtx)
	if err != nil {
		return err
	}
	logger.Info("starting provider", zap.String("host", config.Host), zap.Stringer("networkId", config.NetworkID))

	var signer transactions.Signer
	if path := cCtx.String(KeysFlag); path != "" {
		chainID, err := config.NetworkID.ChainID()
		if err != nil {
			return err
		}
		keySigner, err := loadKeySigner(path, chainID, logger)
		if err != nil {
			return err
		}
		logger.Info("loaded signing keys", zap.Int("accounts", len(keySigner.Accounts())))
		signer = keySigner
	}

	provider, err := rpc.NewProvider(config, signer, rpc.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *metrics.Server
	if port := cCtx.Int(MetricsFlag); port > 0 {
		metricsServer = metrics.NewMetricsServer(port)
		go metricsServer.Listen()
	}

	rpcServer := server.NewServer(cCtx.String(ListenFlag), logger)
	rpcServer.WithHandlers(server.RPCHandlers(provider, logger))
	if err := rpcServer.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := rpcServer.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop server", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop metrics server", zap.Error(err))
		}
	}

	return nil
}
