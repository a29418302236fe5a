package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/status-im/pocket-provider/logutils"
	"github.com/status-im/pocket-provider/params"
	"github.com/status-im/pocket-provider/transactions"
)

func setupLogger(level, file string) (*zap.Logger, error) {
	logger, err := logutils.NewZapLogger(level, logutils.FileOptions{
		Filename:   file,
		MaxSize:    100,
		MaxBackups: 3,
		Compress:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logutils.OverrideRootLogger(logger)
	return logger, nil
}

// configFromFlags loads --config when given and applies every flag set on
// the command line over it.
func configFromFlags(cCtx *cli.Context) (*params.ProviderConfig, error) {
	config := params.NewProviderConfig("")
	if path := cCtx.String(ConfigFlag); path != "" {
		loaded, err := params.LoadConfigFromFile(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if cCtx.IsSet(HostFlag) {
		config.Host = strings.TrimRight(cCtx.String(HostFlag), "/")
	}
	if cCtx.IsSet(NetworkIDFlag) {
		config.NetworkID = params.NetworkID(strings.TrimSpace(cCtx.String(NetworkIDFlag)))
	}
	if cCtx.IsSet(TimeoutFlag) {
		config.Timeout = cCtx.Int64(TimeoutFlag)
	}
	for _, raw := range cCtx.StringSlice(HeaderFlag) {
		header, err := params.ParseHeader(raw)
		if err != nil {
			return nil, err
		}
		config.Headers = append(config.Headers, header)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadKeySigner(path string, chainID uint64, logger *zap.Logger) (*transactions.KeySigner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	signer := transactions.NewKeySigner(chainID, logger)
	if err := readKeys(f, signer); err != nil {
		return nil, fmt.Errorf("read keys %s: %w", path, err)
	}
	return signer, nil
}

// readKeys adds every hex key of r to signer. Blank lines and lines starting
// with # are skipped.
func readKeys(r io.Reader, signer *transactions.KeySigner) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if _, err := signer.AddHexKey(text); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return scanner.Err()
}
