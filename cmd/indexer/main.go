// Command indexer boots the multi-chain bridge indexer: one core per
// configured chain, writing into the primary and blockscout stores.
// Grounded on okx-cdk-erigon's urfave/cli/v2-based command entrypoints.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/twine-network/bridge-indexer/internal/chains/celestia"
	"github.com/twine-network/bridge-indexer/internal/chains/evm"
	"github.com/twine-network/bridge-indexer/internal/chains/solana"
	"github.com/twine-network/bridge-indexer/internal/config"
	"github.com/twine-network/bridge-indexer/internal/handler"
	"github.com/twine-network/bridge-indexer/internal/indexer"
	"github.com/twine-network/bridge-indexer/internal/logging"
	"github.com/twine-network/bridge-indexer/internal/metrics"
	"github.com/twine-network/bridge-indexer/internal/store"
	"github.com/twine-network/bridge-indexer/internal/supervisor"
)

// toHandlerConfig carries a chain's cold-start/batching settings from the
// loaded config into the handler.ChainConfig shape the indexer core reads.
func toHandlerConfig(c config.ChainConfig) handler.ChainConfig {
	return handler.ChainConfig{
		StartBlock:         c.StartBlock,
		BlockSyncBatchSize: c.BlockSyncBatchSize,
		BlockTimeMs:        c.BlockTimeMs,
	}
}

var configFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "path to the layered YAML config file",
	Value: "config.yaml",
}

func main() {
	app := &cli.App{
		Name:   "indexer",
		Usage:  "multi-chain bridge indexer",
		Flags:  []cli.Flag{configFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	cfg, err := config.Load(cliCtx.String(configFlag.Name))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.Options{ConsoleLevel: log.LvlInfo, DirLevel: log.LvlInfo, FilePrefix: "indexer"})
	metrics.Init()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	primaryPool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect primary store: %w", err)
	}
	defer primaryPool.Close()

	blockscoutPool, err := store.Connect(ctx, cfg.Blockscout.URL)
	if err != nil {
		return fmt.Errorf("connect blockscout store: %w", err)
	}
	defer blockscoutPool.Close()

	checkpoints := store.NewCheckpointStore(primaryPool)
	writer := store.NewWriter(primaryPool, blockscoutPool, checkpoints, logger)

	settings := indexer.Settings{
		MaxLogBatchSize:             cfg.Settings.MaxLogBatchSize,
		MaxLogBatchTime:             cfg.Settings.MaxLogBatchTime,
		MaxConcurrencyForLogProcess: cfg.Settings.MaxConcurrencyForLogProcess,
	}

	var chains []supervisor.ChainIndexer

	l1HandlerCfg := toHandlerConfig(cfg.L1s.Ethereum.Common)
	l1Handler := evm.NewHandler(cfg.L1s.Ethereum.Common.ChainID, evm.RoleL1, l1HandlerCfg)
	l1Addr := common.HexToAddress(cfg.L1s.Ethereum.BridgeAddress)
	l1Client, err := evm.Dial(ctx, cfg.L1s.Ethereum.Common.ChainID,
		cfg.L1s.Ethereum.Common.HTTPRPCURL, cfg.L1s.Ethereum.Common.WSRPCURL,
		&l1Addr, l1Handler.RelevantTopics(), logger)
	if err != nil {
		return fmt.Errorf("dial l1: %w", err)
	}
	chains = append(chains, supervisor.ChainIndexer{
		Name:    "evm-l1",
		Indexer: indexer.NewCore(l1Client, l1Handler, writer, checkpoints, settings, logger),
	})

	l2HandlerCfg := toHandlerConfig(cfg.L2.Common)
	l2Handler := evm.NewHandler(cfg.L2.Common.ChainID, evm.RoleL2, l2HandlerCfg)
	l2Addr := common.HexToAddress(cfg.L2.BridgeAddress)
	l2Client, err := evm.Dial(ctx, cfg.L2.Common.ChainID,
		cfg.L2.Common.HTTPRPCURL, cfg.L2.Common.WSRPCURL,
		&l2Addr, l2Handler.RelevantTopics(), logger)
	if err != nil {
		return fmt.Errorf("dial l2: %w", err)
	}
	chains = append(chains, supervisor.ChainIndexer{
		Name:    "evm-l2",
		Indexer: indexer.NewCore(l2Client, l2Handler, writer, checkpoints, settings, logger),
	})

	svmHandlerCfg := toHandlerConfig(cfg.L1s.Solana.Common)
	svmPollInterval := time.Duration(cfg.L1s.Solana.Common.BlockTimeMs) * time.Millisecond
	svmClient := solana.NewClient(cfg.L1s.Solana.Common.ChainID, cfg.L1s.Solana.Common.HTTPRPCURL,
		cfg.L1s.Solana.BridgeProgramAddress, svmPollInterval, logger)
	chains = append(chains, supervisor.ChainIndexer{
		Name:    "svm-l1",
		Indexer: indexer.NewCore(svmClient, solana.NewHandler(cfg.L1s.Solana.Common.ChainID, svmHandlerCfg), writer, checkpoints, settings, logger),
	})

	if cfg.Celestia != nil {
		celestiaHandlerCfg := toHandlerConfig(cfg.L2.Common)
		celestiaPollInterval := time.Duration(cfg.L2.Common.BlockTimeMs) * time.Millisecond
		daClient := celestia.NewClient(cfg.L2.Common.ChainID, cfg.Celestia.RPCURL, cfg.Celestia.Namespace,
			cfg.Celestia.AuthToken, celestiaPollInterval)
		chains = append(chains, supervisor.ChainIndexer{
			Name:    "celestia-da",
			Indexer: indexer.NewCore(daClient, celestia.NewHandler(cfg.L2.Common.ChainID, celestiaHandlerCfg), writer, checkpoints, settings, logger),
		})
	}

	sup := supervisor.New(logger, chains...)
	return sup.Run(ctx)
}
