package main

// main.go - the peer daemon entrypoint. "run" wires config, Kura, the
// Queue, and Sumeragi together and blocks until SIGINT/SIGTERM, the same
// load-config-then-run-until-signal shape consensus.go's own main loop used.
// cmd/cli's RootCmd is mounted beside it as the "meridianledger" subcommand,
// carrying the read-only/administration commands, so a single binary covers
// both the long-running daemon and its diagnostics.

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridianledger/core/cmd/cli"
	"github.com/meridianledger/core/core"
	"github.com/meridianledger/core/pkg/config"
)

func main() {
	rootCmd := &cobra.Command{Use: "meridianledger-peer"}
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(cli.RootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run this peer's Sumeragi consensus loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeer(env)
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "environment overlay to merge over the default config")
	return cmd
}

func runPeer(env string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(lvl)
	}

	zapBase, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build zap logger: %w", err)
	}
	defer zapBase.Sync()
	archiveLog := zapBase.Sugar()

	kuraCfg := core.DefaultKuraConfig
	if cfg.Kura.Dir != "" {
		kuraCfg.Dir = cfg.Kura.Dir
	}
	if cfg.Kura.BlocksPerFile > 0 {
		kuraCfg.BlocksPerFile = uint64(cfg.Kura.BlocksPerFile)
	}
	kura, err := core.OpenKura(kuraCfg, archiveLog)
	if err != nil {
		return fmt.Errorf("open kura: %w", err)
	}
	defer kura.Close()

	wsv, err := core.ReplayFromKura(kura)
	if err != nil {
		return fmt.Errorf("replay kura: %w", err)
	}

	signer, pub, err := core.NewEd25519Signer()
	if err != nil {
		return err
	}
	self := core.PeerId{Address: cfg.Peer.ListenAddr, PublicKey: pub}

	if _, ok := wsv.View().Peers[self]; !ok {
		tx := wsv.Begin()
		if err := tx.ApplyTrusted(core.RegisterInstruction{Peer: &core.Peer{Id: self}}, core.AccountId{}); err != nil {
			return fmt.Errorf("register self as peer: %w", err)
		}
		wsv.Commit(tx)
	}

	fabric := core.NewLoopbackFabric([]core.PeerId{self}, 64)
	net := fabric[self]

	queueCfg := core.DefaultQueueConfig
	if cfg.Queue.MaxTransactionsInQueue > 0 {
		queueCfg.MaxTransactionsInQueue = cfg.Queue.MaxTransactionsInQueue
	}
	if cfg.Queue.MaxTransactionsPerUser > 0 {
		queueCfg.MaxTransactionsPerUser = cfg.Queue.MaxTransactionsPerUser
	}
	if cfg.Queue.TransactionTimeToLive > 0 {
		queueCfg.TransactionTimeToLive = cfg.Queue.TransactionTimeToLive
	}
	if cfg.Queue.FutureThreshold > 0 {
		queueCfg.FutureThreshold = cfg.Queue.FutureThreshold
	}
	queue := core.NewQueue(queueCfg)

	sumeragiCfg := core.DefaultSumeragiConfig
	if cfg.Consensus.BlockTimeMS > 0 {
		sumeragiCfg.BlockTimeMS = int64(cfg.Consensus.BlockTimeMS)
	}
	if cfg.Consensus.CommitTimeMS > 0 {
		sumeragiCfg.CommitTimeMS = int64(cfg.Consensus.CommitTimeMS)
	}
	if cfg.Consensus.MaxTransactionsPerBlock > 0 {
		sumeragiCfg.MaxTransactionsPerBlock = cfg.Consensus.MaxTransactionsPerBlock
	}
	if cfg.Consensus.TickInterval > 0 {
		sumeragiCfg.TickInterval = cfg.Consensus.TickInterval
	}

	metrics := core.NewConsensusMetrics()
	sumeragi := core.NewSumeragi(log, self, signer, net, queue, wsv, kura, sumeragiCfg, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	log.WithField("peer", self.String()).Info("starting sumeragi")
	return sumeragi.Run(ctx)
}
