package cli

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	ledgerconfig "github.com/dft-ledger/ledgerd/internal/config"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/amount"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/archive"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/archive/shard"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/chain"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/config"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/fee"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/identity"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/service"
	"github.com/dft-ledger/ledgerd/internal/storage/statestore"
	"github.com/dft-ledger/ledgerd/internal/storage/txindex"
)

var (
	archiveInterval  time.Duration
	snapshotInterval time.Duration
	hostShard        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger daemon: archival ticking and periodic state snapshots",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.Run = runServe

	serveCmd.Flags().DurationVar(&archiveInterval, "archive-interval", 30*time.Second, "how often to attempt handing the archivable block prefix to a shard")
	serveCmd.Flags().DurationVar(&snapshotInterval, "snapshot-interval", 60*time.Second, "how often to persist a state snapshot (requires storage.state_snapshot_path)")
	serveCmd.Flags().BoolVar(&hostShard, "shard-host", false, "also host an in-process auxiliary storage shard over gRPC")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := ledgerconfig.LoadConfig(configFile)
	if err != nil {
		log.Fatal("ledgerd: load config: ", err)
	}

	owner, err := identity.ParsePrincipal(cfg.Token.OwnerText)
	if err != nil {
		log.Fatal("ledgerd: parse token.owner: ", err)
	}
	feeTo := identity.NewDefaultHolder(owner)
	if cfg.Token.FeeToText != "" {
		feeToPrincipal, err := identity.ParsePrincipal(cfg.Token.FeeToText)
		if err != nil {
			log.Fatal("ledgerd: parse token.fee_to: ", err)
		}
		feeTo = identity.NewDefaultHolder(feeToPrincipal)
	}

	minimum, err := amount.FromString(cfg.Fee.Minimum)
	if err != nil {
		log.Fatal("ledgerd: parse fee.minimum: ", err)
	}
	feeSchedule := fee.Schedule{Minimum: minimum, Rate: cfg.Fee.Rate, RateDecimals: cfg.Fee.RateDecimals}

	tokenID := deriveTokenID(cfg.Token.Symbol, cfg.Token.Name)

	var shardClient shard.Client
	var shardServer *shard.Server
	if hostShard {
		mem := shard.NewMemoryShard()
		shardClient = mem
		shardServer = shard.NewServer(mem)
		if err := shardServer.StartAsync(cfg.Server.GRPCAddr); err != nil {
			log.Fatal("ledgerd: start shard host: ", err)
		}
		log.Printf("ledgerd: hosting in-process shard at %s", cfg.Server.GRPCAddr)
	} else if cfg.Archive.ShardTarget != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := shard.DialGRPCClient(ctx, cfg.Archive.ShardTarget)
		cancel()
		if err != nil {
			log.Fatal("ledgerd: dial shard target: ", err)
		}
		shardClient = client
	} else {
		shardClient = shard.NewMemoryShard()
	}

	var state *statestore.Store
	if cfg.Storage.StateSnapshotPath != "" {
		state, err = statestore.Open(cfg.Storage.StateSnapshotPath)
		if err != nil {
			log.Fatal("ledgerd: open state store: ", err)
		}
		defer state.Close()
	}

	var txIndexLookup service.TxIndexLookup
	ctx := context.Background()
	if cfg.Storage.TxIndexDSN != "" {
		driver := "sqlite"
		txIdx, err := txindex.Open(ctx, driver, cfg.Storage.TxIndexDSN)
		if err != nil {
			log.Fatal("ledgerd: open tx index: ", err)
		}
		defer txIdx.Close()
		txIndexLookup = txIdx
	}

	windowCfg := chain.WindowConfig{MaxInWindow: cfg.Window.MaxInWindow, RetentionNanos: cfg.Window.RetentionNanos}
	archiveCfg := archive.Config{
		MaxBatchBytes:     cfg.Archive.MaxBatchBytes,
		MaxShardBytes:     cfg.Archive.MaxShardBytes,
		MaxBlocksPerBatch: cfg.Archive.MaxBlocksPerBatch,
	}
	clock := func() uint64 { return uint64(time.Now().UnixNano()) }

	var ledger *service.Ledger
	if state != nil {
		if data, ok, err := state.Load(); err != nil {
			log.Fatal("ledgerd: load snapshot: ", err)
		} else if ok {
			snap, err := service.DecodeSnapshot(data)
			if err != nil {
				log.Fatal("ledgerd: decode snapshot: ", err)
			}
			ledger, err = service.RestoreSnapshot(snap, windowCfg, archiveCfg, shardClient, clock, 0, txIndexLookup)
			if err != nil {
				log.Fatal("ledgerd: restore snapshot: ", err)
			}
			log.Printf("ledgerd: restored state (chain length %d)", ledger.TokenMetrics().ChainLength)
		}
	}
	if ledger == nil {
		ledger, err = service.New(service.Options{
			TokenID:      tokenID,
			Owner:        owner,
			Meta:         config.Meta{Symbol: cfg.Token.Symbol, Name: cfg.Token.Name, Decimals: cfg.Token.Decimals},
			FeeTo:        feeTo,
			FeeSchedule:  feeSchedule,
			WindowConfig: windowCfg,
			ArchiveConfig: archiveCfg,
			ShardClient:  shardClient,
			Clock:        clock,
			TxIndex:      txIndexLookup,
		})
		if err != nil {
			log.Fatal("ledgerd: create ledger: ", err)
		}
		log.Printf("ledgerd: initialized token %s (%s)", cfg.Token.Symbol, tokenID)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	archiveTicker := time.NewTicker(archiveInterval)
	defer archiveTicker.Stop()

	var snapshotTicker *time.Ticker
	if state != nil {
		snapshotTicker = time.NewTicker(snapshotInterval)
		defer snapshotTicker.Stop()
	}

	log.Println("ledgerd: serving")
	for {
		var snapshotChan <-chan time.Time
		if snapshotTicker != nil {
			snapshotChan = snapshotTicker.C
		}
		select {
		case <-stop:
			log.Println("ledgerd: shutting down")
			if shardServer != nil {
				shardServer.Stop()
			}
			return
		case <-archiveTicker.C:
			archiveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := ledger.TriggerArchive(archiveCtx); err != nil {
				log.Printf("ledgerd: archive attempt: %v", err)
			}
			cancel()
		case <-snapshotChan:
			data, err := service.EncodeSnapshot(ledger.Snapshot())
			if err != nil {
				log.Printf("ledgerd: encode snapshot: %v", err)
				continue
			}
			if err := state.Save(data); err != nil {
				log.Printf("ledgerd: save snapshot: %v", err)
			}
		}
	}
}

func deriveTokenID(symbol, name string) identity.Principal {
	sum := sha256.Sum256([]byte(fmt.Sprintf("ledgerd-token:%s:%s", symbol, name)))
	return identity.Principal(sum[:10])
}
