package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	ledgerconfig "github.com/dft-ledger/ledgerd/internal/config"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/archive"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/archive/shard"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/chain"
	"github.com/dft-ledger/ledgerd/internal/core/ledger/service"
	"github.com/dft-ledger/ledgerd/internal/storage/statestore"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the token's metrics from its persisted snapshot, without serving",
	Long: `inspect loads the configuration and, if storage.state_snapshot_path
is set, the latest persisted snapshot, then prints TokenMetrics and
exits — it never starts the archival or snapshot tickers and takes no
gRPC listener. The snapshot store is opened through goleveldb, which
locks its directory, so inspect cannot open it while a running daemon
holds it.`,
	Run: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) {
	cfg, err := ledgerconfig.LoadConfig(configFile)
	if err != nil {
		log.Fatal("ledgerd: load config: ", err)
	}

	if cfg.Storage.StateSnapshotPath == "" {
		fmt.Println("no storage.state_snapshot_path configured; nothing persisted to inspect")
		fmt.Printf("token: %s (%s), decimals %d, owner %s\n", cfg.Token.Name, cfg.Token.Symbol, cfg.Token.Decimals, cfg.Token.OwnerText)
		return
	}

	state, err := statestore.Open(cfg.Storage.StateSnapshotPath)
	if err != nil {
		log.Fatal("ledgerd: open state store: ", err)
	}
	defer state.Close()

	data, ok, err := state.Load()
	if err != nil {
		log.Fatal("ledgerd: load snapshot: ", err)
	}
	if !ok {
		fmt.Println("no snapshot has been persisted yet")
		return
	}

	snap, err := service.DecodeSnapshot(data)
	if err != nil {
		log.Fatal("ledgerd: decode snapshot: ", err)
	}

	windowCfg := chain.WindowConfig{MaxInWindow: cfg.Window.MaxInWindow, RetentionNanos: cfg.Window.RetentionNanos}
	ledger, err := service.RestoreSnapshot(snap, windowCfg, archive.DefaultConfig(), shard.NewMemoryShard(), nil, 0, nil)
	if err != nil {
		log.Fatal("ledgerd: restore snapshot: ", err)
	}

	m := ledger.TokenMetrics()
	fmt.Printf("token:              %s\n", ledger.TokenID())
	fmt.Printf("total supply:       %s\n", m.TotalSupply)
	fmt.Printf("holders:            %d\n", m.HolderCount)
	fmt.Printf("allowances:         %d\n", m.AllowanceCount)
	fmt.Printf("chain length:       %d\n", m.ChainLength)
	fmt.Printf("archived prefix:    %d\n", m.ArchivedPrefixLen)
}
