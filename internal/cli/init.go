package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	ledgerconfig "github.com/dft-ledger/ledgerd/internal/config"
)

var (
	initOwner string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `init writes a TOML configuration file pre-filled with ledgerd's
defaults (internal/config.Default) plus the --owner principal, ready
to be handed to "ledgerd serve --conf <path>".`,
	Run: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initOwner, "owner", "", "the token owner principal to seed the config with (required)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite the output file if it already exists")
}

func runInit(cmd *cobra.Command, args []string) {
	if initOwner == "" {
		log.Fatal("ledgerd: init: --owner is required")
	}
	path := configFile
	if path == "" {
		path = "ledgerd.toml"
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			log.Fatalf("ledgerd: init: %s already exists (use --force to overwrite)", path)
		}
	}

	cfg := ledgerconfig.Default()
	cfg.Token.OwnerText = initOwner

	data, err := toml.Marshal(cfg)
	if err != nil {
		log.Fatal("ledgerd: init: marshal config: ", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatal("ledgerd: init: write config: ", err)
	}
	fmt.Printf("ledgerd: wrote %s\n", path)
}
