package main

import "github.com/dft-ledger/ledgerd/internal/cli"

func main() {
	cli.Execute()
}
