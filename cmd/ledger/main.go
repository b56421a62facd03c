// Command ledger is a versioned personal-finance ledger: a balance sheet and
// a budget whose every change is kept, so that any past state can be rebuilt
// and compared.
//
// Configuration comes from ledger.yaml, a .env file, LEDGER_* environment
// variables and flags; see "ledger --help".
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/ledger/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
