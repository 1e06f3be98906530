// Package cmd implements the CLI application to reconcile ledgers.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/moneta-bot/moneta"
	"github.com/moneta-bot/moneta/memstore"
	"github.com/moneta-bot/moneta/postgres"
)

// Commands lists every subcommand a main package should register.
var Commands = []subcommands.Command{
	&reconcileCmd{},
	&balancesCmd{},
	&parseCmd{},
}

// As a CLI application with a short lived lifecycle, globals are fine here.

var dsnFlag = flag.String("dsn", "", "PostgreSQL connection string (defaults to $MONETA_DSN)")
var ledgerFlag = flag.String("ledger", "", "Path to a JSON ledger snapshot, instead of a database")

func init() {
	// Carry secrets from a .env file when present.
	godotenv.Load()
}

// newLogger builds the console logger used by every subcommand.
func newLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// openStore picks the store from the global flags: a JSON snapshot for
// offline use, otherwise PostgreSQL. The returned user id is non-empty
// only for snapshot stores, which carry exactly one user.
func openStore(ctx context.Context) (store moneta.Store, storeUser string, closer func(), err error) {
	if *ledgerFlag != "" {
		s, userID, err := memstore.Load(*ledgerFlag)
		if err != nil {
			return nil, "", nil, err
		}
		return s, userID, func() {}, nil
	}

	dsn := *dsnFlag
	if dsn == "" {
		dsn = os.Getenv("MONETA_DSN")
	}
	if dsn == "" {
		return nil, "", nil, errMissingDSN
	}
	pg, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, "", nil, err
	}
	return pg, "", func() { pg.Close() }, nil
}

var errMissingDSN = fmt.Errorf("no store configured: pass -dsn, set MONETA_DSN or use -ledger")

// printMarkdown writes a report to stdout, through glamour when the
// caller asked for terminal rendering.
func printMarkdown(md string, pretty bool) {
	if !pretty {
		fmt.Println(md)
		return
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}

// usageError prints the message followed by the command usage and maps to
// the usage exit status.
func usageError(c subcommands.Command, msg string) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error: "+msg)
	fmt.Fprint(os.Stderr, strings.TrimLeft(c.Usage(), "\n"))
	return subcommands.ExitUsageError
}
