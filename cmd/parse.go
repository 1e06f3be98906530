package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/moneta-bot/moneta"
	"github.com/moneta-bot/moneta/parser"
)

// parseCmd holds the flags for the 'parse' subcommand.
type parseCmd struct {
	user     string
	model    string
	fallback string
}

func (*parseCmd) Name() string { return "parse" }
func (*parseCmd) Synopsis() string {
	return "parse a free-form message into a resolved transaction"
}
func (*parseCmd) Usage() string {
	return `moneta parse -user <id> [-model <name>] <message...>

  Sends the message to the model, resolves the candidate against the
  user's accounts and prints the canonical transaction as JSON. Nothing
  is persisted.
`
}

func (c *parseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User whose accounts resolve the message.")
	f.StringVar(&c.model, "model", parser.DefaultModelName, "Model used for extraction.")
	f.StringVar(&c.fallback, "fallback-currency", "USD", "Currency used when nothing else can be inferred.")
}

func (c *parseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()

	text := strings.TrimSpace(strings.Join(f.Args(), " "))
	if text == "" {
		return usageError(c, "missing message text")
	}

	store, storeUser, closer, err := openStore(ctx)
	if err != nil {
		if errors.Is(err, errMissingDSN) {
			return usageError(c, err.Error())
		}
		log.Error().Err(err).Msg("opening store")
		return subcommands.ExitFailure
	}
	defer closer()

	user := c.user
	if user == "" {
		user = storeUser
	}
	if user == "" {
		return usageError(c, "missing required -user")
	}

	accounts, err := store.Accounts(ctx, user)
	if err != nil {
		log.Error().Err(err).Str("user", user).Msg("loading accounts")
		return subcommands.ExitFailure
	}

	p, err := parser.New(ctx, c.model)
	if err != nil {
		log.Error().Err(err).Msg("starting parser")
		return subcommands.ExitFailure
	}

	candidate, err := p.Parse(ctx, text)
	if err != nil {
		log.Error().Err(err).Msg("parsing message")
		return subcommands.ExitFailure
	}

	tx, err := moneta.ResolveCandidate(candidate, accounts, c.fallback, nil)
	if err != nil {
		log.Error().Err(err).Msg("resolving candidate")
		return subcommands.ExitFailure
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now()
	}

	raw, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("encoding transaction")
		return subcommands.ExitFailure
	}
	fmt.Fprintln(os.Stdout, string(raw))
	return subcommands.ExitSuccess
}
