package cmd

import (
	"context"
	"errors"
	"flag"

	"github.com/google/subcommands"

	"github.com/moneta-bot/moneta"
	"github.com/moneta-bot/moneta/renderer"
)

// balancesCmd holds the flags for the 'balances' subcommand.
type balancesCmd struct {
	user   string
	pretty bool
}

func (*balancesCmd) Name() string { return "balances" }
func (*balancesCmd) Synopsis() string {
	return "show stored balances next to the replayed ledger"
}
func (*balancesCmd) Usage() string {
	return `moneta balances -user <id> [-pretty]

  Replays the user's transaction history and prints the computed balance
  for every account and currency next to the stored one.
`
}

func (c *balancesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User whose balances to show.")
	f.BoolVar(&c.pretty, "pretty", false, "Render the report for the terminal.")
}

func (c *balancesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()

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
	txs, err := store.Transactions(ctx, user)
	if err != nil {
		log.Error().Err(err).Str("user", user).Msg("loading transactions")
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.BalancesMarkdown(user, accounts, moneta.Replay(txs)), c.pretty)
	return subcommands.ExitSuccess
}
