package cmd

import (
	"context"
	"errors"
	"flag"

	"github.com/google/subcommands"

	"github.com/moneta-bot/moneta"
	"github.com/moneta-bot/moneta/renderer"
)

// reconcileCmd holds the flags for the 'reconcile' subcommand.
type reconcileCmd struct {
	user   string
	apply  bool
	pretty bool
}

func (*reconcileCmd) Name() string { return "reconcile" }
func (*reconcileCmd) Synopsis() string {
	return "canonicalize trades and realign balances for a user"
}
func (*reconcileCmd) Usage() string {
	return `moneta reconcile -user <id> [-apply] [-pretty]

  Replays the user's transaction history with every trade rewritten into
  canonical form and reports the balance adjustments this implies. By
  default nothing is persisted; -apply writes the rewrites and the new
  balances in a single atomic step.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User whose ledger to reconcile.")
	f.BoolVar(&c.apply, "apply", false, "Persist the plan instead of previewing it.")
	f.BoolVar(&c.pretty, "pretty", false, "Render the report for the terminal.")
}

func (c *reconcileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	mode := moneta.DryRun
	if c.apply {
		mode = moneta.Apply
	}

	plan, err := moneta.NewReconciler(store).Run(ctx, user, mode)
	if err != nil {
		log.Error().Err(err).Str("user", user).Msg("reconciliation failed")
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.ReconciliationMarkdown(plan), c.pretty)

	if mode == moneta.Apply && !plan.Empty() {
		log.Info().Str("user", user).
			Int("rewrites", len(plan.Rewrites)).
			Int("diffs", len(plan.Diffs)).
			Msg("plan applied")
	}
	return subcommands.ExitSuccess
}
