package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/moneta-bot/moneta/cmd"
)

func main() {
	// Shell completion: when invoked by the completion hooks this call
	// prints candidates and exits.
	completion().Complete("moneta")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func completion() *complete.Command {
	sub := make(map[string]*complete.Command, len(cmd.Commands))
	for _, c := range cmd.Commands {
		sub[c.Name()] = &complete.Command{
			Flags: map[string]complete.Predictor{
				"user":   predict.Nothing,
				"pretty": predict.Nothing,
			},
		}
	}
	return &complete.Command{
		Sub: sub,
		Flags: map[string]complete.Predictor{
			"dsn":    predict.Nothing,
			"ledger": predict.Files("*.json"),
		},
	}
}
