// Command financas refreshes the personal finance ledger from the bank
// exports and answers analytics queries over it as JSON.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&refreshCmd{}, "ledger")
	commander.Register(&requestRefreshCmd{}, "ledger")
	commander.Register(&statusCmd{}, "ledger")

	commander.Register(&monthsCmd{}, "queries")
	commander.Register(&statementCmd{}, "queries")
	commander.Register(&rollupCmd{}, "queries")
	commander.Register(&categoriesCmd{}, "queries")
	commander.Register(&dailyCmd{}, "queries")
	commander.Register(&distributionCmd{}, "queries")

	flag.Parse()

	a := &app{}
	status := commander.Execute(context.Background(), a)
	a.close()
	os.Exit(int(status))
}
