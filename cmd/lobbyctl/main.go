package main

import (
	"context"
	"fmt"
	"os"

	"github.com/docopt/docopt-go"

	"github.com/vytor/arenalobby/internal/config"
	"github.com/vytor/arenalobby/internal/db"
	"github.com/vytor/arenalobby/internal/logger"
)

const LobbyctlVersion = "0.1.0"

const usage = `Arena lobby operator tool.

Usage:
    lobbyctl migrate
    lobbyctl tournament open <name> [--prize=<prize>] [--max=<max>] [--ends=<date>]
    lobbyctl tournament close <id>
    lobbyctl profile award <user_id> <points> [--win | --loss]
    lobbyctl leaderboard [--limit=<limit>]

Options:
    -h --help           Show this screen.
    --version           Show version.
    --prize=<prize>     Prize pool label.
    --max=<max>         Maximum participants [default: 64].
    --ends=<date>       End date, RFC 3339 or YYYY-MM-DD.
    --win               Record the award as a win.
    --loss              Record the award as a loss.
    --limit=<limit>     Number of profiles to list [default: 5].

The database is taken from DB_DRIVER and DB_DSN.`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], LobbyctlVersion)
	if err != nil {
		panic(err)
	}

	cfg := config.Load()
	log := logger.New(logger.WithLevel(logger.ParseLevel(cfg.LogLevel)), logger.WithOutput(os.Stderr))
	logger.SetDefault(log)
	ctx := logger.NewContext(context.Background(), log)

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := newCLI(database, os.Stdout).run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		database.Close()
		os.Exit(1)
	}
}
