package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/vytor/arenalobby/internal/db"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/realtime"
	"github.com/vytor/arenalobby/internal/repository/sqlstore"
	"github.com/vytor/arenalobby/internal/services"
)

type cli struct {
	db          *db.DB
	profiles    services.ProfileService
	tournaments services.TournamentService
	out         io.Writer
}

// newCLI wires the services against database. Running servers learn about
// changes through postgres NOTIFY; nothing is published in-process here.
func newCLI(database *db.DB, out io.Writer) *cli {
	return &cli{
		db:          database,
		profiles:    services.NewProfileService(sqlstore.NewProfileRepository(database, realtime.Discard)),
		tournaments: services.NewTournamentService(sqlstore.NewTournamentRepository(database, realtime.Discard)),
		out:         out,
	}
}

func (c *cli) run(ctx context.Context, opts docopt.Opts) error {
	if migrate, _ := opts.Bool("migrate"); migrate {
		return c.migrate(ctx)
	}
	if tournament, _ := opts.Bool("tournament"); tournament {
		if open, _ := opts.Bool("open"); open {
			return c.tournamentOpen(ctx, opts)
		}
		return c.tournamentClose(ctx, opts)
	}
	if profile, _ := opts.Bool("profile"); profile {
		return c.profileAward(ctx, opts)
	}
	if leaderboard, _ := opts.Bool("leaderboard"); leaderboard {
		return c.leaderboard(ctx, opts)
	}
	return fmt.Errorf("no command given")
}

func (c *cli) migrate(ctx context.Context) error {
	if err := c.db.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "migrations applied")
	return nil
}

func (c *cli) tournamentOpen(ctx context.Context, opts docopt.Opts) error {
	name, _ := opts.String("<name>")
	prize, _ := opts.String("--prize")

	maxRaw, _ := opts.String("--max")
	max, err := strconv.Atoi(maxRaw)
	if err != nil {
		return fmt.Errorf("--max must be a number: %w", err)
	}

	var ends *time.Time
	if raw, _ := opts.String("--ends"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return err
		}
		ends = &t
	}

	t, err := c.tournaments.StartTournament(ctx, services.NewTournament{
		Name:            name,
		PrizePool:       prize,
		MaxParticipants: max,
		EndDate:         ends,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "opened tournament %s (%s)\n", t.ID, t.Name)
	return nil
}

func (c *cli) tournamentClose(ctx context.Context, opts docopt.Opts) error {
	id, _ := opts.String("<id>")
	if err := c.tournaments.CloseTournament(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "closed tournament %s\n", id)
	return nil
}

func (c *cli) profileAward(ctx context.Context, opts docopt.Opts) error {
	userID, _ := opts.String("<user_id>")
	pointsRaw, _ := opts.String("<points>")
	points, err := strconv.Atoi(pointsRaw)
	if err != nil {
		return fmt.Errorf("<points> must be a number: %w", err)
	}

	outcome := models.OutcomeNone
	if win, _ := opts.Bool("--win"); win {
		outcome = models.OutcomeWin
	} else if loss, _ := opts.Bool("--loss"); loss {
		outcome = models.OutcomeLoss
	}

	p, err := c.profiles.AwardPoints(ctx, models.Award{ProfileID: userID, Points: points, Outcome: outcome})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s now has %d points (rank %d, level %d)\n", p.Username, p.Score, p.Rank, p.Level)
	return nil
}

func (c *cli) leaderboard(ctx context.Context, opts docopt.Opts) error {
	limitRaw, _ := opts.String("--limit")
	limit, err := strconv.Atoi(limitRaw)
	if err != nil || limit <= 0 {
		return fmt.Errorf("--limit must be a positive number")
	}

	profiles, err := c.profiles.Leaderboard(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tUSERNAME\tSCORE\tLEVEL\tW/L")
	for _, p := range profiles {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d/%d\n", p.Rank, p.Username, p.Score, p.Level, p.Wins, p.Losses)
	}
	return w.Flush()
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--ends must be RFC 3339 or YYYY-MM-DD: %q", raw)
	}
	return t.UTC(), nil
}
