package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/docopt/docopt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/realtime"
	"github.com/vytor/arenalobby/internal/repository/sqlstore"
	"github.com/vytor/arenalobby/internal/testutil"
)

type harness struct {
	cli *cli
	out *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	database := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, database) })

	profiles := sqlstore.NewProfileRepository(database, realtime.Discard)
	for _, name := range []string{"kai", "zia"} {
		_, err := profiles.Create(context.Background(), models.Profile{ID: name, Username: name})
		require.NoError(t, err)
	}

	out := &bytes.Buffer{}
	return &harness{cli: newCLI(database, out), out: out}
}

func (h *harness) run(t *testing.T, args string) error {
	t.Helper()
	h.out.Reset()
	opts, err := docopt.ParseArgs(usage, strings.Fields(args), LobbyctlVersion)
	require.NoError(t, err)
	return h.cli.run(context.Background(), opts)
}

func TestMigrateIsRepeatable(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, "migrate"))
	assert.Contains(t, h.out.String(), "migrations applied")
}

func TestProfileAwardAndLeaderboard(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "profile award zia 120 --win"))
	assert.Contains(t, h.out.String(), "zia now has 120 points (rank 1, level 1)")

	require.NoError(t, h.run(t, "profile award kai 30 --loss"))

	require.NoError(t, h.run(t, "leaderboard --limit=2"))
	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "USERNAME")
	assert.Contains(t, lines[1], "zia")
	assert.Contains(t, lines[1], "1/0")
	assert.Contains(t, lines[2], "kai")
	assert.Contains(t, lines[2], "0/1")
}

func TestProfileAwardErrors(t *testing.T) {
	h := newHarness(t)

	assert.Error(t, h.run(t, "profile award zia lots"))
	assert.Error(t, h.run(t, "profile award ghost 10"))
}

func TestTournamentOpenAndClose(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.run(t, "tournament open Spring --prize=1000 --max=32 --ends=2099-12-01"))
	assert.Contains(t, h.out.String(), "opened tournament")

	open, err := h.cli.tournaments.OpenTournament(ctx)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, "Spring", open.Name)
	assert.Equal(t, "1000", open.PrizePool)
	assert.Equal(t, 32, open.MaxParticipants)
	require.NotNil(t, open.EndDate)
	assert.Equal(t, "2099-12-01", open.EndDate.Format("2006-01-02"))

	require.NoError(t, h.run(t, "tournament close "+open.ID))
	open, err = h.cli.tournaments.OpenTournament(ctx)
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestTournamentOpenValidatesFlags(t *testing.T) {
	h := newHarness(t)

	assert.Error(t, h.run(t, "tournament open Spring --max=many"))
	assert.Error(t, h.run(t, "tournament open Spring --ends=tomorrow"))
	assert.Error(t, h.run(t, "tournament close missing"))
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2026-05-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, d.Hour())

	_, err = parseDate("05/01/2026")
	assert.Error(t, err)
}
