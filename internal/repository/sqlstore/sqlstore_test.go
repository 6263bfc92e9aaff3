package sqlstore_test

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/arenalobby/internal/db"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/repository/sqlstore"
	"github.com/vytor/arenalobby/internal/testutil"
)

// storeSuite is embedded by every repository suite.
type storeSuite struct {
	suite.Suite
	db  *db.DB
	pub *testutil.RecordingPublisher
	ctx context.Context
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func (s *storeSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.pub = &testutil.RecordingPublisher{}
	s.ctx = context.Background()
}

func (s *storeSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *storeSuite) seedProfile(id string, score int, createdAt time.Time) *models.Profile {
	avatar := "P"
	p, err := sqlstore.NewProfileRepository(s.db, s.pub).Create(s.ctx, models.Profile{
		ID:        id,
		Username:  "user-" + id,
		Score:     score,
		Avatar:    &avatar,
		CreatedAt: createdAt,
	})
	s.Require().NoError(err)
	return p
}

func (s *storeSuite) seedMatch(name, hostID string, current, max int, createdAt time.Time) *models.Match {
	prize := models.DefaultPrize
	stadium := models.DefaultStadium
	m, err := sqlstore.NewMatchRepository(s.db, s.pub).Create(s.ctx, models.Match{
		Name:           name,
		HostID:         hostID,
		Mode:           models.DefaultMode,
		Difficulty:     models.DefaultDifficulty,
		Duration:       models.DefaultDuration,
		Stadium:        &stadium,
		Prize:          &prize,
		MaxPlayers:     max,
		CurrentPlayers: current,
		CreatedAt:      createdAt,
	})
	s.Require().NoError(err)
	return m
}

func at(minutes int) time.Time {
	return baseTime.Add(time.Duration(minutes) * time.Minute)
}

func name(prefix string, i int) string {
	return fmt.Sprintf("%s-%02d", prefix, i)
}
