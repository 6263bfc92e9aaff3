package sqlstore_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/realtime"
	"github.com/vytor/arenalobby/internal/repository"
	"github.com/vytor/arenalobby/internal/repository/sqlstore"
)

type MatchRepositorySuite struct {
	storeSuite
	repo repository.MatchRepository
}

func (s *MatchRepositorySuite) SetupTest() {
	s.storeSuite.SetupTest()
	s.repo = sqlstore.NewMatchRepository(s.db, s.pub)
	s.seedProfile("host", 0, at(0))
}

func (s *MatchRepositorySuite) participants(matchID string) int {
	var n int
	s.Require().NoError(s.db.QueryRowContext(s.ctx, `SELECT COUNT(*) FROM match_participants WHERE match_id = ?`, matchID).Scan(&n))
	return n
}

func (s *MatchRepositorySuite) TestCreate_RecordsHostAsParticipant() {
	s.pub.Reset()
	m := s.seedMatch("Final", "host", 1, 2, at(1))

	s.Assert().NotEmpty(m.ID)
	s.Assert().Equal(models.MatchWaiting, m.Status)
	s.Require().NotNil(m.Host)
	s.Assert().Equal("user-host", m.Host.Username)
	s.Assert().Nil(m.StartedAt)
	s.Assert().Equal(1, s.participants(m.ID))

	changes := s.pub.Changes()
	s.Require().Len(changes, 1)
	s.Assert().Equal(realtime.Change{Table: realtime.TableMatches, Event: realtime.Insert, RecordID: m.ID}, changes[0])
}

func (s *MatchRepositorySuite) TestCreate_InvalidMode() {
	_, err := s.repo.Create(s.ctx, models.Match{
		Name: "x", HostID: "host", Mode: "Chaos", Difficulty: "Normal", Duration: "5", MaxPlayers: 2, CurrentPlayers: 1,
	})
	s.Assert().ErrorIs(err, repository.ErrInvalid)
}

func (s *MatchRepositorySuite) TestRecent_LimitAndOrder() {
	for i := 0; i < 12; i++ {
		s.seedMatch(name("match", i), "host", 1, 2, at(i))
	}

	matches, err := s.repo.Recent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(matches, 10)
	s.Assert().Equal("match-11", matches[0].Name)
	s.Assert().Equal("match-02", matches[9].Name)
	for i := 1; i < len(matches); i++ {
		s.Assert().False(matches[i].CreatedAt.After(matches[i-1].CreatedAt), "matches must be newest first")
	}
	for _, m := range matches {
		s.Require().NotNil(m.Host)
		s.Assert().Equal("host", m.Host.ID)
	}
}

func (s *MatchRepositorySuite) TestJoin_BelowCapacityKeepsWaiting() {
	s.seedProfile("guest", 0, at(0))
	m := s.seedMatch("Squad", "host", 1, 4, at(1))

	joined, err := s.repo.Join(s.ctx, m.ID, "guest")
	s.Require().NoError(err)
	s.Assert().Equal(2, joined.CurrentPlayers)
	s.Assert().Equal(models.MatchWaiting, joined.Status)
	s.Assert().Nil(joined.StartedAt)
	s.Assert().Equal(2, s.participants(m.ID))
}

func (s *MatchRepositorySuite) TestJoin_ReachingCapacityGoesLive() {
	s.seedProfile("guest", 0, at(0))
	m := s.seedMatch("Duel", "host", 1, 2, at(1))
	s.pub.Reset()

	joined, err := s.repo.Join(s.ctx, m.ID, "guest")
	s.Require().NoError(err)
	s.Assert().Equal(2, joined.CurrentPlayers)
	s.Assert().Equal(models.MatchLive, joined.Status)
	s.Assert().NotNil(joined.StartedAt)

	tables := []string{}
	for _, c := range s.pub.Changes() {
		tables = append(tables, c.Table)
	}
	s.Assert().Contains(tables, realtime.TableMatches)
}

func (s *MatchRepositorySuite) TestJoin_FullMatchRejected() {
	s.seedProfile("guest", 0, at(0))
	s.seedProfile("late", 0, at(0))
	m := s.seedMatch("Duel", "host", 1, 2, at(1))
	_, err := s.repo.Join(s.ctx, m.ID, "guest")
	s.Require().NoError(err)
	s.pub.Reset()

	_, err = s.repo.Join(s.ctx, m.ID, "late")
	s.Assert().ErrorIs(err, repository.ErrMatchFull)
	s.Assert().Empty(s.pub.Changes())

	got, err := s.repo.Get(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Assert().Equal(2, got.CurrentPlayers)
	s.Assert().Equal(2, s.participants(m.ID))
}

func (s *MatchRepositorySuite) TestJoin_Twice() {
	m := s.seedMatch("Squad", "host", 1, 4, at(1))

	_, err := s.repo.Join(s.ctx, m.ID, "host")
	s.Assert().ErrorIs(err, repository.ErrAlreadyJoined)

	got, err := s.repo.Get(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Assert().Equal(1, got.CurrentPlayers)
}

func (s *MatchRepositorySuite) TestJoin_UnknownMatch() {
	_, err := s.repo.Join(s.ctx, "missing", "host")
	s.Assert().ErrorIs(err, repository.ErrNotFound)
}

func (s *MatchRepositorySuite) TestJoin_ConcurrentNeverOverfills() {
	const joiners = 10
	for i := 0; i < joiners; i++ {
		s.seedProfile(name("guest", i), 0, at(0))
	}
	m := s.seedMatch("Battle", "host", 1, 4, at(1))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, full int
	)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.repo.Join(s.ctx, m.ID, name("guest", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, repository.ErrMatchFull):
				full++
			}
		}(i)
	}
	wg.Wait()

	s.Assert().Equal(3, ok)
	s.Assert().Equal(joiners-3, full)

	got, err := s.repo.Get(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Assert().Equal(4, got.CurrentPlayers)
	s.Assert().Equal(models.MatchLive, got.Status)
	s.Assert().Equal(4, s.participants(m.ID))
}

func TestMatchRepositorySuite(t *testing.T) {
	suite.Run(t, new(MatchRepositorySuite))
}
