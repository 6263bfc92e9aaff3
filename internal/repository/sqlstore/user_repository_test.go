package sqlstore_test

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/repository"
	"github.com/vytor/arenalobby/internal/repository/sqlstore"
)

type UserRepositorySuite struct {
	storeSuite
	repo repository.UserRepository
}

func (s *UserRepositorySuite) SetupTest() {
	s.storeSuite.SetupTest()
	s.repo = sqlstore.NewUserRepository(s.db)
}

func (s *UserRepositorySuite) TestCreateAndLookup() {
	s.Require().NoError(s.repo.Create(s.ctx, models.Identity{ID: "u1", Email: "a@b.com", PasswordHash: "hash"}))

	byEmail, err := s.repo.GetByEmail(s.ctx, "a@b.com")
	s.Require().NoError(err)
	s.Require().NotNil(byEmail)
	s.Assert().Equal("u1", byEmail.ID)
	s.Assert().Equal("hash", byEmail.PasswordHash)

	byID, err := s.repo.GetByID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().NotNil(byID)
	s.Assert().Equal("a@b.com", byID.Email)
}

func (s *UserRepositorySuite) TestDuplicateEmail() {
	s.Require().NoError(s.repo.Create(s.ctx, models.Identity{ID: "u1", Email: "a@b.com", PasswordHash: "x"}))
	err := s.repo.Create(s.ctx, models.Identity{ID: "u2", Email: "a@b.com", PasswordHash: "y"})
	s.Assert().ErrorIs(err, repository.ErrDuplicateEmail)
}

func (s *UserRepositorySuite) TestMissing() {
	u, err := s.repo.GetByEmail(s.ctx, "nobody@b.com")
	s.Require().NoError(err)
	s.Assert().Nil(u)
}

func TestUserRepositorySuite(t *testing.T) {
	suite.Run(t, new(UserRepositorySuite))
}
