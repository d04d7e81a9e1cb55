package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"outreach/internal/citizen/models"
	"outreach/pkg/delivery"
	"outreach/pkg/platform/sentinel"
)

type CitizenStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *CitizenStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
}

func TestCitizenStoreSuite(t *testing.T) {
	suite.Run(t, new(CitizenStoreSuite))
}

func (s *CitizenStoreSuite) newCitizen(citizenID string, offset time.Duration) *models.Citizen {
	c, err := models.NewCitizen(citizenID, models.Personal{Name: "Citizen " + citizenID}, models.Contact{Phone: "11988887777"}, s.now.Add(offset))
	s.Require().NoError(err)
	return c
}

func (s *CitizenStoreSuite) TestSaveAndFind() {
	s.Run("finds a saved citizen by id", func() {
		c := s.newCitizen("c1", 0)
		s.Require().NoError(s.store.Save(s.ctx, c))

		found, err := s.store.FindByID(s.ctx, "c1")
		s.Require().NoError(err)
		s.Equal(c, found)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.FindByID(s.ctx, "missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned citizens are copies", func() {
		c := s.newCitizen("c2", 0)
		s.Require().NoError(s.store.Save(s.ctx, c))

		found, err := s.store.FindByID(s.ctx, "c2")
		s.Require().NoError(err)
		found.RecordClick(s.now)

		again, err := s.store.FindByID(s.ctx, "c2")
		s.Require().NoError(err)
		s.False(again.IsEngaged())
	})
}

func (s *CitizenStoreSuite) TestFindByMessageID() {
	c := s.newCitizen("c1", 0)
	c.RecordSend(s.now, "wamid.1", "cloudapi", delivery.StatusSent)
	s.Require().NoError(s.store.Save(s.ctx, c))

	found, err := s.store.FindByMessageID(s.ctx, "wamid.1")
	s.Require().NoError(err)
	s.Equal("c1", found.ID)

	s.Run("a resend re-indexes the citizen", func() {
		c.RecordSend(s.now.Add(time.Hour), "wamid.2", "cloudapi", delivery.StatusSent)
		s.Require().NoError(s.store.Save(s.ctx, c))

		_, err := s.store.FindByMessageID(s.ctx, "wamid.1")
		s.ErrorIs(err, sentinel.ErrNotFound)

		found, err := s.store.FindByMessageID(s.ctx, "wamid.2")
		s.Require().NoError(err)
		s.Equal("c1", found.ID)
	})
}

func (s *CitizenStoreSuite) TestFindAllAndByIDs() {
	s.Require().NoError(s.store.Save(s.ctx, s.newCitizen("c3", 2*time.Minute)))
	s.Require().NoError(s.store.Save(s.ctx, s.newCitizen("c1", 0)))
	s.Require().NoError(s.store.Save(s.ctx, s.newCitizen("c2", time.Minute)))

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"c1", "c2", "c3"}, ids(all))

	some, err := s.store.FindByIDs(s.ctx, []string{"c3", "missing", "c1", "c3"})
	s.Require().NoError(err)
	s.Equal([]string{"c1", "c3"}, ids(some))
}

func ids(citizens []*models.Citizen) []string {
	out := make([]string, 0, len(citizens))
	for _, c := range citizens {
		out = append(out, c.ID)
	}
	return out
}
