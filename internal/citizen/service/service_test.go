package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"outreach/internal/citizen/models"
	"outreach/internal/citizen/service/mocks"
	"outreach/internal/messaging/gateway"
	"outreach/internal/messaging/providers"
	"outreach/pkg/delivery"
	dErrors "outreach/pkg/domain-errors"
	"outreach/pkg/platform/events"
	"outreach/pkg/platform/sentinel"
)

// =============================================================================
// Citizen Service Test Suite
// =============================================================================
// Justification for unit tests: the service owns error translation, the
// load-mutate-save sequence under the citizen lock, and event emission. The
// store, gateway and publisher are mocked so each path asserts exactly which
// side effects happen.

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	gateway   *mocks.MockGateway
	publisher *mocks.MockPublisher
	service   *Service
	now       time.Time

	mu        sync.Mutex
	published []events.Event
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.gateway = mocks.NewMockGateway(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.published = nil

	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e events.Event) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.published = append(s.published, e)
		return nil
	}).AnyTimes()

	var err error
	s.service, err = New(s.store, s.gateway,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithPublisher(s.publisher),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.service.Close()
	s.ctrl.Finish()
}

func (s *ServiceSuite) citizen(citizenID string) *models.Citizen {
	c, err := models.NewCitizen(citizenID, models.Personal{Name: "Ana"}, models.Contact{Phone: "11988887777"}, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) publishedTypes() []events.Type {
	s.service.Flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Type, 0, len(s.published))
	for _, e := range s.published {
		out = append(out, e.Type)
	}
	return out
}

// recordingSend mimics the gateway: it records the send on the citizen.
func recordingSend(messageID string, at time.Time) func(context.Context, *models.Citizen) (*providers.SendResult, error) {
	return func(_ context.Context, c *models.Citizen) (*providers.SendResult, error) {
		c.RecordSend(at, messageID, "cloudapi", delivery.StatusSent)
		return &providers.SendResult{Success: true, MessageID: messageID, Provider: "cloudapi", Status: delivery.StatusSent}, nil
	}
}

// =============================================================================
// Constructor
// =============================================================================

func (s *ServiceSuite) TestNew() {
	_, err := New(nil, s.gateway)
	s.Error(err)

	_, err = New(s.store, nil)
	s.Error(err)
}

// =============================================================================
// Intake
// =============================================================================

func (s *ServiceSuite) TestIntake() {
	s.Run("generates an id and saves", func() {
		s.store.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		c, err := s.service.Intake(context.Background(), IntakeCommand{Name: " Ana ", Phone: "11988887777"})
		s.Require().NoError(err)

		s.NotEmpty(c.ID)
		s.Equal("Ana", c.Personal.Name)
		s.Equal(s.now, c.CreatedAt)
		s.Equal(models.EngagementNotContacted, c.EngagementStatus())
		s.Contains(s.publishedTypes(), events.TypeCitizenRegistered)
	})

	s.Run("rejects a duplicate id", func() {
		s.store.EXPECT().FindByID(gomock.Any(), "c1").Return(s.citizen("c1"), nil)

		_, err := s.service.Intake(context.Background(), IntakeCommand{ID: "c1", Name: "Ana"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects a missing name without touching the store", func() {
		_, err := s.service.Intake(context.Background(), IntakeCommand{ID: "c1"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestGet() {
	s.store.EXPECT().FindByID(gomock.Any(), "missing").Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Get(context.Background(), "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// =============================================================================
// SendOutreach
// =============================================================================

func (s *ServiceSuite) TestSendOutreach() {
	s.Run("persists the recorded send", func() {
		c := s.citizen("c1")
		s.store.EXPECT().FindByID(gomock.Any(), "c1").Return(c, nil)
		s.gateway.EXPECT().SendOutreach(gomock.Any(), c).DoAndReturn(recordingSend("wamid.1", s.now))
		s.store.EXPECT().Save(gomock.Any(), c).DoAndReturn(func(_ context.Context, saved *models.Citizen) error {
			s.True(saved.WasContacted())
			s.Equal("wamid.1", saved.Engagement.MessageID)
			return nil
		})

		result, err := s.service.SendOutreach(context.Background(), "c1")
		s.Require().NoError(err)
		s.Equal(&OutreachResult{CitizenID: "c1", MessageID: "wamid.1", Provider: "cloudapi", Status: "sent"}, result)
		s.Contains(s.publishedTypes(), events.TypeOutreachSent)
	})

	s.Run("provider failure leaves the citizen unsaved", func() {
		c := s.citizen("c2")
		providerErr := providers.NewProviderError(providers.ErrorRejected, "cloudapi", http.StatusBadRequest, "bad number", nil)
		s.store.EXPECT().FindByID(gomock.Any(), "c2").Return(c, nil)
		s.gateway.EXPECT().SendOutreach(gomock.Any(), c).Return(nil, providerErr)

		_, err := s.service.SendOutreach(context.Background(), "c2")

		s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))
		var pe *providers.ProviderError
		s.ErrorAs(err, &pe)
		s.False(c.WasContacted())
		s.Contains(s.publishedTypes(), events.TypeOutreachFailed)
	})

	s.Run("provider timeout", func() {
		c := s.citizen("c3")
		s.store.EXPECT().FindByID(gomock.Any(), "c3").Return(c, nil)
		s.gateway.EXPECT().SendOutreach(gomock.Any(), c).
			Return(nil, providers.NewProviderError(providers.ErrorTimeout, "cloudapi", 0, "deadline", context.DeadlineExceeded))

		_, err := s.service.SendOutreach(context.Background(), "c3")
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	s.Run("no channel", func() {
		c := s.citizen("c4")
		s.store.EXPECT().FindByID(gomock.Any(), "c4").Return(c, nil)
		s.gateway.EXPECT().SendOutreach(gomock.Any(), c).Return(nil, gateway.ErrNoChannel)

		_, err := s.service.SendOutreach(context.Background(), "c4")
		s.ErrorIs(err, gateway.ErrNoChannel)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown citizen", func() {
		s.store.EXPECT().FindByID(gomock.Any(), "nobody").Return(nil, sentinel.ErrNotFound)

		_, err := s.service.SendOutreach(context.Background(), "nobody")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestSendBatch() {
	s.Run("collects per-citizen failures", func() {
		ok1, ok2, bad := s.citizen("c1"), s.citizen("c2"), s.citizen("c3")
		s.store.EXPECT().FindByIDs(gomock.Any(), []string{"c1", "c2", "c3", "ghost"}).Return([]*models.Citizen{ok1, ok2, bad}, nil)
		s.store.EXPECT().FindByID(gomock.Any(), "c1").Return(ok1, nil)
		s.store.EXPECT().FindByID(gomock.Any(), "c2").Return(ok2, nil)
		s.store.EXPECT().FindByID(gomock.Any(), "c3").Return(bad, nil)
		s.gateway.EXPECT().SendOutreach(gomock.Any(), ok1).DoAndReturn(recordingSend("m1", s.now))
		s.gateway.EXPECT().SendOutreach(gomock.Any(), ok2).DoAndReturn(recordingSend("m2", s.now))
		s.gateway.EXPECT().SendOutreach(gomock.Any(), bad).Return(nil, gateway.ErrNoChannel)
		s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).Times(2)

		result, err := s.service.SendBatch(context.Background(), []string{"c1", "c2", "c3", "ghost"}, 2)
		s.Require().NoError(err)

		s.Len(result.Sent, 2)
		s.Require().Len(result.Failed, 1)
		s.Equal("c3", result.Failed[0].CitizenID)
		s.Equal(dErrors.CodeValidation, result.Failed[0].Code)
		s.Equal([]string{"ghost"}, result.Skipped)
	})

	s.Run("empty list targets uncontacted citizens", func() {
		fresh, done := s.citizen("c1"), s.citizen("c2")
		done.RecordSend(s.now, "old", "cloudapi", delivery.StatusSent)
		s.store.EXPECT().FindAll(gomock.Any()).Return([]*models.Citizen{fresh, done}, nil)
		s.store.EXPECT().FindByID(gomock.Any(), "c1").Return(fresh, nil)
		s.gateway.EXPECT().SendOutreach(gomock.Any(), fresh).DoAndReturn(recordingSend("m1", s.now))
		s.store.EXPECT().Save(gomock.Any(), fresh).Return(nil)

		result, err := s.service.SendBatch(context.Background(), nil, 0)
		s.Require().NoError(err)
		s.Len(result.Sent, 1)
		s.Empty(result.Failed)
	})

	s.Run("explicit list resends to contacted citizens", func() {
		done := s.citizen("c2")
		done.RecordSend(s.now.Add(-time.Hour), "old", "cloudapi", delivery.StatusSent)
		s.store.EXPECT().FindByIDs(gomock.Any(), []string{"c2"}).Return([]*models.Citizen{done}, nil)
		s.store.EXPECT().FindByID(gomock.Any(), "c2").Return(done, nil)
		s.gateway.EXPECT().SendOutreach(gomock.Any(), done).DoAndReturn(recordingSend("m-new", s.now))
		s.store.EXPECT().Save(gomock.Any(), done).Return(nil)

		result, err := s.service.SendBatch(context.Background(), []string{"c2"}, 1)
		s.Require().NoError(err)
		s.Require().Len(result.Sent, 1)
		s.Equal("m-new", result.Sent[0].MessageID)
		s.Empty(result.Skipped)
		s.Equal("m-new", done.Engagement.MessageID)
	})

	s.Run("store failure aborts", func() {
		s.store.EXPECT().FindAll(gomock.Any()).Return(nil, errors.New("db down"))

		_, err := s.service.SendBatch(context.Background(), nil, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// ApplyStatusEvents
// =============================================================================

func (s *ServiceSuite) TestApplyStatusEvents() {
	s.Run("applies a matched event", func() {
		c := s.citizen("c1")
		c.RecordSend(s.now, "wamid.1", "cloudapi", delivery.StatusSent)
		at := s.now.Add(time.Minute)
		s.store.EXPECT().FindByMessageID(gomock.Any(), "wamid.1").Return(c, nil)
		s.store.EXPECT().FindByID(gomock.Any(), "c1").Return(c, nil)
		s.store.EXPECT().Save(gomock.Any(), c).Return(nil)

		processed, ignored, err := s.service.ApplyStatusEvents(context.Background(), []providers.DeliveryStatusEvent{
			{MessageID: "wamid.1", Status: delivery.StatusDelivered, Timestamp: at},
		})
		s.Require().NoError(err)
		s.Equal(1, processed)
		s.Zero(ignored)
		s.Equal(delivery.StatusDelivered, c.DeliveryStatus())
		s.Equal(at, *c.Engagement.StatusUpdatedAt)
		s.Contains(s.publishedTypes(), events.TypeDeliveryStatusChanged)
	})

	s.Run("ignores unknown messages, stale and unrecognized statuses", func() {
		c := s.citizen("c2")
		c.RecordSend(s.now, "wamid.2", "cloudapi", delivery.StatusRead)
		s.store.EXPECT().FindByMessageID(gomock.Any(), "ghost").Return(nil, sentinel.ErrNotFound)
		s.store.EXPECT().FindByMessageID(gomock.Any(), "wamid.2").Return(c, nil).Times(2)
		s.store.EXPECT().FindByID(gomock.Any(), "c2").Return(c, nil).Times(2)

		processed, ignored, err := s.service.ApplyStatusEvents(context.Background(), []providers.DeliveryStatusEvent{
			{MessageID: "ghost", Status: delivery.StatusDelivered},
			{MessageID: "wamid.2", Status: delivery.StatusDelivered},
			{MessageID: "wamid.2", Status: delivery.Status("warning")},
			{Status: delivery.StatusRead},
		})
		s.Require().NoError(err)
		s.Zero(processed)
		s.Equal(4, ignored)
		s.Equal(delivery.StatusRead, c.DeliveryStatus())
	})

	s.Run("ignores events for a replaced message", func() {
		stale := s.citizen("c3")
		stale.RecordSend(s.now, "wamid.old", "cloudapi", delivery.StatusSent)
		current := stale.Clone()
		current.RecordSend(s.now.Add(time.Hour), "wamid.new", "cloudapi", delivery.StatusSent)
		s.store.EXPECT().FindByMessageID(gomock.Any(), "wamid.old").Return(stale, nil)
		s.store.EXPECT().FindByID(gomock.Any(), "c3").Return(current, nil)

		processed, ignored, err := s.service.ApplyStatusEvents(context.Background(), []providers.DeliveryStatusEvent{
			{MessageID: "wamid.old", Status: delivery.StatusFailed},
		})
		s.Require().NoError(err)
		s.Zero(processed)
		s.Equal(1, ignored)
		s.Equal(delivery.StatusSent, current.DeliveryStatus())
	})

	s.Run("store errors abort", func() {
		s.store.EXPECT().FindByMessageID(gomock.Any(), "wamid.9").Return(nil, errors.New("db down"))

		_, _, err := s.service.ApplyStatusEvents(context.Background(), []providers.DeliveryStatusEvent{
			{MessageID: "wamid.9", Status: delivery.StatusRead},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// RecordClick and SubmitSurvey
// =============================================================================

func (s *ServiceSuite) TestRecordClick() {
	c := s.citizen("c1")
	s.store.EXPECT().FindByID(gomock.Any(), "c1").Return(c, nil).Times(2)
	s.store.EXPECT().Save(gomock.Any(), c).Return(nil).Times(1)

	_, err := s.service.RecordClick(context.Background(), "c1", "mobile")
	s.Require().NoError(err)
	s.Equal(s.now, *c.Engagement.ClickedAt)

	s.now = s.now.Add(time.Hour)
	_, err = s.service.RecordClick(context.Background(), "c1", "desktop")
	s.Require().NoError(err)
	s.Equal(s.now.Add(-time.Hour), *c.Engagement.ClickedAt)

	clicks := 0
	for _, t := range s.publishedTypes() {
		if t == events.TypeLinkClicked {
			clicks++
		}
	}
	s.Equal(1, clicks)
}

func (s *ServiceSuite) TestSubmitSurvey() {
	s.Run("records once then conflicts", func() {
		c := s.citizen("c1")
		s.store.EXPECT().FindByID(gomock.Any(), "c1").Return(c, nil).Times(2)
		s.store.EXPECT().Save(gomock.Any(), c).Return(nil).Times(1)

		_, err := s.service.SubmitSurvey(context.Background(), "c1", SurveyCommand{Issue: "health", Satisfaction: 5, ParticipationIntent: true})
		s.Require().NoError(err)

		_, err = s.service.SubmitSurvey(context.Background(), "c1", SurveyCommand{Issue: "security", Satisfaction: 1})
		s.ErrorIs(err, models.ErrAlreadyResponded)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		resp, ok := c.SurveyResponse()
		s.Require().True(ok)
		s.Equal("health", resp.Issue)
		s.Equal(s.now, resp.AnsweredAt)
	})

	s.Run("rejects incomplete answers", func() {
		c := s.citizen("c2")
		s.store.EXPECT().FindByID(gomock.Any(), "c2").Return(c, nil)

		_, err := s.service.SubmitSurvey(context.Background(), "c2", SurveyCommand{Issue: "health", Satisfaction: 9})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.False(c.HasResponded())
	})
}
