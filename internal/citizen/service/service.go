package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"outreach/internal/citizen/lock"
	"outreach/internal/citizen/metrics"
	"outreach/internal/citizen/models"
	"outreach/internal/messaging/providers"
	dErrors "outreach/pkg/domain-errors"
	"outreach/pkg/platform/events"
	"outreach/pkg/platform/sentinel"
	"outreach/pkg/requestcontext"
)

// Store persists citizens.
type Store interface {
	Save(ctx context.Context, c *models.Citizen) error
	FindByID(ctx context.Context, citizenID string) (*models.Citizen, error)
	FindByMessageID(ctx context.Context, messageID string) (*models.Citizen, error)
	FindByIDs(ctx context.Context, citizenIDs []string) ([]*models.Citizen, error)
	FindAll(ctx context.Context) ([]*models.Citizen, error)
}

// Gateway sends outreach messages. On success it records the send on the
// citizen it is given.
type Gateway interface {
	SendOutreach(ctx context.Context, c *models.Citizen) (*providers.SendResult, error)
}

// Publisher emits engagement events.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service runs the citizen use cases. Every mutation happens under the
// citizen's lock: load, mutate, save, then publish.
type Service struct {
	store     Store
	gateway   Gateway
	locker    lock.Locker
	publisher *events.Async
	logger    *slog.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time

	sink Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPublisher sets where engagement events go. Events are queued and
// delivered by a background worker, so a stalled broker never holds a
// citizen lock or a request. Call Close to drain the queue.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.sink = p
	}
}

func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

// WithClock overrides the request-scoped clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.clock = now
	}
}

// New constructs a Service. The locker defaults to an in-process keyed mutex.
func New(store Store, gateway Gateway, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("citizen store is required")
	}
	if gateway == nil {
		return nil, errors.New("messaging gateway is required")
	}
	s := &Service{store: store, gateway: gateway}
	for _, opt := range opts {
		opt(s)
	}
	if s.locker == nil {
		s.locker = lock.NewKeyed()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.sink != nil {
		s.publisher = events.NewAsync(s.sink, events.WithAsyncLogger(s.logger))
	}
	return s, nil
}

// Flush waits until queued engagement events reach the publisher.
func (s *Service) Flush() {
	if s.publisher != nil {
		s.publisher.Flush()
	}
}

// Close drains queued engagement events and stops the publishing worker.
func (s *Service) Close() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}

// IntakeCommand registers a citizen. ID is generated when empty.
type IntakeCommand struct {
	ID            string
	Name          string
	Age           int
	Neighborhood  string
	Phone         string
	ChannelHandle string
}

// Intake creates a citizen with an empty engagement record.
func (s *Service) Intake(ctx context.Context, cmd IntakeCommand) (*models.Citizen, error) {
	citizenID := strings.TrimSpace(cmd.ID)
	if citizenID == "" {
		citizenID = uuid.NewString()
	}

	c, err := models.NewCitizen(citizenID,
		models.Personal{
			Name:         strings.TrimSpace(cmd.Name),
			Age:          cmd.Age,
			Neighborhood: strings.TrimSpace(cmd.Neighborhood),
		},
		models.Contact{
			Phone:         strings.TrimSpace(cmd.Phone),
			ChannelHandle: strings.TrimSpace(cmd.ChannelHandle),
		},
		s.now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	err = s.withLock(ctx, citizenID, func() error {
		if _, err := s.store.FindByID(ctx, citizenID); err == nil {
			return dErrors.New(dErrors.CodeConflict, "citizen already exists")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load citizen")
		}
		if err := s.store.Save(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save citizen")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementRegistration()
	s.publish(ctx, events.TypeCitizenRegistered, c, map[string]string{
		"neighborhood": c.NeighborhoodOrDefault(),
	})
	s.logger.InfoContext(ctx, "citizen registered",
		"request_id", requestcontext.RequestID(ctx),
		"citizen_id", c.ID,
	)
	return c, nil
}

// Get returns one citizen.
func (s *Service) Get(ctx context.Context, citizenID string) (*models.Citizen, error) {
	return s.load(ctx, citizenID)
}

// List returns every citizen.
func (s *Service) List(ctx context.Context) ([]*models.Citizen, error) {
	citizens, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list citizens")
	}
	return citizens, nil
}

func (s *Service) load(ctx context.Context, citizenID string) (*models.Citizen, error) {
	c, err := s.store.FindByID(ctx, citizenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "citizen not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load citizen")
	}
	return c, nil
}

// withLock runs fn while holding the citizen's lock. The lock is released on
// every path.
func (s *Service) withLock(ctx context.Context, citizenID string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, citizenID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "timed out waiting for citizen lock")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock citizen")
	}
	defer unlock()
	return fn()
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

func (s *Service) publish(ctx context.Context, eventType events.Type, c *models.Citizen, attrs map[string]string) {
	if s.publisher == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		CitizenID:  c.ID,
		OccurredAt: s.now(ctx),
		RequestID:  requestcontext.RequestID(ctx),
		Attributes: attrs,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to queue engagement event",
			"request_id", event.RequestID,
			"citizen_id", c.ID,
			"event_type", string(eventType),
			"error", err,
		)
	}
}
