package service

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"outreach/internal/citizen/models"
	"outreach/internal/messaging/gateway"
	"outreach/internal/messaging/providers"
	dErrors "outreach/pkg/domain-errors"
	"outreach/pkg/platform/events"
	"outreach/pkg/requestcontext"
)

// DefaultBatchConcurrency bounds concurrent provider calls in SendBatch.
const DefaultBatchConcurrency = 4

// OutreachResult is the outcome of a successful send.
type OutreachResult struct {
	CitizenID string
	MessageID string
	Provider  string
	Status    string
}

// SendOutreach sends the outreach message and persists the send. When the
// provider fails the citizen is left untouched.
func (s *Service) SendOutreach(ctx context.Context, citizenID string) (*OutreachResult, error) {
	var (
		result *providers.SendResult
		c      *models.Citizen
	)
	err := s.withLock(ctx, citizenID, func() error {
		var err error
		c, err = s.load(ctx, citizenID)
		if err != nil {
			return err
		}
		result, err = s.gateway.SendOutreach(ctx, c)
		if err != nil {
			return translateSendError(err)
		}
		if err := s.store.Save(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record send")
		}
		return nil
	})
	if err != nil {
		s.metrics.IncrementOutreach("failed")
		if c != nil {
			s.publish(ctx, events.TypeOutreachFailed, c, map[string]string{"error": string(dErrors.CodeOf(err))})
		}
		s.logger.WarnContext(ctx, "outreach failed",
			"request_id", requestcontext.RequestID(ctx),
			"citizen_id", citizenID,
			"error", err,
		)
		return nil, err
	}

	s.metrics.IncrementOutreach("sent")
	s.publish(ctx, events.TypeOutreachSent, c, map[string]string{
		"message_id": result.MessageID,
		"provider":   result.Provider,
	})
	return &OutreachResult{
		CitizenID: c.ID,
		MessageID: result.MessageID,
		Provider:  result.Provider,
		Status:    result.Status.String(),
	}, nil
}

func translateSendError(err error) error {
	if errors.Is(err, gateway.ErrNoChannel) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "citizen has no phone or channel handle")
	}
	var pe *providers.ProviderError
	if errors.As(err, &pe) {
		if pe.Category == providers.ErrorTimeout {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "messaging provider timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeBadGateway, "messaging provider rejected the message")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to send outreach")
}

// BatchFailure records why one citizen was not contacted.
type BatchFailure struct {
	CitizenID string
	Code      dErrors.Code
	Message   string
}

// BatchResult is the outcome of SendBatch.
type BatchResult struct {
	Sent    []OutreachResult
	Failed  []BatchFailure
	Skipped []string
}

// SendBatch contacts the given citizens with at most concurrency provider
// calls in flight. An empty id list targets every citizen not yet contacted.
// Per-citizen failures are collected; only a cancelled context or a store
// failure aborts the batch.
func (s *Service) SendBatch(ctx context.Context, citizenIDs []string, concurrency int) (*BatchResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	targets, skipped, err := s.batchTargets(ctx, citizenIDs)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Sent: []OutreachResult{}, Failed: []BatchFailure{}, Skipped: skipped}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, citizenID := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sent, err := s.SendOutreach(gctx, citizenID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				msg := err.Error()
				var de *dErrors.Error
				if errors.As(err, &de) {
					msg = de.Message
				}
				result.Failed = append(result.Failed, BatchFailure{
					CitizenID: citizenID,
					Code:      dErrors.CodeOf(err),
					Message:   msg,
				})
				return nil
			}
			result.Sent = append(result.Sent, *sent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "batch outreach interrupted")
	}

	s.logger.InfoContext(ctx, "batch outreach finished",
		"request_id", requestcontext.RequestID(ctx),
		"sent", len(result.Sent),
		"failed", len(result.Failed),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

func (s *Service) batchTargets(ctx context.Context, citizenIDs []string) (targets, skipped []string, err error) {
	if len(citizenIDs) == 0 {
		all, err := s.store.FindAll(ctx)
		if err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list citizens")
		}
		for _, c := range all {
			if !c.WasContacted() {
				targets = append(targets, c.ID)
			}
		}
		return targets, []string{}, nil
	}

	found, err := s.store.FindByIDs(ctx, citizenIDs)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load citizens")
	}
	known := make(map[string]struct{}, len(found))
	for _, c := range found {
		known[c.ID] = struct{}{}
		targets = append(targets, c.ID)
	}
	skipped = []string{}
	seen := make(map[string]struct{}, len(citizenIDs))
	for _, citizenID := range citizenIDs {
		if _, ok := known[citizenID]; ok {
			continue
		}
		if _, dup := seen[citizenID]; dup {
			continue
		}
		seen[citizenID] = struct{}{}
		skipped = append(skipped, citizenID)
	}
	return targets, skipped, nil
}
