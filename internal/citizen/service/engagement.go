package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"outreach/internal/citizen/models"
	"outreach/internal/messaging/providers"
	dErrors "outreach/pkg/domain-errors"
	"outreach/pkg/platform/events"
	"outreach/pkg/platform/sentinel"
	"outreach/pkg/requestcontext"
)

// ApplyStatusEvents routes each delivery event to the citizen that received
// the message. Unmatched, unknown and out-of-order events are counted as
// ignored.
func (s *Service) ApplyStatusEvents(ctx context.Context, statusEvents []providers.DeliveryStatusEvent) (processed, ignored int, err error) {
	for _, e := range statusEvents {
		applied, err := s.applyStatus(ctx, e)
		if err != nil {
			return processed, ignored, err
		}
		if applied {
			processed++
		} else {
			ignored++
		}
	}
	return processed, ignored, nil
}

func (s *Service) applyStatus(ctx context.Context, e providers.DeliveryStatusEvent) (bool, error) {
	if e.MessageID == "" {
		s.metrics.IncrementStatusUpdate("unmatched")
		return false, nil
	}
	owner, err := s.store.FindByMessageID(ctx, e.MessageID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementStatusUpdate("unmatched")
			s.logger.InfoContext(ctx, "status for unknown message",
				"request_id", requestcontext.RequestID(ctx),
				"message_id", e.MessageID,
				"status", e.Status.String(),
			)
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find message owner")
	}

	at := e.Timestamp
	if at.IsZero() {
		at = s.now(ctx)
	}

	var (
		applied bool
		c       *models.Citizen
	)
	err = s.withLock(ctx, owner.ID, func() error {
		var loadErr error
		c, loadErr = s.load(ctx, owner.ID)
		if loadErr != nil {
			return loadErr
		}
		// A resend may have replaced the message while we waited.
		if c.Engagement.MessageID != e.MessageID {
			return nil
		}
		if !c.RecordStatus(e.Status, at) {
			return nil
		}
		if err := s.store.Save(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record delivery status")
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !applied {
		s.metrics.IncrementStatusUpdate("stale")
		return false, nil
	}

	s.metrics.IncrementStatusUpdate("applied")
	attrs := map[string]string{
		"message_id": e.MessageID,
		"status":     e.Status.String(),
		"provider":   e.Provider,
	}
	if e.Error != nil {
		attrs["error_code"] = e.Error.Code
		attrs["error_title"] = e.Error.Title
	}
	s.publish(ctx, events.TypeDeliveryStatusChanged, c, attrs)
	return true, nil
}

// RecordClick stores the first click on the survey link. deviceClass only
// feeds metrics and events.
func (s *Service) RecordClick(ctx context.Context, citizenID, deviceClass string) (*models.Citizen, error) {
	var (
		c     *models.Citizen
		first bool
	)
	err := s.withLock(ctx, citizenID, func() error {
		var err error
		c, err = s.load(ctx, citizenID)
		if err != nil {
			return err
		}
		first = c.RecordClick(s.now(ctx))
		if !first {
			return nil
		}
		if err := s.store.Save(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record click")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if first {
		s.metrics.IncrementClick(deviceClass)
		s.publish(ctx, events.TypeLinkClicked, c, map[string]string{"device": deviceClass})
	}
	return c, nil
}

// SurveyCommand carries a survey submission.
type SurveyCommand struct {
	Issue               string
	Satisfaction        int
	ParticipationIntent bool
	Detail              string
}

// SubmitSurvey records the citizen's single survey response. A second
// submission fails with a conflict wrapping models.ErrAlreadyResponded and
// leaves the first response unchanged.
func (s *Service) SubmitSurvey(ctx context.Context, citizenID string, cmd SurveyCommand) (*models.Citizen, error) {
	var c *models.Citizen
	err := s.withLock(ctx, citizenID, func() error {
		var err error
		c, err = s.load(ctx, citizenID)
		if err != nil {
			return err
		}
		err = c.RecordSurveyResponse(models.SurveyResponse{
			Issue:               strings.TrimSpace(cmd.Issue),
			Satisfaction:        cmd.Satisfaction,
			ParticipationIntent: cmd.ParticipationIntent,
			Detail:              strings.TrimSpace(cmd.Detail),
			AnsweredAt:          s.now(ctx),
		})
		if errors.Is(err, models.ErrAlreadyResponded) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "survey already answered")
		}
		if err != nil {
			return err
		}
		if err := s.store.Save(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save survey response")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementSurveyResponse(cmd.Satisfaction)
	s.publish(ctx, events.TypeSurveyAnswered, c, map[string]string{
		"issue":                strings.TrimSpace(cmd.Issue),
		"satisfaction":         strconv.Itoa(cmd.Satisfaction),
		"participation_intent": strconv.FormatBool(cmd.ParticipationIntent),
	})
	s.logger.InfoContext(ctx, "survey answered",
		"request_id", requestcontext.RequestID(ctx),
		"citizen_id", citizenID,
	)
	return c, nil
}
