package handler

import (
	"strings"

	"outreach/internal/citizen/models"
	"outreach/internal/citizen/service"
	dErrors "outreach/pkg/domain-errors"
	pstrings "outreach/pkg/platform/strings"
)

// Request size limits.
const (
	MaxNameLength   = 200
	MaxDetailLength = 1000
	MaxBatchSize    = 1000
	MaxAge          = 150
)

// IntakeRequest registers a citizen.
type IntakeRequest struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Age           int    `json:"age,omitempty"`
	Neighborhood  string `json:"neighborhood,omitempty"`
	Phone         string `json:"phone,omitempty"`
	ChannelHandle string `json:"channel_handle,omitempty"`
}

func (r *IntakeRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	r.Neighborhood = strings.TrimSpace(r.Neighborhood)
	r.Phone = strings.TrimSpace(r.Phone)
	r.ChannelHandle = strings.TrimSpace(r.ChannelHandle)

	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len([]rune(r.Name)) > MaxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	if r.Age < 0 || r.Age > MaxAge {
		return dErrors.New(dErrors.CodeValidation, "age out of range")
	}
	return nil
}

func (r *IntakeRequest) toCommand() service.IntakeCommand {
	return service.IntakeCommand{
		ID:            r.ID,
		Name:          r.Name,
		Age:           r.Age,
		Neighborhood:  r.Neighborhood,
		Phone:         r.Phone,
		ChannelHandle: r.ChannelHandle,
	}
}

// BatchRequest contacts many citizens. An empty list targets every citizen
// not yet contacted.
type BatchRequest struct {
	CitizenIDs  []string `json:"citizen_ids"`
	Concurrency int      `json:"concurrency,omitempty"`
}

func (r *BatchRequest) Validate() error {
	r.CitizenIDs = pstrings.DedupeAndTrim(r.CitizenIDs)
	if len(r.CitizenIDs) > MaxBatchSize {
		return dErrors.New(dErrors.CodeValidation, "too many citizen ids")
	}
	if r.Concurrency < 0 {
		return dErrors.New(dErrors.CodeValidation, "concurrency must not be negative")
	}
	return nil
}

// SurveyRequest is a citizen's survey submission.
type SurveyRequest struct {
	Issue               string `json:"issue"`
	Satisfaction        int    `json:"satisfaction"`
	ParticipationIntent *bool  `json:"participation_intent"`
	Detail              string `json:"detail,omitempty"`
}

func (r *SurveyRequest) Validate() error {
	r.Issue = strings.TrimSpace(r.Issue)
	r.Detail = pstrings.TrimAndTruncate(r.Detail, MaxDetailLength)

	if r.Issue == "" {
		return dErrors.New(dErrors.CodeValidation, "issue is required")
	}
	if r.Satisfaction < models.MinSatisfaction || r.Satisfaction > models.MaxSatisfaction {
		return dErrors.New(dErrors.CodeValidation, "satisfaction must be between 1 and 5")
	}
	if r.ParticipationIntent == nil {
		return dErrors.New(dErrors.CodeValidation, "participation_intent is required")
	}
	return nil
}

func (r *SurveyRequest) toCommand() service.SurveyCommand {
	return service.SurveyCommand{
		Issue:               r.Issue,
		Satisfaction:        r.Satisfaction,
		ParticipationIntent: *r.ParticipationIntent,
		Detail:              r.Detail,
	}
}
