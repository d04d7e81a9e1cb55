package models

import (
	"errors"
	"strings"
	"time"

	"outreach/pkg/delivery"
	dErrors "outreach/pkg/domain-errors"
)

// UnspecifiedNeighborhood is the grouping key for citizens without a neighborhood.
const UnspecifiedNeighborhood = "unspecified"

// Satisfaction bounds for survey responses.
const (
	MinSatisfaction = 1
	MaxSatisfaction = 5
)

// ErrAlreadyResponded is returned when a second survey response is recorded.
var ErrAlreadyResponded = errors.New("citizen has already responded to the survey")

// Citizen is the aggregate root for one outreach recipient.
//
// Invariants:
//   - ID is immutable once assigned
//   - Engagement is mutated only through RecordSend, RecordStatus and RecordClick
//   - Survey is absent or fully populated, and written at most once
//   - DeliveryStatus never regresses (see delivery.Status.Rank)
type Citizen struct {
	ID         string          `json:"id"`
	Personal   Personal        `json:"personal"`
	Contact    Contact         `json:"contact"`
	Engagement Engagement      `json:"engagement"`
	Survey     *SurveyResponse `json:"survey,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type Personal struct {
	Name         string `json:"name"`
	Age          int    `json:"age,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
}

type Contact struct {
	Phone         string `json:"phone"`
	ChannelHandle string `json:"channel_handle,omitempty"`
}

// Handle is the address used on the chat channel. It falls back to Phone.
func (c Contact) Handle() string {
	if h := strings.TrimSpace(c.ChannelHandle); h != "" {
		return h
	}
	return strings.TrimSpace(c.Phone)
}

// Engagement is the single outreach record of a citizen.
type Engagement struct {
	SentAt          *time.Time      `json:"sent_at,omitempty"`
	MessageID       string          `json:"message_id,omitempty"`
	Provider        string          `json:"provider,omitempty"`
	DeliveryStatus  delivery.Status `json:"delivery_status,omitempty"`
	StatusUpdatedAt *time.Time      `json:"status_updated_at,omitempty"`
	ClickedAt       *time.Time      `json:"clicked_at,omitempty"`
}

type SurveyResponse struct {
	Issue               string    `json:"issue"`
	Satisfaction        int       `json:"satisfaction"`
	ParticipationIntent bool      `json:"participation_intent"`
	Detail              string    `json:"detail,omitempty"`
	AnsweredAt          time.Time `json:"answered_at"`
}

// Validate checks the response is complete.
func (r SurveyResponse) Validate() error {
	if strings.TrimSpace(r.Issue) == "" {
		return dErrors.New(dErrors.CodeValidation, "issue is required")
	}
	if r.Satisfaction < MinSatisfaction || r.Satisfaction > MaxSatisfaction {
		return dErrors.New(dErrors.CodeValidation, "satisfaction must be between 1 and 5")
	}
	return nil
}

// NewCitizen builds a citizen with an empty engagement record and no survey.
func NewCitizen(citizenID string, personal Personal, contact Contact, now time.Time) (*Citizen, error) {
	if citizenID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "citizen id cannot be empty")
	}
	if strings.TrimSpace(personal.Name) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if personal.Age < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "age cannot be negative")
	}
	return &Citizen{
		ID:        citizenID,
		Personal:  personal,
		Contact:   contact,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// RecordSend marks the citizen as contacted by an outbound message.
func (c *Citizen) RecordSend(at time.Time, messageID, provider string, status delivery.Status) {
	sent := at
	c.Engagement.SentAt = &sent
	c.Engagement.MessageID = messageID
	c.Engagement.Provider = provider
	c.Engagement.DeliveryStatus = status
	c.Engagement.StatusUpdatedAt = &sent
	c.UpdatedAt = at
}

// RecordStatus applies a delivery status callback. Unknown statuses and
// statuses ranked below the current one are ignored; it reports whether the
// citizen changed.
func (c *Citizen) RecordStatus(status delivery.Status, at time.Time) bool {
	if !status.Known() {
		return false
	}
	if status.Rank() < c.Engagement.DeliveryStatus.Rank() {
		return false
	}
	updated := at
	c.Engagement.DeliveryStatus = status
	c.Engagement.StatusUpdatedAt = &updated
	c.UpdatedAt = at
	return true
}

// RecordClick stores the first link click. Later clicks report false.
func (c *Citizen) RecordClick(at time.Time) bool {
	if c.Engagement.ClickedAt != nil {
		return false
	}
	clicked := at
	c.Engagement.ClickedAt = &clicked
	c.UpdatedAt = at
	return true
}

// RecordSurveyResponse stores the survey answer exactly once.
func (c *Citizen) RecordSurveyResponse(resp SurveyResponse) error {
	if c.Survey != nil {
		return ErrAlreadyResponded
	}
	if err := resp.Validate(); err != nil {
		return err
	}
	stored := resp
	c.Survey = &stored
	c.UpdatedAt = resp.AnsweredAt
	return nil
}

func (c *Citizen) DeliveryStatus() delivery.Status {
	return c.Engagement.DeliveryStatus
}

// NeighborhoodOrDefault returns the neighborhood or UnspecifiedNeighborhood.
func (c *Citizen) NeighborhoodOrDefault() string {
	if n := strings.TrimSpace(c.Personal.Neighborhood); n != "" {
		return n
	}
	return UnspecifiedNeighborhood
}

// SurveyResponse returns the recorded response, if any.
func (c *Citizen) SurveyResponse() (SurveyResponse, bool) {
	if c.Survey == nil {
		return SurveyResponse{}, false
	}
	return *c.Survey, true
}

// Clone returns a deep copy, so stores never share mutable state with callers.
func (c *Citizen) Clone() *Citizen {
	if c == nil {
		return nil
	}
	out := *c
	out.Engagement.SentAt = clonePtr(c.Engagement.SentAt)
	out.Engagement.StatusUpdatedAt = clonePtr(c.Engagement.StatusUpdatedAt)
	out.Engagement.ClickedAt = clonePtr(c.Engagement.ClickedAt)
	if c.Survey != nil {
		s := *c.Survey
		out.Survey = &s
	}
	return &out
}

func clonePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
