package handler

import (
	"time"

	"outreach/internal/citizen/models"
	"outreach/internal/citizen/service"
)

// CitizenResponse is the operator view of a citizen. Engagement status is
// derived on every read.
type CitizenResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Age              int              `json:"age,omitempty"`
	Neighborhood     string           `json:"neighborhood"`
	Phone            string           `json:"phone,omitempty"`
	ChannelHandle    string           `json:"channel_handle,omitempty"`
	EngagementStatus string           `json:"engagement_status"`
	Engagement       EngagementDetail `json:"engagement"`
	CreatedAt        time.Time        `json:"created_at"`
}

type EngagementDetail struct {
	SentAt          *time.Time `json:"sent_at,omitempty"`
	MessageID       string     `json:"message_id,omitempty"`
	Provider        string     `json:"provider,omitempty"`
	DeliveryStatus  string     `json:"delivery_status,omitempty"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
	ClickedAt       *time.Time `json:"clicked_at,omitempty"`
	Responded       bool       `json:"responded"`
}

func toCitizenResponse(c *models.Citizen) CitizenResponse {
	return CitizenResponse{
		ID:               c.ID,
		Name:             c.Personal.Name,
		Age:              c.Personal.Age,
		Neighborhood:     c.NeighborhoodOrDefault(),
		Phone:            c.Contact.Phone,
		ChannelHandle:    c.Contact.ChannelHandle,
		EngagementStatus: c.EngagementStatus().String(),
		Engagement: EngagementDetail{
			SentAt:          c.Engagement.SentAt,
			MessageID:       c.Engagement.MessageID,
			Provider:        c.Engagement.Provider,
			DeliveryStatus:  c.DeliveryStatus().String(),
			StatusUpdatedAt: c.Engagement.StatusUpdatedAt,
			ClickedAt:       c.Engagement.ClickedAt,
			Responded:       c.HasResponded(),
		},
		CreatedAt: c.CreatedAt,
	}
}

type CitizenListResponse struct {
	Citizens []CitizenResponse `json:"citizens"`
	Total    int               `json:"total"`
}

type OutreachResponse struct {
	CitizenID string `json:"citizen_id"`
	MessageID string `json:"message_id"`
	Provider  string `json:"provider"`
	Status    string `json:"status"`
}

func toOutreachResponse(r service.OutreachResult) OutreachResponse {
	return OutreachResponse{
		CitizenID: r.CitizenID,
		MessageID: r.MessageID,
		Provider:  r.Provider,
		Status:    r.Status,
	}
}

type BatchFailureResponse struct {
	CitizenID string `json:"citizen_id"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

type BatchResponse struct {
	Sent    []OutreachResponse     `json:"sent"`
	Failed  []BatchFailureResponse `json:"failed"`
	Skipped []string               `json:"skipped"`
}

func toBatchResponse(r *service.BatchResult) BatchResponse {
	resp := BatchResponse{
		Sent:    make([]OutreachResponse, 0, len(r.Sent)),
		Failed:  make([]BatchFailureResponse, 0, len(r.Failed)),
		Skipped: r.Skipped,
	}
	if resp.Skipped == nil {
		resp.Skipped = []string{}
	}
	for _, s := range r.Sent {
		resp.Sent = append(resp.Sent, toOutreachResponse(s))
	}
	for _, f := range r.Failed {
		resp.Failed = append(resp.Failed, BatchFailureResponse{
			CitizenID: f.CitizenID,
			Error:     string(f.Code),
			Message:   f.Message,
		})
	}
	return resp
}

// SurveyAcceptedResponse acknowledges a survey submission.
type SurveyAcceptedResponse struct {
	CitizenID  string    `json:"citizen_id"`
	AnsweredAt time.Time `json:"answered_at"`
}
