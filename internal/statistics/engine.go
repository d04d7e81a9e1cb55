// Package statistics computes engagement reports over a snapshot of citizens.
// Every count goes through the citizen predicates so reports and per-citizen
// views never disagree.
package statistics

import (
	"outreach/internal/citizen/models"
)

// Statistics is one engagement report.
type Statistics struct {
	Total     int `json:"total"`
	Sent      int `json:"sent"`
	Responded int `json:"responded"`
	Pending   int `json:"pending"`
	Clicked   int `json:"clicked"`

	SatisfactionBreakdown  map[int]int            `json:"satisfaction_breakdown"`
	ParticipationBreakdown ParticipationBreakdown `json:"participation_breakdown"`
	IssueBreakdown         map[string]int         `json:"issue_breakdown"`
	NeighborhoodBreakdown  map[string]int         `json:"neighborhood_breakdown"`
	AverageSatisfaction    float64                `json:"average_satisfaction"`

	EngagementBreakdown map[models.EngagementStatus]int `json:"engagement_breakdown"`
	DeliveryBreakdown   map[string]int                  `json:"delivery_breakdown"`
	ResponseRate        float64                         `json:"response_rate"`
	ClickRate           float64                         `json:"click_rate"`
}

// ParticipationBreakdown splits responders by participation intent.
// NotWilling is derived as Total - Willing, so the two always sum to Total.
type ParticipationBreakdown struct {
	Willing    int `json:"willing"`
	NotWilling int `json:"not_willing"`
	Total      int `json:"total"`
}

// Engine is stateless and safe for concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Calculate builds the report. A nil or empty snapshot yields zero counts
// and empty, non-nil maps.
func (e *Engine) Calculate(citizens []*models.Citizen) Statistics {
	stats := Statistics{
		SatisfactionBreakdown: map[int]int{},
		IssueBreakdown:        map[string]int{},
		NeighborhoodBreakdown: map[string]int{},
		EngagementBreakdown:   map[models.EngagementStatus]int{},
		DeliveryBreakdown:     map[string]int{},
	}
	for _, status := range models.EngagementStatuses() {
		stats.EngagementBreakdown[status] = 0
	}

	var (
		satisfactionSum    int
		respondedContacted int
		clickedContacted   int
	)
	for _, c := range citizens {
		if c == nil {
			continue
		}
		stats.Total++
		stats.NeighborhoodBreakdown[c.NeighborhoodOrDefault()]++
		stats.EngagementBreakdown[c.EngagementStatus()]++

		if c.WasContacted() {
			stats.Sent++
			stats.DeliveryBreakdown[c.DeliveryStatus().String()]++
			if c.HasResponded() {
				respondedContacted++
			}
			if c.IsEngaged() {
				clickedContacted++
			}
		}
		if c.IsPending() {
			stats.Pending++
		}
		if c.IsEngaged() {
			stats.Clicked++
		}

		resp, ok := c.SurveyResponse()
		if !c.HasResponded() || !ok {
			continue
		}
		stats.Responded++
		satisfactionSum += resp.Satisfaction
		stats.SatisfactionBreakdown[resp.Satisfaction]++
		stats.IssueBreakdown[resp.Issue]++
		if resp.ParticipationIntent {
			stats.ParticipationBreakdown.Willing++
		}
	}

	stats.ParticipationBreakdown.Total = stats.Responded
	stats.ParticipationBreakdown.NotWilling = stats.ParticipationBreakdown.Total - stats.ParticipationBreakdown.Willing

	if stats.Responded > 0 {
		stats.AverageSatisfaction = float64(satisfactionSum) / float64(stats.Responded)
	}
	if stats.Sent > 0 {
		stats.ResponseRate = percent(respondedContacted, stats.Sent)
		stats.ClickRate = percent(clickedContacted, stats.Sent)
	}
	return stats
}

func percent(part, whole int) float64 {
	return float64(part) * 100 / float64(whole)
}
