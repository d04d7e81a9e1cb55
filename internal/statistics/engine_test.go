package statistics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach/internal/citizen/models"
	"outreach/pkg/delivery"
)

var base = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

func newCitizen(t *testing.T, i int, neighborhood string) *models.Citizen {
	t.Helper()
	c, err := models.NewCitizen(fmt.Sprintf("c%d", i),
		models.Personal{Name: fmt.Sprintf("Citizen %d", i), Neighborhood: neighborhood},
		models.Contact{Phone: fmt.Sprintf("1198888000%d", i)},
		base)
	require.NoError(t, err)
	return c
}

// population builds 10 citizens: c0-c7 contacted, c0-c5 responded with
// satisfaction [5,5,4,3,2,1], c6 clicked without responding, c8-c9 untouched.
func population(t *testing.T) []*models.Citizen {
	t.Helper()
	satisfaction := []int{5, 5, 4, 3, 2, 1}
	willing := []bool{true, true, false, true, false, false}
	issues := []string{"health", "health", "sanitation", "security", "health", "sanitation"}
	statuses := map[int]delivery.Status{0: delivery.StatusDelivered, 1: delivery.StatusDelivered, 2: delivery.StatusRead, 3: delivery.StatusFailed}

	citizens := make([]*models.Citizen, 0, 10)
	for i := range 10 {
		neighborhood := ""
		if i < 5 {
			neighborhood = "Centro"
		}
		c := newCitizen(t, i, neighborhood)
		if i < 8 {
			c.RecordSend(base.Add(time.Minute), fmt.Sprintf("wamid.%d", i), "cloudapi", delivery.StatusSent)
		}
		if s, ok := statuses[i]; ok {
			require.True(t, c.RecordStatus(s, base.Add(2*time.Minute)))
		}
		if i < 5 || i == 6 {
			c.RecordClick(base.Add(3 * time.Minute))
		}
		if i < 6 {
			require.NoError(t, c.RecordSurveyResponse(models.SurveyResponse{
				Issue:               issues[i],
				Satisfaction:        satisfaction[i],
				ParticipationIntent: willing[i],
				AnsweredAt:          base.Add(4 * time.Minute),
			}))
		}
		citizens = append(citizens, c)
	}
	return citizens
}

func TestCalculate(t *testing.T) {
	stats := NewEngine().Calculate(population(t))

	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 8, stats.Sent)
	assert.Equal(t, 6, stats.Responded)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 6, stats.Clicked)

	assert.Equal(t, map[int]int{5: 2, 4: 1, 3: 1, 2: 1, 1: 1}, stats.SatisfactionBreakdown)
	assert.InDelta(t, 3.3333, stats.AverageSatisfaction, 0.001)
	assert.Equal(t, ParticipationBreakdown{Willing: 3, NotWilling: 3, Total: 6}, stats.ParticipationBreakdown)
	assert.Equal(t, map[string]int{"health": 3, "sanitation": 2, "security": 1}, stats.IssueBreakdown)
	assert.Equal(t, map[string]int{"Centro": 5, models.UnspecifiedNeighborhood: 5}, stats.NeighborhoodBreakdown)

	assert.Equal(t, map[models.EngagementStatus]int{
		models.EngagementResponded:    6,
		models.EngagementEngaged:      1,
		models.EngagementContacted:    1,
		models.EngagementNotContacted: 2,
	}, stats.EngagementBreakdown)
	assert.Equal(t, map[string]int{"delivered": 2, "read": 1, "failed": 1, "sent": 4}, stats.DeliveryBreakdown)
	assert.InDelta(t, 75.0, stats.ResponseRate, 0.0001)
	assert.InDelta(t, 75.0, stats.ClickRate, 0.0001)
}

func TestCalculateEmpty(t *testing.T) {
	stats := NewEngine().Calculate(nil)

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AverageSatisfaction)
	assert.Zero(t, stats.ResponseRate)
	assert.NotNil(t, stats.SatisfactionBreakdown)
	assert.NotNil(t, stats.IssueBreakdown)
	assert.Equal(t, ParticipationBreakdown{}, stats.ParticipationBreakdown)
	assert.Len(t, stats.EngagementBreakdown, len(models.EngagementStatuses()))
}

func TestParticipationAlwaysSums(t *testing.T) {
	citizens := population(t)
	for n := 0; n <= len(citizens); n++ {
		p := NewEngine().Calculate(citizens[:n]).ParticipationBreakdown
		assert.Equal(t, p.Total, p.Willing+p.NotWilling, "prefix %d", n)
	}
}

func TestResponderWithoutSendCountsOnlyAsResponded(t *testing.T) {
	c := newCitizen(t, 1, "Vila Nova")
	require.NoError(t, c.RecordSurveyResponse(models.SurveyResponse{Issue: "transport", Satisfaction: 3}))

	stats := NewEngine().Calculate([]*models.Citizen{c, nil})

	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Responded)
	assert.Zero(t, stats.Sent)
	assert.Zero(t, stats.Pending)
	assert.Zero(t, stats.ResponseRate)
	assert.Empty(t, stats.DeliveryBreakdown)
	assert.Equal(t, 1, stats.EngagementBreakdown[models.EngagementResponded])
}
