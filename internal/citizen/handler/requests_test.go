package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "outreach/pkg/domain-errors"
)

// RequestSuite tests request validation and normalization.
type RequestSuite struct {
	suite.Suite
}

func TestRequestSuite(t *testing.T) {
	suite.Run(t, new(RequestSuite))
}

func (s *RequestSuite) TestIntakeRequest() {
	s.Run("trims fields", func() {
		req := &IntakeRequest{Name: "  Ana ", Phone: " 11988887777 ", Neighborhood: " Centro "}
		s.Require().NoError(req.Validate())
		s.Equal("Ana", req.Name)
		s.Equal("11988887777", req.Phone)
		s.Equal("Centro", req.Neighborhood)
	})

	s.Run("name required", func() {
		err := (&IntakeRequest{Name: "   "}).Validate()
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("name length bounded", func() {
		err := (&IntakeRequest{Name: strings.Repeat("a", MaxNameLength+1)}).Validate()
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("age bounded", func() {
		s.Error((&IntakeRequest{Name: "Ana", Age: -1}).Validate())
		s.Error((&IntakeRequest{Name: "Ana", Age: MaxAge + 1}).Validate())
		s.NoError((&IntakeRequest{Name: "Ana", Age: MaxAge}).Validate())
	})
}

func (s *RequestSuite) TestBatchRequest() {
	s.Run("dedupes ids", func() {
		req := &BatchRequest{CitizenIDs: []string{"c1", " c1 ", "", "c2"}}
		s.Require().NoError(req.Validate())
		s.Equal([]string{"c1", "c2"}, req.CitizenIDs)
	})

	s.Run("size bounded", func() {
		ids := make([]string, MaxBatchSize+1)
		for i := range ids {
			ids[i] = strings.Repeat("x", i+1)
		}
		s.Error((&BatchRequest{CitizenIDs: ids}).Validate())
	})

	s.Run("negative concurrency rejected", func() {
		s.Error((&BatchRequest{Concurrency: -1}).Validate())
	})
}

func (s *RequestSuite) TestSurveyRequest() {
	yes := true

	s.Run("valid", func() {
		req := &SurveyRequest{Issue: " health ", Satisfaction: 5, ParticipationIntent: &yes, Detail: "  ok  "}
		s.Require().NoError(req.Validate())
		s.Equal("health", req.Issue)
		s.Equal("ok", req.Detail)
	})

	s.Run("issue required", func() {
		s.Error((&SurveyRequest{Satisfaction: 3, ParticipationIntent: &yes}).Validate())
	})

	s.Run("satisfaction range", func() {
		s.Error((&SurveyRequest{Issue: "x", Satisfaction: 0, ParticipationIntent: &yes}).Validate())
		s.Error((&SurveyRequest{Issue: "x", Satisfaction: 6, ParticipationIntent: &yes}).Validate())
	})

	s.Run("participation intent required", func() {
		s.Error((&SurveyRequest{Issue: "x", Satisfaction: 3}).Validate())
	})

	s.Run("detail truncated", func() {
		req := &SurveyRequest{Issue: "x", Satisfaction: 3, ParticipationIntent: &yes, Detail: strings.Repeat("é", MaxDetailLength+10)}
		s.Require().NoError(req.Validate())
		s.Len([]rune(req.Detail), MaxDetailLength)
	})
}
