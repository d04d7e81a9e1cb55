package outreach

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(ctx context.Context, method, path string, body any, authenticated bool) error
	LastStatus() int
	LastHeader(key string) string
	ResponseField(path string) (any, error)
	Remember(alias, id string)
	CitizenID(alias string) (string, error)
}

// RegisterSteps registers citizen outreach step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &outreachSteps{tc: tc}

	ctx.Step(`^a citizen "([^"]*)" from "([^"]*)" with phone "([^"]*)"$`, steps.registerCitizen)
	ctx.Step(`^I send outreach to "([^"]*)"$`, steps.sendOutreach)
	ctx.Step(`^"([^"]*)" opens the survey link$`, steps.openSurveyLink)
	ctx.Step(`^"([^"]*)" answers the survey about "([^"]*)" with satisfaction (\d+)$`, steps.answerSurvey)
	ctx.Step(`^I fetch citizen "([^"]*)"$`, steps.fetchCitizen)
	ctx.Step(`^the redirect should point at the survey page for "([^"]*)"$`, steps.redirectPointsAtSurvey)
}

type outreachSteps struct {
	tc TestContext
}

func (s *outreachSteps) registerCitizen(ctx context.Context, name, neighborhood, phone string) error {
	err := s.tc.Do(ctx, "POST", "/citizens", map[string]any{
		"name":         name,
		"neighborhood": neighborhood,
		"phone":        phone,
	}, true)
	if err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("register %q: status %d", name, s.tc.LastStatus())
	}
	id, err := s.tc.ResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Remember(name, fmt.Sprint(id))
	return nil
}

func (s *outreachSteps) sendOutreach(ctx context.Context, name string) error {
	id, err := s.tc.CitizenID(name)
	if err != nil {
		return err
	}
	return s.tc.Do(ctx, "POST", "/citizens/"+id+"/outreach", nil, true)
}

func (s *outreachSteps) openSurveyLink(ctx context.Context, name string) error {
	id, err := s.tc.CitizenID(name)
	if err != nil {
		return err
	}
	return s.tc.Do(ctx, "GET", "/r?id="+id, nil, false)
}

func (s *outreachSteps) answerSurvey(ctx context.Context, name, issue string, satisfaction int) error {
	id, err := s.tc.CitizenID(name)
	if err != nil {
		return err
	}
	return s.tc.Do(ctx, "POST", "/surveys/"+id, map[string]any{
		"issue":                issue,
		"satisfaction":         satisfaction,
		"participation_intent": true,
	}, false)
}

func (s *outreachSteps) fetchCitizen(ctx context.Context, name string) error {
	id, err := s.tc.CitizenID(name)
	if err != nil {
		return err
	}
	return s.tc.Do(ctx, "GET", "/citizens/"+id, nil, true)
}

func (s *outreachSteps) redirectPointsAtSurvey(_ context.Context, name string) error {
	id, err := s.tc.CitizenID(name)
	if err != nil {
		return err
	}
	if loc := s.tc.LastHeader("Location"); !strings.HasSuffix(loc, "/"+id) {
		return fmt.Errorf("redirect %q does not end with citizen id %q", loc, id)
	}
	return nil
}
