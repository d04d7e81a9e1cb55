package common

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(ctx context.Context, method, path string, body any, authenticated bool) error
	LastStatus() int
	LastHeader(key string) string
	ResponseField(path string) (any, error)
}

// RegisterSteps registers generic request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I GET "([^"]*)" without authentication$`, steps.getWithoutAuth)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be at least (\d+)$`, steps.fieldShouldBeAtLeast)
	ctx.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, steps.headerShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.Do(ctx, "GET", path, nil, true)
}

func (s *commonSteps) getWithoutAuth(ctx context.Context, path string) error {
	return s.tc.Do(ctx, "GET", path, nil, false)
}

func (s *commonSteps) statusShouldBe(_ context.Context, want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(_ context.Context, field, want string) error {
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("field %q: expected %q, got %q", field, want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeAtLeast(_ context.Context, field string, want int) error {
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	got, err := strconv.ParseFloat(fmt.Sprint(v), 64)
	if err != nil {
		return fmt.Errorf("field %q is not numeric: %v", field, v)
	}
	if got < float64(want) {
		return fmt.Errorf("field %q: expected at least %d, got %v", field, want, got)
	}
	return nil
}

func (s *commonSteps) headerShouldBe(_ context.Context, key, want string) error {
	if got := s.tc.LastHeader(key); got != want {
		return fmt.Errorf("header %q: expected %q, got %q", key, want, got)
	}
	return nil
}
