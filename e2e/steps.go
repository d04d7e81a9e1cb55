package e2e

import (
	"github.com/cucumber/godog"

	"outreach/e2e/steps/common"
	"outreach/e2e/steps/outreach"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	outreach.RegisterSteps(ctx, tc)
}
