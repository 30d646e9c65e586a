package e2e

import (
	"os"

	"github.com/cucumber/godog"

	"moniftar/e2e/steps/auth"
	"moniftar/e2e/steps/common"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc, auth.Credentials{
		Phone:    os.Getenv("MONIFTAR_E2E_ADMIN_PHONE"),
		Password: os.Getenv("MONIFTAR_E2E_ADMIN_PASSWORD"),
	})
}
