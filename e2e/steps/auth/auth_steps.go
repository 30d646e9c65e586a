package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	Status() int
	GetAccessToken() string
	SetAccessToken(token string)
	Save(name, value string)
}

// Credentials of the bootstrap admin the server was started with.
type Credentials struct {
	Phone    string
	Password string
}

// RegisterSteps registers authentication-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext, admin Credentials) {
	steps := &authSteps{tc: tc, admin: admin}

	ctx.Step(`^I am logged in as the bootstrap admin$`, steps.loginAsAdmin)
	ctx.Step(`^I log in with phone "([^"]*)" and password "([^"]*)"$`, steps.login)
	ctx.Step(`^I save the access token$`, steps.saveAccessToken)
	ctx.Step(`^I call "([^"]*)" with the saved token$`, steps.getWithSavedToken)
	ctx.Step(`^I forget the access token$`, steps.forgetToken)
}

type authSteps struct {
	tc        TestContext
	admin     Credentials
	lastToken string
}

func (s *authSteps) loginAsAdmin(ctx context.Context) error {
	if s.admin.Phone == "" || s.admin.Password == "" {
		return errors.New("MONIFTAR_E2E_ADMIN_PHONE and MONIFTAR_E2E_ADMIN_PASSWORD must be set")
	}
	if err := s.login(ctx, s.admin.Phone, s.admin.Password); err != nil {
		return err
	}
	if s.tc.Status() != 200 {
		return fmt.Errorf("admin login failed with status %d", s.tc.Status())
	}
	return s.saveAccessToken(ctx)
}

func (s *authSteps) login(ctx context.Context, phone, password string) error {
	s.tc.SetAccessToken("")
	return s.tc.POST("/auth/login", map[string]interface{}{
		"phone":    phone,
		"password": password,
	})
}

func (s *authSteps) saveAccessToken(ctx context.Context) error {
	token, err := s.tc.GetResponseField("access_token")
	if err != nil {
		return err
	}
	tok, ok := token.(string)
	if !ok || tok == "" {
		return errors.New("access_token is empty")
	}
	s.lastToken = tok
	s.tc.SetAccessToken(tok)
	return nil
}

func (s *authSteps) getWithSavedToken(ctx context.Context, path string) error {
	return s.tc.GET(path, map[string]string{"Authorization": "Bearer " + s.lastToken})
}

func (s *authSteps) forgetToken(ctx context.Context) error {
	s.tc.SetAccessToken("")
	return nil
}
