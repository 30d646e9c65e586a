package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"moniftar/internal/auth/handler/mocks"
	"moniftar/internal/auth/service"
	"moniftar/internal/auth/token"
	"moniftar/internal/domain"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/requestcontext"
	"moniftar/pkg/testutil"
)

type AuthHandlerSuite struct {
	suite.Suite
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) newHandler(t *testing.T) (*mocks.MockService, chi.Router) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)
	h := New(mockService, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterPublic(r)
	h.Register(r)
	return mockService, r
}

func pendingVolunteer() *domain.Volunteer {
	return &domain.Volunteer{
		ID:                id.NewVolunteerID(),
		Code:              "VN1A2B",
		Phone:             "+33612345678",
		FirstLoginPending: true,
	}
}

func (s *AuthHandlerSuite) TestLogin() {
	expires := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	s.T().Run("returns the token and profile", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		v := pendingVolunteer()
		mockService.EXPECT().Login(gomock.Any(), "+33612345678", "pw").
			Return(&service.Session{Volunteer: v, Token: &token.Issued{Token: "tok", ExpiresAt: expires}}, nil)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{"phone": " +33612345678 ", "password": "pw"})
		rr := testutil.Serve(router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.Decode[TokenResponse](t, rr)
		assert.Equal(t, "tok", got.AccessToken)
		assert.Equal(t, "Bearer", got.TokenType)
		assert.True(t, expires.Equal(got.ExpiresAt))
		assert.Equal(t, "VN1A2B", got.Volunteer.Code)
		assert.True(t, got.Volunteer.FirstLoginPending)
	})

	s.T().Run("missing fields", func(t *testing.T) {
		_, router := s.newHandler(t)
		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{"phone": "+33612345678"})
		rr := testutil.Serve(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, string(dErrors.CodeValidation))
	})

	s.T().Run("bad credentials", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Login(gomock.Any(), "+33612345678", "wrong").
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid phone number or password"))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{"phone": "+33612345678", "password": "wrong"})
		rr := testutil.Serve(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})
}

func (s *AuthHandlerSuite) TestFirstLogin() {
	loc := id.NewLocationID()
	body := map[string]string{
		"first_name":       " Sara ",
		"last_name":        "M",
		"home_location_id": loc.String(),
		"password":         "newpassword",
	}

	s.T().Run("completes the profile", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		p := requestcontext.Principal{VolunteerID: id.NewVolunteerID(), FirstLoginPending: true, TokenID: "jti-1"}
		mockService.EXPECT().CompleteFirstLogin(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, got requestcontext.Principal, in service.FirstLogin) (*service.Session, error) {
				assert.Equal(t, p.VolunteerID, got.VolunteerID)
				assert.Equal(t, "jti-1", got.TokenID)
				assert.Equal(t, "Sara", in.FirstName)
				require.NotNil(t, in.HomeLocation)
				assert.Equal(t, loc, *in.HomeLocation)
				return &service.Session{
					Volunteer: &domain.Volunteer{ID: got.VolunteerID, Code: "VN1A2B", FirstName: "Sara", HomeLocation: &loc},
					Token:     &token.Issued{Token: "fresh"},
				}, nil
			})

		req := testutil.WithPrincipal(testutil.NewJSONRequest(t, http.MethodPost, "/auth/first-login", body), p)
		rr := testutil.Serve(router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.Decode[TokenResponse](t, rr)
		assert.Equal(t, "fresh", got.AccessToken)
		assert.Equal(t, loc.String(), got.Volunteer.HomeLocation)
	})

	s.T().Run("already completed", func(t *testing.T) {
		_, router := s.newHandler(t)
		req := testutil.AsOperator(testutil.NewJSONRequest(t, http.MethodPost, "/auth/first-login", body), loc)
		rr := testutil.Serve(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.T().Run("malformed home location", func(t *testing.T) {
		_, router := s.newHandler(t)
		bad := map[string]string{"first_name": "A", "last_name": "B", "home_location_id": "nope", "password": "newpassword"}
		req := testutil.WithPrincipal(
			testutil.NewJSONRequest(t, http.MethodPost, "/auth/first-login", bad),
			requestcontext.Principal{VolunteerID: id.NewVolunteerID(), FirstLoginPending: true},
		)
		rr := testutil.Serve(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, string(dErrors.CodeValidation))
	})

	s.T().Run("unauthenticated", func(t *testing.T) {
		_, router := s.newHandler(t)
		rr := testutil.Serve(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/first-login", body))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func (s *AuthHandlerSuite) TestSession() {
	s.T().Run("logout", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Logout(gomock.Any(), gomock.Any()).Return(nil)

		req := testutil.AsOperator(testutil.NewJSONRequest(t, http.MethodPost, "/auth/logout", nil), id.NewLocationID())
		rr := testutil.Serve(router, req)
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	s.T().Run("me", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		v := pendingVolunteer()
		mockService.EXPECT().Me(gomock.Any(), v.ID).Return(v, nil)

		req := testutil.WithPrincipal(
			testutil.NewJSONRequest(t, http.MethodGet, "/auth/me", nil),
			requestcontext.Principal{VolunteerID: v.ID, FirstLoginPending: true},
		)
		rr := testutil.Serve(router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.Decode[VolunteerResponse](t, rr)
		assert.Equal(t, v.ID.String(), got.ID)
		assert.Equal(t, "+33612345678", got.Phone)
	})
}

func (s *AuthHandlerSuite) TestVolunteerAdministration() {
	s.T().Run("create", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().CreateVolunteer(gomock.Any(), "+33612345678").Return(pendingVolunteer(), nil)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/volunteers", map[string]string{"phone": "+33612345678"})
		rr := testutil.Serve(router, testutil.AsAdmin(req))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		got := testutil.Decode[CreateVolunteerResponse](t, rr)
		assert.Equal(t, "+33612345678", got.Phone)
		assert.Equal(t, "VN1A2B", got.Volunteer.Code)
	})

	s.T().Run("duplicate phone", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().CreateVolunteer(gomock.Any(), "+33612345678").
			Return(nil, dErrors.New(dErrors.CodeConflict, "phone number is already registered"))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/volunteers", map[string]string{"phone": "+33612345678"})
		rr := testutil.Serve(router, testutil.AsAdmin(req))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, string(dErrors.CodeConflict))
	})

	s.T().Run("list", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Volunteers(gomock.Any()).Return([]*domain.Volunteer{pendingVolunteer(), pendingVolunteer()}, nil)

		rr := testutil.Serve(router, testutil.AsAdmin(testutil.NewJSONRequest(t, http.MethodGet, "/volunteers", nil)))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Len(t, testutil.Decode[[]VolunteerResponse](t, rr), 2)
	})

	s.T().Run("promote", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		v := pendingVolunteer()
		v.IsAdmin = true
		mockService.EXPECT().MakeAdmin(gomock.Any(), "vn1a2b").Return(v, nil)

		rr := testutil.Serve(router, testutil.AsAdmin(testutil.NewJSONRequest(t, http.MethodPost, "/volunteers/vn1a2b/admin", nil)))
		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.Decode[MakeAdminResponse](t, rr)
		assert.True(t, got.Volunteer.IsAdmin)
		assert.Equal(t, "Volunteer VN1A2B is now an admin.", got.Message)
	})

	s.T().Run("operators are forbidden", func(t *testing.T) {
		_, router := s.newHandler(t)
		req := testutil.AsOperator(testutil.NewJSONRequest(t, http.MethodGet, "/volunteers", nil), id.NewLocationID())
		rr := testutil.Serve(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})
}
