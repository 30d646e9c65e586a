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

	"moniftar/internal/directory/handler/mocks"
	"moniftar/internal/directory/service"
	"moniftar/internal/domain"
	membership "moniftar/internal/membership/service"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/requestcontext"
	"moniftar/pkg/testutil"
)

type DirectoryHandlerSuite struct {
	suite.Suite
}

func TestDirectoryHandlerSuite(t *testing.T) {
	suite.Run(t, new(DirectoryHandlerSuite))
}

func (s *DirectoryHandlerSuite) newHandler(t *testing.T) (*mocks.MockService, chi.Router) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(mockService, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return mockService, r
}

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func (s *DirectoryHandlerSuite) TestCreateLocation() {
	s.T().Run("capacity is optional", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		loc := &domain.Location{ID: id.NewLocationID(), Name: "Ivry", CreatedAt: t0}
		list := &domain.DistributionList{ID: id.NewListID(), LocationID: loc.ID, MaxMainListSize: 100}
		mockService.EXPECT().CreateLocation(gomock.Any(), "Ivry", (*int)(nil)).
			Return(&service.LocationDetail{Location: loc, List: list}, nil)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/locations", map[string]string{"name": " Ivry "})
		rr := testutil.Serve(router, testutil.AsAdmin(req))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		got := testutil.Decode[CreateLocationResponse](t, rr)
		assert.Equal(t, list.ID.String(), got.DistributionListID)
		assert.Equal(t, "Ivry", got.Location.Name)
		assert.Equal(t, 100, got.MaxMainListSize)
	})

	s.T().Run("explicit capacity is forwarded", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().CreateLocation(gomock.Any(), "Ivry", gomock.Any()).
			DoAndReturn(func(_ any, _ string, capacity *int) (*service.LocationDetail, error) {
				require.NotNil(t, capacity)
				assert.Equal(t, 30, *capacity)
				return &service.LocationDetail{
					Location: &domain.Location{ID: id.NewLocationID(), Name: "Ivry"},
					List:     &domain.DistributionList{ID: id.NewListID(), MaxMainListSize: 30},
				}, nil
			})

		req := testutil.NewJSONRequest(t, http.MethodPost, "/locations", map[string]any{"name": "Ivry", "max_main_list_size": 30})
		rr := testutil.Serve(router, testutil.AsAdmin(req))
		testutil.AssertStatus(t, rr, http.StatusCreated)
	})

	s.T().Run("blank name", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().CreateLocation(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/locations", map[string]string{"name": ""})
		rr := testutil.Serve(router, testutil.AsAdmin(req))
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, string(dErrors.CodeValidation))
	})

	s.T().Run("admins only", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().CreateLocation(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/locations", map[string]string{"name": "Ivry"})
		rr := testutil.Serve(router, testutil.AsOperator(req, id.NewLocationID()))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})
}

func (s *DirectoryHandlerSuite) TestSearchLocations() {
	mockService, router := s.newHandler(s.T())
	mockService.EXPECT().SearchLocations(gomock.Any(), "iv").
		Return([]*domain.Location{{ID: id.NewLocationID(), Name: "Ivry"}}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/locations/search?name=iv", nil)
	rr := testutil.Serve(router, testutil.AsOperator(req, id.NewLocationID()))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	got := testutil.Decode[[]LocationResponse](s.T(), rr)
	s.Require().Len(got, 1)
	s.Equal("Ivry", got[0].Name)
}

func (s *DirectoryHandlerSuite) TestRenameLocation() {
	mockService, router := s.newHandler(s.T())
	locID := id.NewLocationID()
	mockService.EXPECT().RenameLocation(gomock.Any(), locID, "Ivry Centre").
		Return(&domain.Location{ID: locID, Name: "Ivry Centre"}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/locations/"+locID.String(), map[string]string{"name": "Ivry Centre"})
	rr := testutil.Serve(router, testutil.AsAdmin(req))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal("Ivry Centre", testutil.Decode[LocationResponse](s.T(), rr).Name)
}

func (s *DirectoryHandlerSuite) TestRegisterBeneficiary() {
	body := map[string]string{"first_name": "Amina", "last_name": "K", "phone": "+33612000001"}

	s.T().Run("uses the caller's location", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		locID := id.NewLocationID()
		mockService.EXPECT().RegisterBeneficiary(gomock.Any(), gomock.Any(), "Amina", "K", "+33612000001").
			DoAndReturn(func(_ any, op domain.Operator, _, _, _ string) (*service.Registration, error) {
				require.NotNil(t, op.HomeLocation)
				assert.Equal(t, locID, *op.HomeLocation)
				return &service.Registration{
					Beneficiary: &domain.Beneficiary{Code: "E0042"},
					Placement:   domain.PlacementMain,
				}, nil
			})

		req := testutil.NewJSONRequest(t, http.MethodPost, "/beneficiaries", body)
		rr := testutil.Serve(router, testutil.AsOperator(req, locID))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		got := testutil.Decode[RegisterBeneficiaryResponse](t, rr)
		assert.Equal(t, "E0042", got.BeneficiaryCode)
		assert.Equal(t, "main", got.ListType)
	})

	s.T().Run("admins cannot register beneficiaries", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().RegisterBeneficiary(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/beneficiaries", body)
		rr := testutil.Serve(router, testutil.AsAdmin(req))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.T().Run("first login must be complete", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().RegisterBeneficiary(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		req := testutil.WithPrincipal(testutil.NewJSONRequest(t, http.MethodPost, "/beneficiaries", body),
			requestcontext.Principal{VolunteerID: id.NewVolunteerID(), FirstLoginPending: true})
		rr := testutil.Serve(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.T().Run("duplicate phone", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().RegisterBeneficiary(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "phone number is already registered"))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/beneficiaries", body)
		rr := testutil.Serve(router, testutil.AsOperator(req, id.NewLocationID()))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, string(dErrors.CodeConflict))
	})

	s.T().Run("missing fields", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().RegisterBeneficiary(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/beneficiaries", map[string]string{"first_name": "Amina"})
		rr := testutil.Serve(router, testutil.AsOperator(req, id.NewLocationID()))
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, string(dErrors.CodeValidation))
	})
}

func (s *DirectoryHandlerSuite) TestDeleteBeneficiary() {
	s.T().Run("reports removal and promotion", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().DeleteBeneficiary(gomock.Any(), "E0001").Return(&membership.RemoveOutcome{
			Beneficiary: &domain.Beneficiary{Code: "E0001"},
			From:        domain.PlacementMain,
			Promoted:    &domain.Beneficiary{Code: "E0002"},
		}, nil)

		rr := testutil.Serve(router, testutil.AsAdmin(testutil.NewJSONRequest(t, http.MethodDelete, "/beneficiaries/E0001", nil)))

		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.Decode[DeleteBeneficiaryResponse](t, rr)
		assert.Equal(t, "main", got.RemovedFrom)
		assert.Equal(t, "E0002", got.PromotedCode)
	})

	s.T().Run("unknown code", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().DeleteBeneficiary(gomock.Any(), "E0009").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "beneficiary not found"))

		rr := testutil.Serve(router, testutil.AsAdmin(testutil.NewJSONRequest(t, http.MethodDelete, "/beneficiaries/E0009", nil)))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}

func (s *DirectoryHandlerSuite) TestBeneficiaryQueries() {
	mockService, router := s.newHandler(s.T())
	loc := id.NewLocationID()
	b := &domain.Beneficiary{ID: id.NewBeneficiaryID(), Code: "E0001", HomeLocation: &loc, RegisteredAt: t0}
	mockService.EXPECT().Beneficiaries(gomock.Any()).Return([]*domain.Beneficiary{b}, nil)
	mockService.EXPECT().FindBeneficiary(gomock.Any(), "E0001").Return(b, nil)

	rr := testutil.Serve(router, testutil.AsAdmin(testutil.NewJSONRequest(s.T(), http.MethodGet, "/beneficiaries", nil)))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	all := testutil.Decode[[]BeneficiaryResponse](s.T(), rr)
	s.Require().Len(all, 1)
	s.Equal(loc.String(), all[0].HomeLocation)

	rr = testutil.Serve(router, testutil.AsAdmin(testutil.NewJSONRequest(s.T(), http.MethodGet, "/beneficiaries/search?code=E0001", nil)))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal("E0001", testutil.Decode[BeneficiaryResponse](s.T(), rr).Code)
}
