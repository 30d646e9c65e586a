package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"moniftar/internal/audit"
	"moniftar/internal/domain"
	"moniftar/internal/notify"
	"moniftar/internal/notify/notifytest"
	"moniftar/internal/outbox"
	"moniftar/internal/storage"
	"moniftar/internal/storage/memory"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

// =============================================================================
// Membership Service Test Suite
// =============================================================================

type MembershipSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	sender  *notifytest.Recorder
	sink    *audit.MemorySink
	metrics *Metrics
	service *Service

	loc  *domain.Location
	list *domain.DistributionList
	seq  int
	t0   time.Time
}

func TestMembershipSuite(t *testing.T) {
	suite.Run(t, new(MembershipSuite))
}

func (s *MembershipSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.sender = &notifytest.Recorder{}
	s.sink = audit.NewMemorySink()
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.service = New(s.store, s.sender,
		WithAuditPublisher(audit.NewPublisher(s.sink)),
		WithMetrics(s.metrics),
	)
	s.t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.seq = 0
	s.loc, s.list = s.seedLocation("Ivry", 2)
}

func (s *MembershipSuite) seedLocation(name string, capacity int) (*domain.Location, *domain.DistributionList) {
	loc, err := domain.NewLocation(id.NewLocationID(), name, s.t0)
	s.Require().NoError(err)
	list, err := domain.NewDistributionList(id.NewListID(), loc.ID, capacity)
	s.Require().NoError(err)
	s.Require().NoError(s.store.RunInTx(s.ctx, func(st storage.Stores) error {
		if err := st.Locations.Create(s.ctx, loc); err != nil {
			return err
		}
		return st.Lists.Create(s.ctx, list)
	}))
	return loc, list
}

// seedBeneficiary registers a beneficiary minutesAfter t0. Registration time
// decides promotion order, independently of the order of Add calls.
func (s *MembershipSuite) seedBeneficiary(minutesAfter int) *domain.Beneficiary {
	s.seq++
	b, err := domain.NewBeneficiary(id.NewBeneficiaryID(),
		fmt.Sprintf("E%04d", s.seq),
		"Amina", fmt.Sprintf("K%d", s.seq),
		fmt.Sprintf("+336120000%02d", s.seq),
		&s.loc.ID,
		s.t0.Add(time.Duration(minutesAfter)*time.Minute),
	)
	s.Require().NoError(err)
	s.Require().NoError(s.store.RunInTx(s.ctx, func(st storage.Stores) error {
		return st.Beneficiaries.Create(s.ctx, b)
	}))
	return b
}

func (s *MembershipSuite) add(b *domain.Beneficiary) domain.Placement {
	p, err := s.service.Add(s.ctx, s.list.ID, b.Code)
	s.Require().NoError(err)
	return p
}

func (s *MembershipSuite) reload() *domain.DistributionList {
	var list *domain.DistributionList
	s.Require().NoError(s.store.View(s.ctx, func(st storage.Stores) error {
		var err error
		list, err = st.Lists.FindByID(s.ctx, s.list.ID)
		return err
	}))
	return list
}

func counterValue(s *MembershipSuite, c prometheus.Counter) float64 {
	var out dto.Metric
	s.Require().NoError(c.Write(&out))
	return out.GetCounter().GetValue()
}

// =============================================================================
// Add Tests
// =============================================================================

func (s *MembershipSuite) TestAdd() {
	s.Run("fills the main list then the waiting list", func() {
		a, b, c := s.seedBeneficiary(0), s.seedBeneficiary(1), s.seedBeneficiary(2)

		s.Equal(domain.PlacementMain, s.add(a))
		s.Equal(domain.PlacementMain, s.add(b))
		s.Equal(domain.PlacementWaiting, s.add(c))

		s.Equal([]string{notify.TextAddedToMain}, s.sender.To(a.Phone))
		s.Equal([]string{notify.TextAddedToWaiting}, s.sender.To(c.Phone))

		list := s.reload()
		s.Len(list.Main, 2)
		s.Len(list.Waiting, 1)
		s.Equal(c.ID, list.Waiting[0].BeneficiaryID)
		s.Equal(2.0, counterValue(s, s.metrics.Added.WithLabelValues("main")))
	})

	s.Run("accepts lower-case codes", func() {
		s.SetupTest()
		a := s.seedBeneficiary(0)
		p, err := s.service.Add(s.ctx, s.list.ID, "  e"+a.Code[1:]+" ")
		s.Require().NoError(err)
		s.Equal(domain.PlacementMain, p)
	})

	s.Run("duplicate member is a conflict and sends nothing", func() {
		s.SetupTest()
		a := s.seedBeneficiary(0)
		s.add(a)
		s.sender.Reset()

		_, err := s.service.Add(s.ctx, s.list.ID, a.Code)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Empty(s.sender.Messages())
		s.Len(s.reload().Main, 1)
	})

	s.Run("member of another list is a conflict", func() {
		s.SetupTest()
		a := s.seedBeneficiary(0)
		s.add(a)
		_, other := s.seedLocation("Vitry", 5)

		_, err := s.service.Add(s.ctx, other.ID, a.Code)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown list or code is not found", func() {
		s.SetupTest()
		a := s.seedBeneficiary(0)

		_, err := s.service.Add(s.ctx, id.NewListID(), a.Code)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.Add(s.ctx, s.list.ID, "E9999")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.Add(s.ctx, s.list.ID, "not-a-code")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("records an audit event per placement", func() {
		s.SetupTest()
		a := s.seedBeneficiary(0)
		s.add(a)

		events := s.sink.Events()
		s.Require().Len(events, 1)
		s.Equal(audit.ActionMemberAdded, events[0].Action)
		s.Equal(a.Code, events[0].Subject)
		s.Equal(s.loc.ID.String(), events[0].LocationID)
		s.Equal("main", events[0].Detail)
	})
}

// =============================================================================
// Remove Tests
// =============================================================================

// failingMemberLookup breaks FindByMember and nothing else.
type failingMemberLookup struct {
	storage.ListStore
}

func (failingMemberLookup) FindByMember(context.Context, id.BeneficiaryID) (*domain.DistributionList, error) {
	return nil, errors.New("connection reset")
}

func (s *MembershipSuite) TestEnrollSurfacesStoreErrors() {
	b := s.seedBeneficiary(0)
	err := s.store.RunInTx(s.ctx, func(st storage.Stores) error {
		st.Lists = failingMemberLookup{ListStore: st.Lists}
		list, err := st.Lists.FindByID(s.ctx, s.list.ID)
		s.Require().NoError(err)
		var ob outbox.Outbox
		_, err = s.service.EnrollTx(s.ctx, st, &ob, list, b)
		return err
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Empty(s.reload().Main)
	s.Empty(s.sender.To(b.Phone))
}

func (s *MembershipSuite) TestRemove() {
	s.Run("leaving the main list promotes the earliest registered waiting member", func() {
		a, b := s.seedBeneficiary(0), s.seedBeneficiary(1)
		// c joins the waiting list first but registered after d
		c, d := s.seedBeneficiary(30), s.seedBeneficiary(10)
		for _, m := range []*domain.Beneficiary{a, b, c, d} {
			s.add(m)
		}
		s.sender.Reset()

		out, err := s.service.Remove(s.ctx, s.list.ID, a.Code)
		s.Require().NoError(err)
		s.Equal(domain.PlacementMain, out.From)
		s.Require().NotNil(out.Promoted)
		s.Equal(d.ID, out.Promoted.ID)

		s.Equal([]string{notify.TextRemovedFromMain}, s.sender.To(a.Phone))
		s.Equal([]string{notify.TextPromotedToMain}, s.sender.To(d.Phone))
		s.Empty(s.sender.To(c.Phone))

		list := s.reload()
		s.Equal(domain.PlacementMain, list.PlacementOf(d.ID))
		s.Equal(domain.PlacementWaiting, list.PlacementOf(c.ID))
		s.Equal(domain.PlacementNone, list.PlacementOf(a.ID))
		s.Equal(1.0, counterValue(s, s.metrics.Promotions))
		s.Contains(s.sink.Actions(), audit.ActionMemberPromoted)
	})

	s.Run("leaving the waiting list promotes nobody", func() {
		s.SetupTest()
		a, b, c := s.seedBeneficiary(0), s.seedBeneficiary(1), s.seedBeneficiary(2)
		for _, m := range []*domain.Beneficiary{a, b, c} {
			s.add(m)
		}
		s.sender.Reset()

		out, err := s.service.Remove(s.ctx, s.list.ID, c.Code)
		s.Require().NoError(err)
		s.Equal(domain.PlacementWaiting, out.From)
		s.Nil(out.Promoted)
		s.Equal([]string{notify.TextRemovedFromWait}, s.sender.To(c.Phone))
		s.Len(s.sender.Messages(), 1)

		list := s.reload()
		s.Len(list.Main, 2)
		s.Empty(list.Waiting)
	})

	s.Run("leaving the main list with an empty waiting list just frees the seat", func() {
		s.SetupTest()
		a := s.seedBeneficiary(0)
		s.add(a)

		out, err := s.service.Remove(s.ctx, s.list.ID, a.Code)
		s.Require().NoError(err)
		s.Nil(out.Promoted)
		s.Empty(s.reload().Main)
	})

	s.Run("absent member is not found and is told so", func() {
		s.SetupTest()
		a := s.seedBeneficiary(0)

		out, err := s.service.Remove(s.ctx, s.list.ID, a.Code)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal("beneficiary was not found in either list", dErrors.MessageOf(err))
		s.Require().NotNil(out)
		s.Equal(domain.PlacementNone, out.From)
		s.Equal([]string{notify.TextNotInAnyList}, s.sender.To(a.Phone))
		s.NotContains(s.sink.Actions(), audit.ActionMemberRemoved)
	})
}

// =============================================================================
// Resize Tests
// =============================================================================

func (s *MembershipSuite) TestResize() {
	s.Run("below the main list size is a capacity violation", func() {
		a, b := s.seedBeneficiary(0), s.seedBeneficiary(1)
		s.add(a)
		s.add(b)

		_, err := s.service.Resize(s.ctx, s.list.ID, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityViolation))
		s.Equal(2, s.reload().MaxMainListSize)
	})

	s.Run("growing the list never promotes waiting members", func() {
		s.SetupTest()
		a, b, c := s.seedBeneficiary(0), s.seedBeneficiary(1), s.seedBeneficiary(2)
		for _, m := range []*domain.Beneficiary{a, b, c} {
			s.add(m)
		}
		s.sender.Reset()

		list, err := s.service.Resize(s.ctx, s.list.ID, 10)
		s.Require().NoError(err)
		s.Equal(10, list.MaxMainListSize)
		s.Len(list.Main, 2)
		s.Len(list.Waiting, 1)
		s.Empty(s.sender.Messages())

		events := s.sink.Events()
		s.Equal(audit.ActionListResized, events[len(events)-1].Action)
		s.Equal("2->10", events[len(events)-1].Detail)

		// the next add now lands in main even with someone waiting
		d := s.seedBeneficiary(3)
		s.Equal(domain.PlacementMain, s.add(d))
	})

	s.Run("negative size is a validation error", func() {
		s.SetupTest()
		_, err := s.service.Resize(s.ctx, s.list.ID, -1)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown list is not found", func() {
		_, err := s.service.Resize(s.ctx, id.NewListID(), 3)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Query Tests
// =============================================================================

func (s *MembershipSuite) TestMembers() {
	a, b := s.seedBeneficiary(0), s.seedBeneficiary(1)
	late, early := s.seedBeneficiary(50), s.seedBeneficiary(20)
	for _, m := range []*domain.Beneficiary{a, b, late, early} {
		s.add(m)
	}

	s.Run("main only", func() {
		out, err := s.service.Members(s.ctx, s.list.ID, domain.PlacementMain)
		s.Require().NoError(err)
		s.Equal("Ivry", out.Location.Name)
		s.Require().Len(out.Members, 2)
		s.Equal(a.Code, out.Members[0].Beneficiary.Code)
		s.Equal(1, out.Members[0].Position)
		s.Equal(2, out.Members[1].Position)
	})

	s.Run("waiting list is in promotion order", func() {
		out, err := s.service.Members(s.ctx, s.list.ID, domain.PlacementWaiting)
		s.Require().NoError(err)
		s.Require().Len(out.Members, 2)
		s.Equal(early.Code, out.Members[0].Beneficiary.Code)
		s.Equal(late.Code, out.Members[1].Beneficiary.Code)
		s.Equal(domain.PlacementWaiting, out.Members[0].Placement)
	})

	s.Run("no filter returns both sub-lists", func() {
		out, err := s.service.Members(s.ctx, s.list.ID, "")
		s.Require().NoError(err)
		s.Len(out.Members, 4)
		s.Equal(domain.PlacementMain, out.Members[0].Placement)
		s.Equal(domain.PlacementWaiting, out.Members[3].Placement)
	})

	s.Run("unknown list", func() {
		_, err := s.service.Members(s.ctx, id.NewListID(), "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *MembershipSuite) TestSummary() {
	a, b, c := s.seedBeneficiary(0), s.seedBeneficiary(1), s.seedBeneficiary(2)
	for _, m := range []*domain.Beneficiary{a, b, c} {
		s.add(m)
	}
	vol, err := domain.NewVolunteer(id.NewVolunteerID(), "+33700000001", []byte("hash"), false, s.t0)
	s.Require().NoError(err)
	vol.HomeLocation = &s.loc.ID
	s.Require().NoError(s.store.RunInTx(s.ctx, func(st storage.Stores) error {
		return st.Volunteers.Create(s.ctx, vol)
	}))

	out, err := s.service.Summary(s.ctx, s.loc.ID)
	s.Require().NoError(err)
	s.Equal(s.list.ID, out.List.ID)
	s.Equal(2, out.MainSize)
	s.Equal(1, out.WaitSize)
	s.Require().Len(out.Volunteers, 1)
	s.Equal(vol.ID, out.Volunteers[0].ID)

	_, err = s.service.Summary(s.ctx, id.NewLocationID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *MembershipSuite) TestExport() {
	a, b, c := s.seedBeneficiary(0), s.seedBeneficiary(1), s.seedBeneficiary(2)
	for _, m := range []*domain.Beneficiary{a, b, c} {
		s.add(m)
	}

	data, filename, err := s.service.Export(s.ctx, s.list.ID)
	s.Require().NoError(err)
	s.Equal("liste-Ivry.xlsx", filename)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	s.Require().NoError(err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(exportSheet)
	s.Require().NoError(err)
	s.Require().Len(rows, 4)
	s.Equal([]string{"Position", "List", "Code", "First name", "Last name", "Phone", "Registered at"}, rows[0])
	s.Equal([]string{"1", "main", a.Code, a.FirstName, a.LastName, a.Phone, "2026-03-02 09:00"}, rows[1])
	s.Equal("waiting", rows[3][1])
	s.Equal(c.Code, rows[3][2])
}
