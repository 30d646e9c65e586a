package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"moniftar/internal/audit"
	"moniftar/internal/domain"
	"moniftar/internal/notify/notifytest"
	"moniftar/internal/storage"
	"moniftar/internal/storage/memory"
	voucher "moniftar/internal/voucher/service"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/requestcontext"
)

type DistributionSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	sender   *notifytest.Recorder
	sink     *audit.MemorySink
	vouchers *voucher.Service
	service  *Service

	loc  *domain.Location
	list *domain.DistributionList
	seq  int
	t0   time.Time
}

func TestDistributionSuite(t *testing.T) {
	suite.Run(t, new(DistributionSuite))
}

func (s *DistributionSuite) SetupTest() {
	s.t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.t0)
	s.store = memory.New()
	s.sender = &notifytest.Recorder{}
	s.sink = audit.NewMemorySink()
	publisher := audit.NewPublisher(s.sink)
	s.vouchers = voucher.New(s.store, s.sender, voucher.WithAuditPublisher(publisher))
	s.service = New(s.store, s.vouchers, s.sender, WithAuditPublisher(publisher))
	s.seq = 0
	s.loc, s.list = s.seedLocation("Ivry", 2)
}

func (s *DistributionSuite) seedLocation(name string, capacity int) (*domain.Location, *domain.DistributionList) {
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

// enroll registers a beneficiary and appends them to the list, main first.
func (s *DistributionSuite) enroll() *domain.Beneficiary {
	s.seq++
	b, err := domain.NewBeneficiary(id.NewBeneficiaryID(),
		fmt.Sprintf("E%04d", s.seq), "Amina", "K",
		fmt.Sprintf("+336120000%02d", s.seq), &s.loc.ID,
		s.t0.Add(time.Duration(s.seq)*time.Minute))
	s.Require().NoError(err)
	s.Require().NoError(s.store.RunInTx(s.ctx, func(st storage.Stores) error {
		if err := st.Beneficiaries.Create(s.ctx, b); err != nil {
			return err
		}
		list, err := st.Lists.FindByID(s.ctx, s.list.ID)
		if err != nil {
			return err
		}
		if _, err := list.Add(b.Member()); err != nil {
			return err
		}
		return st.Lists.Save(s.ctx, list)
	}))
	return b
}

func (s *DistributionSuite) voucherFor(b *domain.Beneficiary) (*domain.Voucher, error) {
	var v *domain.Voucher
	err := s.store.View(s.ctx, func(st storage.Stores) error {
		var err error
		v, err = st.Vouchers.FindForDay(s.ctx, b.ID, domain.DayOf(s.t0, time.UTC))
		return err
	})
	return v, err
}

func (s *DistributionSuite) TestCreate() {
	a, b := s.enroll(), s.enroll()
	waiting := s.enroll()

	out, err := s.service.Create(s.ctx, s.loc.ID, s.t0.Add(4*time.Hour), 50, " Iftar ")
	s.Require().NoError(err)
	s.Equal(2, out.Issued)
	s.Equal("Iftar", out.Event.Description)
	s.Equal(s.list.ID, out.Event.ListID)
	s.Equal("Ivry", out.Location.Name)

	for _, ben := range []*domain.Beneficiary{a, b} {
		v, err := s.voucherFor(ben)
		s.Require().NoError(err)
		s.Nil(v.RedeemedAt)
		s.Len(s.sender.To(ben.Phone), 1)
	}
	_, err = s.voucherFor(waiting)
	s.Error(err)
	s.Empty(s.sender.To(waiting.Phone))
	s.Contains(s.sink.Actions(), audit.ActionEventCreated)

	s.Run("a second event the same day reuses the vouchers", func() {
		s.sender.Reset()
		out, err := s.service.Create(s.ctx, s.loc.ID, s.t0.Add(6*time.Hour), 10, "")
		s.Require().NoError(err)
		s.Equal(0, out.Issued)
		s.Empty(s.sender.Messages())
	})
}

func (s *DistributionSuite) TestCreateRejections() {
	s.Run("schedule must be in the future", func() {
		_, err := s.service.Create(s.ctx, s.loc.ID, s.t0, 10, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSchedule))
		_, err = s.service.Create(s.ctx, s.loc.ID, s.t0.Add(-time.Minute), 10, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSchedule))
	})

	s.Run("negative stock", func() {
		_, err := s.service.Create(s.ctx, s.loc.ID, s.t0.Add(time.Hour), -1, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown location", func() {
		_, err := s.service.Create(s.ctx, id.NewLocationID(), s.t0.Add(time.Hour), 1, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("a failed create issues nothing", func() {
		b := s.enroll()
		_, err := s.service.Create(s.ctx, s.loc.ID, s.t0.Add(-time.Hour), 1, "")
		s.Error(err)
		_, err = s.voucherFor(b)
		s.Error(err)
		s.Empty(s.sender.Messages())
	})
}

func (s *DistributionSuite) TestDelete() {
	a, b := s.enroll(), s.enroll()
	ev, err := s.service.Create(s.ctx, s.loc.ID, s.t0.Add(4*time.Hour), 5, "")
	s.Require().NoError(err)

	// a redeems; b still holds an unused voucher.
	va, err := s.voucherFor(a)
	s.Require().NoError(err)
	_, err = s.vouchers.Redeem(s.ctx, va.Code, domain.Operator{VolunteerID: id.NewVolunteerID(), HomeLocation: &s.loc.ID})
	s.Require().NoError(err)

	out, err := s.service.Delete(s.ctx, ev.Event.ID)
	s.Require().NoError(err)
	s.Equal(1, out.VouchersRevoked)
	s.Equal(4, out.Event.Stock)
	s.Equal("Ivry", out.Location.Name)

	_, err = s.voucherFor(b)
	s.Error(err)
	kept, err := s.voucherFor(a)
	s.Require().NoError(err)
	s.NotNil(kept.RedeemedAt)
	s.Contains(s.sink.Actions(), audit.ActionEventDeleted)

	_, err = s.service.Delete(s.ctx, ev.Event.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *DistributionSuite) TestDeletePastEvent() {
	ev, err := s.service.Create(s.ctx, s.loc.ID, s.t0.Add(time.Hour), 5, "")
	s.Require().NoError(err)

	later := requestcontext.WithTime(context.Background(), s.t0.Add(2*time.Hour))
	_, err = s.service.Delete(later, ev.Event.ID)
	s.True(dErrors.HasCode(err, dErrors.CodePastEvent))
}

func (s *DistributionSuite) TestDecrement() {
	ev, err := s.service.Create(s.ctx, s.loc.ID, s.t0.Add(time.Hour), 5, "")
	s.Require().NoError(err)

	out, err := s.service.Decrement(s.ctx, ev.Event.ID, 3)
	s.Require().NoError(err)
	s.Equal(2, out.Stock)

	_, err = s.service.Decrement(s.ctx, ev.Event.ID, 3)
	s.True(dErrors.HasCode(err, dErrors.CodeStockExhausted))

	_, err = s.service.Decrement(s.ctx, ev.Event.ID, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	out, err = s.service.Decrement(s.ctx, ev.Event.ID, 2)
	s.Require().NoError(err)
	s.Equal(0, out.Stock)

	_, err = s.service.Decrement(s.ctx, id.NewEventID(), 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Contains(s.sink.Actions(), audit.ActionStockDecremented)
}

func (s *DistributionSuite) TestListings() {
	vitry, _ := s.seedLocation("Vitry", 1)
	morning, err := s.service.Create(s.ctx, s.loc.ID, s.t0.Add(2*time.Hour), 5, "")
	s.Require().NoError(err)
	evening, err := s.service.Create(s.ctx, vitry.ID, s.t0.Add(10*time.Hour), 5, "")
	s.Require().NoError(err)
	nextDay, err := s.service.Create(s.ctx, s.loc.ID, s.t0.Add(26*time.Hour), 5, "")
	s.Require().NoError(err)

	today, err := s.service.Today(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(today, 2)
	s.Equal(morning.Event.ID, today[0].Event.ID)
	s.Equal("Ivry", today[0].LocationName)
	s.Equal(evening.Event.ID, today[1].Event.ID)
	s.Equal("Vitry", today[1].LocationName)

	// At the exact time of the morning event it is no longer upcoming.
	atMorning := requestcontext.WithTime(context.Background(), morning.Event.ScheduledAt)
	upcoming, err := s.service.Upcoming(atMorning)
	s.Require().NoError(err)
	s.Require().Len(upcoming, 2)
	s.Equal(evening.Event.ID, upcoming[0].Event.ID)
	s.Equal(nextDay.Event.ID, upcoming[1].Event.ID)
}

func (s *DistributionSuite) TestTodayUsesServiceTimeZone() {
	paris, err := time.LoadLocation("Europe/Paris")
	s.Require().NoError(err)
	svc := New(s.store, s.vouchers, s.sender, WithLocation(paris))

	// 23:30 UTC on March 2 is 00:30 on March 3 in Paris.
	_, err = s.service.Create(s.ctx, s.loc.ID, time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC), 5, "")
	s.Require().NoError(err)

	utcToday, err := s.service.Today(s.ctx)
	s.Require().NoError(err)
	s.Len(utcToday, 1)

	parisToday, err := svc.Today(s.ctx)
	s.Require().NoError(err)
	s.Empty(parisToday)
}
