// Package storagetest holds the behaviour suite every storage.Runner must pass.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/suite"

	"moniftar/internal/domain"
	"moniftar/internal/storage"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/platform/sentinel"
)

// RunnerSuite is embedded by backend test suites, which set NewRunner.
// NewRunner must return an empty store.
type RunnerSuite struct {
	suite.Suite
	NewRunner func() storage.Runner

	runner storage.Runner
	ctx    context.Context
	now    time.Time
}

func (s *RunnerSuite) SetupTest() {
	s.runner = s.NewRunner()
	s.ctx = context.Background()
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *RunnerSuite) seedLocation(maxMain int) (*domain.Location, *domain.DistributionList) {
	loc, err := domain.NewLocation(id.NewLocationID(), "Saint-Denis "+id.NewLocationID().String()[:6], s.now)
	s.Require().NoError(err)
	list, err := domain.NewDistributionList(id.NewListID(), loc.ID, maxMain)
	s.Require().NoError(err)
	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		if err := st.Locations.Create(s.ctx, loc); err != nil {
			return err
		}
		return st.Lists.Create(s.ctx, list)
	}))
	return loc, list
}

var seq atomic.Int64

func (s *RunnerSuite) seedBeneficiary(home *id.LocationID, registeredAt time.Time) *domain.Beneficiary {
	n := seq.Add(1)
	b, err := domain.NewBeneficiary(id.NewBeneficiaryID(), fmt.Sprintf("E%04d", n%10000),
		"Amina", "K", fmt.Sprintf("+336%08d", n), home, registeredAt)
	s.Require().NoError(err)
	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		return st.Beneficiaries.Create(s.ctx, b)
	}))
	return b
}

func (s *RunnerSuite) TestFailedTransactionRollsBack() {
	loc, _ := s.seedLocation(2)
	boom := errors.New("boom")

	err := s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		loc.Name = "renamed"
		if err := st.Locations.Update(s.ctx, loc); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	s.Require().NoError(s.runner.View(s.ctx, func(st storage.Stores) error {
		got, err := st.Locations.FindByID(s.ctx, loc.ID)
		s.Require().NoError(err)
		s.NotEqual("renamed", got.Name)
		return nil
	}))
}

func (s *RunnerSuite) TestCancelledContextIsTimeout() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	err := s.runner.RunInTx(ctx, func(storage.Stores) error { return nil })
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *RunnerSuite) TestListMembershipRoundTrip() {
	loc, list := s.seedLocation(1)
	a := s.seedBeneficiary(&loc.ID, s.now)
	b := s.seedBeneficiary(&loc.ID, s.now.Add(time.Minute))

	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		l, err := st.Lists.FindByID(s.ctx, list.ID)
		if err != nil {
			return err
		}
		if _, err := l.Add(a.Member()); err != nil {
			return err
		}
		if _, err := l.Add(b.Member()); err != nil {
			return err
		}
		return st.Lists.Save(s.ctx, l)
	}))

	s.Require().NoError(s.runner.View(s.ctx, func(st storage.Stores) error {
		l, err := st.Lists.FindByLocation(s.ctx, loc.ID)
		s.Require().NoError(err)
		s.Equal(domain.PlacementMain, l.PlacementOf(a.ID))
		s.Equal(domain.PlacementWaiting, l.PlacementOf(b.ID))
		s.Equal(1, l.MaxMainListSize)

		byMember, err := st.Lists.FindByMember(s.ctx, b.ID)
		s.Require().NoError(err)
		s.Equal(list.ID, byMember.ID)
		return nil
	}))
}

func (s *RunnerSuite) TestSaveRejectsInvalidList() {
	_, list := s.seedLocation(1)
	a := s.seedBeneficiary(nil, s.now)
	b := s.seedBeneficiary(nil, s.now)

	err := s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		l, err := st.Lists.FindByID(s.ctx, list.ID)
		if err != nil {
			return err
		}
		l.Main = []domain.Member{a.Member(), b.Member()}
		return st.Lists.Save(s.ctx, l)
	})
	s.True(dErrors.HasCode(err, dErrors.CodeCapacityViolation))
}

func (s *RunnerSuite) TestBeneficiaryUniqueness() {
	a := s.seedBeneficiary(nil, s.now)
	dup, err := domain.NewBeneficiary(id.NewBeneficiaryID(), a.Code, "X", "Y", "+33700000000", nil, s.now)
	s.Require().NoError(err)
	err = s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		return st.Beneficiaries.Create(s.ctx, dup)
	})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *RunnerSuite) TestVoucherSingleUse() {
	b := s.seedBeneficiary(nil, s.now)
	today := domain.DayOf(s.now, time.UTC)
	v, err := domain.NewVoucher(id.NewVoucherID(), b.ID, today, today, s.now)
	s.Require().NoError(err)

	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		return st.Vouchers.Create(s.ctx, v)
	}))

	second, err := domain.NewVoucher(id.NewVoucherID(), b.ID, today, today, s.now)
	s.Require().NoError(err)
	err = s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		return st.Vouchers.Create(s.ctx, second)
	})
	s.ErrorIs(err, sentinel.ErrConflict, "one voucher per beneficiary per day")

	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		return st.Vouchers.MarkRedeemed(s.ctx, v.ID, s.now)
	}))
	err = s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		return st.Vouchers.MarkRedeemed(s.ctx, v.ID, s.now)
	})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	s.Require().NoError(s.runner.View(s.ctx, func(st storage.Stores) error {
		got, err := st.Vouchers.FindByCode(s.ctx, v.Code)
		s.Require().NoError(err)
		s.Require().NotNil(got.RedeemedAt)
		s.Equal(today, got.IssuedOn)

		forDay, err := st.Vouchers.FindForDay(s.ctx, b.ID, today)
		s.Require().NoError(err)
		s.Equal(v.ID, forDay.ID)
		return nil
	}))
}

func (s *RunnerSuite) TestDeleteUnredeemedKeepsHistory() {
	a := s.seedBeneficiary(nil, s.now)
	b := s.seedBeneficiary(nil, s.now)
	today := domain.DayOf(s.now, time.UTC)
	va, _ := domain.NewVoucher(id.NewVoucherID(), a.ID, today, today, s.now)
	vb, _ := domain.NewVoucher(id.NewVoucherID(), b.ID, today, today, s.now)

	var deleted int
	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		if err := st.Vouchers.Create(s.ctx, va); err != nil {
			return err
		}
		if err := st.Vouchers.Create(s.ctx, vb); err != nil {
			return err
		}
		if err := st.Vouchers.MarkRedeemed(s.ctx, va.ID, s.now); err != nil {
			return err
		}
		n, err := st.Vouchers.DeleteUnredeemed(s.ctx, []id.BeneficiaryID{a.ID, b.ID})
		deleted = n
		return err
	}))
	s.Equal(1, deleted)

	s.Require().NoError(s.runner.View(s.ctx, func(st storage.Stores) error {
		_, err := st.Vouchers.FindByCode(s.ctx, va.Code)
		s.NoError(err)
		_, err = st.Vouchers.FindByCode(s.ctx, vb.Code)
		s.ErrorIs(err, sentinel.ErrNotFound)
		return nil
	}))
}

func (s *RunnerSuite) TestEventStockAndLookup() {
	loc, list := s.seedLocation(5)
	later, err := domain.NewDistributionEvent(id.NewEventID(), list, s.now.Add(48*time.Hour), 3, "later", s.now)
	s.Require().NoError(err)
	sooner, err := domain.NewDistributionEvent(id.NewEventID(), list, s.now.Add(2*time.Hour), 1, "sooner", s.now)
	s.Require().NoError(err)

	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		if err := st.Events.Create(s.ctx, later); err != nil {
			return err
		}
		return st.Events.Create(s.ctx, sooner)
	}))

	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		next, err := st.Events.NextForLocation(s.ctx, loc.ID, s.now)
		s.Require().NoError(err)
		s.Equal(sooner.ID, next.ID)

		remaining, err := st.Events.DecrementStock(s.ctx, sooner.ID, 1)
		s.Require().NoError(err)
		s.Equal(0, remaining)

		_, err = st.Events.DecrementStock(s.ctx, sooner.ID, 1)
		s.ErrorIs(err, sentinel.ErrInvalidState)
		return nil
	}))

	s.Require().NoError(s.runner.View(s.ctx, func(st storage.Stores) error {
		upcoming, err := st.Events.ListBetween(s.ctx, s.now, time.Time{})
		s.Require().NoError(err)
		s.Require().Len(upcoming, 2)
		s.Equal(sooner.ID, upcoming[0].ID)
		s.Equal(0, upcoming[0].Stock)

		window, err := st.Events.ListBetween(s.ctx, s.now, s.now.Add(24*time.Hour))
		s.Require().NoError(err)
		s.Len(window, 1)

		stocked, err := st.Events.NextStockedForLocation(s.ctx, loc.ID, s.now)
		s.Require().NoError(err)
		s.Equal(later.ID, stocked.ID)

		_, err = st.Events.NextForLocation(s.ctx, id.NewLocationID(), s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = st.Events.NextStockedForLocation(s.ctx, id.NewLocationID(), s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
		return nil
	}))
}

func (s *RunnerSuite) TestNextEventTieBreaksOnID() {
	loc, list := s.seedLocation(5)
	at := s.now.Add(3 * time.Hour)
	var events []*domain.DistributionEvent
	for range 4 {
		ev, err := domain.NewDistributionEvent(id.NewEventID(), list, at, 2, "", s.now)
		s.Require().NoError(err)
		events = append(events, ev)
	}
	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		for _, ev := range events {
			if err := st.Events.Create(s.ctx, ev); err != nil {
				return err
			}
		}
		return nil
	}))
	slices.SortFunc(events, func(a, b *domain.DistributionEvent) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})

	s.Require().NoError(s.runner.View(s.ctx, func(st storage.Stores) error {
		next, err := st.Events.NextForLocation(s.ctx, loc.ID, s.now)
		s.Require().NoError(err)
		s.Equal(events[0].ID, next.ID)
		return nil
	}))
}

func (s *RunnerSuite) TestConcurrentRedeemSucceedsOnce() {
	b := s.seedBeneficiary(nil, s.now)
	_, list := s.seedLocation(5)
	today := domain.DayOf(s.now, time.UTC)
	v, _ := domain.NewVoucher(id.NewVoucherID(), b.ID, today, today, s.now)
	ev, err := domain.NewDistributionEvent(id.NewEventID(), list, s.now.Add(time.Hour), 10, "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		if err := st.Events.Create(s.ctx, ev); err != nil {
			return err
		}
		return st.Vouchers.Create(s.ctx, v)
	}))

	const attempts = 8
	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
				got, err := st.Vouchers.FindByCode(s.ctx, v.Code)
				if err != nil {
					return err
				}
				if got.RedeemedAt != nil {
					return sentinel.ErrAlreadyUsed
				}
				if err := st.Vouchers.MarkRedeemed(s.ctx, got.ID, s.now); err != nil {
					return err
				}
				_, err = st.Events.DecrementStock(s.ctx, ev.ID, 1)
				return err
			})
			if err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), ok.Load())
	s.Require().NoError(s.runner.View(s.ctx, func(st storage.Stores) error {
		got, err := st.Events.FindByID(s.ctx, ev.ID)
		s.Require().NoError(err)
		s.Equal(9, got.Stock)
		return nil
	}))
}

func (s *RunnerSuite) TestDeleteBeneficiaryCascades() {
	loc, list := s.seedLocation(2)
	b := s.seedBeneficiary(&loc.ID, s.now)
	today := domain.DayOf(s.now, time.UTC)
	v, _ := domain.NewVoucher(id.NewVoucherID(), b.ID, today, today, s.now)

	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		l, err := st.Lists.FindByID(s.ctx, list.ID)
		if err != nil {
			return err
		}
		if _, err := l.Add(b.Member()); err != nil {
			return err
		}
		if err := st.Lists.Save(s.ctx, l); err != nil {
			return err
		}
		if err := st.Vouchers.Create(s.ctx, v); err != nil {
			return err
		}
		return st.Beneficiaries.Delete(s.ctx, b.ID)
	}))

	s.Require().NoError(s.runner.View(s.ctx, func(st storage.Stores) error {
		l, err := st.Lists.FindByID(s.ctx, list.ID)
		s.Require().NoError(err)
		s.Empty(l.Main)
		_, err = st.Vouchers.FindByCode(s.ctx, v.Code)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = st.Beneficiaries.FindByID(s.ctx, b.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		return nil
	}))
}

func (s *RunnerSuite) TestVolunteerLookups() {
	loc, _ := s.seedLocation(1)
	v, err := domain.NewVolunteer(id.NewVolunteerID(), "+33 6 00 00 00 01", []byte("hash"), false, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		if err := st.Volunteers.Create(s.ctx, v); err != nil {
			return err
		}
		if err := v.CompleteFirstLogin("Yanis", "M", &loc.ID, []byte("hash2")); err != nil {
			return err
		}
		return st.Volunteers.Update(s.ctx, v)
	}))

	s.Require().NoError(s.runner.View(s.ctx, func(st storage.Stores) error {
		byPhone, err := st.Volunteers.FindByPhone(s.ctx, "+33600000001")
		s.Require().NoError(err)
		s.Equal(v.ID, byPhone.ID)
		s.False(byPhone.FirstLoginPending)
		s.Equal([]byte("hash2"), byPhone.PasswordHash)

		byCode, err := st.Volunteers.FindByCode(s.ctx, v.Code)
		s.Require().NoError(err)
		s.Equal(v.ID, byCode.ID)

		atLoc, err := st.Volunteers.ListByLocation(s.ctx, loc.ID)
		s.Require().NoError(err)
		s.Len(atLoc, 1)
		return nil
	}))
}

func (s *RunnerSuite) TestSearchLocationsByName() {
	loc, _ := s.seedLocation(1)
	loc.Name = "Bobigny Centre"
	s.Require().NoError(s.runner.RunInTx(s.ctx, func(st storage.Stores) error {
		return st.Locations.Update(s.ctx, loc)
	}))
	s.Require().NoError(s.runner.View(s.ctx, func(st storage.Stores) error {
		found, err := st.Locations.SearchByName(s.ctx, "bobi")
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal(loc.ID, found[0].ID)
		return nil
	}))
}
