package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func member(minutes int) Member {
	return Member{BeneficiaryID: id.NewBeneficiaryID(), RegisteredAt: t0.Add(time.Duration(minutes) * time.Minute)}
}

func newList(t *testing.T, max int) *DistributionList {
	t.Helper()
	l, err := NewDistributionList(id.NewListID(), id.NewLocationID(), max)
	require.NoError(t, err)
	return l
}

func ids(members []Member) []id.BeneficiaryID {
	out := make([]id.BeneficiaryID, len(members))
	for i, m := range members {
		out[i] = m.BeneficiaryID
	}
	return out
}

func TestAdd_OverflowGoesToWaitingInOrder(t *testing.T) {
	l := newList(t, 3)
	all := []Member{member(0), member(1), member(2), member(3), member(4)}

	var placements []Placement
	for _, m := range all {
		p, err := l.Add(m)
		require.NoError(t, err)
		placements = append(placements, p)
		assert.LessOrEqual(t, len(l.Main), l.MaxMainListSize)
	}

	assert.Equal(t, []Placement{PlacementMain, PlacementMain, PlacementMain, PlacementWaiting, PlacementWaiting}, placements)
	assert.Equal(t, ids(all[:3]), ids(l.Main))
	assert.Equal(t, ids(all[3:]), ids(l.Waiting))
}

func TestAdd_RejectsDuplicates(t *testing.T) {
	l := newList(t, 1)
	a, b := member(0), member(1)
	_, err := l.Add(a)
	require.NoError(t, err)
	_, err = l.Add(b)
	require.NoError(t, err)

	_, err = l.Add(a)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	_, err = l.Add(b)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Len(t, l.Main, 1)
	assert.Len(t, l.Waiting, 1)
}

func TestAdd_ZeroCapacityWaitsEveryone(t *testing.T) {
	l := newList(t, 0)
	p, err := l.Add(member(0))
	require.NoError(t, err)
	assert.Equal(t, PlacementWaiting, p)
}

func TestRemove_FromMainPromotesEarliestRegistered(t *testing.T) {
	l := newList(t, 2)
	a, b := member(0), member(1)
	// c arrived before d but registered later
	c, d := member(30), member(10)
	for _, m := range []Member{a, b, c, d} {
		_, err := l.Add(m)
		require.NoError(t, err)
	}

	res, err := l.Remove(a.BeneficiaryID)
	require.NoError(t, err)

	assert.Equal(t, PlacementMain, res.From)
	require.NotNil(t, res.Promoted)
	assert.Equal(t, d.BeneficiaryID, res.Promoted.BeneficiaryID)
	assert.Len(t, l.Main, 2)
	assert.Equal(t, []id.BeneficiaryID{c.BeneficiaryID}, ids(l.Waiting))
}

func TestRemove_TiesKeepArrivalOrder(t *testing.T) {
	l := newList(t, 1)
	a := member(0)
	b := Member{BeneficiaryID: id.NewBeneficiaryID(), RegisteredAt: t0.Add(time.Hour)}
	c := Member{BeneficiaryID: id.NewBeneficiaryID(), RegisteredAt: t0.Add(time.Hour)}
	for _, m := range []Member{a, b, c} {
		_, err := l.Add(m)
		require.NoError(t, err)
	}

	res, err := l.Remove(a.BeneficiaryID)
	require.NoError(t, err)
	require.NotNil(t, res.Promoted)
	assert.Equal(t, b.BeneficiaryID, res.Promoted.BeneficiaryID)
}

func TestRemove_FromMainWithEmptyWaiting(t *testing.T) {
	l := newList(t, 2)
	a := member(0)
	_, err := l.Add(a)
	require.NoError(t, err)

	res, err := l.Remove(a.BeneficiaryID)
	require.NoError(t, err)
	assert.Equal(t, PlacementMain, res.From)
	assert.Nil(t, res.Promoted)
	assert.Empty(t, l.Main)
}

func TestRemove_FromWaitingOnly(t *testing.T) {
	l := newList(t, 1)
	a, b := member(0), member(1)
	for _, m := range []Member{a, b} {
		_, err := l.Add(m)
		require.NoError(t, err)
	}

	res, err := l.Remove(b.BeneficiaryID)
	require.NoError(t, err)
	assert.Equal(t, PlacementWaiting, res.From)
	assert.Nil(t, res.Promoted)
	assert.Equal(t, []id.BeneficiaryID{a.BeneficiaryID}, ids(l.Main))
	assert.Empty(t, l.Waiting)
}

func TestRemove_UnknownIsReportedNotFound(t *testing.T) {
	l := newList(t, 1)
	_, err := l.Add(member(0))
	require.NoError(t, err)

	res, err := l.Remove(id.NewBeneficiaryID())
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Equal(t, PlacementNone, res.From)
	assert.Len(t, l.Main, 1)
}

func TestResize(t *testing.T) {
	l := newList(t, 3)
	for i := 0; i < 3; i++ {
		_, err := l.Add(member(i))
		require.NoError(t, err)
	}

	err := l.Resize(2)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeCapacityViolation))
	assert.Equal(t, 3, l.MaxMainListSize)

	require.NoError(t, l.Resize(3))
	require.NoError(t, l.Resize(10))
	assert.Equal(t, 10, l.MaxMainListSize)

	err = l.Resize(-1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestValidate_CatchesCorruptState(t *testing.T) {
	t.Run("main over capacity", func(t *testing.T) {
		l := newList(t, 1)
		l.Main = []Member{member(0), member(1)}
		assert.True(t, dErrors.HasCode(l.Validate(), dErrors.CodeCapacityViolation))
	})

	t.Run("cross membership", func(t *testing.T) {
		l := newList(t, 5)
		m := member(0)
		l.Main = []Member{m}
		l.Waiting = []Member{m}
		assert.True(t, dErrors.HasCode(l.Validate(), dErrors.CodeInvariantViolation))
	})
}

func TestWaitingInOrder(t *testing.T) {
	l := newList(t, 0)
	late, early := member(20), member(5)
	for _, m := range []Member{late, early} {
		_, err := l.Add(m)
		require.NoError(t, err)
	}
	assert.Equal(t, []id.BeneficiaryID{early.BeneficiaryID, late.BeneficiaryID}, ids(l.WaitingInOrder()))
	// arrival order is untouched
	assert.Equal(t, []id.BeneficiaryID{late.BeneficiaryID, early.BeneficiaryID}, ids(l.Waiting))
}

func TestClone_IsDeep(t *testing.T) {
	l := newList(t, 1)
	_, err := l.Add(member(0))
	require.NoError(t, err)

	c := l.Clone()
	c.Main[0].BeneficiaryID = id.NewBeneficiaryID()
	assert.NotEqual(t, l.Main[0].BeneficiaryID, c.Main[0].BeneficiaryID)
}
