package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

func newEvent(t *testing.T, stock int) *DistributionEvent {
	t.Helper()
	l := newList(t, 10)
	e, err := NewDistributionEvent(id.NewEventID(), l, t0.Add(time.Hour), stock, "Iftar", t0)
	require.NoError(t, err)
	return e
}

func TestNewDistributionEvent(t *testing.T) {
	l := newList(t, 10)

	t.Run("now is not in the future", func(t *testing.T) {
		_, err := NewDistributionEvent(id.NewEventID(), l, t0, 5, "", t0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidSchedule))
	})

	t.Run("past date", func(t *testing.T) {
		_, err := NewDistributionEvent(id.NewEventID(), l, t0.Add(-time.Minute), 5, "", t0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidSchedule))
	})

	t.Run("negative stock", func(t *testing.T) {
		_, err := NewDistributionEvent(id.NewEventID(), l, t0.Add(time.Hour), -1, "", t0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("copies list and location", func(t *testing.T) {
		e, err := NewDistributionEvent(id.NewEventID(), l, t0.Add(time.Hour), 0, "  soup  ", t0)
		require.NoError(t, err)
		assert.Equal(t, l.ID, e.ListID)
		assert.Equal(t, l.LocationID, e.LocationID)
		assert.Equal(t, "soup", e.Description)
	})
}

func TestDecrement(t *testing.T) {
	e := newEvent(t, 5)

	err := e.Decrement(6)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeStockExhausted))
	assert.Equal(t, 5, e.Stock, "stock unchanged on failure")

	err = e.Decrement(0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	require.NoError(t, e.Decrement(5))
	assert.Equal(t, 0, e.Stock)

	err = e.Decrement(1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeStockExhausted))
	assert.NoError(t, e.Validate())
}

func TestCanDelete(t *testing.T) {
	e := newEvent(t, 1)
	assert.NoError(t, e.CanDelete(t0))
	assert.NoError(t, e.CanDelete(e.ScheduledAt))
	assert.True(t, dErrors.HasCode(e.CanDelete(e.ScheduledAt.Add(time.Second)), dErrors.CodePastEvent))
}
