package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

// DistributionEvent is a scheduled distribution at a location. Stock only
// decreases and never goes below zero.
type DistributionEvent struct {
	ID          id.EventID    `json:"id"`
	ListID      id.ListID     `json:"list_id"`
	LocationID  id.LocationID `json:"location_id"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	Stock       int           `json:"stock"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewDistributionEvent requires a schedule strictly after now.
func NewDistributionEvent(evID id.EventID, list *DistributionList, at time.Time, stock int, description string, now time.Time) (*DistributionEvent, error) {
	if !at.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidSchedule, "distribution date must be in the future")
	}
	if stock < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "stock cannot be negative")
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "description is too long")
	}
	return &DistributionEvent{
		ID:          evID,
		ListID:      list.ID,
		LocationID:  list.LocationID,
		ScheduledAt: at,
		Stock:       stock,
		Description: description,
		CreatedAt:   now,
	}, nil
}

// CanDecrement validates a stock decrement without applying it.
// Use with ApplyDecrement inside a locked transaction.
func (e *DistributionEvent) CanDecrement(qty int) error {
	if qty <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "quantity must be positive")
	}
	if qty > e.Stock {
		return dErrors.New(dErrors.CodeStockExhausted, "not enough stock available")
	}
	return nil
}

func (e *DistributionEvent) ApplyDecrement(qty int) {
	e.Stock -= qty
}

func (e *DistributionEvent) Decrement(qty int) error {
	if err := e.CanDecrement(qty); err != nil {
		return err
	}
	e.ApplyDecrement(qty)
	return nil
}

// CanDelete allows deletion while the event is not in the past.
func (e *DistributionEvent) CanDelete(now time.Time) error {
	if e.ScheduledAt.Before(now) {
		return dErrors.New(dErrors.CodePastEvent, "cannot delete a past distribution")
	}
	return nil
}

func (e *DistributionEvent) Validate() error {
	if e.Stock < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "stock cannot be negative")
	}
	return nil
}
