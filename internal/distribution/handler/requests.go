package handler

import (
	"strings"
	"time"

	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

// CreateRequest is the body of POST /distributions. scheduled_at is RFC 3339.
type CreateRequest struct {
	LocationID  string     `json:"location_id"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Stock       *int       `json:"stock"`
	Description string     `json:"description"`

	locationID id.LocationID
}

func (r *CreateRequest) Validate() error {
	locID, err := id.ParseLocationID(strings.TrimSpace(r.LocationID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "location_id must be a valid id")
	}
	r.locationID = locID
	if r.ScheduledAt == nil || r.ScheduledAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "scheduled_at is required")
	}
	if r.Stock == nil {
		return dErrors.New(dErrors.CodeValidation, "stock is required")
	}
	r.Description = strings.TrimSpace(r.Description)
	return nil
}

// DecrementRequest is the body of POST /distributions/{id}/decrement. A
// missing quantity means one unit.
type DecrementRequest struct {
	Quantity *int `json:"quantity"`
}

func (r *DecrementRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}
