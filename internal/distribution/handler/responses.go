package handler

import (
	"time"

	"moniftar/internal/distribution/service"
	"moniftar/internal/domain"
)

type EventResponse struct {
	ID                 string    `json:"id"`
	DistributionListID string    `json:"distribution_list_id"`
	LocationID         string    `json:"location_id"`
	Location           string    `json:"location,omitempty"`
	ScheduledAt        time.Time `json:"scheduled_at"`
	Stock              int       `json:"stock"`
	Description        string    `json:"description"`
}

type CreateResponse struct {
	Distribution   EventResponse `json:"distribution"`
	VouchersIssued int           `json:"vouchers_issued"`
}

type DeletedDistribution struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
	Stock    int       `json:"stock"`
}

type DeleteResponse struct {
	Detail          string              `json:"detail"`
	Deleted         DeletedDistribution `json:"deleted_distribution"`
	VouchersRevoked int                 `json:"vouchers_revoked"`
}

type TodayResponse struct {
	Distributions []EventResponse `json:"today_distributions"`
}

type UpcomingResponse struct {
	Distributions []EventResponse `json:"upcoming_distributions"`
}

func toEventResponse(e *domain.DistributionEvent, locationName string) EventResponse {
	return EventResponse{
		ID:                 e.ID.String(),
		DistributionListID: e.ListID.String(),
		LocationID:         e.LocationID.String(),
		Location:           locationName,
		ScheduledAt:        e.ScheduledAt,
		Stock:              e.Stock,
		Description:        e.Description,
	}
}

func toEventResponses(views []service.EventView) []EventResponse {
	out := make([]EventResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toEventResponse(v.Event, v.LocationName))
	}
	return out
}
