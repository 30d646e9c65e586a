package handler

import (
	"time"

	"moniftar/internal/domain"
)

type LocationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateLocationResponse struct {
	Message            string           `json:"message"`
	Location           LocationResponse `json:"location"`
	DistributionListID string           `json:"distribution_list_id"`
	MaxMainListSize    int              `json:"max_main_list_size"`
}

type BeneficiaryResponse struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	HomeLocation string    `json:"home_location,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

type RegisterBeneficiaryResponse struct {
	Message         string `json:"message"`
	BeneficiaryCode string `json:"beneficiary_code"`
	ListType        string `json:"list_type"`
}

type DeleteBeneficiaryResponse struct {
	Message         string `json:"message"`
	BeneficiaryCode string `json:"beneficiary_code"`
	RemovedFrom     string `json:"removed_from"`
	PromotedCode    string `json:"promoted_code,omitempty"`
}

func toLocationResponse(l *domain.Location) LocationResponse {
	return LocationResponse{ID: l.ID.String(), Name: l.Name, CreatedAt: l.CreatedAt}
}

func toLocationResponses(locs []*domain.Location) []LocationResponse {
	out := make([]LocationResponse, 0, len(locs))
	for _, l := range locs {
		out = append(out, toLocationResponse(l))
	}
	return out
}

func toBeneficiaryResponse(b *domain.Beneficiary) BeneficiaryResponse {
	resp := BeneficiaryResponse{
		ID:           b.ID.String(),
		Code:         b.Code,
		FirstName:    b.FirstName,
		LastName:     b.LastName,
		Phone:        b.Phone,
		RegisteredAt: b.RegisteredAt,
	}
	if b.HomeLocation != nil {
		resp.HomeLocation = b.HomeLocation.String()
	}
	return resp
}
