package handler

import (
	"time"

	"moniftar/internal/domain"
	"moniftar/internal/membership/service"
)

type BeneficiaryResponse struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	RegisteredAt time.Time `json:"registered_at"`
}

type MemberResponse struct {
	BeneficiaryResponse
	ListType string `json:"list_type"`
	Position int    `json:"position"`
}

type MembersResponse struct {
	DistributionListID string           `json:"distribution_list_id"`
	Location           string           `json:"location"`
	Beneficiaries      []MemberResponse `json:"beneficiaries"`
}

type ListResponse struct {
	ID              string `json:"id"`
	LocationID      string `json:"location_id"`
	MaxMainListSize int    `json:"max_main_list_size"`
	MainListSize    int    `json:"main_list_size"`
	WaitingListSize int    `json:"waiting_list_size"`
}

type AddMemberResponse struct {
	BeneficiaryCode string `json:"beneficiary_code"`
	ListType        string `json:"list_type"`
}

type RemoveMemberResponse struct {
	BeneficiaryCode string               `json:"beneficiary_code"`
	RemovedFrom     string               `json:"removed_from"`
	Promoted        *BeneficiaryResponse `json:"promoted"`
}

type VolunteerResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	IsAdmin   bool   `json:"is_admin"`
}

type LocationListResponse struct {
	ID              string              `json:"id"`
	Location        string              `json:"location"`
	MaxMainListSize int                 `json:"max_main_list_size"`
	MainListSize    int                 `json:"main_list_size"`
	WaitingListSize int                 `json:"waiting_list_size"`
	Volunteers      []VolunteerResponse `json:"benevoles"`
}

type SummaryResponse struct {
	Location          string                 `json:"location"`
	DistributionLists []LocationListResponse `json:"distribution_lists"`
}

func toBeneficiaryResponse(b *domain.Beneficiary) BeneficiaryResponse {
	return BeneficiaryResponse{
		ID:           b.ID.String(),
		Code:         b.Code,
		FirstName:    b.FirstName,
		LastName:     b.LastName,
		Phone:        b.Phone,
		RegisteredAt: b.RegisteredAt,
	}
}

func toMembersResponse(out *service.ListMembers) MembersResponse {
	resp := MembersResponse{
		DistributionListID: out.List.ID.String(),
		Location:           out.Location.Name,
		Beneficiaries:      make([]MemberResponse, 0, len(out.Members)),
	}
	for _, m := range out.Members {
		resp.Beneficiaries = append(resp.Beneficiaries, MemberResponse{
			BeneficiaryResponse: toBeneficiaryResponse(m.Beneficiary),
			ListType:            string(m.Placement),
			Position:            m.Position,
		})
	}
	return resp
}

func toListResponse(l *domain.DistributionList) ListResponse {
	return ListResponse{
		ID:              l.ID.String(),
		LocationID:      l.LocationID.String(),
		MaxMainListSize: l.MaxMainListSize,
		MainListSize:    len(l.Main),
		WaitingListSize: len(l.Waiting),
	}
}

func toRemoveResponse(out *service.RemoveOutcome) RemoveMemberResponse {
	resp := RemoveMemberResponse{
		BeneficiaryCode: out.Beneficiary.Code,
		RemovedFrom:     string(out.From),
	}
	if out.Promoted != nil {
		p := toBeneficiaryResponse(out.Promoted)
		resp.Promoted = &p
	}
	return resp
}

func toSummaryResponse(out *service.LocationSummary) SummaryResponse {
	vols := make([]VolunteerResponse, 0, len(out.Volunteers))
	for _, v := range out.Volunteers {
		vols = append(vols, VolunteerResponse{
			ID:        v.ID.String(),
			Code:      v.Code,
			FirstName: v.FirstName,
			LastName:  v.LastName,
			Phone:     v.Phone,
			IsAdmin:   v.IsAdmin,
		})
	}
	return SummaryResponse{
		Location: out.Location.Name,
		DistributionLists: []LocationListResponse{{
			ID:              out.List.ID.String(),
			Location:        out.Location.Name,
			MaxMainListSize: out.List.MaxMainListSize,
			MainListSize:    out.MainSize,
			WaitingListSize: out.WaitSize,
			Volunteers:      vols,
		}},
	}
}
