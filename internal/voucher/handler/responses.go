package handler

import "moniftar/internal/domain"

type BeneficiaryResponse struct {
	Code         string `json:"code"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
	HomeLocation string `json:"home_location,omitempty"`
}

type ScanResponse struct {
	Message        string              `json:"message"`
	Beneficiary    BeneficiaryResponse `json:"beneficiary"`
	DistributionID string              `json:"distribution_id"`
	RemainingStock int                 `json:"remaining_stock"`
}

type IssueResponse struct {
	Code            string `json:"code"`
	BeneficiaryCode string `json:"beneficiary_code"`
	ValidOn         string `json:"valid_on"`
	Created         bool   `json:"created"`
}

func toBeneficiaryResponse(b *domain.Beneficiary) BeneficiaryResponse {
	resp := BeneficiaryResponse{
		Code:      b.Code,
		FirstName: b.FirstName,
		LastName:  b.LastName,
		Phone:     b.Phone,
	}
	if b.HomeLocation != nil {
		resp.HomeLocation = b.HomeLocation.String()
	}
	return resp
}
