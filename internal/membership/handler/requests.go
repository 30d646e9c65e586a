package handler

import (
	"strings"

	"moniftar/internal/domain"
	dErrors "moniftar/pkg/domain-errors"
)

// ResizeRequest is the body of PUT /lists/{id}/capacity.
type ResizeRequest struct {
	MaxMainListSize *int `json:"max_main_list_size"`
}

func (r *ResizeRequest) Validate() error {
	if r.MaxMainListSize == nil {
		return dErrors.New(dErrors.CodeValidation, "max_main_list_size is required")
	}
	if *r.MaxMainListSize < 0 {
		return dErrors.New(dErrors.CodeValidation, "max_main_list_size cannot be negative")
	}
	return nil
}

// AddMemberRequest is the body of POST /lists/{id}/members.
type AddMemberRequest struct {
	BeneficiaryCode string `json:"beneficiary_code"`
}

func (r *AddMemberRequest) Validate() error {
	r.BeneficiaryCode = strings.ToUpper(strings.TrimSpace(r.BeneficiaryCode))
	if r.BeneficiaryCode == "" {
		return dErrors.New(dErrors.CodeValidation, "beneficiary_code is required")
	}
	return nil
}

// parseListType accepts main, waiting and the older main_list / waiting_list
// spellings. Empty selects both sub-lists.
func parseListType(raw string) (domain.Placement, error) {
	switch raw {
	case "":
		return "", nil
	case "main_list":
		return domain.PlacementMain, nil
	case "waiting_list":
		return domain.PlacementWaiting, nil
	}
	return domain.ParsePlacement(raw)
}
