package handler

import (
	"strings"

	dErrors "moniftar/pkg/domain-errors"
)

// CreateLocationRequest is the body of POST /locations. A missing
// max_main_list_size uses the configured default.
type CreateLocationRequest struct {
	Name            string `json:"name"`
	MaxMainListSize *int   `json:"max_main_list_size,omitempty"`
}

func (r *CreateLocationRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.MaxMainListSize != nil && *r.MaxMainListSize < 0 {
		return dErrors.New(dErrors.CodeValidation, "max_main_list_size cannot be negative")
	}
	return nil
}

type RenameLocationRequest struct {
	Name string `json:"name"`
}

func (r *RenameLocationRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

// RegisterBeneficiaryRequest is the body of POST /beneficiaries. Phone format
// is checked by the domain.
type RegisterBeneficiaryRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (r *RegisterBeneficiaryRequest) Validate() error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.FirstName == "" || r.LastName == "" || r.Phone == "" {
		return dErrors.New(dErrors.CodeValidation, "first_name, last_name and phone are required")
	}
	return nil
}
