package handler

import (
	"strings"

	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Phone == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "phone and password are required")
	}
	return nil
}

// FirstLoginRequest is the body of POST /auth/first-login. Admins may omit
// home_location_id.
type FirstLoginRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	HomeLocationID string `json:"home_location_id"`
	Password       string `json:"password"`

	homeLocation *id.LocationID
}

func (r *FirstLoginRequest) Validate() error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	if r.FirstName == "" || r.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "first_name and last_name are required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if raw := strings.TrimSpace(r.HomeLocationID); raw != "" {
		loc, err := id.ParseLocationID(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "home_location_id must be a valid id")
		}
		r.homeLocation = &loc
	}
	return nil
}

// CreateVolunteerRequest is the body of POST /volunteers.
type CreateVolunteerRequest struct {
	Phone string `json:"phone"`
}

func (r *CreateVolunteerRequest) Validate() error {
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Phone == "" {
		return dErrors.New(dErrors.CodeValidation, "phone is required")
	}
	return nil
}
