package handler

import (
	"time"

	"moniftar/internal/auth/service"
	"moniftar/internal/domain"
)

type VolunteerResponse struct {
	ID                string `json:"id"`
	Code              string `json:"code"`
	Phone             string `json:"phone"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	HomeLocation      string `json:"home_location,omitempty"`
	IsAdmin           bool   `json:"is_admin"`
	FirstLoginPending bool   `json:"first_login_pending"`
}

type TokenResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Volunteer   VolunteerResponse `json:"volunteer"`
}

type CreateVolunteerResponse struct {
	Message   string            `json:"message"`
	Phone     string            `json:"phone"`
	Volunteer VolunteerResponse `json:"volunteer"`
}

type MakeAdminResponse struct {
	Message   string            `json:"message"`
	Volunteer VolunteerResponse `json:"volunteer"`
}

func toVolunteerResponse(v *domain.Volunteer) VolunteerResponse {
	resp := VolunteerResponse{
		ID:                v.ID.String(),
		Code:              v.Code,
		Phone:             v.Phone,
		FirstName:         v.FirstName,
		LastName:          v.LastName,
		IsAdmin:           v.IsAdmin,
		FirstLoginPending: v.FirstLoginPending,
	}
	if v.HomeLocation != nil {
		resp.HomeLocation = v.HomeLocation.String()
	}
	return resp
}

func toTokenResponse(s *service.Session) TokenResponse {
	return TokenResponse{
		AccessToken: s.Token.Token,
		TokenType:   "Bearer",
		ExpiresAt:   s.Token.ExpiresAt,
		Volunteer:   toVolunteerResponse(s.Volunteer),
	}
}
