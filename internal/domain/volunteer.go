package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

// Volunteer is a staff member. Admins manage locations, lists and events;
// field volunteers register beneficiaries and scan vouchers at their home
// location. Accounts start with FirstLoginPending until the volunteer sets
// names, location and a new password.
type Volunteer struct {
	ID                id.VolunteerID `json:"id"`
	Code              string         `json:"code"`
	Phone             string         `json:"phone"`
	PasswordHash      []byte         `json:"-"`
	FirstName         string         `json:"first_name"`
	LastName          string         `json:"last_name"`
	HomeLocation      *id.LocationID `json:"home_location,omitempty"`
	IsAdmin           bool           `json:"is_admin"`
	FirstLoginPending bool           `json:"first_login_pending"`
	CreatedAt         time.Time      `json:"created_at"`
}

func NewVolunteer(volID id.VolunteerID, phone string, passwordHash []byte, isAdmin bool, now time.Time) (*Volunteer, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if len(passwordHash) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	return &Volunteer{
		ID:                volID,
		Code:              NewVolunteerCode(isAdmin),
		Phone:             normalized,
		PasswordHash:      passwordHash,
		IsAdmin:           isAdmin,
		FirstLoginPending: true,
		CreatedAt:         now,
	}, nil
}

// NewVolunteerCode builds "V" + A (admin) or N + four uppercase hex digits.
func NewVolunteerCode(isAdmin bool) string {
	role := "N"
	if isAdmin {
		role = "A"
	}
	u := uuid.New()
	return "V" + role + strings.ToUpper(strings.ReplaceAll(u.String(), "-", "")[:4])
}

// CompleteFirstLogin records the profile chosen at first login.
func (v *Volunteer) CompleteFirstLogin(firstName, lastName string, home *id.LocationID, passwordHash []byte) error {
	if !v.FirstLoginPending {
		return dErrors.New(dErrors.CodeConflict, "first login already completed")
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return dErrors.New(dErrors.CodeValidation, "first and last name are required")
	}
	if !v.IsAdmin && home == nil {
		return dErrors.New(dErrors.CodeValidation, "distribution point is required")
	}
	v.FirstName = firstName
	v.LastName = lastName
	v.HomeLocation = home
	v.PasswordHash = passwordHash
	v.FirstLoginPending = false
	return nil
}

// Promote grants the admin role. The code is the volunteer's login-independent
// badge number and is left unchanged.
func (v *Volunteer) Promote() error {
	if v.IsAdmin {
		return dErrors.New(dErrors.CodeConflict, "volunteer is already an admin")
	}
	v.IsAdmin = true
	return nil
}

// Operator returns the redemption scope of this volunteer.
func (v *Volunteer) Operator() Operator {
	return Operator{VolunteerID: v.ID, HomeLocation: v.HomeLocation}
}

// Operator is the volunteer scanning a voucher. Its home location is the
// presenting distribution point and is passed to redemption explicitly.
type Operator struct {
	VolunteerID  id.VolunteerID
	HomeLocation *id.LocationID
}

// At reports whether the operator scans at loc. An unset location on either
// side never matches.
func (o Operator) At(loc *id.LocationID) bool {
	return o.HomeLocation != nil && loc != nil && *o.HomeLocation == *loc
}
