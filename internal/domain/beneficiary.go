package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

// Beneficiary is a person receiving food. Code and phone are unique.
// RegisteredAt orders the waiting list.
type Beneficiary struct {
	ID           id.BeneficiaryID `json:"id"`
	Code         string           `json:"code"`
	FirstName    string           `json:"first_name"`
	LastName     string           `json:"last_name"`
	Phone        string           `json:"phone"`
	HomeLocation *id.LocationID   `json:"home_location,omitempty"`
	RegisteredAt time.Time        `json:"registered_at"`
}

// NewBeneficiary validates names and phone; the code is assigned by the caller
// (see NewBeneficiaryCode) because uniqueness is a store concern.
func NewBeneficiary(benID id.BeneficiaryID, code, firstName, lastName, phone string, home *id.LocationID, now time.Time) (*Beneficiary, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "first and last name are required")
	}
	if len(firstName) > maxNameLength || len(lastName) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if !IsBeneficiaryCode(code) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "beneficiary code must be E followed by 4 digits")
	}
	return &Beneficiary{
		ID:           benID,
		Code:         code,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        normalized,
		HomeLocation: home,
		RegisteredAt: now,
	}, nil
}

// NewBeneficiaryCode draws a random "E1234" style code.
func NewBeneficiaryCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("draw beneficiary code: %w", err)
	}
	return fmt.Sprintf("E%04d", n.Int64()), nil
}

func IsBeneficiaryCode(code string) bool {
	if len(code) != 5 || code[0] != 'E' {
		return false
	}
	for _, c := range code[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FullName is used in notification and export rows.
func (b *Beneficiary) FullName() string {
	return b.FirstName + " " + b.LastName
}

// Member projects the beneficiary into list membership.
func (b *Beneficiary) Member() Member {
	return Member{BeneficiaryID: b.ID, RegisteredAt: b.RegisteredAt}
}
