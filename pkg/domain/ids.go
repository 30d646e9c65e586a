package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "moniftar/pkg/domain-errors"
)

// Typed identifiers keep a location ID from being passed where a list or
// beneficiary ID is expected. All of them parse through the same validation.
type (
	LocationID    uuid.UUID
	ListID        uuid.UUID
	BeneficiaryID uuid.UUID
	VolunteerID   uuid.UUID
	EventID       uuid.UUID
	VoucherID     uuid.UUID
)

func parseUUID(s, kind string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return parsed, nil
}

func ParseLocationID(s string) (LocationID, error) {
	u, err := parseUUID(s, "location ID")
	return LocationID(u), err
}

func ParseListID(s string) (ListID, error) {
	u, err := parseUUID(s, "list ID")
	return ListID(u), err
}

func ParseBeneficiaryID(s string) (BeneficiaryID, error) {
	u, err := parseUUID(s, "beneficiary ID")
	return BeneficiaryID(u), err
}

func ParseVolunteerID(s string) (VolunteerID, error) {
	u, err := parseUUID(s, "volunteer ID")
	return VolunteerID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event ID")
	return EventID(u), err
}

func ParseVoucherID(s string) (VoucherID, error) {
	u, err := parseUUID(s, "voucher ID")
	return VoucherID(u), err
}

func (id LocationID) String() string    { return uuid.UUID(id).String() }
func (id ListID) String() string        { return uuid.UUID(id).String() }
func (id BeneficiaryID) String() string { return uuid.UUID(id).String() }
func (id VolunteerID) String() string   { return uuid.UUID(id).String() }
func (id EventID) String() string       { return uuid.UUID(id).String() }
func (id VoucherID) String() string     { return uuid.UUID(id).String() }

func (id LocationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ListID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id BeneficiaryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id VolunteerID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id VoucherID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// Text marshalling keeps typed IDs rendering as UUID strings in JSON.
func (id LocationID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id ListID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id BeneficiaryID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id VolunteerID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id EventID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id VoucherID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *LocationID) UnmarshalText(b []byte) error {
	parsed, err := ParseLocationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ListID) UnmarshalText(b []byte) error {
	parsed, err := ParseListID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *EventID) UnmarshalText(b []byte) error {
	parsed, err := ParseEventID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func NewLocationID() LocationID       { return LocationID(uuid.New()) }
func NewListID() ListID               { return ListID(uuid.New()) }
func NewBeneficiaryID() BeneficiaryID { return BeneficiaryID(uuid.New()) }
func NewVolunteerID() VolunteerID     { return VolunteerID(uuid.New()) }
func NewEventID() EventID             { return EventID(uuid.New()) }
func NewVoucherID() VoucherID         { return VoucherID(uuid.New()) }
