package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

type VoucherStatus string

const (
	VoucherIssued   VoucherStatus = "issued"
	VoucherRedeemed VoucherStatus = "redeemed"
	// VoucherExpired is derived from the issue day and never stored.
	VoucherExpired VoucherStatus = "expired"
)

// Voucher is a single-use, day-scoped token behind a beneficiary's QR code.
type Voucher struct {
	ID            id.VoucherID     `json:"id"`
	Code          string           `json:"code"`
	BeneficiaryID id.BeneficiaryID `json:"beneficiary_id"`
	IssuedOn      Day              `json:"issued_on"`
	RedeemedAt    *time.Time       `json:"redeemed_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// NewVoucher mints a voucher with a fresh UUID code. issuedOn must be today.
func NewVoucher(vID id.VoucherID, benID id.BeneficiaryID, issuedOn, today Day, now time.Time) (*Voucher, error) {
	if issuedOn != today {
		return nil, dErrors.New(dErrors.CodeInvalidDate, "voucher validity date must be today")
	}
	return &Voucher{
		ID:            vID,
		Code:          uuid.NewString(),
		BeneficiaryID: benID,
		IssuedOn:      issuedOn,
		CreatedAt:     now,
	}, nil
}

// NormalizeVoucherCode lower-cases a scanned code. Codes that are not UUIDs
// cannot exist and are reported as not found.
func NormalizeVoucherCode(raw string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", dErrors.New(dErrors.CodeNotFound, "voucher code not found")
	}
	return u.String(), nil
}

func (v *Voucher) Status(today Day) VoucherStatus {
	switch {
	case v.RedeemedAt != nil:
		return VoucherRedeemed
	case v.IssuedOn != today:
		return VoucherExpired
	default:
		return VoucherIssued
	}
}

// CanRedeem checks the voucher's own state: already used first, then day.
func (v *Voucher) CanRedeem(today Day) error {
	switch v.Status(today) {
	case VoucherRedeemed:
		return dErrors.New(dErrors.CodeAlreadyRedeemed, "voucher has already been redeemed")
	case VoucherExpired:
		return dErrors.New(dErrors.CodeExpired, "voucher is not valid today")
	}
	return nil
}

func (v *Voucher) ApplyRedemption(now time.Time) {
	v.RedeemedAt = &now
}
