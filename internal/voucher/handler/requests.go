package handler

import (
	"strings"

	dErrors "moniftar/pkg/domain-errors"
)

// ScanRequest is the body of POST /vouchers/scan. Scanner apps send the code
// as code_unique; code is accepted too.
type ScanRequest struct {
	CodeUnique string `json:"code_unique"`
	Code       string `json:"code"`
}

func (r *ScanRequest) Validate() error {
	r.CodeUnique = strings.TrimSpace(r.CodeUnique)
	r.Code = strings.TrimSpace(r.Code)
	if r.Value() == "" {
		return dErrors.New(dErrors.CodeValidation, "code_unique is required")
	}
	return nil
}

func (r *ScanRequest) Value() string {
	if r.CodeUnique != "" {
		return r.CodeUnique
	}
	return r.Code
}

type IssueRequest struct {
	BeneficiaryCode string `json:"beneficiary_code"`
}

func (r *IssueRequest) Validate() error {
	r.BeneficiaryCode = strings.ToUpper(strings.TrimSpace(r.BeneficiaryCode))
	if r.BeneficiaryCode == "" {
		return dErrors.New(dErrors.CodeValidation, "beneficiary_code is required")
	}
	return nil
}
