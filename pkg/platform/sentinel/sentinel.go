package sentinel

import "errors"

// Sentinel errors for persistence facts. Stores return these (optionally wrapped)
// and services translate them into domain errors.
//
//   - ErrNotFound: the row does not exist
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrAlreadyUsed: a single-use record (voucher) was already consumed
//   - ErrInvalidState: a conditional update matched no row in the expected state
//   - ErrUnavailable: the backing service could not be reached
//
// Validation failures belong in pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
