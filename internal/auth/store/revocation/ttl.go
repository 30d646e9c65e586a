package revocation

import (
	"fmt"
	"time"

	"moniftar/pkg/platform/sentinel"
)

// validateTTL rejects revocations of tokens that have already expired.
func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}
