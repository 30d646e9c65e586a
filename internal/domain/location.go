package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

const maxNameLength = 255

// Location is a distribution point. It owns exactly one DistributionList,
// created in the same transaction; only the name changes afterwards.
type Location struct {
	ID        id.LocationID `json:"id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
}

func NewLocation(locID id.LocationID, name string, now time.Time) (*Location, error) {
	l := &Location{ID: locID, CreatedAt: now}
	if err := l.Rename(name); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Location) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.New(dErrors.CodeValidation, "location name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "location name is too long")
	}
	l.Name = name
	return nil
}

// MatchesName is the case-insensitive substring match used by location search.
func (l *Location) MatchesName(fragment string) bool {
	return strings.Contains(strings.ToLower(l.Name), strings.ToLower(strings.TrimSpace(fragment)))
}
