package domain

import (
	"fmt"
	"slices"
	"time"

	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

// DefaultMaxMainListSize is the capacity of a list created without an explicit one.
const DefaultMaxMainListSize = 100

type Placement string

const (
	PlacementMain    Placement = "main"
	PlacementWaiting Placement = "waiting"
	PlacementNone    Placement = "none"
)

func ParsePlacement(s string) (Placement, error) {
	switch Placement(s) {
	case PlacementMain, PlacementWaiting:
		return Placement(s), nil
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "list_type must be main or waiting")
}

// Member is a beneficiary inside a list. RegisteredAt is the beneficiary's
// registration time and decides promotion order.
type Member struct {
	BeneficiaryID id.BeneficiaryID `json:"beneficiary_id"`
	RegisteredAt  time.Time        `json:"registered_at"`
}

// DistributionList is the membership aggregate of one location.
//
// Invariants:
//   - len(Main) <= MaxMainListSize
//   - a beneficiary appears at most once across Main and Waiting
//
// Waiting keeps arrival order; promotion picks the earliest RegisteredAt and
// breaks ties by arrival.
type DistributionList struct {
	ID              id.ListID     `json:"id"`
	LocationID      id.LocationID `json:"location_id"`
	MaxMainListSize int           `json:"max_main_list_size"`
	Main            []Member      `json:"main_list"`
	Waiting         []Member      `json:"waiting_list"`
}

// RemovalResult describes what Remove did. From is PlacementNone when the
// beneficiary was in neither sub-list.
type RemovalResult struct {
	From     Placement
	Promoted *Member
}

// Found reports whether the beneficiary was a member.
func (r RemovalResult) Found() bool { return r.From != PlacementNone }

func NewDistributionList(listID id.ListID, locID id.LocationID, maxMain int) (*DistributionList, error) {
	if maxMain < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "max_main_list_size cannot be negative")
	}
	return &DistributionList{ID: listID, LocationID: locID, MaxMainListSize: maxMain}, nil
}

// PlacementOf returns where the beneficiary currently sits.
func (l *DistributionList) PlacementOf(benID id.BeneficiaryID) Placement {
	if indexOf(l.Main, benID) >= 0 {
		return PlacementMain
	}
	if indexOf(l.Waiting, benID) >= 0 {
		return PlacementWaiting
	}
	return PlacementNone
}

// Add places m in the main list while there is room, otherwise at the tail of
// the waiting list.
func (l *DistributionList) Add(m Member) (Placement, error) {
	if l.PlacementOf(m.BeneficiaryID) != PlacementNone {
		return "", dErrors.New(dErrors.CodeConflict, "beneficiary is already in this distribution list")
	}
	placement := PlacementWaiting
	if len(l.Main) < l.MaxMainListSize {
		l.Main = append(l.Main, m)
		placement = PlacementMain
	} else {
		l.Waiting = append(l.Waiting, m)
	}
	if err := l.Validate(); err != nil {
		return "", err
	}
	return placement, nil
}

// Remove takes the beneficiary out of whichever sub-list holds it. Leaving the
// main list promotes the earliest-registered waiting member.
func (l *DistributionList) Remove(benID id.BeneficiaryID) (RemovalResult, error) {
	if i := indexOf(l.Main, benID); i >= 0 {
		l.Main = slices.Delete(l.Main, i, i+1)
		res := RemovalResult{From: PlacementMain}
		if next := l.nextInLine(); next >= 0 {
			promoted := l.Waiting[next]
			l.Waiting = slices.Delete(l.Waiting, next, next+1)
			l.Main = append(l.Main, promoted)
			res.Promoted = &promoted
		}
		return res, l.Validate()
	}
	if i := indexOf(l.Waiting, benID); i >= 0 {
		l.Waiting = slices.Delete(l.Waiting, i, i+1)
		return RemovalResult{From: PlacementWaiting}, l.Validate()
	}
	return RemovalResult{From: PlacementNone}, nil
}

// Resize changes the main-list capacity. It never evicts members.
func (l *DistributionList) Resize(newMax int) error {
	if newMax < 0 {
		return dErrors.New(dErrors.CodeValidation, "max_main_list_size cannot be negative")
	}
	if newMax < len(l.Main) {
		return capacityError(newMax, len(l.Main))
	}
	l.MaxMainListSize = newMax
	return nil
}

// Validate checks the list invariants. Stores call it on every save.
func (l *DistributionList) Validate() error {
	if l.MaxMainListSize < 0 {
		return dErrors.New(dErrors.CodeValidation, "max_main_list_size cannot be negative")
	}
	if len(l.Main) > l.MaxMainListSize {
		return capacityError(l.MaxMainListSize, len(l.Main))
	}
	seen := make(map[id.BeneficiaryID]struct{}, len(l.Main)+len(l.Waiting))
	for _, group := range [][]Member{l.Main, l.Waiting} {
		for _, m := range group {
			if _, dup := seen[m.BeneficiaryID]; dup {
				return dErrors.New(dErrors.CodeInvariantViolation,
					fmt.Sprintf("beneficiary %s appears more than once in the list", m.BeneficiaryID))
			}
			seen[m.BeneficiaryID] = struct{}{}
		}
	}
	return nil
}

// WaitingInOrder returns the waiting list in promotion order.
func (l *DistributionList) WaitingInOrder() []Member {
	out := slices.Clone(l.Waiting)
	slices.SortStableFunc(out, func(a, b Member) int {
		return a.RegisteredAt.Compare(b.RegisteredAt)
	})
	return out
}

// Members returns the members of one sub-list.
func (l *DistributionList) Members(p Placement) []Member {
	switch p {
	case PlacementMain:
		return slices.Clone(l.Main)
	case PlacementWaiting:
		return l.WaitingInOrder()
	}
	return nil
}

// Clone deep-copies the list.
func (l *DistributionList) Clone() *DistributionList {
	c := *l
	c.Main = slices.Clone(l.Main)
	c.Waiting = slices.Clone(l.Waiting)
	return &c
}

func (l *DistributionList) nextInLine() int {
	best := -1
	for i, m := range l.Waiting {
		if best < 0 || m.RegisteredAt.Before(l.Waiting[best].RegisteredAt) {
			best = i
		}
	}
	return best
}

func indexOf(members []Member, benID id.BeneficiaryID) int {
	return slices.IndexFunc(members, func(m Member) bool { return m.BeneficiaryID == benID })
}

func capacityError(max, current int) error {
	return dErrors.New(dErrors.CodeCapacityViolation, fmt.Sprintf(
		"max_main_list_size (%d) cannot be lower than the current main list size (%d)", max, current))
}
