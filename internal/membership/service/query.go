package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"moniftar/internal/domain"
	"moniftar/internal/storage"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
)

// MemberView is one beneficiary row of a list, with its sub-list and
// 1-based position in it.
type MemberView struct {
	Beneficiary *domain.Beneficiary
	Placement   domain.Placement
	Position    int
}

// ListMembers is a list with its location name and the selected members.
type ListMembers struct {
	List     *domain.DistributionList
	Location *domain.Location
	Members  []MemberView
}

// LocationSummary is the per-location view: list sizes and the volunteers
// working there.
type LocationSummary struct {
	Location   *domain.Location
	List       *domain.DistributionList
	MainSize   int
	WaitSize   int
	Volunteers []*domain.Volunteer
}

// Members returns the main list, the waiting list in promotion order, or both
// when placement is empty.
func (s *Service) Members(ctx context.Context, listID id.ListID, placement domain.Placement) (*ListMembers, error) {
	var out *ListMembers
	err := s.runner.View(ctx, func(st storage.Stores) error {
		var err error
		out, err = loadMembers(ctx, st, listID, placement)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadMembers(ctx context.Context, st storage.Stores, listID id.ListID, placement domain.Placement) (*ListMembers, error) {
	list, err := st.Lists.FindByID(ctx, listID)
	if err != nil {
		return nil, dErrors.FromStore(err, "distribution list not found", "failed to load distribution list")
	}
	loc, err := st.Locations.FindByID(ctx, list.LocationID)
	if err != nil {
		return nil, dErrors.FromStore(err, "location not found", "failed to load location")
	}

	groups := []domain.Placement{domain.PlacementMain, domain.PlacementWaiting}
	if placement != "" {
		groups = []domain.Placement{placement}
	}
	var ids []id.BeneficiaryID
	for _, p := range groups {
		for _, m := range list.Members(p) {
			ids = append(ids, m.BeneficiaryID)
		}
	}
	found, err := st.Beneficiaries.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.FromStore(err, "beneficiary not found", "failed to load beneficiaries")
	}

	out := &ListMembers{List: list, Location: loc, Members: make([]MemberView, 0, len(ids))}
	for _, p := range groups {
		for i, m := range list.Members(p) {
			b, ok := found[m.BeneficiaryID]
			if !ok {
				return nil, dErrors.New(dErrors.CodeInvariantViolation,
					fmt.Sprintf("list member %s has no beneficiary record", m.BeneficiaryID))
			}
			out.Members = append(out.Members, MemberView{Beneficiary: b, Placement: p, Position: i + 1})
		}
	}
	return out, nil
}

func (s *Service) Summary(ctx context.Context, locID id.LocationID) (*LocationSummary, error) {
	var out *LocationSummary
	err := s.runner.View(ctx, func(st storage.Stores) error {
		loc, err := st.Locations.FindByID(ctx, locID)
		if err != nil {
			return dErrors.FromStore(err, "location not found", "failed to load location")
		}
		list, err := st.Lists.FindByLocation(ctx, locID)
		if err != nil {
			return dErrors.FromStore(err, "distribution list not found", "failed to load distribution list")
		}
		vols, err := st.Volunteers.ListByLocation(ctx, locID)
		if err != nil {
			return dErrors.FromStore(err, "volunteer not found", "failed to list volunteers")
		}
		out = &LocationSummary{
			Location:   loc,
			List:       list,
			MainSize:   len(list.Main),
			WaitSize:   len(list.Waiting),
			Volunteers: vols,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const exportSheet = "Beneficiaries"

var exportHeader = []any{"Position", "List", "Code", "First name", "Last name", "Phone", "Registered at"}

// Export renders both sub-lists as an XLSX workbook.
func (s *Service) Export(ctx context.Context, listID id.ListID) ([]byte, string, error) {
	members, err := s.Members(ctx, listID, "")
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to build export")
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to build export")
	}
	for i, m := range members.Members {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to build export")
		}
		row := []any{
			m.Position,
			string(m.Placement),
			m.Beneficiary.Code,
			m.Beneficiary.FirstName,
			m.Beneficiary.LastName,
			m.Beneficiary.Phone,
			m.Beneficiary.RegisteredAt.Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to build export")
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to write export")
	}
	filename := fmt.Sprintf("liste-%s.xlsx", members.Location.Name)
	return buf.Bytes(), filename, nil
}

func formatResize(previous, next int) string {
	return fmt.Sprintf("%d->%d", previous, next)
}
