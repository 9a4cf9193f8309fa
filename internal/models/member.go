package models

import "time"

// Member is a worker or member row returned by a search
type Member struct {
	ID               string    `json:"id" yaml:"id"`
	FullName         string    `json:"full_name" yaml:"full_name"`
	Email            string    `json:"email,omitempty" yaml:"email,omitempty"`
	Phone            string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address          string    `json:"address,omitempty" yaml:"address,omitempty"`
	ChurchID         string    `json:"church_id,omitempty" yaml:"church_id,omitempty"`
	FellowshipID     string    `json:"fellowship_id,omitempty" yaml:"fellowship_id,omitempty"`
	CellID           string    `json:"cell_id,omitempty" yaml:"cell_id,omitempty"`
	EvangelismCount  int       `json:"evangelism_count" yaml:"evangelism_count"`
	FollowUpCount    int       `json:"follow_up_count" yaml:"follow_up_count"`
	AttendanceCount  int       `json:"attendance_count" yaml:"attendance_count"`
	DateJoinedChurch time.Time `json:"date_joined_church,omitempty" yaml:"date_joined_church,omitempty"`
}

// Record exposes the member keyed by catalog field name. Unset optional
// attributes are left out so they behave like SQL NULLs.
func (m Member) Record() map[string]any {
	rec := map[string]any{
		FieldFullName:        m.FullName,
		FieldEvangelismCount: m.EvangelismCount,
		FieldFollowUpCount:   m.FollowUpCount,
		FieldAttendanceCount: m.AttendanceCount,
	}
	optional := map[string]string{
		FieldEmail:        m.Email,
		FieldPhone:        m.Phone,
		FieldAddress:      m.Address,
		FieldChurchID:     m.ChurchID,
		FieldFellowshipID: m.FellowshipID,
		FieldCellID:       m.CellID,
	}
	for k, v := range optional {
		if v != "" {
			rec[k] = v
		}
	}
	if !m.DateJoinedChurch.IsZero() {
		rec[FieldDateJoinedChurch] = m.DateJoinedChurch
	}
	return rec
}
