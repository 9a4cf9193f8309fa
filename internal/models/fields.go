package models

// FieldType drives which operators and value editors a field gets
type FieldType string

const (
	FieldTypeID     FieldType = "id"
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeDate   FieldType = "date"
)

// Queryable field names
const (
	FieldChurchID         = "church_id"
	FieldFellowshipID     = "fellowship_id"
	FieldCellID           = "cell_id"
	FieldFullName         = "full_name"
	FieldEmail            = "email"
	FieldPhone            = "phone"
	FieldAddress          = "address"
	FieldEvangelismCount  = "evangelism_count"
	FieldFollowUpCount    = "follow_up_count"
	FieldAttendanceCount  = "attendance_count"
	FieldDateJoinedChurch = "date_joined_church"
)

// Field describes a queryable member attribute
type Field struct {
	Name   string    `json:"name"`
	Label  string    `json:"label"`
	Type   FieldType `json:"type"`
	Column string    `json:"-"`
}

// Fields is the catalog of queryable fields in display order
var Fields = []Field{
	{Name: FieldChurchID, Label: "Church", Type: FieldTypeID, Column: "church_id"},
	{Name: FieldFellowshipID, Label: "Fellowship", Type: FieldTypeID, Column: "fellowship_id"},
	{Name: FieldCellID, Label: "Cell", Type: FieldTypeID, Column: "cell_id"},
	{Name: FieldFullName, Label: "Full name", Type: FieldTypeText, Column: "full_name"},
	{Name: FieldEmail, Label: "Email", Type: FieldTypeText, Column: "email"},
	{Name: FieldPhone, Label: "Phone", Type: FieldTypeText, Column: "phone"},
	{Name: FieldAddress, Label: "Address", Type: FieldTypeText, Column: "address"},
	{Name: FieldEvangelismCount, Label: "Evangelism sessions", Type: FieldTypeNumber, Column: "evangelism_count"},
	{Name: FieldFollowUpCount, Label: "Follow-ups", Type: FieldTypeNumber, Column: "follow_up_count"},
	{Name: FieldAttendanceCount, Label: "Attendance", Type: FieldTypeNumber, Column: "attendance_count"},
	{Name: FieldDateJoinedChurch, Label: "Date joined", Type: FieldTypeDate, Column: "date_joined_church"},
}

// LookupField finds a catalog field by name
func LookupField(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Operators returns the operators available for the field
func (f Field) Operators() []Operator {
	return OperatorsForType(f.Type)
}

// Supports reports whether op can be used on the field
func (f Field) Supports(op Operator) bool {
	for _, candidate := range OperatorsForType(f.Type) {
		if candidate == op {
			return true
		}
	}
	return false
}

// OperatorsForType returns available operators for a given field type.
// The first entry is the default for new conditions on that type.
func OperatorsForType(t FieldType) []Operator {
	switch t {
	case FieldTypeID:
		return []Operator{OpIn, OpEqual, OpNotEqual}
	case FieldTypeText:
		return []Operator{OpContains, OpEqual, OpNotEqual, OpIn}
	case FieldTypeNumber:
		return []Operator{OpGreaterThan, OpLessThan, OpEqual, OpNotEqual, OpBetween, OpIn}
	case FieldTypeDate:
		return []Operator{OpBetween, OpGreaterThan, OpLessThan, OpEqual}
	default:
		return []Operator{OpEqual, OpNotEqual}
	}
}

// EmptyValue returns the value a freshly edited condition starts with.
// List operators start with an empty list, numbers with nil and
// everything else with an empty string.
func EmptyValue(t FieldType, op Operator) any {
	if op.TakesList() {
		return []any{}
	}
	if t == FieldTypeNumber {
		return nil
	}
	return ""
}
