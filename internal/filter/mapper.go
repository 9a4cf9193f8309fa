package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saint-community/querybuilder/internal/models"
)

// DefaultEpochStart is the lower bound used when a date range only has an end
const DefaultEpochStart = "1900-01-01T00:00:00.000Z"

// IDList is a list of selected identifiers. It decodes from JSON strings or
// numbers.
type IDList []string

// UnmarshalJSON accepts ["12", 13] alike
func (l *IDList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("id list: %w", err)
	}
	out := make(IDList, 0, len(raw))
	for _, v := range raw {
		switch x := v.(type) {
		case string:
			out = append(out, x)
		case json.Number:
			out = append(out, x.String())
		case nil:
		default:
			return fmt.Errorf("id list: unexpected %T", v)
		}
	}
	*l = out
	return nil
}

// NumberInput is a numeric form input. Forms send it as a string, API
// clients as a number; both decode here and parsing happens in the mapper.
type NumberInput string

// UnmarshalJSON keeps the raw text of a number or the contents of a string
func (n *NumberInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case string(data) == "null":
		*n = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumberInput(s)
	default:
		*n = NumberInput(data)
	}
	return nil
}

// Selections is the flat record produced by the filter pickers of the
// analytics screens.
type Selections struct {
	Churches        IDList      `json:"churches,omitempty" yaml:"churches,omitempty"`
	Fellowships     IDList      `json:"fellowships,omitempty" yaml:"fellowships,omitempty"`
	Cells           IDList      `json:"cells,omitempty" yaml:"cells,omitempty"`
	Name            string      `json:"name,omitempty" yaml:"name,omitempty"`
	Email           string      `json:"email,omitempty" yaml:"email,omitempty"`
	Phone           string      `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address         string      `json:"address,omitempty" yaml:"address,omitempty"`
	EvangelismMin   NumberInput `json:"evangelismMin,omitempty" yaml:"evangelismMin,omitempty"`
	DateJoinedStart string      `json:"dateJoinedStart,omitempty" yaml:"dateJoinedStart,omitempty"`
	DateJoinedEnd   string      `json:"dateJoinedEnd,omitempty" yaml:"dateJoinedEnd,omitempty"`
}

// ParseSelections decodes selections from a JSON object or a YAML document.
// Blank input is the empty selection.
func ParseSelections(data []byte) (Selections, error) {
	var s Selections
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return s, nil
	case data[0] == '{':
		if err := json.Unmarshal(data, &s); err != nil {
			return Selections{}, fmt.Errorf("failed to parse selections: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Selections{}, fmt.Errorf("failed to parse selections: %w", err)
		}
	}
	return s, nil
}

// MapperOption configures a Mapper
type MapperOption func(*Mapper)

// WithClock sets the source of "now" for open-ended date ranges
func WithClock(now func() time.Time) MapperOption {
	return func(m *Mapper) {
		m.now = now
	}
}

// WithEpochStart sets the lower bound used for date ranges without a start
func WithEpochStart(start string) MapperOption {
	return func(m *Mapper) {
		if start != "" {
			m.epochStart = start
		}
	}
}

// Mapper turns Selections into a filter tree. It holds no state besides its
// options and is safe for concurrent use.
type Mapper struct {
	now        func() time.Time
	epochStart string
}

// NewMapper creates a mapper using the wall clock
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{
		now:        time.Now,
		epochStart: DefaultEpochStart,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MapSelections maps with a default Mapper
func MapSelections(s Selections) models.FilterGroup {
	return NewMapper().Map(s)
}

// Map builds a root AND group with one condition per populated input in a
// fixed order: structural lists, free text, the numeric threshold, then the
// date range.
func (m *Mapper) Map(s Selections) models.FilterGroup {
	group := NewGroup()
	add := func(c models.FilterCondition) {
		group.Conditions = append(group.Conditions, c)
	}

	for _, in := range []struct {
		field string
		ids   IDList
	}{
		{models.FieldChurchID, s.Churches},
		{models.FieldFellowshipID, s.Fellowships},
		{models.FieldCellID, s.Cells},
	} {
		if values := nonBlank(in.ids); len(values) > 0 {
			add(models.FilterCondition{Field: in.field, Operator: models.OpIn, Value: values})
		}
	}

	for _, text := range []struct {
		field string
		value string
	}{
		{models.FieldFullName, s.Name},
		{models.FieldEmail, s.Email},
		{models.FieldPhone, s.Phone},
		{models.FieldAddress, s.Address},
	} {
		if v := strings.TrimSpace(text.value); v != "" {
			add(models.FilterCondition{Field: text.field, Operator: models.OpContains, Value: v})
		}
	}

	if raw := strings.TrimSpace(string(s.EvangelismMin)); raw != "" {
		if threshold, err := models.ToFloat(raw); err == nil {
			add(models.FilterCondition{Field: models.FieldEvangelismCount, Operator: models.OpGreaterThan, Value: threshold})
		}
	}

	start := strings.TrimSpace(s.DateJoinedStart)
	end := strings.TrimSpace(s.DateJoinedEnd)
	if start != "" || end != "" {
		if start == "" {
			start = m.epochStart
		}
		if end == "" {
			now := m.now()
			end = models.FormatTimestamp(now)
			// a start in the future would leave the range reversed
			if t, err := models.ParseDate(start); err == nil && t.After(now) {
				end = start
			}
		}
		add(models.FilterCondition{Field: models.FieldDateJoinedChurch, Operator: models.OpBetween, Value: []any{start, end}})
	}

	return group
}

func nonBlank(ids IDList) []any {
	var out []any
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
