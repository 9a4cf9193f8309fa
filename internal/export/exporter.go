package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/saint-community/querybuilder/internal/models"
)

// Header is the CSV column order
var Header = []string{
	"ID", "Full Name", "Email", "Phone", "Address",
	"Church", "Fellowship", "Cell",
	"Evangelism", "Follow-ups", "Attendance", "Date Joined",
}

// Formats lists the supported export formats
var Formats = []string{"csv", "json", "yaml"}

// Write encodes members in the named format
func Write(w io.Writer, format string, members []models.Member) error {
	switch format {
	case "csv":
		return WriteCSV(w, members)
	case "json":
		return WriteJSON(w, members)
	case "yaml", "yml":
		return WriteYAML(w, members)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteCSV writes members as CSV with a header row
func WriteCSV(w io.Writer, members []models.Member) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, m := range members {
		row := Row(m)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Row renders a member as strings in Header order
func Row(m models.Member) []string {
	joined := ""
	if !m.DateJoinedChurch.IsZero() {
		joined = models.FormatTimestamp(m.DateJoinedChurch)
	}
	return []string{
		m.ID,
		m.FullName,
		m.Email,
		m.Phone,
		m.Address,
		m.ChurchID,
		m.FellowshipID,
		m.CellID,
		strconv.Itoa(m.EvangelismCount),
		strconv.Itoa(m.FollowUpCount),
		strconv.Itoa(m.AttendanceCount),
		joined,
	}
}

// WriteJSON writes members as an indented JSON array
func WriteJSON(w io.Writer, members []models.Member) error {
	if members == nil {
		members = []models.Member{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(members); err != nil {
		return fmt.Errorf("failed to marshal members to JSON: %w", err)
	}
	return nil
}

// WriteYAML writes members as a YAML sequence
func WriteYAML(w io.Writer, members []models.Member) error {
	if members == nil {
		members = []models.Member{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(members); err != nil {
		return fmt.Errorf("failed to marshal members to YAML: %w", err)
	}
	return enc.Close()
}

// ExportToCSV exports members to a CSV file
func ExportToCSV(members []models.Member, path string) error {
	return toFile(path, func(w io.Writer) error { return WriteCSV(w, members) })
}

// ExportToJSON exports members to a JSON file
func ExportToJSON(members []models.Member, path string) error {
	return toFile(path, func(w io.Writer) error { return WriteJSON(w, members) })
}

// ExportToYAML exports members to a YAML file
func ExportToYAML(members []models.Member, path string) error {
	return toFile(path, func(w io.Writer) error { return WriteYAML(w, members) })
}

func toFile(path string, write func(io.Writer) error) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
