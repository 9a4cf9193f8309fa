package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saint-community/querybuilder/internal/models"
)

func testMembers() []models.Member {
	return []models.Member{
		{
			ID:               "m-1",
			FullName:         "Ada \"Deaconess\" Obi, Jr",
			Email:            "ada@example.org",
			ChurchID:         "12",
			CellID:           "c-1",
			EvangelismCount:  5,
			FollowUpCount:    2,
			AttendanceCount:  40,
			DateJoinedChurch: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:       "m-2",
			FullName: "John Okafor",
		},
	}
}

func TestExportToCSV(t *testing.T) {
	tmpDir := t.TempDir()
	csvPath := filepath.Join(tmpDir, "test.csv")

	// Export
	err := ExportToCSV(testMembers(), csvPath)
	if err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}

	// Verify file exists and has correct permissions
	info, err := os.Stat(csvPath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}

	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected file permissions 0644, got %o", info.Mode().Perm())
	}

	// Read and verify CSV content
	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) != 3 { // header + 2 rows
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	if !slicesEqual(records[0], Header) {
		t.Errorf("Header mismatch.\nExpected: %v\nGot: %v", Header, records[0])
	}

	// Verify first row
	row1 := records[1]
	if row1[1] != "Ada \"Deaconess\" Obi, Jr" {
		t.Errorf("Expected quoted name to survive, got '%s'", row1[1])
	}
	if row1[8] != "5" {
		t.Errorf("Expected evangelism count '5', got '%s'", row1[8])
	}
	if row1[11] != "2024-01-01T12:00:00.000Z" {
		t.Errorf("Expected ISO join date, got '%s'", row1[11])
	}

	// Unset date stays blank
	if records[2][11] != "" {
		t.Errorf("Expected empty join date, got '%s'", records[2][11])
	}
}

func TestExportToJSON(t *testing.T) {
	tmpDir := t.TempDir()
	jsonPath := filepath.Join(tmpDir, "test.json")

	// Export
	err := ExportToJSON(testMembers(), jsonPath)
	if err != nil {
		t.Fatalf("ExportToJSON failed: %v", err)
	}

	// Verify file exists and has correct permissions
	info, err := os.Stat(jsonPath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}

	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected file permissions 0644, got %o", info.Mode().Perm())
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	var parsed []models.Member
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if len(parsed) != 2 {
		t.Fatalf("Expected 2 members, got %d", len(parsed))
	}

	if parsed[1].FullName != "John Okafor" {
		t.Errorf("Expected name 'John Okafor', got '%s'", parsed[1].FullName)
	}

	// Verify JSON is pretty-printed (contains newlines and indentation)
	jsonStr := string(data)
	if !strings.Contains(jsonStr, "\n") {
		t.Error("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(jsonStr, "  ") {
		t.Error("JSON should be indented")
	}
}

func TestExportToYAML(t *testing.T) {
	yamlPath := filepath.Join(t.TempDir(), "test.yaml")

	if err := ExportToYAML(testMembers(), yamlPath); err != nil {
		t.Fatalf("ExportToYAML failed: %v", err)
	}

	data, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatalf("Failed to read YAML: %v", err)
	}

	var parsed []models.Member
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}

	if len(parsed) != 2 {
		t.Fatalf("Expected 2 members, got %d", len(parsed))
	}
	if parsed[0].CellID != "c-1" {
		t.Errorf("Expected cell 'c-1', got '%s'", parsed[0].CellID)
	}
	if !parsed[0].DateJoinedChurch.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Join date did not round trip: %v", parsed[0].DateJoinedChurch)
	}
}

func TestExportEmptyMembers(t *testing.T) {
	tmpDir := t.TempDir()

	// Test CSV with empty list
	csvPath := filepath.Join(tmpDir, "empty.csv")
	err := ExportToCSV([]models.Member{}, csvPath)
	if err != nil {
		t.Fatalf("ExportToCSV with empty list failed: %v", err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) != 1 { // Only header
		t.Errorf("Expected 1 record (header), got %d", len(records))
	}

	// Test JSON with nil list
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON with nil list failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("Expected empty JSON array, got %q", buf.String())
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "xlsx", testMembers()); err == nil {
		t.Error("Expected an error for an unknown format")
	}
	if err := Write(&buf, "yml", testMembers()); err != nil {
		t.Errorf("yml should alias yaml: %v", err)
	}
}

// Helper function to compare slices
func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
