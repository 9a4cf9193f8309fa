package store

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/saint-community/querybuilder/internal/filter"
	"github.com/saint-community/querybuilder/internal/models"
)

// Memory searches a fixed set of members held in memory. It is read-only
// after construction.
type Memory struct {
	members []models.Member
	limits  Limits
}

// NewMemory creates a searcher over members, ordered by name
func NewMemory(members []models.Member, limits Limits) *Memory {
	sorted := append([]models.Member(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FullName != sorted[j].FullName {
			return sorted[i].FullName < sorted[j].FullName
		}
		return sorted[i].ID < sorted[j].ID
	})
	return &Memory{members: sorted, limits: limits}
}

// LoadFixture reads members from a YAML (or JSON) file
func LoadFixture(path string) ([]models.Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var doc struct {
		Members []models.Member `yaml:"members"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return doc.Members, nil
}

// Search filters members with the evaluator and returns one page
func (m *Memory) Search(ctx context.Context, req Request) (Result, error) {
	if err := req.Filter.Complete(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}

	limit := m.limits.Clamp(req.Limit)
	offset := clampOffset(req.Offset)
	result := Result{Members: []models.Member{}, Limit: limit, Offset: offset}

	for _, member := range m.members {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		ok, err := filter.Evaluate(req.Filter, member.Record())
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}
		if result.Total >= offset && len(result.Members) < limit {
			result.Members = append(result.Members, member)
		}
		result.Total++
	}
	return result, nil
}
