package favorites

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/saint-community/querybuilder/internal/models"
)

// ErrNotFound is returned when no favorite has the given id or name
var ErrNotFound = errors.New("favorite not found")

// Manager manages saved filters in a YAML file
type Manager struct {
	mu        sync.Mutex
	path      string
	favorites []models.Favorite
	now       func() time.Time
}

// NewManager creates a new favorites manager backed by favorites.yaml in
// configDir
func NewManager(configDir string) (*Manager, error) {
	path := filepath.Join(configDir, "favorites.yaml")

	m := &Manager{
		path:      path,
		favorites: []models.Favorite{},
		now:       time.Now,
	}

	// Load existing favorites if file exists
	if _, err := os.Stat(path); err == nil {
		if err := m.load(); err != nil {
			return nil, fmt.Errorf("failed to load favorites: %w", err)
		}
	}

	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read favorites file: %w", err)
	}

	var favorites []models.Favorite
	if err := yaml.Unmarshal(data, &favorites); err != nil {
		return fmt.Errorf("failed to parse favorites: %w", err)
	}
	if favorites != nil {
		m.favorites = favorites
	}
	return nil
}

func (m *Manager) save() error {
	data, err := yaml.Marshal(m.favorites)
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write favorites file: %w", err)
	}
	return nil
}

// Add saves a new favorite. Names are unique ignoring case and the filter
// must be complete.
func (m *Manager) Add(name, description string, filter models.FilterGroup, tags []string) (models.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = strings.TrimSpace(name)
	if err := m.check("", name, filter); err != nil {
		return models.Favorite{}, err
	}

	now := m.now().UTC()
	favorite := models.Favorite{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Filter:      filter,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.favorites = append(m.favorites, favorite)
	if err := m.save(); err != nil {
		m.favorites = m.favorites[:len(m.favorites)-1]
		return models.Favorite{}, fmt.Errorf("failed to save favorite: %w", err)
	}
	return favorite, nil
}

// Update replaces the name, description, filter and tags of a favorite
func (m *Manager) Update(id, name, description string, filter models.FilterGroup, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = strings.TrimSpace(name)
	if err := m.check(id, name, filter); err != nil {
		return err
	}

	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	m.favorites[i].Name = name
	m.favorites[i].Description = strings.TrimSpace(description)
	m.favorites[i].Filter = filter
	m.favorites[i].Tags = tags
	m.favorites[i].UpdatedAt = m.now().UTC()
	if err := m.save(); err != nil {
		return fmt.Errorf("failed to save favorite: %w", err)
	}
	return nil
}

func (m *Manager) check(id, name string, filter models.FilterGroup) error {
	if name == "" {
		return fmt.Errorf("favorite name cannot be empty")
	}
	if err := filter.Complete(); err != nil {
		return fmt.Errorf("favorite %q: %w", name, err)
	}
	for _, fav := range m.favorites {
		if fav.ID != id && strings.EqualFold(fav.Name, name) {
			return fmt.Errorf("a favorite named %q already exists (names are case-insensitive)", name)
		}
	}
	return nil
}

// Delete deletes a favorite by ID
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	m.favorites = append(m.favorites[:i:i], m.favorites[i+1:]...)
	if err := m.save(); err != nil {
		return fmt.Errorf("failed to save favorites after deletion: %w", err)
	}
	return nil
}

// Get returns a favorite by id, or by name ignoring case
func (m *Manager) Get(idOrName string) (models.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, fav := range m.favorites {
		if fav.ID == idOrName || strings.EqualFold(fav.Name, idOrName) {
			return fav, nil
		}
	}
	return models.Favorite{}, fmt.Errorf("%w: %q", ErrNotFound, idOrName)
}

// GetAll returns all favorites sorted by name
func (m *Manager) GetAll() []models.Favorite {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]models.Favorite(nil), m.favorites...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Search matches favorites by name, description or tag
func (m *Manager) Search(query string) []models.Favorite {
	all := m.GetAll()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all
	}

	var results []models.Favorite
	for _, fav := range all {
		if strings.Contains(strings.ToLower(fav.Name), query) ||
			strings.Contains(strings.ToLower(fav.Description), query) {
			results = append(results, fav)
			continue
		}
		for _, tag := range fav.Tags {
			if strings.Contains(strings.ToLower(tag), query) {
				results = append(results, fav)
				break
			}
		}
	}
	return results
}

// RecordUsage updates usage statistics for a favorite
func (m *Manager) RecordUsage(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	m.favorites[i].UsageCount++
	m.favorites[i].LastUsed = m.now().UTC()
	if err := m.save(); err != nil {
		return fmt.Errorf("failed to save usage statistics: %w", err)
	}
	return nil
}

// GetMostUsed returns the most frequently used favorites
func (m *Manager) GetMostUsed(limit int) []models.Favorite {
	sorted := m.GetAll()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UsageCount > sorted[j].UsageCount
	})
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

func (m *Manager) indexOf(id string) int {
	for i, fav := range m.favorites {
		if fav.ID == id {
			return i
		}
	}
	return -1
}
