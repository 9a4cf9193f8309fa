package models

import "time"

// Favorite is a named filter tree kept for reuse
type Favorite struct {
	ID          string      `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Filter      FilterGroup `yaml:"filter" json:"filter"`
	Tags        []string    `yaml:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt   time.Time   `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `yaml:"updated_at" json:"updated_at"`
	UsageCount  int         `yaml:"usage_count" json:"usage_count"`
	LastUsed    time.Time   `yaml:"last_used,omitempty" json:"last_used,omitempty"`
}
