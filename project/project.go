// Package project stores portfolio projects and enforces the rules for
// creating and changing them.
package project

import "time"

// Status is the publication state of a project.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDraft    Status = "draft"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusArchived, StatusDraft:
		return true
	}
	return false
}

// Project is a portfolio entry.
type Project struct {
	ID          int64     `json:"id" yaml:"-"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Tags        []string  `json:"tags" yaml:"tags"`
	GithubURL   string    `json:"github_url,omitempty" yaml:"github_url"`
	DemoURL     string    `json:"demo_url,omitempty" yaml:"demo_url"`
	ImageURL    string    `json:"image_url,omitempty" yaml:"image_url"`
	Status      Status    `json:"status" yaml:"status"`
	IsFeatured  bool      `json:"is_featured" yaml:"is_featured"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}

// CreateInput holds the fields of a new project. Empty Status means active.
type CreateInput struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Tags        []string `json:"tags" yaml:"tags"`
	GithubURL   string   `json:"github_url" yaml:"github_url"`
	DemoURL     string   `json:"demo_url" yaml:"demo_url"`
	ImageURL    string   `json:"image_url" yaml:"image_url"`
	Status      Status   `json:"status" yaml:"status"`
	IsFeatured  bool     `json:"is_featured" yaml:"is_featured"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	GithubURL   *string   `json:"github_url"`
	DemoURL     *string   `json:"demo_url"`
	ImageURL    *string   `json:"image_url"`
	Status      *Status   `json:"status"`
	IsFeatured  *bool     `json:"is_featured"`
}

// Empty reports whether the update changes nothing.
func (u UpdateInput) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Tags == nil &&
		u.GithubURL == nil && u.DemoURL == nil && u.ImageURL == nil &&
		u.Status == nil && u.IsFeatured == nil
}
