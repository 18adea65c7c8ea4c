package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidID           = errors.New("invalid project ID")
	ErrNotFound            = errors.New("project not found")
	ErrNameRequired        = errors.New("project name is required")
	ErrDescriptionRequired = errors.New("project description is required")
	ErrInvalidStatus       = errors.New("invalid project status")
)

// Service applies validation on top of a Repository.
type Service struct {
	repo Repository
}

// NewService creates a service over repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) Featured(ctx context.Context) ([]*Project, error) {
	return s.repo.FindFeatured(ctx)
}

// Get returns ErrNotFound when no project has id.
func (s *Service) Get(ctx context.Context, id int64) (*Project, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Project, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, ErrDescriptionRequired
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	return s.repo.Create(ctx, in)
}

// Update applies a partial update to an existing project.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Project, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, ErrNameRequired
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) == "" {
		return nil, ErrDescriptionRequired
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *in.Status)
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// Delete removes a project and returns it as it was before deletion, so the
// caller can release its stored image.
func (s *Service) Delete(ctx context.Context, id int64) (*Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrNotFound
	}
	return p, nil
}

// ImageRefs lists the image URLs held by projects.
func (s *Service) ImageRefs(ctx context.Context) ([]string, error) {
	return s.repo.ImageRefs(ctx)
}
