package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store"
)

// ContainerService orchestrates container lifecycle: creation with
// neighbor validation and the sequenced delete cascade.
type ContainerService struct {
	store store.Store
}

func NewContainerService(s store.Store) *ContainerService {
	return &ContainerService{store: s}
}

// CreateContainerRequest carries creation inputs. Parents and Children
// may reference existing containers; the new node is wired to them
// through the shared edge routine so both sides stay consistent.
type CreateContainerRequest struct {
	OwnerID  string
	Name     string
	Settings model.ContainerSettings
	Parents  []string
	Children []string
}

func (s *ContainerService) CreateContainer(ctx context.Context, req CreateContainerRequest) (*model.Container, error) {
	if req.OwnerID == "" || req.Name == "" {
		return nil, model.ErrValidation
	}
	if !req.Settings.Valid() {
		return nil, fmt.Errorf("%w: settings must be public or private", model.ErrValidation)
	}

	// Every referenced neighbor must resolve before anything is written.
	for _, id := range append(append([]string{}, req.Parents...), req.Children...) {
		if _, err := s.store.Containers().Get(ctx, id); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, fmt.Errorf("%w: container %s", model.ErrDanglingReference, id)
			}
			return nil, err
		}
	}

	created, err := s.store.Containers().Create(ctx, &model.Container{
		OwnerID:  req.OwnerID,
		Name:     req.Name,
		Settings: req.Settings,
	})
	if err != nil {
		return nil, err
	}

	for _, parentID := range req.Parents {
		if err := s.store.Containers().AddEdge(ctx, parentID, created.ContainerID); err != nil {
			return nil, err
		}
		created.Parents = append(created.Parents, parentID)
	}
	for _, childID := range req.Children {
		if err := s.store.Containers().AddEdge(ctx, created.ContainerID, childID); err != nil {
			return nil, err
		}
		created.Children = append(created.Children, childID)
	}
	return created, nil
}

func (s *ContainerService) GetContainer(ctx context.Context, containerID string) (*model.Container, error) {
	return s.store.Containers().Get(ctx, containerID)
}

// DeleteContainer runs the delete cascade: unlink from every parent,
// unlink from every child, delete anchored topics, then remove the
// record. The steps are sequenced, not atomic as a unit; each edge
// removal and the topic sweep are individually all-or-nothing, so a
// failed delete can be retried from the top.
func (s *ContainerService) DeleteContainer(ctx context.Context, containerID string) error {
	c, err := s.store.Containers().Get(ctx, containerID)
	if err != nil {
		return err
	}
	for _, parentID := range c.Parents {
		if err := s.store.Containers().RemoveEdge(ctx, parentID, containerID); err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
	}
	for _, childID := range c.Children {
		if err := s.store.Containers().RemoveEdge(ctx, containerID, childID); err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
	}
	if err := s.store.Topics().DeleteByOrigin(ctx, containerID); err != nil {
		return err
	}
	return s.store.Containers().Delete(ctx, containerID)
}

// SearchPrivate matches the caller's own containers by name prefix.
func (s *ContainerService) SearchPrivate(ctx context.Context, ownerID, prefix string, limit int) ([]*model.Container, error) {
	if prefix == "" {
		return nil, model.ErrValidation
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return s.store.Containers().SearchPrivate(ctx, ownerID, prefix, limit)
}

// SearchPublic matches public-scope containers; a private searching gate
// requires the full name.
func (s *ContainerService) SearchPublic(ctx context.Context, name string, limit int) ([]*model.Container, error) {
	if name == "" {
		return nil, model.ErrValidation
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return s.store.Containers().SearchPublic(ctx, name, limit)
}

const defaultSearchLimit = 10
