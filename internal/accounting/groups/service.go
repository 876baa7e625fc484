package groups

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// Service carries the account-group business rules: name uniqueness,
// hierarchy validation before every write, and descendant re-leveling when
// a node moves.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

// NewService builds a Service. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// CreateGroupInput is the validated input for Create.
type CreateGroupInput struct {
	CompanyID     int64
	Name          string
	Nature        Nature
	ParentGroupID *int64
}

// UpdateGroupInput is the validated input for Update. Nil fields keep their
// current value; ParentSet distinguishes "clear parent" from "keep parent".
type UpdateGroupInput struct {
	Name          *string
	Nature        *Nature
	ParentGroupID *int64
	ParentSet     bool
}

// Create validates and persists a new group.
func (s *Service) Create(ctx context.Context, input CreateGroupInput) (AccountGroup, error) {
	if input.Name == "" {
		return AccountGroup{}, fmt.Errorf("%w: group name required", shared.ErrValidation)
	}
	if !input.Nature.Valid() {
		return AccountGroup{}, fmt.Errorf("%w: unknown nature %q", shared.ErrValidation, input.Nature)
	}
	if existing, err := s.repo.FindActiveByName(ctx, input.CompanyID, input.Name); err != nil {
		return AccountGroup{}, err
	} else if existing != nil {
		return AccountGroup{}, fmt.Errorf("%w: group %q already exists", shared.ErrConflict, input.Name)
	}

	if input.ParentGroupID != nil {
		if _, err := s.repo.Get(ctx, input.CompanyID, *input.ParentGroupID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return AccountGroup{}, ErrParentNotFound
			}
			return AccountGroup{}, err
		}
	}

	level, err := ComputeLevel(ctx, s.repo, input.CompanyID, input.ParentGroupID, nil)
	if err != nil {
		return AccountGroup{}, err
	}

	group, err := s.repo.Create(ctx, AccountGroup{
		CompanyID:     input.CompanyID,
		Name:          input.Name,
		Nature:        input.Nature,
		ParentGroupID: input.ParentGroupID,
		GroupLevel:    level,
	})
	if err != nil {
		return AccountGroup{}, err
	}
	s.invalidate(ctx, input.CompanyID)
	return group, nil
}

// Update applies a partial edit. When the parent changes, the node's level
// is recomputed before the write and every descendant is re-leveled inside
// the same transaction so the stored levels never go stale.
func (s *Service) Update(ctx context.Context, companyID, id int64, input UpdateGroupInput) (AccountGroup, error) {
	group, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return AccountGroup{}, err
	}

	if input.Name != nil && *input.Name != group.Name {
		if *input.Name == "" {
			return AccountGroup{}, fmt.Errorf("%w: group name required", shared.ErrValidation)
		}
		if existing, err := s.repo.FindActiveByName(ctx, companyID, *input.Name); err != nil {
			return AccountGroup{}, err
		} else if existing != nil && existing.ID != id {
			return AccountGroup{}, fmt.Errorf("%w: group %q already exists", shared.ErrConflict, *input.Name)
		}
		group.Name = *input.Name
	}
	if input.Nature != nil {
		if !input.Nature.Valid() {
			return AccountGroup{}, fmt.Errorf("%w: unknown nature %q", shared.ErrValidation, *input.Nature)
		}
		group.Nature = *input.Nature
	}

	parentChanged := input.ParentSet && !sameParent(group.ParentGroupID, input.ParentGroupID)
	if parentChanged {
		if input.ParentGroupID != nil {
			if _, err := s.repo.Get(ctx, companyID, *input.ParentGroupID); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return AccountGroup{}, ErrParentNotFound
				}
				return AccountGroup{}, err
			}
		}
		level, err := ComputeLevel(ctx, s.repo, companyID, input.ParentGroupID, &id)
		if err != nil {
			return AccountGroup{}, err
		}
		group.ParentGroupID = input.ParentGroupID
		group.GroupLevel = level
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, group); err != nil {
			return err
		}
		if parentChanged {
			return s.relevelDescendants(ctx, repo, companyID, group.ID, group.GroupLevel)
		}
		return nil
	})
	if err != nil {
		return AccountGroup{}, err
	}

	s.invalidate(ctx, companyID)
	return group, nil
}

// Get returns a single active group.
func (s *Service) Get(ctx context.Context, companyID, id int64) (AccountGroup, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List returns all active groups for a company, cached when a cache is wired.
func (s *Service) List(ctx context.Context, companyID int64) ([]AccountGroup, error) {
	return s.cache.FetchTree(ctx, companyID, func(ctx context.Context) ([]AccountGroup, error) {
		return s.repo.List(ctx, companyID)
	})
}

// SoftDelete marks a group deleted. Groups with active children stay.
func (s *Service) SoftDelete(ctx context.Context, companyID, id int64) error {
	children, err := s.repo.ListChildren(ctx, companyID, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return fmt.Errorf("%w: group has %d child groups", shared.ErrConflict, len(children))
	}
	if err := s.repo.SoftDelete(ctx, companyID, id); err != nil {
		return err
	}
	s.invalidate(ctx, companyID)
	return nil
}

// relevelDescendants walks the subtree under rootID and rewrites each
// child's level. Depth is capped by MaxGroupLevel so the recursion is
// shallow.
func (s *Service) relevelDescendants(ctx context.Context, repo Repository, companyID, rootID int64, rootLevel int) error {
	children, err := repo.ListChildren(ctx, companyID, rootID)
	if err != nil {
		return err
	}
	for _, child := range children {
		level := rootLevel + 1
		if level > MaxGroupLevel {
			return ErrDepthExceeded
		}
		if err := repo.UpdateLevel(ctx, companyID, child.ID, level); err != nil {
			return err
		}
		if err := s.relevelDescendants(ctx, repo, companyID, child.ID, level); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, companyID int64) {
	if err := s.cache.Invalidate(ctx, companyID); err != nil && s.logger != nil {
		s.logger.Warn("invalidate group cache", slog.Int64("company_id", companyID), slog.Any("error", err))
	}
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
