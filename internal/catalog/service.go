package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/offerta-app/offerta/internal/shared"
)

// Service exposes catalog reads to the proposal engine and thin CRUD to the
// HTTP layer.
type Service struct {
	repo   Repository
	cache  *ParameterCache
	logger *slog.Logger
}

func NewService(repo Repository, cache *ParameterCache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// SnapshotContext resolves everything the snapshot builder needs for one
// position. A vanished supplier-offering degrades to a nil supplier rather
// than failing: the position still references a valid category, and the
// snapshot records what is known at freeze time.
func (s *Service) SnapshotContext(ctx context.Context, companyID, categoryID, supplierCategoryID int64) (*SnapshotContext, error) {
	category, err := s.repo.GetCategory(ctx, companyID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("catalog: category %d: %w", categoryID, err)
	}

	var supplier *Supplier
	offering, err := s.repo.GetSupplierCategory(ctx, supplierCategoryID)
	if err == nil {
		sup, err := s.repo.GetSupplier(ctx, companyID, offering.SupplierID)
		if err == nil {
			supplier = &sup
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("catalog: supplier %d: %w", offering.SupplierID, err)
		}
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("catalog: supplier offering %d: %w", supplierCategoryID, err)
	}

	params, err := s.cache.Get(ctx, categoryID, func(ctx context.Context) ([]Parameter, error) {
		return s.repo.ListParameters(ctx, categoryID)
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: parameters for category %d: %w", categoryID, err)
	}

	return &SnapshotContext{Category: category, Supplier: supplier, Parameters: params}, nil
}

func (s *Service) ListCategories(ctx context.Context, companyID int64) ([]Category, error) {
	return s.repo.ListCategories(ctx, companyID)
}

func (s *Service) CreateCategory(ctx context.Context, c Category) (int64, error) {
	if c.Name == "" && c.NameIt == "" {
		return 0, errors.New("category name required in at least one locale")
	}
	if c.Name == "" {
		c.Name = c.NameIt
	}
	if c.NameIt == "" {
		c.NameIt = c.Name
	}
	return s.repo.CreateCategory(ctx, c)
}

func (s *Service) ListSuppliers(ctx context.Context, companyID int64) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx, companyID)
}

func (s *Service) CreateSupplier(ctx context.Context, sup Supplier) (int64, error) {
	if sup.ShortName == "" {
		return 0, errors.New("supplier short name required")
	}
	if sup.LegalName == "" {
		sup.LegalName = sup.ShortName
	}
	return s.repo.CreateSupplier(ctx, sup)
}

func (s *Service) ListParameters(ctx context.Context, categoryID int64) ([]Parameter, error) {
	return s.cache.Get(ctx, categoryID, func(ctx context.Context) ([]Parameter, error) {
		return s.repo.ListParameters(ctx, categoryID)
	})
}

func (s *Service) CreateParameter(ctx context.Context, p Parameter) (int64, error) {
	if !p.Type.Valid() {
		return 0, fmt.Errorf("unknown parameter type %q", p.Type)
	}
	id, err := s.repo.CreateParameter(ctx, p)
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(ctx, p.CategoryID)
	return id, nil
}

func (s *Service) UpdateParameter(ctx context.Context, id int64, p Parameter) error {
	if !p.Type.Valid() {
		return fmt.Errorf("unknown parameter type %q", p.Type)
	}
	if err := s.repo.UpdateParameter(ctx, id, p); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, p.CategoryID)
	return nil
}

func (s *Service) DeleteParameter(ctx context.Context, categoryID, id int64) error {
	if err := s.repo.DeleteParameter(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, categoryID)
	return nil
}
