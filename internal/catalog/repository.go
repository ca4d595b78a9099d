package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/offerta-app/offerta/internal/shared"
)

type Repository interface {
	GetCategory(ctx context.Context, companyID, id int64) (Category, error)
	ListCategories(ctx context.Context, companyID int64) ([]Category, error)
	CreateCategory(ctx context.Context, c Category) (int64, error)
	GetSupplier(ctx context.Context, companyID, id int64) (Supplier, error)
	ListSuppliers(ctx context.Context, companyID int64) ([]Supplier, error)
	CreateSupplier(ctx context.Context, s Supplier) (int64, error)
	GetSupplierCategory(ctx context.Context, id int64) (SupplierCategory, error)
	ListParameters(ctx context.Context, categoryID int64) ([]Parameter, error)
	CreateParameter(ctx context.Context, p Parameter) (int64, error)
	UpdateParameter(ctx context.Context, id int64, p Parameter) error
	DeleteParameter(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetCategory(ctx context.Context, companyID, id int64) (Category, error) {
	var c Category
	var createdAt, updatedAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, `
		SELECT id, company_id, name, name_it, is_active, created_at, updated_at
		FROM categories WHERE company_id = $1 AND id = $2
	`, companyID, id).Scan(&c.ID, &c.CompanyID, &c.Name, &c.NameIt, &c.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, err
	}
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return c, nil
}

func (r *repository) ListCategories(ctx context.Context, companyID int64) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, name, name_it, is_active, created_at, updated_at
		FROM categories WHERE company_id = $1 ORDER BY name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		var createdAt, updatedAt pgtype.Timestamptz
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.NameIt, &c.IsActive, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = createdAt.Time
		c.UpdatedAt = updatedAt.Time
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repository) CreateCategory(ctx context.Context, c Category) (int64, error) {
	var id int64
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO categories (company_id, name, name_it, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`, c.CompanyID, c.Name, c.NameIt, c.IsActive, now).Scan(&id)
	return id, err
}

func (r *repository) GetSupplier(ctx context.Context, companyID, id int64) (Supplier, error) {
	var s Supplier
	var shortNameIt pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, `
		SELECT id, company_id, short_name, short_name_it, legal_name, is_active, created_at, updated_at
		FROM suppliers WHERE company_id = $1 AND id = $2
	`, companyID, id).Scan(&s.ID, &s.CompanyID, &s.ShortName, &shortNameIt, &s.LegalName, &s.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, shared.ErrNotFound
		}
		return Supplier{}, err
	}
	if shortNameIt.Valid {
		s.ShortNameIt = &shortNameIt.String
	}
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time
	return s, nil
}

func (r *repository) ListSuppliers(ctx context.Context, companyID int64) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, short_name, short_name_it, legal_name, is_active, created_at, updated_at
		FROM suppliers WHERE company_id = $1 ORDER BY short_name
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var s Supplier
		var shortNameIt pgtype.Text
		var createdAt, updatedAt pgtype.Timestamptz
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.ShortName, &shortNameIt, &s.LegalName, &s.IsActive, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if shortNameIt.Valid {
			s.ShortNameIt = &shortNameIt.String
		}
		s.CreatedAt = createdAt.Time
		s.UpdatedAt = updatedAt.Time
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (r *repository) CreateSupplier(ctx context.Context, s Supplier) (int64, error) {
	var id int64
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO suppliers (company_id, short_name, short_name_it, legal_name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`, s.CompanyID, s.ShortName, s.ShortNameIt, s.LegalName, s.IsActive, now).Scan(&id)
	return id, err
}

func (r *repository) GetSupplierCategory(ctx context.Context, id int64) (SupplierCategory, error) {
	var sc SupplierCategory
	err := r.pool.QueryRow(ctx, `
		SELECT id, supplier_id, category_id FROM supplier_categories WHERE id = $1
	`, id).Scan(&sc.ID, &sc.SupplierID, &sc.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SupplierCategory{}, shared.ErrNotFound
		}
		return SupplierCategory{}, err
	}
	return sc, nil
}

func (r *repository) ListParameters(ctx context.Context, categoryID int64) ([]Parameter, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category_id, name, name_it, type, unit, sort_order, is_model, values
		FROM parameters WHERE category_id = $1 ORDER BY sort_order, id
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var params []Parameter
	for rows.Next() {
		var p Parameter
		var unit pgtype.Text
		var rawValues []byte
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.NameIt, &p.Type, &unit, &p.SortOrder, &p.IsModel, &rawValues); err != nil {
			return nil, err
		}
		if unit.Valid {
			p.Unit = &unit.String
		}
		if len(rawValues) > 0 {
			if err := json.Unmarshal(rawValues, &p.Values); err != nil {
				return nil, fmt.Errorf("catalog: decode parameter %d values: %w", p.ID, err)
			}
		}
		params = append(params, p)
	}
	return params, rows.Err()
}

func (r *repository) CreateParameter(ctx context.Context, p Parameter) (int64, error) {
	values, err := json.Marshal(p.Values)
	if err != nil {
		return 0, fmt.Errorf("catalog: encode parameter values: %w", err)
	}
	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO parameters (category_id, name, name_it, type, unit, sort_order, is_model, values)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, p.CategoryID, p.Name, p.NameIt, p.Type, p.Unit, p.SortOrder, p.IsModel, values).Scan(&id)
	return id, err
}

func (r *repository) UpdateParameter(ctx context.Context, id int64, p Parameter) error {
	values, err := json.Marshal(p.Values)
	if err != nil {
		return fmt.Errorf("catalog: encode parameter values: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE parameters
		SET name = $1, name_it = $2, type = $3, unit = $4, sort_order = $5, is_model = $6, values = $7
		WHERE id = $8
	`, p.Name, p.NameIt, p.Type, p.Unit, p.SortOrder, p.IsModel, values, id)
	return err
}

func (r *repository) DeleteParameter(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM parameters WHERE id = $1`, id)
	return err
}
