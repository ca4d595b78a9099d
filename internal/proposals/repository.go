package proposals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/offerta-app/offerta/internal/platform/db"
	"github.com/offerta-app/offerta/internal/shared"
)

type Repository interface {
	StatusCatalog

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	NextNumber(ctx context.Context, companyID int64, prefix string) (string, error)
	SyncSequence(ctx context.Context, companyID int64, prefix string) error

	GetDocument(ctx context.Context, companyID, id int64) (*Document, error)
	List(ctx context.Context, req ListDocumentsRequest) ([]DocumentSummary, int, error)
	CreateDocument(ctx context.Context, doc Document) (int64, error)
	UpdateDocument(ctx context.Context, id int64, updates map[string]any) error
	DeleteDocument(ctx context.Context, companyID, id int64) error

	InsertGroup(ctx context.Context, g Group) (int64, error)
	InsertPosition(ctx context.Context, p Position) (int64, error)
	DeleteGroups(ctx context.Context, documentID int64) error

	UpdatePositionTotals(ctx context.Context, id int64, discountAmount, vatAmount, total float64) error
	UpdateGroupTotals(ctx context.Context, id int64, subtotal, discount, total float64) error
	UpdateDocumentTotals(ctx context.Context, id int64, subtotal, discount, vatAmount, total float64) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// WithTx runs fn against a transaction-scoped copy of the repository. Both
// assembly and recalculation use this so number issuance, the group/position
// replacement and the aggregate update commit or roll back together.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

// NextNumber issues the next document number through a monotonic per-company
// counter, so concurrent creations cannot draw the same number. On the first
// draw for a company the counter is seeded from numbers already on record, so
// numbering continues seamlessly over documents that predate the counter.
// Must run inside the creating transaction.
func (r *repository) NextNumber(ctx context.Context, companyID int64, prefix string) (string, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `
		UPDATE document_sequences SET seq = seq + 1
		WHERE company_id = $1 AND doc_type = $2
		RETURNING seq
	`, companyID, prefix).Scan(&seq)
	if err == nil {
		return FormatNumber(prefix, seq), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("next document number: %w", err)
	}

	maxSeq, err := r.legacyMaxSequence(ctx, companyID, prefix)
	if err != nil {
		return "", fmt.Errorf("seed document sequence: %w", err)
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (company_id, doc_type, seq)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id, doc_type)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, companyID, prefix, maxSeq+1).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("next document number: %w", err)
	}
	return FormatNumber(prefix, seq), nil
}

// SyncSequence raises the counter to the highest number already issued.
// Exposed for backfills after bulk imports; NextNumber performs the same
// seeding on its own for a counter that does not exist yet.
func (r *repository) SyncSequence(ctx context.Context, companyID int64, prefix string) error {
	maxSeq, err := r.legacyMaxSequence(ctx, companyID, prefix)
	if err != nil {
		return err
	}
	if maxSeq == 0 {
		return nil
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO document_sequences (company_id, doc_type, seq)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id, doc_type)
		DO UPDATE SET seq = GREATEST(document_sequences.seq, EXCLUDED.seq)
	`, companyID, prefix, maxSeq)
	return err
}

func (r *repository) legacyMaxSequence(ctx context.Context, companyID int64, prefix string) (int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT number FROM proposal_documents WHERE company_id = $1 AND number LIKE $2
	`, companyID, prefix+"-%")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var maxSeq int64
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return 0, err
		}
		if seq, ok := ParseNumber(prefix, number); ok && seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq, rows.Err()
}

func (r *repository) GetDocument(ctx context.Context, companyID, id int64) (*Document, error) {
	var d Document
	var issueDate pgtype.Date
	var validUntil pgtype.Date
	var managerName, statusText, notes pgtype.Text
	var statusID pgtype.Int8
	var createdAt, updatedAt pgtype.Timestamptz

	err := r.db.QueryRow(ctx, `
		SELECT id, company_id, number, issue_date, valid_until, client_id, manager_name,
		       status_id, status_text, vat_default, notes,
		       subtotal, discount, vat_amount, total, created_at, updated_at
		FROM proposal_documents
		WHERE company_id = $1 AND id = $2
	`, companyID, id).Scan(
		&d.ID, &d.CompanyID, &d.Number, &issueDate, &validUntil, &d.ClientID, &managerName,
		&statusID, &statusText, &d.VatDefault, &notes,
		&d.Subtotal, &d.Discount, &d.VatAmount, &d.Total, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if issueDate.Valid {
		d.IssueDate = issueDate.Time
	}
	if validUntil.Valid {
		d.ValidUntil = &validUntil.Time
	}
	if managerName.Valid {
		d.ManagerName = &managerName.String
	}
	if statusID.Valid {
		d.StatusID = &statusID.Int64
	}
	if statusText.Valid {
		d.StatusText = &statusText.String
	}
	if notes.Valid {
		d.Notes = &notes.String
	}
	d.CreatedAt = createdAt.Time
	d.UpdatedAt = updatedAt.Time

	groups, err := r.loadGroups(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Groups = groups
	return &d, nil
}

func (r *repository) loadGroups(ctx context.Context, documentID int64) ([]Group, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, document_id, name, description, sort_order, subtotal, discount, total
		FROM proposal_groups
		WHERE document_id = $1
		ORDER BY sort_order, id
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		var description pgtype.Text
		if err := rows.Scan(&g.ID, &g.DocumentID, &g.Name, &description, &g.SortOrder, &g.Subtotal, &g.Discount, &g.Total); err != nil {
			return nil, err
		}
		if description.Valid {
			g.Description = &description.String
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		positions, err := r.loadPositions(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Positions = positions
	}
	return groups, nil
}

func (r *repository) loadPositions(ctx context.Context, groupID int64) ([]Position, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, group_id, category_id, supplier_category_id, description, configuration,
		       unit_price, quantity, discount_pct, vat_rate, discount_amount, vat_amount, total, sort_order
		FROM proposal_positions
		WHERE group_id = $1
		ORDER BY sort_order, id
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var p Position
		var description pgtype.Text
		var configuration []byte
		if err := rows.Scan(
			&p.ID, &p.GroupID, &p.CategoryID, &p.SupplierCategoryID, &description, &configuration,
			&p.UnitPrice, &p.Quantity, &p.DiscountPct, &p.VatRate, &p.DiscountAmount, &p.VatAmount, &p.Total, &p.SortOrder,
		); err != nil {
			return nil, err
		}
		if description.Valid {
			p.Description = &description.String
		}
		if len(configuration) > 0 {
			if err := json.Unmarshal(configuration, &p.Configuration); err != nil {
				return nil, fmt.Errorf("decode position %d configuration: %w", p.ID, err)
			}
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListDocumentsRequest) ([]DocumentSummary, int, error) {
	conditions := []string{"d.company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("d.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.StatusID != nil {
		conditions = append(conditions, fmt.Sprintf("d.status_id = $%d", argPos))
		args = append(args, *req.StatusID)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("d.issue_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("d.issue_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM proposal_documents d %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT d.id, d.number, d.issue_date, d.valid_until, d.client_id, d.status_id, d.status_text, d.total, d.created_at
		FROM proposal_documents d
		%s
		ORDER BY d.issue_date DESC, d.id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var documents []DocumentSummary
	for rows.Next() {
		var s DocumentSummary
		var issueDate, validUntil pgtype.Date
		var statusID pgtype.Int8
		var statusText pgtype.Text
		var createdAt pgtype.Timestamptz
		if err := rows.Scan(&s.ID, &s.Number, &issueDate, &validUntil, &s.ClientID, &statusID, &statusText, &s.Total, &createdAt); err != nil {
			return nil, 0, err
		}
		if issueDate.Valid {
			s.IssueDate = issueDate.Time
		}
		if validUntil.Valid {
			s.ValidUntil = &validUntil.Time
		}
		if statusID.Valid {
			s.StatusID = &statusID.Int64
		}
		if statusText.Valid {
			s.StatusText = &statusText.String
		}
		if createdAt.Valid {
			s.CreatedAt = createdAt.Time
		}
		documents = append(documents, s)
	}
	return documents, total, rows.Err()
}

func (r *repository) CreateDocument(ctx context.Context, doc Document) (int64, error) {
	var issueDate, validUntil pgtype.Date
	if !doc.IssueDate.IsZero() {
		issueDate = pgtype.Date{Time: doc.IssueDate, Valid: true}
	}
	if doc.ValidUntil != nil {
		validUntil = pgtype.Date{Time: *doc.ValidUntil, Valid: true}
	}

	var id int64
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO proposal_documents (
			company_id, number, issue_date, valid_until, client_id, manager_name,
			status_id, status_text, vat_default, notes,
			subtotal, discount, vat_amount, total, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 0, 0, 0, $11, $11)
		RETURNING id
	`,
		doc.CompanyID, doc.Number, issueDate, validUntil, doc.ClientID, doc.ManagerName,
		doc.StatusID, doc.StatusText, doc.VatDefault, doc.Notes, now,
	).Scan(&id)
	if err != nil {
		if pgErr := (*pgconn.PgError)(nil); errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("document number %s: %w", doc.Number, shared.ErrConflict)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateDocument(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE proposal_documents SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"issue_date", "valid_until", "manager_name", "status_id", "status_text", "vat_default", "notes"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	_, err := r.db.Exec(ctx, query, args...)
	return err
}

func (r *repository) DeleteDocument(ctx context.Context, companyID, id int64) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM proposal_documents WHERE company_id = $1 AND id = $2
	`, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertGroup(ctx context.Context, g Group) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO proposal_groups (document_id, name, description, sort_order, subtotal, discount, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, g.DocumentID, g.Name, g.Description, g.SortOrder, g.Subtotal, g.Discount, g.Total).Scan(&id)
	return id, err
}

func (r *repository) InsertPosition(ctx context.Context, p Position) (int64, error) {
	configuration, err := json.Marshal(p.Configuration)
	if err != nil {
		return 0, fmt.Errorf("encode position configuration: %w", err)
	}
	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO proposal_positions (
			group_id, category_id, supplier_category_id, description, configuration,
			unit_price, quantity, discount_pct, vat_rate, discount_amount, vat_amount, total, sort_order
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`,
		p.GroupID, p.CategoryID, p.SupplierCategoryID, p.Description, configuration,
		p.UnitPrice, p.Quantity, p.DiscountPct, p.VatRate, p.DiscountAmount, p.VatAmount, p.Total, p.SortOrder,
	).Scan(&id)
	return id, err
}

// DeleteGroups removes all groups of a document; positions go with them via
// the FK cascade.
func (r *repository) DeleteGroups(ctx context.Context, documentID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM proposal_groups WHERE document_id = $1`, documentID)
	return err
}

func (r *repository) UpdatePositionTotals(ctx context.Context, id int64, discountAmount, vatAmount, total float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE proposal_positions SET discount_amount = $1, vat_amount = $2, total = $3 WHERE id = $4
	`, discountAmount, vatAmount, total, id)
	return err
}

func (r *repository) UpdateGroupTotals(ctx context.Context, id int64, subtotal, discount, total float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE proposal_groups SET subtotal = $1, discount = $2, total = $3 WHERE id = $4
	`, subtotal, discount, total, id)
	return err
}

func (r *repository) UpdateDocumentTotals(ctx context.Context, id int64, subtotal, discount, vatAmount, total float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE proposal_documents
		SET subtotal = $1, discount = $2, vat_amount = $3, total = $4, updated_at = NOW()
		WHERE id = $5
	`, subtotal, discount, vatAmount, total, id)
	return err
}

func (r *repository) GetStatus(ctx context.Context, companyID, id int64) (*Status, error) {
	var s Status
	err := r.db.QueryRow(ctx, `
		SELECT id, kind, name, name_it, is_default
		FROM proposal_statuses WHERE company_id = $1 AND id = $2
	`, companyID, id).Scan(&s.ID, &s.Kind, &s.Name, &s.NameIt, &s.IsDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindStatusByName(ctx context.Context, companyID int64, name string) (*Status, error) {
	var s Status
	err := r.db.QueryRow(ctx, `
		SELECT id, kind, name, name_it, is_default
		FROM proposal_statuses
		WHERE company_id = $1 AND (name = $2 OR name_it = $2)
		ORDER BY id
		LIMIT 1
	`, companyID, name).Scan(&s.ID, &s.Kind, &s.Name, &s.NameIt, &s.IsDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) DefaultStatus(ctx context.Context, companyID int64, kind string) (*Status, error) {
	var s Status
	err := r.db.QueryRow(ctx, `
		SELECT id, kind, name, name_it, is_default
		FROM proposal_statuses
		WHERE company_id = $1 AND kind = $2 AND is_default
		ORDER BY id
		LIMIT 1
	`, companyID, kind).Scan(&s.ID, &s.Kind, &s.Name, &s.NameIt, &s.IsDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
