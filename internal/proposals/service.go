package proposals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/offerta-app/offerta/internal/catalog"
	"github.com/offerta-app/offerta/internal/observability"
	"github.com/offerta-app/offerta/internal/shared"
)

// CatalogProvider resolves the catalog context a position snapshot is built
// from. Satisfied by *catalog.Service.
type CatalogProvider interface {
	SnapshotContext(ctx context.Context, companyID, categoryID, supplierCategoryID int64) (*catalog.SnapshotContext, error)
}

const defaultListLimit = 50

type Service struct {
	repo         Repository
	catalog      CatalogProvider
	validate     *validator.Validate
	logger       *slog.Logger
	metrics      *observability.Metrics
	numberPrefix string
	defaultVat   float64
}

func NewService(repo Repository, cat CatalogProvider, logger *slog.Logger, metrics *observability.Metrics, numberPrefix string, defaultVat float64) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		repo:         repo,
		catalog:      cat,
		validate:     v,
		logger:       logger,
		metrics:      metrics,
		numberPrefix: numberPrefix,
		defaultVat:   defaultVat,
	}
}

// Create assembles and persists a full document in one transaction: number
// issuance, status resolution, group/position creation and the totals
// cascade all commit or roll back together. All validation, including the
// catalog lookups behind the position snapshots, happens before the
// transaction opens.
func (s *Service) Create(ctx context.Context, companyID int64, req CreateDocumentRequest) (*Document, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	vatDefault := s.defaultVat
	if req.VatDefault != nil {
		vatDefault = *req.VatDefault
	}

	verr := &shared.ValidationError{}
	groups, err := s.buildGroups(ctx, companyID, vatDefault, req.Groups, verr)
	if err != nil {
		return nil, err
	}
	if !verr.Empty() {
		return nil, verr
	}

	issueDate := time.Now()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	var created *Document
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextNumber(ctx, companyID, s.numberPrefix)
		if err != nil {
			return err
		}
		statusID, statusText := ResolveStatus(ctx, repo, companyID, req.StatusID, req.StatusName, KindProposal, s.logger)

		doc := Document{
			CompanyID:   companyID,
			Number:      number,
			IssueDate:   issueDate,
			ValidUntil:  req.ValidUntil,
			ClientID:    req.ClientID,
			ManagerName: req.ManagerName,
			StatusID:    statusID,
			StatusText:  statusText,
			VatDefault:  vatDefault,
			Notes:       req.Notes,
			Groups:      groups,
		}
		recomputeTotals(&doc)

		id, err := repo.CreateDocument(ctx, doc)
		if err != nil {
			return err
		}
		doc.ID = id
		if err := insertGroups(ctx, repo, &doc); err != nil {
			return err
		}
		if err := repo.UpdateDocumentTotals(ctx, id, doc.Subtotal, doc.Discount, doc.VatAmount, doc.Total); err != nil {
			return err
		}
		created = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("document created",
		slog.Int64("company_id", companyID),
		slog.Int64("document_id", created.ID),
		slog.String("number", created.Number))
	return created, nil
}

// Update applies a partial document update. A supplied Groups list replaces
// all existing groups and positions wholesale; either way the totals cascade
// reruns inside the same transaction, so the stored aggregates can never
// drift from the lines.
func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateDocumentRequest) (*Document, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetDocument(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	vatDefault := existing.VatDefault
	if req.VatDefault != nil {
		vatDefault = *req.VatDefault
	}

	var groups []Group
	if req.Groups != nil {
		verr := &shared.ValidationError{}
		groups, err = s.buildGroups(ctx, companyID, vatDefault, *req.Groups, verr)
		if err != nil {
			return nil, err
		}
		if !verr.Empty() {
			return nil, verr
		}
	}

	var updated *Document
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		updates := map[string]any{}
		if req.IssueDate != nil {
			updates["issue_date"] = *req.IssueDate
		}
		if req.ValidUntil != nil {
			updates["valid_until"] = *req.ValidUntil
		}
		if req.ManagerName != nil {
			updates["manager_name"] = *req.ManagerName
		}
		if req.VatDefault != nil {
			updates["vat_default"] = *req.VatDefault
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}
		if req.StatusID != nil || req.StatusName != nil {
			statusID, statusText := ResolveStatus(ctx, repo, companyID, req.StatusID, req.StatusName, KindProposal, s.logger)
			updates["status_id"] = statusID
			updates["status_text"] = statusText
		}
		if len(updates) > 0 {
			if err := repo.UpdateDocument(ctx, id, updates); err != nil {
				return err
			}
		}

		if req.Groups != nil {
			if err := repo.DeleteGroups(ctx, id); err != nil {
				return err
			}
			doc := Document{ID: id, Groups: groups}
			if err := insertGroups(ctx, repo, &doc); err != nil {
				return err
			}
		}

		reloaded, err := repo.GetDocument(ctx, companyID, id)
		if err != nil {
			return err
		}
		recomputeTotals(reloaded)
		if err := persistTotals(ctx, repo, reloaded); err != nil {
			return err
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Document, error) {
	return s.repo.GetDocument(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, req ListDocumentsRequest) ([]DocumentSummary, int, error) {
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	if err := s.validateStruct(req); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	if err := s.repo.DeleteDocument(ctx, companyID, id); err != nil {
		return err
	}
	s.logger.Info("document deleted",
		slog.Int64("company_id", companyID),
		slog.Int64("document_id", id))
	return nil
}

// SyncNumbering aligns the document number counter with numbers already on
// record. Meant for one-off backfills after bulk imports.
func (s *Service) SyncNumbering(ctx context.Context, companyID int64) error {
	return s.repo.SyncSequence(ctx, companyID, s.numberPrefix)
}

// buildGroups turns request groups into domain groups with frozen
// configuration snapshots and computed line totals. Caller-correctable
// problems are collected into verr; only infrastructure failures return an
// error.
func (s *Service) buildGroups(ctx context.Context, companyID int64, vatDefault float64, reqs []CreateGroupRequest, verr *shared.ValidationError) ([]Group, error) {
	groups := make([]Group, 0, len(reqs))
	for gi, gr := range reqs {
		group := Group{
			Name:        gr.Name,
			Description: gr.Description,
			SortOrder:   gr.SortOrder,
		}
		for pi, pr := range gr.Positions {
			sc, err := s.catalog.SnapshotContext(ctx, companyID, pr.CategoryID, pr.SupplierCategoryID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					verr.AddAt(gi, pi, "category_id", fmt.Sprintf("unknown category %d", pr.CategoryID))
					continue
				}
				return nil, err
			}
			if param, ok := unfilledModelParameter(sc, pr.Values); ok {
				verr.AddAt(gi, pi, "values", fmt.Sprintf("model parameter %q requires a value", param.Name))
				continue
			}

			config := BuildSnapshot(sc, pr.Values, s.logger)
			s.metrics.ObserveSnapshotBuilt()

			quantity := pr.Quantity
			if quantity == 0 {
				quantity = 1
			}
			vatRate := vatDefault
			if pr.VatRate != nil {
				vatRate = *pr.VatRate
			}

			position := Position{
				CategoryID:         pr.CategoryID,
				SupplierCategoryID: pr.SupplierCategoryID,
				Description:        pr.Description,
				Configuration:      config,
				UnitPrice:          pr.UnitPrice,
				Quantity:           quantity,
				DiscountPct:        pr.DiscountPct,
				VatRate:            vatRate,
				SortOrder:          pr.SortOrder,
			}
			group.Positions = append(group.Positions, position)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// unfilledModelParameter reports the catalog-declared model parameter whose
// raw value is missing or empty. Categories without a declared model
// parameter pass: the snapshot builder degrades on its own there.
func unfilledModelParameter(sc *catalog.SnapshotContext, values map[string]any) (*catalog.Parameter, bool) {
	for i := range sc.Parameters {
		p := &sc.Parameters[i]
		if !p.IsModel {
			continue
		}
		raw, ok := rawValueFor(values, *p)
		if !ok || isEmptyValue(raw) {
			return p, true
		}
		return nil, false
	}
	return nil, false
}

func insertGroups(ctx context.Context, repo Repository, doc *Document) error {
	for gi := range doc.Groups {
		g := &doc.Groups[gi]
		g.DocumentID = doc.ID
		gid, err := repo.InsertGroup(ctx, *g)
		if err != nil {
			return err
		}
		g.ID = gid
		for pi := range g.Positions {
			p := &g.Positions[pi]
			p.GroupID = gid
			pid, err := repo.InsertPosition(ctx, *p)
			if err != nil {
				return err
			}
			p.ID = pid
		}
	}
	return nil
}

// validateStruct runs tag validation and translates failures into the shared
// field-error shape, keeping group/position indexes addressable for clients.
func (s *Service) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &shared.ValidationError{}
	for _, fe := range verrs {
		ns := fe.Namespace()
		out.Fields = append(out.Fields, shared.FieldError{
			Field:    fe.Field(),
			Group:    indexIn(ns, "groups["),
			Position: indexIn(ns, "positions["),
			Message:  validationMessage(fe),
		})
	}
	return out
}

// indexIn extracts the bracketed index following marker in a validator
// namespace, or -1 when absent.
func indexIn(ns, marker string) int {
	start := strings.Index(ns, marker)
	if start < 0 {
		return -1
	}
	rest := ns[start+len(marker):]
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return -1
	}
	idx, err := strconv.Atoi(rest[:end])
	if err != nil {
		return -1
	}
	return idx
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		return "must contain at least " + fe.Param() + " item(s)"
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
