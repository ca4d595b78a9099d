package proposals

import (
	"context"
	"errors"
	"log/slog"

	"github.com/offerta-app/offerta/internal/shared"
)

// recomputeTotals walks the aggregate bottom-up and rewrites every derived
// monetary field in place from the stored pricing inputs.
//
// Group totals exclude VAT; the document picks VAT up directly from the
// positions, so group total and document total deliberately disagree by the
// VAT amount.
func recomputeTotals(doc *Document) {
	doc.Subtotal = 0
	doc.Discount = 0
	doc.VatAmount = 0

	for gi := range doc.Groups {
		g := &doc.Groups[gi]
		g.Subtotal = 0
		g.Discount = 0

		for pi := range g.Positions {
			p := &g.Positions[pi]
			lineSubtotal, discountAmount, vatAmount, lineTotal := LineTotals(p.UnitPrice, p.Quantity, p.DiscountPct, p.VatRate)
			p.DiscountAmount = discountAmount
			p.VatAmount = vatAmount
			p.Total = lineTotal

			g.Subtotal += lineSubtotal
			g.Discount += discountAmount
			doc.VatAmount += vatAmount
		}

		g.Total = g.Subtotal - g.Discount
		doc.Subtotal += g.Subtotal
		doc.Discount += g.Discount
	}

	doc.Total = doc.Subtotal - doc.Discount + doc.VatAmount
}

// persistTotals writes the recomputed derived fields of every position, group
// and the document itself. Caller must hold a transaction.
func persistTotals(ctx context.Context, repo Repository, doc *Document) error {
	for gi := range doc.Groups {
		g := &doc.Groups[gi]
		for pi := range g.Positions {
			p := &g.Positions[pi]
			if err := repo.UpdatePositionTotals(ctx, p.ID, p.DiscountAmount, p.VatAmount, p.Total); err != nil {
				return err
			}
		}
		if err := repo.UpdateGroupTotals(ctx, g.ID, g.Subtotal, g.Discount, g.Total); err != nil {
			return err
		}
	}
	return repo.UpdateDocumentTotals(ctx, doc.ID, doc.Subtotal, doc.Discount, doc.VatAmount, doc.Total)
}

// Recalculate reloads the document and rewrites all derived totals in one
// transaction. A missing document is a logged no-op rather than an error, so
// callers reacting to deletion events do not have to special-case the race.
func (s *Service) Recalculate(ctx context.Context, companyID, documentID int64) (*Document, error) {
	var doc *Document
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		loaded, err := repo.GetDocument(ctx, companyID, documentID)
		if err != nil {
			return err
		}
		recomputeTotals(loaded)
		if err := persistTotals(ctx, repo, loaded); err != nil {
			return err
		}
		doc = loaded
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("recalculation skipped, document gone",
				slog.Int64("company_id", companyID),
				slog.Int64("document_id", documentID))
			s.metrics.ObserveRecalculation("skipped")
			return nil, nil
		}
		s.metrics.ObserveRecalculation("error")
		return nil, err
	}
	s.metrics.ObserveRecalculation("ok")
	return doc, nil
}
