package proposals

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/offerta-app/offerta/internal/shared"
)

// StatusCatalog looks up workflow statuses. Implemented by the repository.
type StatusCatalog interface {
	GetStatus(ctx context.Context, companyID, id int64) (*Status, error)
	FindStatusByName(ctx context.Context, companyID int64, name string) (*Status, error)
	DefaultStatus(ctx context.Context, companyID int64, kind string) (*Status, error)
}

// ResolveStatus determines the workflow status for a document. Precedence:
// a parseable explicit id, then an explicit name looked up in the catalog,
// then the catalog's default for the document kind, then nil. Absence of a
// resolvable status is a valid state, so this never returns an error; the
// second return value is the free-text mirror for the legacy status field.
func ResolveStatus(ctx context.Context, cat StatusCatalog, companyID int64, explicitID, explicitName *string, kind string, logger *slog.Logger) (*int64, *string) {
	if explicitID != nil {
		if id, err := strconv.ParseInt(*explicitID, 10, 64); err == nil {
			status, err := cat.GetStatus(ctx, companyID, id)
			if err == nil {
				return &status.ID, &status.Name
			}
			if !errors.Is(err, shared.ErrNotFound) && logger != nil {
				logger.Warn("status lookup by id failed", slog.Int64("status_id", id), slog.Any("error", err))
			}
		}
	}

	var textMirror *string
	if explicitName != nil && *explicitName != "" {
		textMirror = explicitName
		status, err := cat.FindStatusByName(ctx, companyID, *explicitName)
		if err == nil {
			return &status.ID, &status.Name
		}
		if !errors.Is(err, shared.ErrNotFound) && logger != nil {
			logger.Warn("status lookup by name failed", slog.String("status_name", *explicitName), slog.Any("error", err))
		}
	}

	status, err := cat.DefaultStatus(ctx, companyID, kind)
	if err == nil {
		if textMirror == nil {
			textMirror = &status.Name
		}
		return &status.ID, textMirror
	}
	if !errors.Is(err, shared.ErrNotFound) && logger != nil {
		logger.Warn("default status lookup failed", slog.String("kind", kind), slog.Any("error", err))
	}
	return nil, textMirror
}
