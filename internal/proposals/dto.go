package proposals

import "time"

type CreateDocumentRequest struct {
	ClientID    int64      `json:"client_id" validate:"required,gt=0"`
	IssueDate   *time.Time `json:"issue_date,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	ManagerName *string    `json:"manager_name,omitempty"`
	// Status hints are optional: an explicit numeric id (as text), a status
	// name, or nothing at all, in which case the catalog default applies.
	StatusID   *string `json:"status_id,omitempty"`
	StatusName *string `json:"status_name,omitempty"`
	// VatDefault overrides the tenant-level default VAT for this document.
	VatDefault *float64             `json:"vat_default,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes      *string              `json:"notes,omitempty"`
	Groups     []CreateGroupRequest `json:"groups" validate:"required,min=1,dive"`
}

type CreateGroupRequest struct {
	Name        string                  `json:"name" validate:"required,max=255"`
	Description *string                 `json:"description,omitempty"`
	SortOrder   int                     `json:"sort_order" validate:"gte=0"`
	Positions   []CreatePositionRequest `json:"positions" validate:"required,min=1,dive"`
}

type CreatePositionRequest struct {
	CategoryID         int64   `json:"category_id" validate:"required,gt=0"`
	SupplierCategoryID int64   `json:"supplier_category_id" validate:"required,gt=0"`
	Description        *string `json:"description,omitempty"`
	// Values is the raw parameter selection keyed by parameter identifier;
	// the reserved "_notes" key carries customer-facing free text.
	Values      map[string]any `json:"values,omitempty"`
	UnitPrice   float64        `json:"unit_price" validate:"gte=0"`
	Quantity    int            `json:"quantity" validate:"gte=0"`
	DiscountPct float64        `json:"discount_pct" validate:"gte=0,lte=100"`
	// VatRate falls back to the document's VAT default when omitted.
	VatRate   *float64 `json:"vat_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	SortOrder int      `json:"sort_order" validate:"gte=0"`
}

// UpdateDocumentRequest leaves omitted fields unchanged, except that a
// supplied Groups list always fully replaces all existing groups/positions.
type UpdateDocumentRequest struct {
	IssueDate   *time.Time            `json:"issue_date,omitempty"`
	ValidUntil  *time.Time            `json:"valid_until,omitempty"`
	ManagerName *string               `json:"manager_name,omitempty"`
	StatusID    *string               `json:"status_id,omitempty"`
	StatusName  *string               `json:"status_name,omitempty"`
	VatDefault  *float64              `json:"vat_default,omitempty" validate:"omitempty,gte=0,lte=100"`
	Notes       *string               `json:"notes,omitempty"`
	Groups      *[]CreateGroupRequest `json:"groups,omitempty" validate:"omitempty,min=1,dive"`
}

type ListDocumentsRequest struct {
	CompanyID int64      `json:"company_id" validate:"required,gt=0"`
	ClientID  *int64     `json:"client_id,omitempty"`
	StatusID  *int64     `json:"status_id,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
	Limit     int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int        `json:"offset" validate:"gte=0"`
}
