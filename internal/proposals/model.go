package proposals

import "time"

// KindProposal is the document kind used when resolving a default workflow
// status from the status catalog.
const KindProposal = "PROPOSAL"

// Status is one workflow status from the per-company status catalog.
type Status struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	NameIt    string `json:"name_it"`
	IsDefault bool   `json:"is_default"`
}

// Document is the root aggregate of a proposal. The four monetary fields are
// always derived from the owned groups; they are never accepted from input.
type Document struct {
	ID         int64      `json:"id"`
	CompanyID  int64      `json:"company_id"`
	Number     string     `json:"number"`
	IssueDate  time.Time  `json:"issue_date"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	ClientID   int64      `json:"client_id"`
	// ManagerName is the responsible party shown on the printed proposal.
	ManagerName *string `json:"manager_name,omitempty"`
	StatusID    *int64  `json:"status_id,omitempty"`
	// StatusText mirrors the resolved status name as free text; legacy
	// documents carry only this field.
	StatusText *string `json:"status_text,omitempty"`
	// VatDefault is applied to new positions that do not set their own rate.
	VatDefault float64 `json:"vat_default"`
	Notes      *string `json:"notes,omitempty"`

	Subtotal  float64 `json:"subtotal"`
	Discount  float64 `json:"discount"`
	VatAmount float64 `json:"vat_amount"`
	Total     float64 `json:"total"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Groups []Group `json:"groups,omitempty"`
}

// Group is a named subsection of a document. Group totals exclude VAT; VAT is
// tracked only at position and document level.
type Group struct {
	ID          int64   `json:"id"`
	DocumentID  int64   `json:"document_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	SortOrder   int     `json:"sort_order"`

	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`

	Positions []Position `json:"positions,omitempty"`
}

// Position is one priced line item. Configuration freezes the catalog
// selection at creation time so later catalog edits cannot change how an
// issued proposal renders.
type Position struct {
	ID                 int64   `json:"id"`
	GroupID            int64   `json:"group_id"`
	CategoryID         int64   `json:"category_id"`
	SupplierCategoryID int64   `json:"supplier_category_id"`
	Description        *string `json:"description,omitempty"`

	Configuration Configuration `json:"configuration"`

	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	DiscountPct float64 `json:"discount_pct"`
	VatRate     float64 `json:"vat_rate"`

	DiscountAmount float64 `json:"discount_amount"`
	VatAmount      float64 `json:"vat_amount"`
	Total          float64 `json:"total"`

	SortOrder int `json:"sort_order"`
}

// DocumentSummary is the list-view projection of a document.
type DocumentSummary struct {
	ID         int64      `json:"id"`
	Number     string     `json:"number"`
	IssueDate  time.Time  `json:"issue_date"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	ClientID   int64      `json:"client_id"`
	StatusID   *int64     `json:"status_id,omitempty"`
	StatusText *string    `json:"status_text,omitempty"`
	Total      float64    `json:"total"`
	CreatedAt  time.Time  `json:"created_at"`
}
