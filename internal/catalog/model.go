package catalog

import "time"

// ParameterType identifies how a parameter's raw value is shaped and how it
// is matched against the declared value list.
type ParameterType string

const (
	ParameterTypeText        ParameterType = "TEXT"
	ParameterTypeNumber      ParameterType = "NUMBER"
	ParameterTypeSelect      ParameterType = "SELECT"
	ParameterTypeColor       ParameterType = "COLOR"
	ParameterTypeMultiSelect ParameterType = "MULTISELECT"
)

// Valid reports whether t is one of the declared parameter types.
func (t ParameterType) Valid() bool {
	switch t {
	case ParameterTypeText, ParameterTypeNumber, ParameterTypeSelect, ParameterTypeColor, ParameterTypeMultiSelect:
		return true
	}
	return false
}

// Category is a product category sold through proposals.
type Category struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	NameIt    string    `json:"name_it"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Supplier is a vendor offering one or more categories.
type Supplier struct {
	ID          int64     `json:"id"`
	CompanyID   int64     `json:"company_id"`
	ShortName   string    `json:"short_name"`
	ShortNameIt *string   `json:"short_name_it,omitempty"`
	LegalName   string    `json:"legal_name"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SupplierCategory links a supplier to a category it sells: the
// supplier-offering referenced by proposal positions.
type SupplierCategory struct {
	ID         int64 `json:"id"`
	SupplierID int64 `json:"supplier_id"`
	CategoryID int64 `json:"category_id"`
}

// ParameterValue is one declared value of a SELECT or COLOR parameter.
// Value carries the Russian label, ValueIt the Italian one.
type ParameterValue struct {
	ID      string  `json:"id"`
	Value   string  `json:"value"`
	ValueIt string  `json:"value_it"`
	RalCode *string `json:"ral_code,omitempty"`
}

// Parameter is a per-category configuration parameter. Exactly one parameter
// per category should carry IsModel: it identifies the item being sold and is
// rendered separately from the general parameter list.
type Parameter struct {
	ID         int64            `json:"id"`
	CategoryID int64            `json:"category_id"`
	Name       string           `json:"name"`
	NameIt     string           `json:"name_it"`
	Type       ParameterType    `json:"type"`
	Unit       *string          `json:"unit,omitempty"`
	SortOrder  int              `json:"sort_order"`
	IsModel    bool             `json:"is_model"`
	Values     []ParameterValue `json:"values,omitempty"`
}

// SnapshotContext is everything the snapshot builder needs to freeze a
// position's configuration: the category, the supplier behind the chosen
// offering (nil when the offering was deleted) and the category's declared
// parameters.
type SnapshotContext struct {
	Category   Category
	Supplier   *Supplier
	Parameters []Parameter
}
