package proposals

import (
	"encoding/json"
	"fmt"
)

// metadataKey is the reserved sibling key that carries the frozen snapshot
// metadata inside the stored configuration JSON. The flat-values-plus-
// "_metadata" shape is the durable on-disk contract for positions and must
// not change: previously stored proposals are read back through it.
const metadataKey = "_metadata"

// SnapshotParameter is one frozen parameter entry, locale-paired.
type SnapshotParameter struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	NameIt  string  `json:"nameIt"`
	Type    string  `json:"type"`
	Value   string  `json:"value"`
	ValueIt string  `json:"valueIt"`
	Unit    *string `json:"unit,omitempty"`
	Order   int     `json:"order"`
}

// SnapshotMetadata is the point-in-time copy of the catalog selection. Once
// written it is never mutated by catalog edits.
type SnapshotMetadata struct {
	CategoryName      string              `json:"categoryName"`
	CategoryNameIt    string              `json:"categoryNameIt"`
	SupplierName      *string             `json:"supplierName"`
	SupplierNameIt    *string             `json:"supplierNameIt"`
	SupplierLegalName string              `json:"supplierLegalName"`
	ModelValue        string              `json:"modelValue"`
	ModelValueIt      string              `json:"modelValueIt"`
	Parameters        []SnapshotParameter `json:"parameters"`
	CustomNotes       *string             `json:"customNotes,omitempty"`
}

// Configuration is a position's stored configuration: the raw selected
// values keyed by parameter identifier, plus the frozen snapshot metadata.
type Configuration struct {
	Values   map[string]any
	Metadata SnapshotMetadata
}

// MarshalJSON renders the two-part durable shape: the raw values flat at the
// top level with the metadata under the reserved "_metadata" key.
func (c Configuration) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Values)+1)
	for k, v := range c.Values {
		if k == metadataKey {
			continue
		}
		out[k] = v
	}
	out[metadataKey] = c.Metadata
	return json.Marshal(out)
}

// UnmarshalJSON reads the two-part shape back. Unknown top-level keys are raw
// values; the reserved key populates Metadata.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	c.Values = make(map[string]any, len(raw))
	c.Metadata = SnapshotMetadata{}
	for k, v := range raw {
		if k == metadataKey {
			if err := json.Unmarshal(v, &c.Metadata); err != nil {
				return fmt.Errorf("configuration metadata: %w", err)
			}
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("configuration value %q: %w", k, err)
		}
		c.Values[k] = val
	}
	return nil
}
