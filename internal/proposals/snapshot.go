package proposals

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/offerta-app/offerta/internal/catalog"
)

// notesKey is the reserved raw-values key carrying the customer-facing free
// text of a position. It is lifted into the snapshot metadata and stripped
// from the stored values.
const notesKey = "_notes"

// Well-known names of the model parameter in either locale; used when the
// catalog does not flag one explicitly.
const (
	modelNameRu = "Модель"
	modelNameIt = "Modello"
)

// BuildSnapshot freezes a live catalog selection into a Configuration. The
// returned metadata is copy-on-create: later parameter renames, reorderings
// or deletions leave previously issued proposals untouched.
//
// Missing lookups never fail the build: an unmatched SELECT/COLOR value falls
// back to the raw value in both locales, an absent model parameter degrades
// to a loose raw-key match or empty model fields.
func BuildSnapshot(sc *catalog.SnapshotContext, rawValues map[string]any, logger *slog.Logger) Configuration {
	meta := SnapshotMetadata{
		CategoryName:   pickLocale(sc.Category.Name, sc.Category.NameIt),
		CategoryNameIt: pickLocale(sc.Category.NameIt, sc.Category.Name),
		Parameters:     []SnapshotParameter{},
	}

	if sc.Supplier != nil {
		name := sc.Supplier.ShortName
		nameIt := name
		if sc.Supplier.ShortNameIt != nil && *sc.Supplier.ShortNameIt != "" {
			nameIt = *sc.Supplier.ShortNameIt
		}
		meta.SupplierName = &name
		meta.SupplierNameIt = &nameIt
		meta.SupplierLegalName = sc.Supplier.LegalName
	}

	values := make(map[string]any, len(rawValues))
	for k, v := range rawValues {
		if k == metadataKey {
			continue
		}
		values[k] = v
	}

	if note, ok := values[notesKey]; ok {
		delete(values, notesKey)
		if s := coerceString(note); s != "" {
			meta.CustomNotes = &s
		}
	}

	modelParam := findModelParameter(sc.Parameters)
	for _, p := range sc.Parameters {
		raw, ok := rawValueFor(values, p)
		if !ok || isEmptyValue(raw) {
			continue
		}
		value, valueIt := resolveValue(p, raw)
		if value == "" && valueIt == "" {
			continue
		}
		if modelParam != nil && p.ID == modelParam.ID {
			meta.ModelValue = value
			meta.ModelValueIt = valueIt
			continue
		}
		entry := SnapshotParameter{
			ID:      p.ID,
			Name:    pickLocale(p.Name, p.NameIt),
			NameIt:  pickLocale(p.NameIt, p.Name),
			Type:    string(p.Type),
			Value:   value,
			ValueIt: valueIt,
			Unit:    p.Unit,
			Order:   p.SortOrder,
		}
		meta.Parameters = append(meta.Parameters, entry)
	}

	if modelParam == nil && meta.ModelValue == "" {
		if key, raw, ok := looseModelValue(values); ok {
			s := coerceString(raw)
			meta.ModelValue = s
			meta.ModelValueIt = s
			if logger != nil {
				logger.Warn("model parameter resolved by loose key match",
					slog.String("key", key),
					slog.Int64("category_id", sc.Category.ID))
			}
		}
	}

	sort.SliceStable(meta.Parameters, func(i, j int) bool {
		return meta.Parameters[i].Order < meta.Parameters[j].Order
	})

	return Configuration{Values: values, Metadata: meta}
}

// findModelParameter prefers the explicit catalog flag, then the well-known
// name in either locale.
func findModelParameter(params []catalog.Parameter) *catalog.Parameter {
	for i := range params {
		if params[i].IsModel {
			return &params[i]
		}
	}
	for i := range params {
		if params[i].Name == modelNameRu || params[i].NameIt == modelNameIt {
			return &params[i]
		}
	}
	return nil
}

// looseModelValue scans raw keys for something that looks like a model field.
// Keys are checked in sorted order so the fallback is deterministic; the
// ambiguity when several keys match is flagged by the caller's log line.
func looseModelValue(values map[string]any) (string, any, bool) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lower := strings.ToLower(k)
		if strings.Contains(lower, "model") || strings.Contains(lower, "модел") {
			if !isEmptyValue(values[k]) {
				return k, values[k], true
			}
		}
	}
	return "", nil, false
}

// rawValueFor locates the raw value of a parameter: primary key is the
// parameter id, with a name fallback for legacy submissions keyed by label.
func rawValueFor(values map[string]any, p catalog.Parameter) (any, bool) {
	if v, ok := values[strconv.FormatInt(p.ID, 10)]; ok {
		return v, true
	}
	if v, ok := values[p.Name]; ok {
		return v, true
	}
	if v, ok := values[p.NameIt]; ok {
		return v, true
	}
	return nil, false
}

// resolveValue produces the locale-paired display values for one parameter.
func resolveValue(p catalog.Parameter, raw any) (string, string) {
	switch p.Type {
	case catalog.ParameterTypeSelect, catalog.ParameterTypeColor:
		return resolveDeclared(p, coerceString(raw))
	case catalog.ParameterTypeMultiSelect:
		parts := coerceList(raw)
		vals := make([]string, 0, len(parts))
		valsIt := make([]string, 0, len(parts))
		for _, part := range parts {
			v, vIt := resolveDeclared(p, part)
			if v == "" && vIt == "" {
				continue
			}
			vals = append(vals, v)
			valsIt = append(valsIt, vIt)
		}
		return strings.Join(vals, ", "), strings.Join(valsIt, ", ")
	default:
		// TEXT and NUMBER carry the same value in both locales.
		s := coerceString(raw)
		return s, s
	}
}

// resolveDeclared matches a raw value against the parameter's declared value
// list by identifier or either locale's label. COLOR matches append the RAL
// code to both labels. An unmatched value falls back to the raw string.
func resolveDeclared(p catalog.Parameter, raw string) (string, string) {
	if raw == "" {
		return "", ""
	}
	for _, dv := range p.Values {
		if raw != dv.ID && raw != dv.Value && raw != dv.ValueIt {
			continue
		}
		value := pickLocale(dv.Value, dv.ValueIt)
		valueIt := pickLocale(dv.ValueIt, dv.Value)
		if p.Type == catalog.ParameterTypeColor && dv.RalCode != nil && *dv.RalCode != "" {
			value = fmt.Sprintf("%s (%s)", value, *dv.RalCode)
			valueIt = fmt.Sprintf("%s (%s)", valueIt, *dv.RalCode)
		}
		return value, valueIt
	}
	return raw, raw
}

func pickLocale(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func coerceList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := coerceString(v); s != "" {
			return []string{s}
		}
		return nil
	}
}

// isEmptyValue reports whether a raw value should be dropped from the
// snapshot: empty string, empty list or null.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	default:
		return false
	}
}
