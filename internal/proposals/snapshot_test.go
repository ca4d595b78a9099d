package proposals

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offerta-app/offerta/internal/catalog"
)

func strPtr(s string) *string { return &s }

func windowContext() *catalog.SnapshotContext {
	return &catalog.SnapshotContext{
		Category: catalog.Category{ID: 1, Name: "Окна", NameIt: "Finestre"},
		Supplier: &catalog.Supplier{
			ShortName:   "Рехау",
			ShortNameIt: strPtr("Rehau"),
			LegalName:   "Rehau Industries SE",
		},
		Parameters: []catalog.Parameter{
			{
				ID: 10, Name: "Модель", NameIt: "Modello", Type: catalog.ParameterTypeSelect,
				IsModel: true, SortOrder: 0,
				Values: []catalog.ParameterValue{
					{ID: "m1", Value: "Блиц", ValueIt: "Blitz"},
				},
			},
			{
				ID: 11, Name: "Цвет", NameIt: "Colore", Type: catalog.ParameterTypeColor, SortOrder: 2,
				Values: []catalog.ParameterValue{
					{ID: "c1", Value: "Белый", ValueIt: "Bianco", RalCode: strPtr("RAL 9010")},
					{ID: "c2", Value: "Серый", ValueIt: "Grigio", RalCode: strPtr("RAL 7040")},
				},
			},
			{
				ID: 12, Name: "Ширина", NameIt: "Larghezza", Type: catalog.ParameterTypeNumber,
				Unit: strPtr("mm"), SortOrder: 1,
			},
		},
	}
}

func TestBuildSnapshotColorResolvesBothLocalesWithRal(t *testing.T) {
	sc := windowContext()
	config := BuildSnapshot(sc, map[string]any{
		"10": "m1",
		"11": "Bianco",
	}, nil)

	require.Len(t, config.Metadata.Parameters, 1)
	color := config.Metadata.Parameters[0]
	assert.Equal(t, "Белый (RAL 9010)", color.Value)
	assert.Equal(t, "Bianco (RAL 9010)", color.ValueIt)
	assert.Equal(t, "Цвет", color.Name)
	assert.Equal(t, "Colore", color.NameIt)
}

func TestBuildSnapshotModelLiftedOutOfParameterList(t *testing.T) {
	sc := windowContext()
	config := BuildSnapshot(sc, map[string]any{"10": "Блиц"}, nil)

	assert.Equal(t, "Блиц", config.Metadata.ModelValue)
	assert.Equal(t, "Blitz", config.Metadata.ModelValueIt)
	for _, p := range config.Metadata.Parameters {
		assert.NotEqual(t, int64(10), p.ID)
	}
}

func TestBuildSnapshotCategoryAndSupplierNames(t *testing.T) {
	sc := windowContext()
	config := BuildSnapshot(sc, nil, nil)

	assert.Equal(t, "Окна", config.Metadata.CategoryName)
	assert.Equal(t, "Finestre", config.Metadata.CategoryNameIt)
	require.NotNil(t, config.Metadata.SupplierName)
	assert.Equal(t, "Рехау", *config.Metadata.SupplierName)
	require.NotNil(t, config.Metadata.SupplierNameIt)
	assert.Equal(t, "Rehau", *config.Metadata.SupplierNameIt)
	assert.Equal(t, "Rehau Industries SE", config.Metadata.SupplierLegalName)
}

func TestBuildSnapshotNilSupplierDegrades(t *testing.T) {
	sc := windowContext()
	sc.Supplier = nil
	config := BuildSnapshot(sc, map[string]any{"12": 1200.0}, nil)

	assert.Nil(t, config.Metadata.SupplierName)
	assert.Nil(t, config.Metadata.SupplierNameIt)
	assert.Empty(t, config.Metadata.SupplierLegalName)
	require.Len(t, config.Metadata.Parameters, 1)
	assert.Equal(t, "1200", config.Metadata.Parameters[0].Value)
}

func TestBuildSnapshotLocaleFallback(t *testing.T) {
	sc := &catalog.SnapshotContext{
		Category: catalog.Category{ID: 2, Name: "Двери"},
		Parameters: []catalog.Parameter{
			{ID: 20, Name: "Материал", Type: catalog.ParameterTypeSelect, Values: []catalog.ParameterValue{
				{ID: "w", Value: "Дерево"},
			}},
		},
	}
	config := BuildSnapshot(sc, map[string]any{"20": "w"}, nil)

	assert.Equal(t, "Двери", config.Metadata.CategoryName)
	assert.Equal(t, "Двери", config.Metadata.CategoryNameIt)
	require.Len(t, config.Metadata.Parameters, 1)
	assert.Equal(t, "Дерево", config.Metadata.Parameters[0].Value)
	assert.Equal(t, "Дерево", config.Metadata.Parameters[0].ValueIt)
}

func TestBuildSnapshotMultiSelectJoined(t *testing.T) {
	sc := &catalog.SnapshotContext{
		Category: catalog.Category{ID: 3, Name: "Опции", NameIt: "Opzioni"},
		Parameters: []catalog.Parameter{
			{ID: 30, Name: "Фурнитура", NameIt: "Ferramenta", Type: catalog.ParameterTypeMultiSelect,
				Values: []catalog.ParameterValue{
					{ID: "a", Value: "Ручка", ValueIt: "Maniglia"},
					{ID: "b", Value: "Замок", ValueIt: "Serratura"},
				}},
		},
	}
	config := BuildSnapshot(sc, map[string]any{"30": []any{"a", "b"}}, nil)

	require.Len(t, config.Metadata.Parameters, 1)
	assert.Equal(t, "Ручка, Замок", config.Metadata.Parameters[0].Value)
	assert.Equal(t, "Maniglia, Serratura", config.Metadata.Parameters[0].ValueIt)
}

func TestBuildSnapshotUnmatchedValueFallsBackToRaw(t *testing.T) {
	sc := windowContext()
	config := BuildSnapshot(sc, map[string]any{"10": "m1", "11": "Rosso"}, nil)

	require.Len(t, config.Metadata.Parameters, 1)
	assert.Equal(t, "Rosso", config.Metadata.Parameters[0].Value)
	assert.Equal(t, "Rosso", config.Metadata.Parameters[0].ValueIt)
}

func TestBuildSnapshotEmptyValuesDropped(t *testing.T) {
	sc := windowContext()
	config := BuildSnapshot(sc, map[string]any{
		"10": "m1",
		"11": "",
		"12": nil,
	}, nil)

	assert.Empty(t, config.Metadata.Parameters)
}

func TestBuildSnapshotNotesLiftedAndStripped(t *testing.T) {
	sc := windowContext()
	config := BuildSnapshot(sc, map[string]any{
		"10":     "m1",
		"_notes": "установка до конца месяца",
	}, nil)

	require.NotNil(t, config.Metadata.CustomNotes)
	assert.Equal(t, "установка до конца месяца", *config.Metadata.CustomNotes)
	assert.NotContains(t, config.Values, "_notes")
}

func TestBuildSnapshotStaleMetadataStripped(t *testing.T) {
	sc := windowContext()
	config := BuildSnapshot(sc, map[string]any{
		"10":        "m1",
		"_metadata": map[string]any{"categoryName": "stale"},
	}, nil)

	assert.NotContains(t, config.Values, "_metadata")
	assert.Equal(t, "Окна", config.Metadata.CategoryName)
}

func TestBuildSnapshotParametersSortedByCatalogOrder(t *testing.T) {
	sc := windowContext()
	config := BuildSnapshot(sc, map[string]any{
		"10": "m1",
		"11": "c1",
		"12": 1500.0,
	}, nil)

	require.Len(t, config.Metadata.Parameters, 2)
	assert.Equal(t, int64(12), config.Metadata.Parameters[0].ID)
	assert.Equal(t, int64(11), config.Metadata.Parameters[1].ID)
}

func TestBuildSnapshotLooseModelMatchDeterministic(t *testing.T) {
	sc := &catalog.SnapshotContext{
		Category: catalog.Category{ID: 4, Name: "Ворота", NameIt: "Cancelli"},
	}
	values := map[string]any{
		"model_b": "Beta",
		"model_a": "Alpha",
	}
	for range 20 {
		config := BuildSnapshot(sc, values, nil)
		assert.Equal(t, "Alpha", config.Metadata.ModelValue)
	}
}

func TestBuildSnapshotWellKnownModelNameWithoutFlag(t *testing.T) {
	sc := &catalog.SnapshotContext{
		Category: catalog.Category{ID: 5, Name: "Жалюзи", NameIt: "Tende"},
		Parameters: []catalog.Parameter{
			{ID: 50, Name: "Модель", NameIt: "Modello", Type: catalog.ParameterTypeText},
		},
	}
	config := BuildSnapshot(sc, map[string]any{"50": "Roma"}, nil)

	assert.Equal(t, "Roma", config.Metadata.ModelValue)
	assert.Equal(t, "Roma", config.Metadata.ModelValueIt)
}

func TestConfigurationJSONRoundTrip(t *testing.T) {
	sc := windowContext()
	config := BuildSnapshot(sc, map[string]any{"10": "m1", "11": "c1"}, nil)

	data, err := json.Marshal(config)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Contains(t, parsed, "_metadata")
	assert.Equal(t, "m1", parsed["10"])

	var back Configuration
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, config.Metadata.ModelValue, back.Metadata.ModelValue)
	assert.Equal(t, config.Values["11"], back.Values["11"])
}
