package proposals

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offerta-app/offerta/internal/catalog"
	"github.com/offerta-app/offerta/internal/observability"
	"github.com/offerta-app/offerta/internal/shared"
)

// mockRepo is an in-memory Repository. Transactions are a passthrough: the
// service's transactional behaviour is exercised against a real database in
// integration tests, this mock covers the assembly and cascade logic.
type mockRepo struct {
	*stubStatusCatalog
	seq    map[string]int64
	legacy []string
	docs   map[int64]*Document
	lastID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		stubStatusCatalog: testStatuses(),
		seq:               map[string]int64{},
		docs:              map[int64]*Document{},
	}
}

func (m *mockRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepo) NextNumber(_ context.Context, companyID int64, prefix string) (string, error) {
	key := fmt.Sprintf("%d:%s", companyID, prefix)
	if _, ok := m.seq[key]; !ok {
		var maxSeq int64
		for _, n := range m.legacy {
			if s, ok := ParseNumber(prefix, n); ok && s > maxSeq {
				maxSeq = s
			}
		}
		m.seq[key] = maxSeq
	}
	m.seq[key]++
	return FormatNumber(prefix, m.seq[key]), nil
}

func (m *mockRepo) SyncSequence(context.Context, int64, string) error { return nil }

func (m *mockRepo) GetDocument(_ context.Context, companyID, id int64) (*Document, error) {
	doc, ok := m.docs[id]
	if !ok || doc.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	return doc, nil
}

func (m *mockRepo) List(_ context.Context, req ListDocumentsRequest) ([]DocumentSummary, int, error) {
	var out []DocumentSummary
	for _, doc := range m.docs {
		if doc.CompanyID != req.CompanyID {
			continue
		}
		out = append(out, DocumentSummary{ID: doc.ID, Number: doc.Number, ClientID: doc.ClientID, Total: doc.Total})
	}
	return out, len(out), nil
}

func (m *mockRepo) CreateDocument(_ context.Context, doc Document) (int64, error) {
	m.lastID++
	doc.ID = m.lastID
	doc.Groups = nil
	m.docs[doc.ID] = &doc
	return doc.ID, nil
}

func (m *mockRepo) UpdateDocument(_ context.Context, id int64, updates map[string]any) error {
	doc, ok := m.docs[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["issue_date"]; ok {
		doc.IssueDate = v.(time.Time)
	}
	if v, ok := updates["manager_name"]; ok {
		name := v.(string)
		doc.ManagerName = &name
	}
	if v, ok := updates["vat_default"]; ok {
		doc.VatDefault = v.(float64)
	}
	if v, ok := updates["notes"]; ok {
		notes := v.(string)
		doc.Notes = &notes
	}
	if v, ok := updates["status_id"]; ok {
		doc.StatusID = v.(*int64)
	}
	if v, ok := updates["status_text"]; ok {
		doc.StatusText = v.(*string)
	}
	return nil
}

func (m *mockRepo) DeleteDocument(_ context.Context, companyID, id int64) error {
	doc, ok := m.docs[id]
	if !ok || doc.CompanyID != companyID {
		return shared.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *mockRepo) InsertGroup(_ context.Context, g Group) (int64, error) {
	doc, ok := m.docs[g.DocumentID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	m.lastID++
	g.ID = m.lastID
	g.Positions = nil
	doc.Groups = append(doc.Groups, g)
	return g.ID, nil
}

func (m *mockRepo) InsertPosition(_ context.Context, p Position) (int64, error) {
	for _, doc := range m.docs {
		for gi := range doc.Groups {
			if doc.Groups[gi].ID != p.GroupID {
				continue
			}
			m.lastID++
			p.ID = m.lastID
			doc.Groups[gi].Positions = append(doc.Groups[gi].Positions, p)
			return p.ID, nil
		}
	}
	return 0, shared.ErrNotFound
}

func (m *mockRepo) DeleteGroups(_ context.Context, documentID int64) error {
	doc, ok := m.docs[documentID]
	if !ok {
		return shared.ErrNotFound
	}
	doc.Groups = nil
	return nil
}

func (m *mockRepo) UpdatePositionTotals(_ context.Context, id int64, discountAmount, vatAmount, total float64) error {
	for _, doc := range m.docs {
		for gi := range doc.Groups {
			for pi := range doc.Groups[gi].Positions {
				p := &doc.Groups[gi].Positions[pi]
				if p.ID == id {
					p.DiscountAmount, p.VatAmount, p.Total = discountAmount, vatAmount, total
					return nil
				}
			}
		}
	}
	return shared.ErrNotFound
}

func (m *mockRepo) UpdateGroupTotals(_ context.Context, id int64, subtotal, discount, total float64) error {
	for _, doc := range m.docs {
		for gi := range doc.Groups {
			g := &doc.Groups[gi]
			if g.ID == id {
				g.Subtotal, g.Discount, g.Total = subtotal, discount, total
				return nil
			}
		}
	}
	return shared.ErrNotFound
}

func (m *mockRepo) UpdateDocumentTotals(_ context.Context, id int64, subtotal, discount, vatAmount, total float64) error {
	doc, ok := m.docs[id]
	if !ok {
		return shared.ErrNotFound
	}
	doc.Subtotal, doc.Discount, doc.VatAmount, doc.Total = subtotal, discount, vatAmount, total
	return nil
}

type stubCatalogProvider struct {
	contexts map[int64]*catalog.SnapshotContext
}

func (c *stubCatalogProvider) SnapshotContext(_ context.Context, _, categoryID, _ int64) (*catalog.SnapshotContext, error) {
	sc, ok := c.contexts[categoryID]
	if !ok {
		return nil, fmt.Errorf("catalog: category %d: %w", categoryID, shared.ErrNotFound)
	}
	return sc, nil
}

func newTestService(repo *mockRepo) *Service {
	cat := &stubCatalogProvider{contexts: map[int64]*catalog.SnapshotContext{
		1: windowContext(),
		2: {
			Category: catalog.Category{ID: 2, Name: "Подоконники", NameIt: "Davanzali"},
		},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, cat, logger, observability.NewMetrics(), "PROP", 22)
}

func exampleCreateRequest() CreateDocumentRequest {
	return CreateDocumentRequest{
		ClientID: 7,
		Groups: []CreateGroupRequest{
			{
				Name: "Гостиная",
				Positions: []CreatePositionRequest{
					{
						CategoryID:         1,
						SupplierCategoryID: 1,
						Values:             map[string]any{"10": "m1"},
						UnitPrice:          100,
						Quantity:           2,
						DiscountPct:        10,
					},
					{
						CategoryID:         2,
						SupplierCategoryID: 1,
						UnitPrice:          50,
					},
				},
			},
		},
	}
}

func TestServiceCreateDocument(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, exampleCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, "PROP-001", doc.Number)
	require.NotNil(t, doc.StatusID)
	assert.Equal(t, int64(1), *doc.StatusID)
	require.NotNil(t, doc.StatusText)
	assert.Equal(t, "Черновик", *doc.StatusText)

	require.Len(t, doc.Groups, 1)
	require.Len(t, doc.Groups[0].Positions, 2)

	// Omitted quantity defaults to 1, omitted VAT rate to the document default.
	p1 := doc.Groups[0].Positions[1]
	assert.Equal(t, 1, p1.Quantity)
	assert.InDelta(t, 22, p1.VatRate, 1e-9)

	g := doc.Groups[0]
	assert.InDelta(t, 250, g.Subtotal, 1e-9)
	assert.InDelta(t, 20, g.Discount, 1e-9)
	assert.InDelta(t, 230, g.Total, 1e-9)

	assert.InDelta(t, 250, doc.Subtotal, 1e-9)
	assert.InDelta(t, 20, doc.Discount, 1e-9)
	assert.InDelta(t, 50.6, doc.VatAmount, 1e-9)
	assert.InDelta(t, 280.6, doc.Total, 1e-9)

	// Snapshot frozen onto the position.
	p0 := doc.Groups[0].Positions[0]
	assert.Equal(t, "Блиц", p0.Configuration.Metadata.ModelValue)
	assert.Equal(t, "Blitz", p0.Configuration.Metadata.ModelValueIt)

	// Persisted state matches the returned aggregate.
	stored, err := repo.GetDocument(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	assert.InDelta(t, 280.6, stored.Total, 1e-9)
}

func TestServiceCreateNumbersAreSequential(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	first, err := svc.Create(context.Background(), 1, exampleCreateRequest())
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), 1, exampleCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, "PROP-001", first.Number)
	assert.Equal(t, "PROP-002", second.Number)
}

func TestServiceCreateContinuesLegacyNumbering(t *testing.T) {
	repo := newMockRepo()
	repo.legacy = []string{"PROP-042", "PROP-007"}
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, exampleCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "PROP-043", doc.Number)
}

func TestServiceCreateStructValidation(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), 1, CreateDocumentRequest{})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make(map[string]bool)
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["client_id"])
	assert.True(t, fields["groups"])
}

func TestServiceCreateUnknownCategory(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	req := exampleCreateRequest()
	req.Groups[0].Positions[1].CategoryID = 999
	_, err := svc.Create(context.Background(), 1, req)

	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "category_id", verr.Fields[0].Field)
	assert.Equal(t, 0, verr.Fields[0].Group)
	assert.Equal(t, 1, verr.Fields[0].Position)

	// Validation failed before anything was persisted.
	assert.Empty(t, repo.docs)
}

func TestServiceCreateModelParameterRequired(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	req := exampleCreateRequest()
	req.Groups[0].Positions[0].Values = map[string]any{}
	_, err := svc.Create(context.Background(), 1, req)

	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "values", verr.Fields[0].Field)
	assert.Equal(t, 0, verr.Fields[0].Group)
	assert.Equal(t, 0, verr.Fields[0].Position)
}

func TestServiceUpdateReplacesGroups(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, exampleCreateRequest())
	require.NoError(t, err)

	newGroups := []CreateGroupRequest{
		{
			Name: "Кухня",
			Positions: []CreatePositionRequest{
				{CategoryID: 2, SupplierCategoryID: 1, UnitPrice: 200, Quantity: 1},
			},
		},
	}
	updated, err := svc.Update(context.Background(), 1, doc.ID, UpdateDocumentRequest{Groups: &newGroups})
	require.NoError(t, err)

	require.Len(t, updated.Groups, 1)
	assert.Equal(t, "Кухня", updated.Groups[0].Name)
	assert.InDelta(t, 200, updated.Subtotal, 1e-9)
	assert.InDelta(t, 44, updated.VatAmount, 1e-9)
	assert.InDelta(t, 244, updated.Total, 1e-9)
}

func TestServiceUpdateHeaderOnlyKeepsGroups(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, exampleCreateRequest())
	require.NoError(t, err)

	notes := "действительно 30 дней"
	updated, err := svc.Update(context.Background(), 1, doc.ID, UpdateDocumentRequest{Notes: &notes})
	require.NoError(t, err)

	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)
	require.Len(t, updated.Groups, 1)
	assert.InDelta(t, 280.6, updated.Total, 1e-9)
}

func TestServiceUpdateStatusByName(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, exampleCreateRequest())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), 1, doc.ID, UpdateDocumentRequest{StatusName: strPtr("Inviato")})
	require.NoError(t, err)
	require.NotNil(t, updated.StatusID)
	assert.Equal(t, int64(2), *updated.StatusID)
}

func TestServiceUpdateNotFound(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), 1, 999, UpdateDocumentRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestServiceRecalculateMissingDocumentIsNoOp(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	doc, err := svc.Recalculate(context.Background(), 1, 999)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestServiceRecalculateRepairsDriftedTotals(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), 1, exampleCreateRequest())
	require.NoError(t, err)

	repo.docs[created.ID].Total = 0
	repo.docs[created.ID].Groups[0].Total = 0

	doc, err := svc.Recalculate(context.Background(), 1, created.ID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.InDelta(t, 230, doc.Groups[0].Total, 1e-9)
	assert.InDelta(t, 280.6, doc.Total, 1e-9)
}

func TestServiceDelete(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, exampleCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, doc.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), 1, doc.ID), shared.ErrNotFound)
}

func TestServiceDeleteWrongCompany(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	doc, err := svc.Create(context.Background(), 1, exampleCreateRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), 2, doc.ID), shared.ErrNotFound)
}
