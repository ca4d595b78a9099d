package proposals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offerta-app/offerta/internal/shared"
)

type stubStatusCatalog struct {
	statuses []Status
}

func (c *stubStatusCatalog) GetStatus(_ context.Context, _ int64, id int64) (*Status, error) {
	for i := range c.statuses {
		if c.statuses[i].ID == id {
			return &c.statuses[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (c *stubStatusCatalog) FindStatusByName(_ context.Context, _ int64, name string) (*Status, error) {
	for i := range c.statuses {
		if c.statuses[i].Name == name || c.statuses[i].NameIt == name {
			return &c.statuses[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (c *stubStatusCatalog) DefaultStatus(_ context.Context, _ int64, kind string) (*Status, error) {
	for i := range c.statuses {
		if c.statuses[i].Kind == kind && c.statuses[i].IsDefault {
			return &c.statuses[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func testStatuses() *stubStatusCatalog {
	return &stubStatusCatalog{statuses: []Status{
		{ID: 1, Kind: KindProposal, Name: "Черновик", NameIt: "Bozza", IsDefault: true},
		{ID: 2, Kind: KindProposal, Name: "Отправлено", NameIt: "Inviato"},
	}}
}

func TestResolveStatusExplicitIDWins(t *testing.T) {
	cat := testStatuses()
	id, text := ResolveStatus(context.Background(), cat, 1, strPtr("2"), strPtr("Черновик"), KindProposal, nil)
	require.NotNil(t, id)
	assert.Equal(t, int64(2), *id)
	require.NotNil(t, text)
	assert.Equal(t, "Отправлено", *text)
}

func TestResolveStatusByNameEitherLocale(t *testing.T) {
	cat := testStatuses()
	id, text := ResolveStatus(context.Background(), cat, 1, nil, strPtr("Inviato"), KindProposal, nil)
	require.NotNil(t, id)
	assert.Equal(t, int64(2), *id)
	require.NotNil(t, text)
	assert.Equal(t, "Отправлено", *text)
}

func TestResolveStatusUnparseableIDFallsToName(t *testing.T) {
	cat := testStatuses()
	id, _ := ResolveStatus(context.Background(), cat, 1, strPtr("draft"), strPtr("Отправлено"), KindProposal, nil)
	require.NotNil(t, id)
	assert.Equal(t, int64(2), *id)
}

func TestResolveStatusUnknownIDFallsThrough(t *testing.T) {
	cat := testStatuses()
	id, _ := ResolveStatus(context.Background(), cat, 1, strPtr("99"), nil, KindProposal, nil)
	require.NotNil(t, id)
	assert.Equal(t, int64(1), *id)
}

func TestResolveStatusDefaultApplied(t *testing.T) {
	cat := testStatuses()
	id, text := ResolveStatus(context.Background(), cat, 1, nil, nil, KindProposal, nil)
	require.NotNil(t, id)
	assert.Equal(t, int64(1), *id)
	require.NotNil(t, text)
	assert.Equal(t, "Черновик", *text)
}

func TestResolveStatusUnknownNameKeepsTextMirror(t *testing.T) {
	cat := testStatuses()
	id, text := ResolveStatus(context.Background(), cat, 1, nil, strPtr("Согласовано"), KindProposal, nil)
	// Falls through to the default, but the free text the caller supplied is
	// preserved as the legacy mirror.
	require.NotNil(t, id)
	assert.Equal(t, int64(1), *id)
	require.NotNil(t, text)
	assert.Equal(t, "Согласовано", *text)
}

func TestResolveStatusNothingResolvable(t *testing.T) {
	cat := &stubStatusCatalog{}
	id, text := ResolveStatus(context.Background(), cat, 1, nil, nil, KindProposal, nil)
	assert.Nil(t, id)
	assert.Nil(t, text)
}
